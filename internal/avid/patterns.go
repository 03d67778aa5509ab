package avid

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Pattern compilation for identifier extraction. Every pattern runs against an
// upper-cased, noise-stripped basename unless noted otherwise.
var (
	// Noise removed before matching
	siteprefixRe = regexp.MustCompile(`(?i)^[\w.-]+\.(?:com|net|org|tv|xyz|me|cc)@`)
	noiseTagsRe  = regexp.MustCompile(`(?i)\b(?:\d{3,4}P|4K|8K|UHD|FHD|HD|X26[45]|H\.?26[45]|HEVC|AVC|AAC|WEB-?DL|HHB\d*)\b`)

	// Site specific forms
	fc2Re      = regexp.MustCompile(`FC2[^A-Z\d]{0,5}(?:PPV[^A-Z\d]{0,5})?(\d{5,7})`)
	heydougaRe = regexp.MustCompile(`HEYDOUGA[^A-Z\d]{0,5}(\d{4})[-_](\d{3,6})`)
	heyzoRe    = regexp.MustCompile(`HEYZO[^A-Z\d]{0,5}(\d{4})`)
	getchuRe   = regexp.MustCompile(`GETCHU[^A-Z\d]{0,5}(\d+)`)
	gyuttoRe   = regexp.MustCompile(`GYUTTO[^A-Z\d]{0,5}(\d+)`)

	// Uncensored studios use date style ids: 123456-789, 123456_01
	numericRe = regexp.MustCompile(`(?:^|[^\d])(\d{6})([-_])(\d{2,3})(?:[^\d]|$)`)

	// Generic label-number ids: ABC-123, ABC123, 300MIUM-001
	genericRe = regexp.MustCompile(`(?:^|[^A-Z\d])(\d{0,4}[A-Z]{2,10})[-_ ]?(\d{2,5})(?:[^\d]|$)`)

	// Content ids are matched against the lower-cased stem
	cidPartSuffixRe = regexp.MustCompile(`(?:[-_]\d|cd\d)$`)
	cidCharsetRe    = regexp.MustCompile(`^[a-z\d_]+$`)
	cidPlainRe      = regexp.MustCompile(`^[a-z\d]{7,19}$`)
	cidUnderscoreRe = regexp.MustCompile(`^(?:h_\d{3,4}[a-z]{1,10}\d{2,5}[a-z\d]{0,8}|\d{3}_\d{4,5}|s\d_\d{2}[a-z]{3,4}\d{5}|\d{1,4}[a-z]{2,4}\d{3,5})$`)
	hasLetterRe     = regexp.MustCompile(`[a-z]`)
	hasDigitRe      = regexp.MustCompile(`\d`)

	// Classification
	fc2ClassRe    = regexp.MustCompile(`(?i)^FC2-\d{5,7}$`)
	getchuClassRe = regexp.MustCompile(`(?i)^GETCHU-\d+`)
	gyuttoClassRe = regexp.MustCompile(`(?i)^GYUTTO-\d+`)
)

// stem returns the basename of path without its extension.
func stem(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i != -1 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// cleanForID strips site prefixes and quality tags that look like identifiers.
func cleanForID(name string) string {
	name = siteprefixRe.ReplaceAllString(name, "")
	name = noiseTagsRe.ReplaceAllString(name, " ")
	return strings.ToUpper(name)
}

// extractDVDID runs the id patterns from most to least specific.
func extractDVDID(path string) string {
	name := cleanForID(stem(path))
	if name == "" {
		return ""
	}

	if m := fc2Re.FindStringSubmatch(name); m != nil {
		return "FC2-" + m[1]
	}
	if m := heydougaRe.FindStringSubmatch(name); m != nil {
		return "HEYDOUGA-" + m[1] + "-" + m[2]
	}
	if m := heyzoRe.FindStringSubmatch(name); m != nil {
		return "HEYZO-" + m[1]
	}
	if m := getchuRe.FindStringSubmatch(name); m != nil {
		return "GETCHU-" + m[1]
	}
	if m := gyuttoRe.FindStringSubmatch(name); m != nil {
		return "GYUTTO-" + m[1]
	}
	if m := numericRe.FindStringSubmatch(name); m != nil {
		return m[1] + m[2] + m[3]
	}
	if m := genericRe.FindStringSubmatch(name); m != nil {
		return m[1] + "-" + m[2]
	}
	return ""
}

// extractCID matches the whole stem against the known content id shapes.
func extractCID(path string) string {
	possible := cidPartSuffixRe.ReplaceAllString(stem(path), "")
	if !cidCharsetRe.MatchString(possible) {
		return ""
	}

	if !strings.Contains(possible, "_") {
		if cidPlainRe.MatchString(possible) && hasLetterRe.MatchString(possible) && hasDigitRe.MatchString(possible) {
			return possible
		}
		return ""
	}
	if cidUnderscoreRe.MatchString(possible) {
		return possible
	}
	return ""
}
