package avid

import "strings"

// duplicateSuffixes are cosmetic markers (subtitled, uncensored-subtitled)
// that do not make a title distinct. Order matters: "-UC" must be tried
// before "-C".
var duplicateSuffixes = []string{"-UC", "-C"}

// Normalize canonicalizes an identifier for duplicate comparison. It
// upper-cases and trims the input, then strips cosmetic suffixes until none
// remain, so "abc-123-c-uc" and "ABC-123-UC-C" both become "ABC-123".
// An empty input yields "".
func Normalize(raw string) string {
	id := strings.ToUpper(strings.TrimSpace(raw))
	for {
		stripped := false
		for _, suffix := range duplicateSuffixes {
			if strings.HasSuffix(id, suffix) {
				id = strings.TrimSpace(strings.TrimSuffix(id, suffix))
				stripped = true
				break
			}
		}
		if !stripped {
			return id
		}
	}
}
