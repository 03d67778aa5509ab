package core

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"

	"github.com/Digital-Shane/title-sieve/internal/config"
)

// confusables maps each filesystem profile to the characters it forbids in a
// name and the look-alike that replaces them.
var confusables = map[string]*strings.Replacer{
	config.ProfileWindows: strings.NewReplacer(
		"<", "❮",
		">", "❯",
		":", "：",
		`"`, "″",
		"/", "／",
		`\`, "＼",
		"|", "｜",
		"?", "？",
		"*", "꘎",
	),
	config.ProfileDarwin: strings.NewReplacer(":", "："),
	config.ProfileLinux:  strings.NewReplacer("/", "／"),
}

// dotRunRe matches runs of periods that would read as a parent reference.
var dotRunRe = regexp.MustCompile(`\.{2,}`)

// ResolveProfile turns a configured filesystem profile into a concrete one.
// ProfileAuto picks the table for the running platform; anything that is not
// Windows or macOS is treated as Linux.
func ResolveProfile(profile string) (string, error) {
	switch profile {
	case config.ProfileWindows, config.ProfileDarwin, config.ProfileLinux:
		return profile, nil
	case config.ProfileAuto, "":
		switch runtime.GOOS {
		case "windows":
			return config.ProfileWindows, nil
		case "darwin":
			return config.ProfileDarwin, nil
		default:
			return config.ProfileLinux, nil
		}
	default:
		return "", fmt.Errorf("unknown filesystem profile %q", profile)
	}
}

// Sanitize replaces characters the profile forbids in a single path component
// with visually similar ones, and collapses runs of periods into an ellipsis.
// Unknown profiles fall back to the Linux table.
func Sanitize(name, profile string) string {
	resolved, err := ResolveProfile(profile)
	if err != nil {
		resolved = config.ProfileLinux
	}
	name = confusables[resolved].Replace(name)
	if strings.Contains(name, "..") {
		name = dotRunRe.ReplaceAllString(name, "…")
	}
	return name
}
