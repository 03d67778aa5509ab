package library

import (
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/Digital-Shane/title-sieve/internal/core"
)

var variablePattern = regexp.MustCompile(`\{([^}]+)\}`)

// Variable describes a placeholder the output folder template may use.
type Variable struct {
	Name        string
	Description string
	Example     string
}

// Variables are the placeholders the organizer fills in when it builds a
// destination folder. Only num is known at discovery time; the rest come from
// scraped metadata.
var Variables = []Variable{
	{Name: NumVariable, Description: "Title identifier", Example: "ABC-123"},
	{Name: "cid", Description: "Content id used by the store", Example: "abc00123"},
	{Name: "title", Description: "Title as published", Example: "Summer Story"},
	{Name: "actress", Description: "Performer names", Example: "Jane Doe"},
	{Name: "label", Description: "Label part of the identifier", Example: "ABC"},
	{Name: "producer", Description: "Producing studio", Example: "Studio"},
	{Name: "publisher", Description: "Distributing publisher", Example: "Publisher"},
	{Name: "year", Description: "Release year", Example: "2024"},
	{Name: "date", Description: "Release date", Example: "2024-05-01"},
	{Name: "genre", Description: "Genres joined by commas", Example: "Drama"},
	{Name: "serial", Description: "Series name", Example: "Series"},
	{Name: "director", Description: "Director", Example: "John Doe"},
}

// VariableHelp returns a one-line description of a placeholder.
func VariableHelp(name string) string {
	for _, v := range Variables {
		if v.Name == name {
			return fmt.Sprintf("%s (Example: %s)", v.Description, v.Example)
		}
	}
	return "Unknown variable"
}

// ValidateTemplate reports the first placeholder in pattern that is not a
// known variable, and rejects templates without {num}, since nothing could
// then be matched against the library.
func ValidateTemplate(pattern string) error {
	for _, match := range variablePattern.FindAllStringSubmatch(pattern, -1) {
		name := strings.TrimSpace(match[1])
		if !slices.ContainsFunc(Variables, func(v Variable) bool { return v.Name == name }) {
			return fmt.Errorf("unknown variable: {%s}", name)
		}
	}
	if !hasNum(pattern) {
		return fmt.Errorf("template %q has no {%s} placeholder", pattern, NumVariable)
	}
	return nil
}

// Render fills pattern with values. Every value is sanitized for profile so
// it stays a single path component. Placeholders without a value are left
// untouched. The result uses forward slashes.
func Render(pattern string, values map[string]string, profile string) string {
	normalized := strings.ReplaceAll(pattern, `\`, "/")
	out := variablePattern.ReplaceAllStringFunc(normalized, func(placeholder string) string {
		name := strings.TrimSpace(placeholder[1 : len(placeholder)-1])
		value, ok := values[name]
		if !ok {
			return placeholder
		}
		return core.Sanitize(strings.TrimSpace(value), profile)
	})
	if out == "" {
		return out
	}
	return path.Clean(out)
}
