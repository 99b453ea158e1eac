package structure

import (
	"regexp"
	"strings"
)

var (
	arityRe    = regexp.MustCompile("`+[0-9]+$")
	illegalRe  = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	collapseRe = regexp.MustCompile(`-{2,}`)
	whitespace = regexp.MustCompile(`\s+`)
	trimDashRe = regexp.MustCompile(`^-+|-+$`)
)

// Sanitize maps a declared name onto a filesystem-safe file or folder name.
//
// The generic-arity suffix is stripped first ("List`1" -> "List"), then
// whitespace runs and filesystem-illegal characters become a single "-".
// Pure function of its input; the whole generator depends on that for
// determinism.
func Sanitize(name string) string {
	s := arityRe.ReplaceAllString(name, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = illegalRe.ReplaceAllString(s, "-")
	s = collapseRe.ReplaceAllString(s, "-")
	s = trimDashRe.ReplaceAllString(s, "")
	if s == "" {
		return "unnamed"
	}
	return s
}

// SanitizePath sanitizes each segment of a dotted name independently and
// joins them with dots, preserving namespace separators in display paths.
func SanitizePath(dotted string) string {
	parts := strings.Split(dotted, ".")
	for i, p := range parts {
		parts[i] = Sanitize(p)
	}
	return strings.Join(parts, ".")
}
