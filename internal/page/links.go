package page

import (
	"path"
	"path/filepath"
	"strings"
)

// relLink computes the markdown link target from one generated file to
// another, both given as slash paths relative to the output root.
func relLink(fromFile, toFile string) string {
	rel, err := filepath.Rel(path.Dir(fromFile), toFile)
	if err != nil {
		// Fall back to a root-relative path; better a long link than none.
		return toFile
	}
	return filepath.ToSlash(rel)
}

// anchorText escapes the characters that would break a markdown link label.
func anchorText(s string) string {
	s = strings.ReplaceAll(s, "[", `\[`)
	s = strings.ReplaceAll(s, "]", `\]`)
	return s
}
