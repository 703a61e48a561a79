// Package slug derives filesystem-safe output filenames from the original
// names reported by the files API.
package slug

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Ext is the fixed extension appended to every generated filename.
const Ext = ".txt"

var separatorRuns = regexp.MustCompile(`[\s_-]+`)

// Make converts an arbitrary original filename into a deterministic,
// filesystem-safe slug with the fixed output extension.
//
// The original extension is stripped, the name is NFKD-decomposed so accented
// characters reduce to their base letters, combining marks and anything
// outside [a-z0-9_ -] is dropped, and runs of whitespace, underscores, and
// hyphens collapse to a single hyphen.
//
// Make is a pure function and never fails; an empty or fully-stripped input
// degrades to the bare extension.
//
//	Make("Café Menu (Final).docx") // "cafe-menu-final.txt"
//	Make("")                       // ".txt"
func Make(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	decomposed := norm.NFKD.String(stem)
	lower := strings.ToLower(decomposed)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from decomposition
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-' || unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}

	collapsed := separatorRuns.ReplaceAllString(b.String(), "-")
	trimmed := strings.Trim(collapsed, "-")

	return trimmed + Ext
}
