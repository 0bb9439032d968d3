package textutil

import (
	"strings"
	"unicode"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// pathSeparatorReplacer only touches path separators; the rest of a catalog
// name is preserved verbatim in the library layout.
var pathSeparatorReplacer = strings.NewReplacer("/", "-", "\\", "-")

// PathFragment makes a display name safe to use as a single path element.
// Separators become dashes so a name like "Input/Output" cannot create an
// extra directory level.
func PathFragment(name string) string {
	return strings.TrimSpace(pathSeparatorReplacer.Replace(NormalizeName(name)))
}

// SanitizeToken converts a display name into a lowercase token for log and
// lock file names. Letters and digits are kept (lowercased), hyphens and
// underscores pass through, anything else becomes an underscore. Leading and
// trailing separators are dropped; an empty result is "unknown".
func SanitizeToken(value string) string {
	token := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(value))
	if token = strings.Trim(token, "_-"); token == "" {
		return "unknown"
	}
	return token
}
