package course

import (
	"fmt"
	"strings"

	"curator/internal/textutil"
)

// marketingKeywords are deleted from course names. Longer phrases come first
// so "The Complete" is removed whole rather than leaving "The".
var marketingKeywords = []string{
	"The Ultimate",
	"The Complete",
	"Ultimate",
	"Complete",
	"Mastering",
	"Mastery",
	"Series",
	"Course",
	"Bundle",
}

var dirNameReplacer = strings.NewReplacer(":", "-", "/", "-", "\\", "-")

// CanonicalName derives a library directory name from a course display name.
// Marketing keywords are deleted until none remain, whitespace runs collapse
// and colons become dashes. For a bundle member the name is then cut to
// start at the first case-insensitive "part". Applying it to its own output
// returns the output unchanged.
func CanonicalName(raw string, derivedChild bool) string {
	name := textutil.NormalizeName(raw)
	for {
		stripped := collapseSpaces(removeKeywords(name))
		if stripped == name {
			break
		}
		name = stripped
	}
	name = dirNameReplacer.Replace(name)
	if derivedChild {
		if idx := indexFoldASCII(name, "part"); idx >= 0 {
			name = name[idx:]
		}
	}
	return strings.TrimSpace(name)
}

func removeKeywords(name string) string {
	for _, keyword := range marketingKeywords {
		name = strings.ReplaceAll(name, keyword, "")
	}
	return name
}

func collapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// indexFoldASCII returns the byte offset of the first ASCII case-insensitive
// match of needle in s, or -1. needle must be lowercase ASCII.
func indexFoldASCII(s, needle string) int {
	for i := 0; i+len(needle) <= len(s); i++ {
		match := true
		for j := 0; j < len(needle); j++ {
			c := s[i+j]
			if c >= 'A' && c <= 'Z' {
				c += 'a' - 'A'
			}
			if c != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// positionalName renders "NN- name" for sections and lessons.
func positionalName(index int, name string) string {
	return fmt.Sprintf("%02d- %s", index, textutil.PathFragment(name))
}
