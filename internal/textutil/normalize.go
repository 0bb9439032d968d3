package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName converts catalog display text to NFC and collapses runs of
// whitespace to a single space. Catalog pages mix composed and decomposed
// accents; paths built from both would otherwise differ byte-wise.
func NormalizeName(value string) string {
	return strings.Join(strings.Fields(norm.NFC.String(value)), " ")
}
