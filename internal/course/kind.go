package course

import (
	"strings"

	"curator/internal/catalog"
)

// MediaKind classifies a lesson by the kind of file that backs it.
type MediaKind int

const (
	Video MediaKind = iota + 1
	Document
	Other
)

func (k MediaKind) String() string {
	switch k {
	case Video:
		return "video"
	case Document:
		return "document"
	case Other:
		return "other"
	default:
		return "unknown"
	}
}

// DefaultDocumentKeywords are the lowercase name fragments that mark a
// non-video lesson as a document.
var DefaultDocumentKeywords = []string{"cheat sheet", "summary", "exercise"}

// Classifier derives a MediaKind from a raw lesson record.
type Classifier struct {
	keywords []string
}

// NewClassifier returns a classifier using keywords, or the defaults when
// keywords is empty. Keywords are matched against the lowercase lesson name.
func NewClassifier(keywords []string) Classifier {
	normalized := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		if keyword = strings.ToLower(strings.TrimSpace(keyword)); keyword != "" {
			normalized = append(normalized, keyword)
		}
	}
	if len(normalized) == 0 {
		normalized = append(normalized, DefaultDocumentKeywords...)
	}
	return Classifier{keywords: normalized}
}

// Classify returns Video for the catalog video type code, Document when the
// name contains a keyword and Other otherwise.
func (c Classifier) Classify(rawType int, name string) MediaKind {
	if rawType == catalog.LessonTypeVideo {
		return Video
	}
	keywords := c.keywords
	if len(keywords) == 0 {
		keywords = DefaultDocumentKeywords
	}
	lower := strings.ToLower(name)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return Document
		}
	}
	return Other
}
