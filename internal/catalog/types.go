package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"curator/internal/services"
)

// LessonTypeVideo is the raw lesson type code the catalog uses for videos.
const LessonTypeVideo = 1

// RawLesson is a lesson record as published by the catalog.
type RawLesson struct {
	Name     string `json:"name"`
	Type     int    `json:"type"`
	Duration string `json:"duration,omitempty"`
}

// RawSection is an ordered group of lessons.
type RawSection struct {
	Name    string      `json:"name"`
	Lessons []RawLesson `json:"lessons"`
}

// Summary identifies a bundle member.
type Summary struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name,omitempty"`
}

// RawCourse is the course header record.
type RawCourse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type,omitempty"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	BundleContents []Summary `json:"bundleContents,omitempty"`
}

// Page is the decoded props.pageProps payload of a catalog page.
type Page struct {
	Course     *RawCourse   `json:"course,omitempty"`
	Curriculum []RawSection `json:"curriculum,omitempty"`
	Courses    []Summary    `json:"courses,omitempty"`
}

// IsBundle reports whether the page describes a bundle of courses. A page
// listing member courses without a course header is a bundle too.
func (p Page) IsBundle() bool {
	if p.Course == nil {
		return len(p.Courses) > 0
	}
	return strings.EqualFold(p.Course.Type, "bundle") || len(p.Course.BundleContents) > 0 || len(p.Courses) > 0
}

// Members returns the bundle member summaries in catalog order.
func (p Page) Members() []Summary {
	if p.Course != nil && len(p.Course.BundleContents) > 0 {
		return p.Course.BundleContents
	}
	return p.Courses
}

// Validate checks that every field the course tree needs is present.
func (p Page) Validate() error {
	if p.Course == nil && len(p.Courses) == 0 {
		return malformed("page has no course record", nil)
	}
	label := "untitled"
	if p.Course != nil {
		if strings.TrimSpace(p.Course.Name) == "" {
			return malformed("course record has no name", nil)
		}
		label = p.Course.Name
	}
	if p.IsBundle() {
		members := p.Members()
		if len(members) == 0 {
			return malformed(fmt.Sprintf("bundle %q lists no member courses", label), nil)
		}
		for i, member := range members {
			if strings.TrimSpace(member.Slug) == "" {
				return malformed(fmt.Sprintf("bundle %q member %d has no slug", label, i+1), nil)
			}
		}
		return nil
	}
	if len(p.Curriculum) == 0 {
		return malformed(fmt.Sprintf("course %q has no curriculum", p.Course.Name), nil)
	}
	for i, section := range p.Curriculum {
		if strings.TrimSpace(section.Name) == "" {
			return malformed(fmt.Sprintf("course %q section %d has no name", p.Course.Name, i+1), nil)
		}
		for j, lesson := range section.Lessons {
			if strings.TrimSpace(lesson.Name) == "" {
				return malformed(fmt.Sprintf("section %q lesson %d has no name", section.Name, j+1), nil)
			}
		}
	}
	return nil
}

type pageData struct {
	Props *struct {
		PageProps json.RawMessage `json:"pageProps"`
	} `json:"props"`
}

// DecodePage decodes a page-data document. Both the full
// {"props":{"pageProps":...}} envelope and a bare pageProps object are accepted.
func DecodePage(data []byte) (Page, error) {
	var envelope pageData
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Page{}, malformed("decode page data", err)
	}
	payload := json.RawMessage(data)
	if envelope.Props != nil {
		if len(envelope.Props.PageProps) == 0 {
			return Page{}, malformed("page data has no props.pageProps", nil)
		}
		payload = envelope.Props.PageProps
	}
	var page Page
	if err := json.Unmarshal(payload, &page); err != nil {
		return Page{}, malformed("decode pageProps", err)
	}
	if err := page.Validate(); err != nil {
		return Page{}, err
	}
	return page, nil
}

func malformed(message string, err error) error {
	return services.Wrap(services.ErrMalformedCatalog, "catalog", "decode", message, err)
}
