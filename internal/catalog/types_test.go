package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"curator/internal/services"
)

func TestDecodePageAcceptsBarePageProps(t *testing.T) {
	data := []byte(`{"course":{"id":1,"name":"Bundle","type":"bundle"},"courses":[{"id":2,"slug":"part-1"},{"id":3,"slug":"part-2"}]}`)
	page, err := DecodePage(data)
	if err != nil {
		t.Fatalf("DecodePage returned error: %v", err)
	}
	if !page.IsBundle() {
		t.Fatal("expected bundle")
	}
	members := page.Members()
	if len(members) != 2 || members[0].Slug != "part-1" || members[1].Slug != "part-2" {
		t.Fatalf("unexpected members: %+v", members)
	}
}

func TestDecodePageMemberListWithoutCourseHeader(t *testing.T) {
	data := []byte(`{"props":{"pageProps":{"courses":[{"id":1,"slug":"a"},{"id":2,"slug":"b"}]}}}`)
	page, err := DecodePage(data)
	if err != nil {
		t.Fatalf("DecodePage returned error: %v", err)
	}
	if page.Course != nil || !page.IsBundle() {
		t.Fatalf("expected a headerless bundle, got %+v", page)
	}
	if members := page.Members(); len(members) != 2 || members[0].Slug != "a" || members[1].Slug != "b" {
		t.Fatalf("unexpected members: %+v", members)
	}
}

func TestDecodePageBundleContentsTakePrecedence(t *testing.T) {
	data := []byte(`{"course":{"id":1,"name":"Bundle","bundleContents":[{"id":9,"slug":"only"}]},"courses":[{"id":2,"slug":"ignored"}]}`)
	page, err := DecodePage(data)
	if err != nil {
		t.Fatalf("DecodePage returned error: %v", err)
	}
	if members := page.Members(); len(members) != 1 || members[0].Slug != "only" {
		t.Fatalf("unexpected members: %+v", members)
	}
}

func TestDecodePageValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `<html>`},
		{"no course", `{"props":{"pageProps":{"curriculum":[]}}}`},
		{"missing pageProps", `{"props":{}}`},
		{"unnamed course", `{"course":{"id":1},"curriculum":[{"name":"A","lessons":[]}]}`},
		{"no curriculum", `{"course":{"id":1,"name":"X"}}`},
		{"unnamed section", `{"course":{"id":1,"name":"X"},"curriculum":[{"name":" ","lessons":[]}]}`},
		{"unnamed lesson", `{"course":{"id":1,"name":"X"},"curriculum":[{"name":"A","lessons":[{"type":1}]}]}`},
		{"bundle member without slug", `{"course":{"id":1,"name":"X","type":"bundle"},"courses":[{"id":2}]}`},
		{"bundle without members", `{"course":{"id":1,"name":"X","type":"Bundle"}}`},
		{"headerless member without slug", `{"courses":[{"id":1,"slug":"a"},{"id":2}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePage([]byte(tt.data))
			if !errors.Is(err, services.ErrMalformedCatalog) {
				t.Fatalf("expected ErrMalformedCatalog, got %v", err)
			}
		})
	}
}

func TestFileClientDirectoryLookup(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "node-course.json"), []byte(leafPageData), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	client := NewFileClient(dir)

	page, err := client.Fetch(context.Background(), "node-course")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if page.Course.Name != "The Complete Node.js Course" {
		t.Fatalf("unexpected course: %+v", page.Course)
	}

	if _, err := client.Fetch(context.Background(), "other"); !errors.Is(err, services.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable for missing slug, got %v", err)
	}
	if _, err := client.Fetch(context.Background(), "../escape"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for path slug, got %v", err)
	}
}

func TestFileClientSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.json")
	if err := os.WriteFile(path, []byte(leafPageData), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	page, err := NewFileClient(path).Fetch(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(page.Curriculum) != 2 {
		t.Fatalf("unexpected curriculum length %d", len(page.Curriculum))
	}
}
