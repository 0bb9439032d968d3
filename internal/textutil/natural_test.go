package textutil

import (
	"slices"
	"testing"
)

func TestNaturalLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"2.mp4", "10.mp4", true},
		{"10.mp4", "2.mp4", false},
		{"lesson 9", "lesson 10", true},
		{"a", "B", true},
		{"01.mp4", "1.mp4", false},
		{"1.mp4", "01.mp4", true},
		{"same", "same", false},
		{"abc", "abcd", true},
		{"99999999999999999999999", "100000000000000000000000", true},
	}
	for _, tt := range tests {
		if got := NaturalLess(tt.a, tt.b); got != tt.want {
			t.Errorf("NaturalLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSortNatural(t *testing.T) {
	paths := []string{"/cache/2.mp4", "/cache/10.mp4", "/cache/1.mp4"}
	SortNatural(paths)
	want := []string{"/cache/1.mp4", "/cache/2.mp4", "/cache/10.mp4"}
	if !slices.Equal(paths, want) {
		t.Fatalf("SortNatural = %v, want %v", paths, want)
	}
}
