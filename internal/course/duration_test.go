package course

import (
	"errors"
	"strconv"
	"testing"

	"curator/internal/services"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"4m 5s", 245, false},
		{"12m 30s", 750, false},
		{"0m 0s", 0, false},
		{"1m 05s", 65, false},
		{"7:42", 462, false},
		{"", 0, false},
		{"   ", 0, false},
		{"5m", 0, true},
		{"1h 2m 3s", 0, true},
		{"soon", 0, true},
		{"153722867280912930m 0s", 0, true},
		{"99999999999999999999m 0s", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDuration(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, services.ErrMalformedDuration) {
					t.Fatalf("ParseDuration(%q) error = %v, want ErrMalformedDuration", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDuration(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("ParseDuration(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseDurationAllMinuteSecondPairs(t *testing.T) {
	for m := 0; m < 120; m += 7 {
		for s := 0; s < 60; s += 11 {
			raw := formatRaw(m, s)
			got, err := ParseDuration(raw)
			if err != nil {
				t.Fatalf("ParseDuration(%q): %v", raw, err)
			}
			if got != 60*m+s {
				t.Fatalf("ParseDuration(%q) = %d, want %d", raw, got, 60*m+s)
			}
		}
	}
}

func formatRaw(m, s int) string {
	return strconv.Itoa(m) + "m " + strconv.Itoa(s) + "s"
}

func TestFormatDuration(t *testing.T) {
	cases := map[int]string{0: "0s", 45: "45s", 125: "2m05s", 3723: "1h02m03s", -4: "0s"}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}
