package course

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"curator/internal/services"
)

var digitGroups = regexp.MustCompile(`\d+`)

// ParseDuration converts a catalog duration such as "4m 05s" into seconds.
// The first digit group is minutes and the second is seconds; an empty value
// is 0. Any other number of digit groups is ErrMalformedDuration.
func ParseDuration(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	groups := digitGroups.FindAllString(raw, -1)
	if len(groups) != 2 {
		return 0, services.Wrap(
			services.ErrMalformedDuration,
			"course",
			"parse duration",
			fmt.Sprintf("%q has %d digit groups, want 2", raw, len(groups)),
			nil,
		)
	}
	minutes, err := strconv.Atoi(groups[0])
	if err != nil {
		return 0, services.Wrap(services.ErrMalformedDuration, "course", "parse duration", fmt.Sprintf("minutes in %q", raw), err)
	}
	if minutes > math.MaxInt/60 {
		return 0, services.Wrap(services.ErrMalformedDuration, "course", "parse duration", fmt.Sprintf("minutes in %q overflow", raw), nil)
	}
	seconds, err := strconv.Atoi(groups[1])
	if err != nil {
		return 0, services.Wrap(services.ErrMalformedDuration, "course", "parse duration", fmt.Sprintf("seconds in %q", raw), err)
	}
	if seconds > math.MaxInt-60*minutes {
		return 0, services.Wrap(services.ErrMalformedDuration, "course", "parse duration", fmt.Sprintf("seconds in %q overflow", raw), nil)
	}
	return 60*minutes + seconds, nil
}

// FormatDuration renders seconds as "1h02m03s", "2m03s" or "45s".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
