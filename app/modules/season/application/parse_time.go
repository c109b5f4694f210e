package seasonservice

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var layouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"}

// ParseRolloverTime turns operator input such as "yesterday 18:00" or
// "2026-09-30 20:00" into an absolute time in loc. Empty input and "now"
// return now.
func ParseRolloverTime(input string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	trimmed := strings.TrimSpace(input)
	text := strings.ToLower(trimmed)
	if text == "" || text == "now" {
		return now, nil
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return t, nil
		}
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(text, now.In(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrUnrecognizedTime, input, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognizedTime, input)
	}
	return r.Time.In(loc), nil
}
