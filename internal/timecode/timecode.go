// Package timecode converts between human-readable recording offsets
// ("M:SS", "H:MM:SS") and a numeric offset in seconds.
package timecode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedTimestamp is returned by ParseStrict. Parse swallows it and
// yields a zero TimeCode instead.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// MaxSeconds bounds every offset, roughly 31 years of recording. Larger
// components are malformed rather than overflowing.
const MaxSeconds = 1e9

// TimeCode is a non-negative offset into a recording.
type TimeCode struct {
	seconds float64
}

// FromSeconds builds a TimeCode, clamping negative and NaN input to zero and
// anything past MaxSeconds to MaxSeconds.
func FromSeconds(s float64) TimeCode {
	switch {
	case s < 0 || math.IsNaN(s):
		return TimeCode{}
	case s > MaxSeconds:
		return TimeCode{seconds: MaxSeconds}
	}
	return TimeCode{seconds: s}
}

// FromDuration builds a TimeCode from a time.Duration.
func FromDuration(d time.Duration) TimeCode {
	return FromSeconds(d.Seconds())
}

func (t TimeCode) Seconds() float64 { return t.seconds }

func (t TimeCode) Duration() time.Duration {
	return time.Duration(t.seconds * float64(time.Second))
}

// Parse reads "MM:SS" or "HH:MM:SS". Anything it cannot read becomes 0:00.
// Callers that need to know about the fallback use ParseStrict.
func Parse(s string) TimeCode {
	t, _ := ParseStrict(s)
	return t
}

// ParseStrict reads "MM:SS" or "HH:MM:SS". Hours and minutes are
// non-negative integers, seconds may be fractional.
func ParseStrict(s string) (TimeCode, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")

	var hours, minutes int64
	var secs float64
	var err error

	switch len(parts) {
	case 2:
		if minutes, err = parseWhole(parts[0]); err != nil {
			break
		}
		secs, err = parseSeconds(parts[1])
	case 3:
		if hours, err = parseWhole(parts[0]); err != nil {
			break
		}
		if minutes, err = parseWhole(parts[1]); err != nil {
			break
		}
		secs, err = parseSeconds(parts[2])
	default:
		err = fmt.Errorf("want 2 or 3 colon-separated parts, got %d", len(parts))
	}
	if err != nil {
		return TimeCode{}, fmt.Errorf("%w %q: %v", ErrMalformedTimestamp, s, err)
	}

	total := float64(hours)*3600 + float64(minutes)*60 + secs
	if total > MaxSeconds {
		return TimeCode{}, fmt.Errorf("%w %q: offset beyond %.0fs", ErrMalformedTimestamp, s, float64(MaxSeconds))
	}
	return TimeCode{seconds: total}, nil
}

func parseWhole(p string) (int64, error) {
	n, err := strconv.ParseInt(p, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative component %q", p)
	}
	if n > MaxSeconds {
		return 0, fmt.Errorf("component %q out of range", p)
	}
	return n, nil
}

func parseSeconds(p string) (float64, error) {
	// ParseFloat accepts "Inf", "NaN" and exponents; seconds are plain decimals.
	if p == "" || strings.ContainsAny(p, "eEnNiI+-xXpP_") {
		return 0, fmt.Errorf("invalid seconds %q", p)
	}
	f, err := strconv.ParseFloat(p, 64)
	if err != nil {
		return 0, err
	}
	if f > MaxSeconds {
		return 0, fmt.Errorf("seconds %q out of range", p)
	}
	return f, nil
}

// Format renders t as "M:SS". Hours fold into minutes and fractional seconds
// are dropped, so an "H:MM:SS" input does not come back in the same shape.
func Format(t TimeCode) string {
	total := int64(math.Floor(t.seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func (t TimeCode) String() string { return Format(t) }

// Compare orders TimeCodes by their numeric offset.
func Compare(a, b TimeCode) int {
	switch {
	case a.seconds < b.seconds:
		return -1
	case a.seconds > b.seconds:
		return 1
	default:
		return 0
	}
}

func (t TimeCode) Before(o TimeCode) bool { return t.seconds < o.seconds }

func (t TimeCode) MarshalText() ([]byte, error) {
	return []byte(Format(t)), nil
}

// UnmarshalText follows Parse: malformed text becomes 0:00.
func (t *TimeCode) UnmarshalText(b []byte) error {
	*t = Parse(string(b))
	return nil
}
