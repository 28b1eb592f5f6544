package utils

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	urlPattern   = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
)

// ErrNotNumeric is returned for coordinates that are missing or not a number
var ErrNotNumeric = errors.New("value is not numeric")

// IsValidEmail checks the local@domain.tld shape
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidURL checks for an http(s) URL with a non-empty remainder
func IsValidURL(url string) bool {
	return urlPattern.MatchString(url)
}

// ParseCoordinate parses a submitted decimal-degree value
func ParseCoordinate(raw *string) (float64, error) {
	if raw == nil {
		return 0, ErrNotNumeric
	}
	s := strings.TrimSpace(*raw)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	return v, nil
}

// ParseISOTime parses an ISO-8601 timestamp, accepting a trailing Z as UTC.
// Values without an offset are read in loc.
func ParseISOTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		s = s[:len(s)-1] + "+00:00"
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
