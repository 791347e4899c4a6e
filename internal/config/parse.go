package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRateLimit converts a wget style rate such as "300k" or "2M" into
// bytes per second. Suffixes are case-insensitive multiples of 1024.
// An empty string means no limit and yields 0.
func ParseRateLimit(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, nil
	}

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "k"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "m")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRateLimit, s)
	}
	return n * multiplier, nil
}

// SplitList splits a comma separated flag value, trimming blanks and
// dropping empty entries. "pdf, ,zip" yields ["pdf", "zip"].
func SplitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
