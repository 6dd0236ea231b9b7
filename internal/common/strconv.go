package common

import "strconv"

// AtoiDefault converts s to an integer, falling back to def when parsing fails.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// ParseInt64Default converts s to an int64, falling back to def when parsing fails.
func ParseInt64Default(s string, def int64) int64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return v
}
