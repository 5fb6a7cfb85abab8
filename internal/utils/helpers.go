package utils

import "strconv"

// StrOrEmpty dereferences p, returning "" for nil.
func StrOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// FormatAmount renders an optional amount with two decimals, or "" for nil.
func FormatAmount(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
