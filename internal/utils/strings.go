package utils

import "strings"

// TrimOrEmpty normalizes user input without turning nil into "nil".
func TrimOrEmpty(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeSpace collapses repeated whitespace into a single space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeStationCode upper-cases and trims a station code for lookups.
func NormalizeStationCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
