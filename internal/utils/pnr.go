package utils

import "math/rand"

// PNRLength is the external PNR format: exactly ten decimal digits, carried
// as a string (leading zeros are legal).
const PNRLength = 10

// NewPNR draws a candidate PNR from the full 10-digit space. Uniqueness is
// enforced by the bookings unique key; callers retry on collision.
func NewPNR() string {
	buf := make([]byte, PNRLength)
	for i := range buf {
		buf[i] = byte('0' + rand.Intn(10))
	}
	return string(buf)
}

// ValidPNR reports whether s matches the external PNR format. Checked before
// any storage access.
func ValidPNR(s string) bool {
	if len(s) != PNRLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
