package utils

import "testing"

func TestTieredFare(t *testing.T) {
	cases := []struct {
		name      string
		total     int
		remaining int
		want      int64
	}{
		{"plenty left", 100, 80, 1000},
		{"just above half", 100, 51, 1000},
		{"half remaining", 100, 50, 1100},
		{"quarter remaining", 100, 25, 1250},
		{"last tenth", 100, 10, 1500},
		{"sold out", 100, 0, 1500},
		{"negative clamped", 100, -3, 1500},
	}
	for _, tc := range cases {
		if got := TieredFare(1000, tc.total, tc.remaining); got != tc.want {
			t.Errorf("%s: TieredFare = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestTieredFareZeroTotalFallsBackToBase(t *testing.T) {
	if got := TieredFare(750, 0, 0); got != 750 {
		t.Fatalf("TieredFare = %d, want base 750", got)
	}
}

func TestPNRFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		pnr := NewPNR()
		if !ValidPNR(pnr) {
			t.Fatalf("generated PNR %q fails its own format check", pnr)
		}
	}

	bad := []string{"", "123", "12345678901", "abcdefghij", "123456789x", "12345 7890"}
	for _, s := range bad {
		if ValidPNR(s) {
			t.Errorf("ValidPNR(%q) = true, want false", s)
		}
	}
	if !ValidPNR("0000000001") {
		t.Errorf("leading zeros must be legal")
	}
}

func TestFormatINR(t *testing.T) {
	cases := map[int64]string{
		0:        "Rs. 0",
		999:      "Rs. 999",
		1000:     "Rs. 1,000",
		123456:   "Rs. 1,23,456",
		1234567:  "Rs. 12,34,567",
		10000000: "Rs. 1,00,00,000",
		-4500:    "-Rs. 4,500",
	}
	for in, want := range cases {
		if got := FormatINR(in); got != want {
			t.Errorf("FormatINR(%d) = %s, want %s", in, got, want)
		}
	}
}

func TestFormatINRStaysASCII(t *testing.T) {
	// The ticket PDF uses core cp1252 fonts; amounts must not pick up
	// characters they cannot encode.
	for _, in := range []int64{0, 1, 999, 1234567, -987654321} {
		out := FormatINR(in)
		for i := 0; i < len(out); i++ {
			if out[i] > 0x7f {
				t.Fatalf("FormatINR(%d) = %q contains non-ASCII byte at %d", in, out, i)
			}
		}
	}
}
