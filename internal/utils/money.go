package utils

import (
	"fmt"
	"strconv"
)

// FormatINR renders an integer rupee amount with Indian digit grouping,
// e.g. 1234567 -> "Rs. 12,34,567". The output stays ASCII because it ends
// up in PDFs whose core fonts only cover cp1252; the rupee sign U+20B9 is
// outside that set.
func FormatINR(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%sRs. %s", sign, groupIndian(amount))
}

// Indian grouping: last three digits, then pairs.
func groupIndian(n int64) string {
	str := strconv.FormatInt(n, 10)
	if len(str) <= 3 {
		return str
	}
	head, tail := str[:len(str)-3], str[len(str)-3:]
	out := ""
	for len(head) > 2 {
		out = "," + head[len(head)-2:] + out
		head = head[:len(head)-2]
	}
	return head + out + "," + tail
}
