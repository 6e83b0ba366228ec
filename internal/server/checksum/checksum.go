// Package checksum renders account ids with a trailing check digit, the
// form printed on membership cards and contracts.
package checksum

import (
	"strconv"
)

// Digit returns the check digit of id: the sum of its decimal digits
// modulo 10. The rule is fixed; ids issued on paper depend on it.
func Digit(id int64) int {
	if id < 0 {
		id = -id
	}
	sum := 0
	for _, c := range strconv.FormatInt(id, 10) {
		sum += int(c - '0')
	}
	return sum % 10
}

// Encode returns "<id>-<digit>".
func Encode(id int64) string {
	return strconv.FormatInt(id, 10) + "-" + strconv.Itoa(Digit(id))
}
