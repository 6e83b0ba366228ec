package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode_KnownValues(t *testing.T) {
	tests := []struct {
		id   int64
		want string
	}{
		{0, "0-0"},
		{7, "7-7"},
		{10, "10-1"},
		{19, "19-0"},
		{1234, "1234-0"},
		{4711, "4711-3"},
		{99999, "99999-5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Encode(tt.id))
	}
}

func TestEncode_Deterministic(t *testing.T) {
	for id := int64(0); id < 5000; id += 37 {
		assert.Equal(t, Encode(id), Encode(id))
	}
}

func TestDigit_CatchesSingleDigitTypos(t *testing.T) {
	base := int64(12345)
	d := Digit(base)
	// changing any one digit changes the sum by 1..9, never a multiple of 10
	for _, typo := range []int64{12346, 12355, 12445, 13345, 22345} {
		assert.NotEqual(t, d, Digit(typo), "typo %d", typo)
	}
}
