package models

import (
	"fmt"

	"github.com/dmitrijs2005/dormnet/internal/common"
)

// Dormitories is indexed by registry wheim_id - 1.
var Dormitories = []string{
	"Wundstraße 5",
	"Wundstraße 7",
	"Wundstraße 9",
	"Wundstraße 11",
	"Wundstraße 1",
	"Wundstraße 3",
	"Zellescher Weg 41",
	"Zellescher Weg 41A",
	"Zellescher Weg 41B",
	"Zellescher Weg 41C",
	"Zellescher Weg 41D",
	"Borsbergstraße 34",
	"Zeunerstraße 1f",
}

// FormatAddress renders "<dormitory> / <floor> <room>". An unknown
// dormitory id yields "" and an ErrInvalidInput error.
func FormatAddress(dormitoryID, floor int, room string) (string, error) {
	if dormitoryID < 1 || dormitoryID > len(Dormitories) {
		return "", fmt.Errorf("%w: dormitory id %d", common.ErrInvalidInput, dormitoryID)
	}
	return fmt.Sprintf("%s / %d %s", Dormitories[dormitoryID-1], floor, room), nil
}
