package inventory

import (
	"strconv"
	"strings"
)

// FormatBerries renders an amount of berries with thousands separators, e.g. "1,250,000 berries".
//
// Precondition: total >= 0.
func FormatBerries(total int) string {
	digits := strconv.Itoa(total)
	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	if total == 1 {
		return b.String() + " berry"
	}
	return b.String() + " berries"
}
