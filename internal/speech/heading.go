package speech

import (
	"math"
	"strconv"
	"strings"
)

// SpellHeading rounds a heading to whole degrees (half to even) and spells
// it digit by digit, so 45.4 becomes "4 5" and 360 becomes "0".
func SpellHeading(degrees float64) string {
	deg := int(math.RoundToEven(degrees)) % 360
	if deg < 0 {
		deg += 360
	}

	digits := strconv.Itoa(deg)
	return strings.Join(strings.Split(digits, ""), " ")
}
