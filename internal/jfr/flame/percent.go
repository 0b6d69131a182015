package flame

import (
	"fmt"
	"math"
	"math/bits"
)

// Percent formats value as a percentage of total with two decimals,
// rounding half up. It is exact for every int64 input.
func Percent(value, total int64) string {
	if total <= 0 {
		return "0.00"
	}
	neg := value < 0
	v := uint64(value)
	if neg {
		v = uint64(-value)
	}
	// hundredths = round(v * 10000 / total) = (v*20000 + total) / (2*total)
	hi, lo := bits.Mul64(v, 20000)
	var carry uint64
	lo, carry = bits.Add64(lo, uint64(total), 0)
	hi += carry
	den := 2 * uint64(total)
	var q uint64
	if hi >= den {
		q = math.MaxUint64
	} else {
		q, _ = bits.Div64(hi, lo, den)
	}
	sign := ""
	if neg && q != 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%02d", sign, q/100, q%100)
}
