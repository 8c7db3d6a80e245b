package dataset

import (
	"math"
	"strconv"
)

// formatSigFigs formats v with prec significant digits.
func formatSigFigs(v float64, prec int) string {
	return strconv.FormatFloat(v, 'g', prec, 64)
}

// FormatNanos formats a nanosecond quantity using the largest unit that
// keeps it at or above one, e.g. "750ns", "1.5µs", "12ms", "3.2s".
func FormatNanos(ns int64) string {
	if ns == 0 {
		return "0"
	}

	v := float64(ns)
	abs := math.Abs(v)
	switch {
	case abs < 1e3:
		return strconv.FormatInt(ns, 10) + "ns"
	case abs < 1e6:
		return formatSigFigs(v/1e3, 3) + "µs"
	case abs < 1e9:
		return formatSigFigs(v/1e6, 3) + "ms"
	default:
		return formatSigFigs(v/1e9, 4) + "s"
	}
}

// FormatValue formats a y value for axes and tooltips.
func FormatValue(v float64) string {
	if v == 0 {
		return "0"
	}
	return formatSigFigs(v, 4)
}
