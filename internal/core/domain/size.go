package domain

import "fmt"

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatSize renders a byte count with base-1024 units and two decimals, e.g. "1.46 KB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}

	return fmt.Sprintf("%.2f %s", value, sizeUnits[unit])
}

// Reduction returns how much smaller optimized is than selected, in percent. The result is only defined for a
// positive selected size.
func Reduction(selected, optimized int64) (float64, bool) {
	if selected <= 0 {
		return 0, false
	}

	return float64(selected-optimized) / float64(selected) * 100, true
}

// FormatReduction renders Reduction with one decimal, or an empty string when it is undefined.
func FormatReduction(selected, optimized int64) string {
	r, ok := Reduction(selected, optimized)
	if !ok {
		return ""
	}

	return fmt.Sprintf("%.1f%%", r)
}
