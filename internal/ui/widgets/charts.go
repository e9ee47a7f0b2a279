package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/mo"
)

func Bar(v float64, width int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	fill := int(math.Round(v * float64(width)))

	if v > 0 && fill == 0 {
		fill = 1
	}

	if fill < 0 {
		fill = 0
	}
	if fill > width {
		fill = width
	}

	return strings.Repeat("█", fill) + strings.Repeat(" ", width-fill)
}

// Percent formats a utilization the way reports print it, "50.0%".
func Percent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// Gauge renders "[████      ] 42.0%" for a utilization in percent; over 100% fills the bar.
// Absent utilization renders as an empty string.
func Gauge(pct mo.Option[float64], width int) string {
	v, ok := pct.Get()
	if !ok {
		return ""
	}
	return "[" + Bar(v/100, width) + "] " + Percent(v)
}
