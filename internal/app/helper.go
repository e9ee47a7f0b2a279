// internal/app/helper.go
package app

// clamp clamps v into [min, max].
func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// compute dynamic widths for the deployments table based on available total width
func (m *Model) deploymentColWidths(total int) (wNS, wName, wReady, wBar, wAvail int) {
	// fixed minimums (numbers and labels)
	minNS, minName, minReady, minAvail := 14, 20, 7, 10

	base := minNS + minName + minReady + minAvail
	remain := total - base
	if remain < 10 {
		remain = 10
	}

	// the bar takes half of what is left, the name gets the remainder
	wBar = remain / 2
	extra := remain - wBar

	wNS = minNS
	wName = minName + extra
	wReady = minReady
	wAvail = minAvail

	// sanity clamps
	wName = clamp(wName, 16, 60)
	wBar = clamp(wBar, 6, 40)
	return
}
