// Package quantity converts the cluster's compact CPU/memory notation into cores and bytes.
package quantity

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/mo"

	"github.com/HaPhanBaoMinh/sre/internal/domain"
)

var cpuSuffixes = []struct {
	suffix  string
	divisor float64
}{
	{"n", 1e9},
	{"u", 1e6},
	{"m", 1e3},
}

// binary suffixes must be tried before the single-letter decimal ones
var memorySuffixes = []struct {
	suffix string
	factor float64
}{
	{"Ki", 1 << 10},
	{"Mi", 1 << 20},
	{"Gi", 1 << 30},
	{"Ti", 1 << 40},
	{"K", 1e3},
	{"k", 1e3},
	{"M", 1e6},
	{"G", 1e9},
}

// CPUToCores converts "250m" to 0.25 and "2" to 2.
func CPUToCores(text string) (float64, error) {
	s := strings.TrimSpace(text)
	for _, u := range cpuSuffixes {
		if prefix, ok := strings.CutSuffix(s, u.suffix); ok {
			v, err := parseNumber(prefix, text)
			if err != nil {
				return 0, err
			}
			return v / u.divisor, nil
		}
	}
	return parseNumber(s, text)
}

// MemoryToBytes converts "2Gi" to 2*2^30 and "500M" to 500*10^6. Unsuffixed text is a byte count.
func MemoryToBytes(text string) (int64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, malformed(text, "empty")
	}
	for _, u := range memorySuffixes {
		if prefix, ok := strings.CutSuffix(s, u.suffix); ok {
			v, err := parseNumber(prefix, text)
			if err != nil {
				return 0, err
			}
			b := v * u.factor
			if b >= math.MaxInt64 || b < math.MinInt64 {
				return 0, malformed(text, "out of range")
			}
			return int64(b), nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, malformed(text, "unrecognized suffix or non-numeric value")
	}
	return n, nil
}

// Utilization returns usage/request*100 once both sides convert and the request is non-zero.
func Utilization[T int64 | float64](usage, request string, convert func(string) (T, error)) mo.Option[float64] {
	u, err := convert(usage)
	if err != nil {
		return mo.None[float64]()
	}
	r, err := convert(request)
	if err != nil || r == 0 {
		return mo.None[float64]()
	}
	pct := float64(u) / float64(r) * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return mo.None[float64]()
	}
	return mo.Some(pct)
}

func parseNumber(prefix, original string) (float64, error) {
	if prefix == "" {
		return 0, malformed(original, "missing numeric value")
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0, malformed(original, "non-numeric value")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, malformed(original, "not a finite number")
	}
	return v, nil
}

func malformed(text, why string) error {
	return errors.Mark(errors.Newf("quantity %q: %s", text, why), domain.ErrMalformedQuantity)
}
