package gradebook

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Average is the mean of the numeric grades, rounded to one decimal.
// Blank and non-numeric cells are ungraded and do not count; "0" does.
// No numeric grade at all gives 0.
func Average(grades map[string]string) float64 {
	values := make([]float64, 0, len(grades))
	for _, raw := range grades {
		if v, ok := ParseGrade(raw); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0
	}

	// map order is random; summing in a fixed order keeps the rounding stable
	sort.Float64s(values)
	var total float64
	for _, v := range values {
		total += v
	}
	return Round1(total / float64(len(values)))
}

// ParseGrade parses a cell value, reporting false for ungraded cells.
func ParseGrade(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
