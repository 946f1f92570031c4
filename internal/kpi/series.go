package kpi

import (
	"fmt"
	"strings"

	"insuralytics/internal/core"
)

// Mode selects how each period's value is presented.
type Mode string

const (
	ModeAbsolute  Mode = "absolute"
	ModeIncrement Mode = "increment"
)

// ParseMode accepts the mode names case-insensitively. Empty means absolute.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAbsolute:
		return ModeAbsolute, nil
	case ModeIncrement:
		return ModeIncrement, nil
	default:
		return "", fmt.Errorf("invalid mode %q: must be %q or %q", s, ModeAbsolute, ModeIncrement)
	}
}

// Point is one period of a series. Mode is the mode actually applied,
// which is absolute for the first period of an increment series.
type Point struct {
	Period core.PeriodKey
	Mode   Mode
	Result core.KPIResult
}

// Series is a chronological KPI series plus the total over all records.
type Series struct {
	Points []Point
	Total  core.KPIResult
}

// BuildSeries groups records by week and computes one point per period.
func (c Calculator) BuildSeries(records []core.InsuranceRecord, mode Mode, target *float64) Series {
	g := Group(records)
	keys := g.Keys()
	s := Series{
		Points: make([]Point, 0, len(keys)),
		Total:  c.Calculate(records, target),
	}
	for i, k := range keys {
		cur := g.Records(k)
		if mode == ModeIncrement && i > 0 {
			prev := g.Records(keys[i-1])
			s.Points = append(s.Points, Point{Period: k, Mode: ModeIncrement, Result: c.CalculateIncrement(cur, prev, target)})
			continue
		}
		s.Points = append(s.Points, Point{Period: k, Mode: ModeAbsolute, Result: c.Calculate(cur, target)})
	}
	return s
}

// Latest returns the last point, if any.
func (s Series) Latest() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}
