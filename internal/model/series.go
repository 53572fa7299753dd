package model

import (
	"fmt"
	"math"
	"time"
)

// HoursPerYear converts series spans into years.
const HoursPerYear = 8760.0

// Point is one net-load sample in kW. Positive values are a deficit covered
// by the grid or the battery; negative values are PV surplus.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// NetLoadSeries is an ordered, uniformly stepped net-load series.
type NetLoadSeries []Point

// Validate checks that the series is non-empty, strictly increasing, free of
// gaps at the given step (hours) and contains only finite values.
func (s NetLoadSeries) Validate(stepHours float64) error {
	if len(s) == 0 {
		return &DataError{Index: -1, Reason: "empty series"}
	}
	step := time.Duration(math.Round(stepHours * float64(time.Hour)))
	for i, p := range s {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return &DataError{Index: i, Reason: fmt.Sprintf("non-finite value %v", p.Value)}
		}
		if i == 0 {
			continue
		}
		gap := p.Time.Sub(s[i-1].Time)
		if gap <= 0 {
			return &DataError{Index: i, Reason: "timestamps not strictly increasing"}
		}
		if gap != step {
			return &DataError{Index: i, Reason: fmt.Sprintf("step %s does not match decision step %s", gap, step)}
		}
	}
	return nil
}

// Values returns the bare net-load values.
func (s NetLoadSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Years is the span the series covers, in years of 8760 hours.
func (s NetLoadSeries) Years(stepHours float64) float64 {
	return float64(len(s)) * stepHours / HoursPerYear
}

// SameIndex reports whether both series have identical timestamps.
func (s NetLoadSeries) SameIndex(other NetLoadSeries) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !s[i].Time.Equal(other[i].Time) {
			return false
		}
	}
	return true
}

// Uniform builds a series starting at start with one point per value.
// Handy for tests and the demo.
func Uniform(start time.Time, stepHours float64, values []float64) NetLoadSeries {
	step := time.Duration(math.Round(stepHours * float64(time.Hour)))
	out := make(NetLoadSeries, len(values))
	for i, v := range values {
		out[i] = Point{Time: start.Add(time.Duration(i) * step), Value: v}
	}
	return out
}
