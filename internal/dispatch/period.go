package dispatch

import (
	"time"

	"battery-sizing/internal/model"
)

// PeriodKey names the billing period a timestamp belongs to.
func PeriodKey(t time.Time, period model.BillingPeriod) string {
	if period == model.BillingDaily {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01")
}

// Partition groups step indices by billing period. Keys are returned in
// first-seen order, which is chronological for a valid series.
func Partition(series model.NetLoadSeries, period model.BillingPeriod) ([]string, map[string][]int) {
	var keys []string
	steps := make(map[string][]int)
	for i, p := range series {
		k := PeriodKey(p.Time, period)
		if _, ok := steps[k]; !ok {
			keys = append(keys, k)
		}
		steps[k] = append(steps[k], i)
	}
	return keys, steps
}
