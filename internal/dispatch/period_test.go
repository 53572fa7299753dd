package dispatch

import (
	"testing"
	"time"

	"battery-sizing/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestPeriodKey(t *testing.T) {
	ts := time.Date(2024, 3, 9, 23, 45, 0, 0, time.UTC)
	assert.Equal(t, "2024-03", PeriodKey(ts, model.BillingMonthly))
	assert.Equal(t, "2024-03-09", PeriodKey(ts, model.BillingDaily))
}

func TestPartition(t *testing.T) {
	start := time.Date(2024, 1, 31, 22, 0, 0, 0, time.UTC)
	s := model.Uniform(start, 1, []float64{1, 2, 3, 4})

	keys, steps := Partition(s, model.BillingMonthly)
	assert.Equal(t, []string{"2024-01", "2024-02"}, keys)
	assert.Equal(t, []int{0, 1}, steps["2024-01"])
	assert.Equal(t, []int{2, 3}, steps["2024-02"])

	keys, _ = Partition(s, model.BillingDaily)
	assert.Equal(t, []string{"2024-01-31", "2024-02-01"}, keys)
}
