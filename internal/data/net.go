package data

import "battery-sizing/internal/model"

// NetProfiles subtracts PV from load. A nil pv leaves load unchanged; a pv
// series on a different time index is a DataError.
func NetProfiles(load, pv model.NetLoadSeries) (model.NetLoadSeries, error) {
	if pv == nil {
		return load, nil
	}
	if !load.SameIndex(pv) {
		return nil, &model.DataError{Index: firstMismatch(load, pv), Reason: "load and pv series have different time indexes"}
	}
	out := make(model.NetLoadSeries, len(load))
	for i := range load {
		out[i] = model.Point{Time: load[i].Time, Value: load[i].Value - pv[i].Value}
	}
	return out, nil
}

func firstMismatch(a, b model.NetLoadSeries) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if !a[i].Time.Equal(b[i].Time) {
			return i
		}
	}
	return n
}
