// Package latest selects the most recent observation per entity.
//
// The rule is shared by every indicator pipeline: for a grouping key, keep only the
// rows whose period equals the maximum period observed for that key. Ties at the
// maximum are all retained and the input order of the surviving rows is preserved.
package latest

import (
	"cmp"
	"time"
)

// Select returns the rows whose period equals the maximum period of their group.
//
// Example:
//
//	rows := []obs{{"KEN", 2019, 26.1}, {"KEN", 2021, 18.3}}
//	latest.Select(rows, func(o obs) string { return o.ISO }, func(o obs) int { return o.Year })
//	// → [{"KEN", 2021, 18.3}]
func Select[T any, K comparable, P cmp.Ordered](rows []T, key func(T) K, period func(T) P) []T {
	return selectBy(rows, key, period, func(a, b P) int { return cmp.Compare(a, b) })
}

// SelectTime is Select for time-valued periods.
func SelectTime[T any, K comparable](rows []T, key func(T) K, at func(T) time.Time) []T {
	return selectBy(rows, key, at, func(a, b time.Time) int { return a.Compare(b) })
}

func selectBy[T any, K comparable, P any](rows []T, key func(T) K, period func(T) P, compare func(a, b P) int) []T {
	if len(rows) == 0 {
		return nil
	}

	maxByKey := make(map[K]P, len(rows))
	for _, r := range rows {
		k := key(r)
		p := period(r)
		if cur, ok := maxByKey[k]; !ok || compare(p, cur) > 0 {
			maxByKey[k] = p
		}
	}

	out := make([]T, 0, len(maxByKey))
	for _, r := range rows {
		if compare(period(r), maxByKey[key(r)]) == 0 {
			out = append(out, r)
		}
	}
	return out
}

// MaxPeriods returns the maximum period observed for each key.
func MaxPeriods[T any, K comparable, P cmp.Ordered](rows []T, key func(T) K, period func(T) P) map[K]P {
	out := make(map[K]P)
	for _, r := range rows {
		k := key(r)
		if cur, ok := out[k]; !ok || period(r) > cur {
			out[k] = period(r)
		}
	}
	return out
}
