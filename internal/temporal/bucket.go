// Package temporal samples archived daily corpora and digests into
// recency-weighted buckets.
package temporal

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidBuckets is returned for a bucket list that does not widen
// monotonically with falling sample rates.
var ErrInvalidBuckets = errors.New("invalid temporal buckets")

// Bucket is a window of history sampled at a fixed rate. MaxItems caps
// the articles taken per day and the digests taken per bucket; zero
// means no cap.
type Bucket struct {
	Name       string  `json:"name" yaml:"name"`
	DaysBack   int     `json:"days_back" yaml:"days_back"`
	SampleRate float64 `json:"sample_rate" yaml:"sample_rate"`
	MaxItems   int     `json:"max_items" yaml:"max_items"`
}

// DefaultBuckets returns the standard five windows from today to a year.
func DefaultBuckets() []Bucket {
	return []Bucket{
		{Name: "today", DaysBack: 1, SampleRate: 1.0},
		{Name: "last_week", DaysBack: 7, SampleRate: 0.75, MaxItems: 100},
		{Name: "last_month", DaysBack: 30, SampleRate: 0.5, MaxItems: 50},
		{Name: "last_quarter", DaysBack: 90, SampleRate: 0.25, MaxItems: 25},
		{Name: "last_year", DaysBack: 365, SampleRate: 0.10, MaxItems: 10},
	}
}

// ValidateBuckets checks that buckets are non-empty, that DaysBack is
// positive and strictly increasing and that SampleRate lies in [0,1] and
// strictly decreases.
func ValidateBuckets(buckets []Bucket) error {
	if len(buckets) == 0 {
		return fmt.Errorf("no buckets: %w", ErrInvalidBuckets)
	}
	for i, b := range buckets {
		if b.DaysBack <= 0 {
			return fmt.Errorf("bucket %q: days_back %d must be positive: %w", b.Name, b.DaysBack, ErrInvalidBuckets)
		}
		if b.SampleRate < 0 || b.SampleRate > 1 || math.IsNaN(b.SampleRate) {
			return fmt.Errorf("bucket %q: sample_rate %v outside [0,1]: %w", b.Name, b.SampleRate, ErrInvalidBuckets)
		}
		if b.MaxItems < 0 {
			return fmt.Errorf("bucket %q: max_items %d is negative: %w", b.Name, b.MaxItems, ErrInvalidBuckets)
		}
		if i == 0 {
			continue
		}
		prev := buckets[i-1]
		if b.DaysBack <= prev.DaysBack {
			return fmt.Errorf("bucket %q: days_back %d not after %d: %w", b.Name, b.DaysBack, prev.DaysBack, ErrInvalidBuckets)
		}
		if b.SampleRate >= prev.SampleRate {
			return fmt.Errorf("bucket %q: sample_rate %v not below %v: %w", b.Name, b.SampleRate, prev.SampleRate, ErrInvalidBuckets)
		}
	}
	return nil
}

// Window is the half-open interval [Start, End) a bucket covers.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies in the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Range returns the window of each bucket. Bucket i starts DaysBack days
// before now and ends where bucket i-1 starts, so the windows partition
// the year without overlap.
func Range(now time.Time, buckets []Bucket) []Window {
	windows := make([]Window, len(buckets))
	end := now
	for i, b := range buckets {
		start := now.AddDate(0, 0, -b.DaysBack)
		windows[i] = Window{Start: start, End: end}
		end = start
	}
	return windows
}

// TargetCount is the number of items StrideSample keeps from n items.
func TargetCount(n int, rate float64, max int) int {
	// The epsilon absorbs float error such as 70*0.1 = 7.000000000000001
	// in either direction.
	target := int(math.Floor(float64(n)*rate + 1e-9))
	if max > 0 && target > max {
		target = max
	}
	if target < 0 {
		target = 0
	}
	if target > n {
		target = n
	}
	return target
}

// StrideSample keeps TargetCount(len(items), rate, max) items, taking
// every len/target-th element starting at the first. The same input
// always yields the same sample.
func StrideSample[T any](items []T, rate float64, max int) []T {
	n := len(items)
	target := TargetCount(n, rate, max)
	if target == 0 {
		return nil
	}
	out := make([]T, target)
	if target == n {
		copy(out, items)
		return out
	}
	for i := 0; i < target; i++ {
		out[i] = items[i*n/target]
	}
	return out
}
