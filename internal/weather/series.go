package weather

import (
	"fmt"
	"time"
)

// Variable is an upstream series name such as "temperature_2m".
type Variable string

// TimeSeries is an index-aligned sequence of samples. Timestamps are strictly
// increasing and len(Values) == len(Timestamps).
type TimeSeries[T any] struct {
	Timestamps []time.Time `json:"time"`
	Values     []T         `json:"values"`
}

// Len returns the number of samples.
func (s TimeSeries[T]) Len() int {
	return len(s.Timestamps)
}

// ForwardIndex returns the smallest index whose timestamp is strictly after
// ref, or -1 when there is none.
func ForwardIndex(timestamps []time.Time, ref time.Time) int {
	for i, ts := range timestamps {
		if ts.After(ref) {
			return i
		}
	}
	return -1
}

// forwardWindow resolves the [start, end) slice bounds used by AlignForward.
// When no sample lies after ref the window starts at index 0.
func forwardWindow(timestamps []time.Time, ref time.Time, size int) (int, int) {
	if len(timestamps) == 0 || size <= 0 {
		return 0, 0
	}
	start := ForwardIndex(timestamps, ref)
	if start < 0 {
		start = 0
	}
	return start, min(start+size, len(timestamps))
}

// AlignForward returns at most size samples beginning with the first sample
// after ref. Empty input yields an empty series.
func AlignForward[T any](s TimeSeries[T], ref time.Time, size int) TimeSeries[T] {
	start, end := forwardWindow(s.Timestamps, ref, size)
	out := TimeSeries[T]{
		Timestamps: make([]time.Time, 0, end-start),
		Values:     make([]T, 0, end-start),
	}
	out.Timestamps = append(out.Timestamps, s.Timestamps[start:end]...)
	if len(s.Values) >= end {
		out.Values = append(out.Values, s.Values[start:end]...)
	}
	return out
}

// Bundle is a set of float series sharing one time axis. A nil element is an
// upstream null.
type Bundle struct {
	Timestamps []time.Time             `json:"time"`
	Values     map[Variable][]*float64 `json:"values"`
	Units      map[Variable]string     `json:"units,omitempty"`
}

// NewBundle returns an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{
		Timestamps: []time.Time{},
		Values:     make(map[Variable][]*float64),
		Units:      make(map[Variable]string),
	}
}

// Len returns the number of timestamps.
func (b *Bundle) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Timestamps)
}

func (b *Bundle) column(v Variable) TimeSeries[*float64] {
	return TimeSeries[*float64]{Timestamps: b.Timestamps, Values: b.Values[v]}
}

// At returns the value of v at index i, or nil.
func (b *Bundle) At(v Variable, i int) *float64 {
	col := b.Values[v]
	if i < 0 || i >= len(col) {
		return nil
	}
	return col[i]
}

// Validate checks the bundle invariants: strictly increasing timestamps and
// every column index-aligned with them.
func (b *Bundle) Validate() error {
	for i := 1; i < len(b.Timestamps); i++ {
		if !b.Timestamps[i].After(b.Timestamps[i-1]) {
			return fmt.Errorf("timestamps not strictly increasing at index %d", i)
		}
	}
	for v, col := range b.Values {
		if len(col) != len(b.Timestamps) {
			return fmt.Errorf("series %q has %d values for %d timestamps", v, len(col), len(b.Timestamps))
		}
	}
	return nil
}

// AllNull reports whether no column holds a single non-null value.
func (b *Bundle) AllNull() bool {
	for _, col := range b.Values {
		for _, v := range col {
			if v != nil {
				return false
			}
		}
	}
	return true
}

// AlignForward applies the same forward window to every column.
func (b *Bundle) AlignForward(ref time.Time, size int) *Bundle {
	out := NewBundle()
	for v, u := range b.Units {
		out.Units[v] = u
	}
	start, end := forwardWindow(b.Timestamps, ref, size)
	out.Timestamps = append(out.Timestamps, b.Timestamps[start:end]...)
	for v := range b.Values {
		out.Values[v] = AlignForward(b.column(v), ref, size).Values
	}
	return out
}
