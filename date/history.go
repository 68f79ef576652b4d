package date

import (
	"iter"
	"slices"
)

// History stores a chronological series of values, each associated with a specific date.
// It ensures that dates are unique and the series is always sorted.
//
// A History is not safe for concurrent writes, but any number of readers can
// share it once it is no longer modified.
type History[T any] struct {
	days   []Date
	values []T
}

// search returns the position of day in the history, and whether it is there.
func (h *History[T]) search(day Date) (int, bool) {
	return slices.BinarySearchFunc(h.days, day, Date.Compare)
}

// Len returns the number of items in the history.
func (h *History[T]) Len() int { return len(h.days) }

// Clear removes all items from the history.
func (h *History[T]) Clear() {
	h.days = h.days[:0]
	h.values = h.values[:0]
}

// First returns the earliest date and value in the history.
// If the history is empty, it returns zero value.
func (h *History[T]) First() (day Date, value T) {
	if len(h.days) == 0 {
		return Date{}, value
	}
	return h.days[0], h.values[0]
}

// Latest returns the latest date and value in the history.
// If the history is empty, it returns zero value.
func (h *History[T]) Latest() (day Date, value T) {
	last := len(h.days) - 1
	if last < 0 {
		return Date{}, value
	}
	return h.days[last], h.values[last]
}

// Append adds a point to the history.
//
// Existing value at that date are overwritten.
func (h *History[T]) Append(on Date, v T) *History[T] {
	// Inputs are usually chronological: appending at the end is the fast path.
	if n := len(h.days); n == 0 || h.days[n-1].Before(on) {
		h.days, h.values = append(h.days, on), append(h.values, v)
		return h
	}
	i, found := h.search(on)
	if found {
		// We choose to replace, because it will give higher priority to the last data
		h.values[i] = v
		return h
	}
	h.days, h.values = slices.Insert(h.days, i, on), slices.Insert(h.values, i, v)
	return h
}

// Values returns an iterator over all date/value pairs in the history, in chronological order.
func (h *History[T]) Values() iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		for i, on := range h.days {
			if !yield(on, h.values[i]) {
				return
			}
		}
	}
}

// Between returns an iterator over the date/value pairs within r (boundaries included).
func (h *History[T]) Between(r Range) iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		i, _ := h.search(r.From)
		for ; i < len(h.days) && !h.days[i].After(r.To); i++ {
			if !yield(h.days[i], h.values[i]) {
				return
			}
		}
	}
}

// Get returns the value at 'day' and true or zero value and false.
func (h *History[T]) Get(day Date) (T, bool) {
	var value T
	if i, found := h.search(day); found {
		return h.values[i], true
	}
	return value, false
}

// ValueAsOf returns the value on a given day, or the most recent value before it.
// It returns the value and true if found, otherwise it returns the zero value and false.
func (h *History[T]) ValueAsOf(day Date) (T, bool) {
	_, v, ok := h.EntryAsOf(day)
	return v, ok
}

// EntryAsOf is like ValueAsOf but also returns the date the value was recorded on.
func (h *History[T]) EntryAsOf(day Date) (Date, T, bool) {
	i, found := h.search(day)
	if found {
		return h.days[i], h.values[i], true
	}
	// Not found. `i` is the index where `day` would be inserted.
	// The value we want is at `i-1`, which is the last entry before the target date.
	if i == 0 {
		var zero T
		return Date{}, zero, false // No date on or before the given day.
	}
	return h.days[i-1], h.values[i-1], true
}
