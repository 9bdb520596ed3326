// Package view derives the displayed sequence of a collection: a
// case-insensitive substring filter followed by a stable date sort.
//
// Apply is a pure function of its inputs.
package view

import (
	"sort"
	"strings"
	"time"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortKey is the active ordering.
type SortKey struct {
	Field     string
	Direction Direction
}

// Toggle flips the direction of k.
func (k SortKey) Toggle() SortKey {
	if k.Direction == Asc {
		k.Direction = Desc
	} else {
		k.Direction = Asc
	}
	return k
}

// Schema describes how a record type is filtered and sorted.
type Schema[T any] struct {
	// TimestampField names the field sorted by parsed date.
	TimestampField string
	// Timestamp extracts the raw timestamp text.
	Timestamp func(T) string
	// FilterFields extract the texts searched by the filter. Empty texts
	// never match.
	FilterFields []func(T) string
}

// DefaultKey sorts by the timestamp field, newest first.
func (s Schema[T]) DefaultKey() SortKey {
	return SortKey{Field: s.TimestampField, Direction: Desc}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// ParseDate parses a timestamp in any accepted layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Match reports whether rec passes filter.
func (s Schema[T]) Match(rec T, filter string) bool {
	needle := strings.ToLower(filter)
	if needle == "" {
		return true
	}
	for _, field := range s.FilterFields {
		text := field(rec)
		if text == "" {
			continue
		}
		if strings.Contains(strings.ToLower(text), needle) {
			return true
		}
	}
	return false
}

type entry[T any] struct {
	item  T
	index int
	at    time.Time
	valid bool
}

// Apply filters items and orders the survivors by key. Items are never
// modified and the input slice is not reordered.
func Apply[T any](items []T, filter string, key SortKey, schema Schema[T]) []T {
	entries := make([]entry[T], 0, len(items))
	for _, item := range items {
		if !schema.Match(item, filter) {
			continue
		}
		e := entry[T]{item: item, index: len(entries)}
		if schema.Timestamp != nil {
			e.at, e.valid = ParseDate(schema.Timestamp(item))
		}
		entries = append(entries, e)
	}

	if key.Field != "" && key.Field == schema.TimestampField && schema.Timestamp != nil {
		sort.Slice(entries, func(i, j int) bool {
			return lessByDate(entries[i], entries[j], key.Direction)
		})
	}

	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.item
	}
	return out
}

// lessByDate puts invalid timestamps last in both directions and breaks
// every tie on the original index.
func lessByDate[T any](a, b entry[T], dir Direction) bool {
	switch {
	case a.valid && !b.valid:
		return true
	case !a.valid && b.valid:
		return false
	case a.valid && b.valid && !a.at.Equal(b.at):
		if dir == Asc {
			return a.at.Before(b.at)
		}
		return a.at.After(b.at)
	}
	return a.index < b.index
}
