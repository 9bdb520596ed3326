// Package refs resolves cross-record references to display names.
//
// A reference field may hold either the target's identifier or its display
// name. Resolution tries an exact identifier match, then an exact name match,
// and finally passes the raw value through unchanged.
package refs

// Resolver resolves references against a fixed set of targets.
type Resolver[T any] struct {
	byID   map[string]T
	byName map[string]T
	id     func(T) string
	name   func(T) string
}

// New indexes targets by identifier and by name. When several targets share
// a key the first one wins.
func New[T any](targets []T, id, name func(T) string) *Resolver[T] {
	r := &Resolver[T]{
		byID:   make(map[string]T, len(targets)),
		byName: make(map[string]T, len(targets)),
		id:     id,
		name:   name,
	}
	for _, t := range targets {
		if k := id(t); k != "" {
			if _, seen := r.byID[k]; !seen {
				r.byID[k] = t
			}
		}
		if k := name(t); k != "" {
			if _, seen := r.byName[k]; !seen {
				r.byName[k] = t
			}
		}
	}
	return r
}

// Lookup returns the target referenced by ref.
func (r *Resolver[T]) Lookup(ref string) (T, bool) {
	if r != nil && ref != "" {
		if t, ok := r.byID[ref]; ok {
			return t, true
		}
		if t, ok := r.byName[ref]; ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// Name returns the display name for ref, or ref itself when nothing matches
// or the match has no name.
func (r *Resolver[T]) Name(ref string) string {
	t, ok := r.Lookup(ref)
	if !ok {
		return ref
	}
	if n := r.name(t); n != "" {
		return n
	}
	return ref
}

// ID returns the identifier for ref, or ref itself when nothing matches.
func (r *Resolver[T]) ID(ref string) string {
	t, ok := r.Lookup(ref)
	if !ok {
		return ref
	}
	return r.id(t)
}
