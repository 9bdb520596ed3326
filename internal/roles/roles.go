// Package roles ranks role names. A lower level ranks higher.
package roles

import (
	"sort"
	"strings"
)

// Unknown is the level of any role missing from the hierarchy.
const Unknown = 99

// Hierarchy maps normalized role names to levels.
type Hierarchy struct {
	levels map[string]int
}

// New builds a Hierarchy from a name to level mapping. Names are matched
// case-insensitively with surrounding whitespace ignored.
func New(levels map[string]int) Hierarchy {
	h := Hierarchy{levels: make(map[string]int, len(levels))}
	for name, level := range levels {
		h.levels[normalize(name)] = level
	}
	return h
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Level returns the rank of role, or Unknown.
func (h Hierarchy) Level(role string) int {
	if level, ok := h.levels[normalize(role)]; ok && level > 0 {
		return level
	}
	return Unknown
}

// CanAssign reports whether a user with role actor may assign work to a
// user with role target: the target must not outrank the actor.
func (h Hierarchy) CanAssign(actor, target string) bool {
	return h.Level(target) >= h.Level(actor)
}

// Assignable filters users down to those the actor may assign to,
// preserving order.
func Assignable[T any](h Hierarchy, actor string, users []T, role func(T) string) []T {
	out := make([]T, 0, len(users))
	for _, u := range users {
		if h.CanAssign(actor, role(u)) {
			out = append(out, u)
		}
	}
	return out
}

// IsDesigner reports whether role belongs to the designer family.
func IsDesigner(role string) bool {
	return strings.Contains(normalize(role), "designer")
}

// Names returns the known role names ordered by level, then name.
func (h Hierarchy) Names() []string {
	names := make([]string, 0, len(h.levels))
	for name := range h.levels {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		li, lj := h.levels[names[i]], h.levels[names[j]]
		if li != lj {
			return li < lj
		}
		return names[i] < names[j]
	})
	return names
}
