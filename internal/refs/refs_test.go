package refs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type target struct {
	id, name string
}

func newResolver(targets ...target) *Resolver[target] {
	return New(targets,
		func(t target) string { return t.id },
		func(t target) string { return t.name },
	)
}

func TestNameFallbackChain(t *testing.T) {
	r := newResolver(
		target{id: "ST-001", name: "Alpha"},
		target{id: "ST-002", name: "Beta"},
		target{id: "Alpha", name: "Shadow"},
	)

	assert.Equal(t, "Alpha", r.Name("ST-001"), "id match")
	assert.Equal(t, "Beta", r.Name("Beta"), "name match")
	assert.Equal(t, "Shadow", r.Name("Alpha"), "id match wins over name match")
	assert.Equal(t, "ST-999", r.Name("ST-999"), "raw passthrough")
	assert.Equal(t, "", r.Name(""))
}

func TestIDResolvesNames(t *testing.T) {
	r := newResolver(target{id: "ST-001", name: "Alpha"})
	assert.Equal(t, "ST-001", r.ID("Alpha"))
	assert.Equal(t, "ST-001", r.ID("ST-001"))
	assert.Equal(t, "unknown", r.ID("unknown"))
}

func TestNilResolverPassesThrough(t *testing.T) {
	var r *Resolver[target]
	_, ok := r.Lookup("x")
	assert.False(t, ok)
}

func TestNamelessMatchKeepsRaw(t *testing.T) {
	r := newResolver(target{id: "ST-001"})
	assert.Equal(t, "ST-001", r.Name("ST-001"))
}
