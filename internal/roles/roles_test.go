package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaults() Hierarchy {
	return New(map[string]int{
		"admin":           1,
		"leader":          2,
		"idea":            3,
		"support":         4,
		"designer":        5,
		"designer online": 5,
	})
}

func TestLevel(t *testing.T) {
	h := defaults()
	assert.Equal(t, 1, h.Level("admin"))
	assert.Equal(t, 5, h.Level("  Designer Online "))
	assert.Equal(t, Unknown, h.Level("intern"))
	assert.Equal(t, Unknown, h.Level(""))
}

func TestInjectedHierarchy(t *testing.T) {
	h := New(map[string]int{"Owner": 1, "Staff": 2})
	assert.Equal(t, 1, h.Level("owner"))
	assert.Equal(t, Unknown, h.Level("admin"))
	assert.Equal(t, []string{"owner", "staff"}, h.Names())
}

func TestAssignable(t *testing.T) {
	type user struct{ name, role string }
	users := []user{
		{"ann", "admin"},
		{"lee", "leader"},
		{"sue", "support"},
		{"dan", "designer"},
		{"x", "contractor"},
	}
	role := func(u user) string { return u.role }
	h := defaults()

	got := Assignable(h, "support", users, role)
	assert.Equal(t, []user{{"sue", "support"}, {"dan", "designer"}, {"x", "contractor"}}, got)

	assert.Len(t, Assignable(h, "admin", users, role), len(users))
	assert.Equal(t, []user{{"x", "contractor"}}, Assignable(h, "unknown", users, role))
}

func TestIsDesigner(t *testing.T) {
	assert.True(t, IsDesigner("Designer"))
	assert.True(t, IsDesigner("designer online"))
	assert.False(t, IsDesigner("support"))
}
