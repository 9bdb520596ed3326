package pending

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddRemove(t *testing.T) {
	var s Set
	assert.False(t, s.Has("A"))
	assert.True(t, s.Add("A"))
	assert.False(t, s.Add("A"), "second add reports existing mark")
	assert.True(t, s.Has("A"))

	s.Add("B")
	assert.Equal(t, []string{"A", "B"}, s.Snapshot())

	s.Remove("A")
	s.Remove("missing")
	assert.False(t, s.Has("A"))
	assert.Equal(t, 1, s.Len())
}

func TestConcurrentUse(t *testing.T) {
	var s Set
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("id-%d", i%10)
			s.Add(id)
			_ = s.Has(id)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, s.Len())
}
