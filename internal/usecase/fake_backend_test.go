package usecase

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/omsdash/omsctl/internal/gateway"
)

// fakeBackend answers gateway calls from handler functions keyed by op.
type fakeBackend struct {
	mu       sync.Mutex
	handlers map[string]func(payload map[string]any) gateway.Result
	calls    map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		handlers: map[string]func(map[string]any) gateway.Result{},
		calls:    map[string]int{},
	}
}

func (b *fakeBackend) on(op string, fn func(payload map[string]any) gateway.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[op] = fn
}

func (b *fakeBackend) json(op, body string) {
	b.on(op, func(map[string]any) gateway.Result { return ok(op, body) })
}

func (b *fakeBackend) count(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

func (b *fakeBackend) Call(_ context.Context, op string, _ gateway.Method, payload map[string]any, _ ...gateway.CallOption) gateway.Result {
	b.mu.Lock()
	b.calls[op]++
	fn := b.handlers[op]
	b.mu.Unlock()
	if fn == nil {
		return ok(op, `{"success":true}`)
	}
	return fn(payload)
}

func ok(op, body string) gateway.Result {
	return gateway.Result{Success: true, Data: json.RawMessage(body), Op: op}
}
