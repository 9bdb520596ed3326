package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/omsdash/omsctl/internal/gateway"
)

type call struct {
	Op       string
	Method   gateway.Method
	Payload  map[string]any
	Detached bool
}

// fakeCaller answers each op with a canned JSON body or failure.
type fakeCaller struct {
	mu        sync.Mutex
	responses map[string]gateway.Result
	calls     []call
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{responses: map[string]gateway.Result{}}
}

func (f *fakeCaller) reply(op, body string) *fakeCaller {
	f.responses[op] = gateway.Result{Success: true, Data: json.RawMessage(body), Op: op}
	return f
}

func (f *fakeCaller) fail(op, message string) *fakeCaller {
	f.responses[op] = gateway.Failure(op, message)
	return f
}

func (f *fakeCaller) Call(_ context.Context, op string, method gateway.Method, payload map[string]any, opts ...gateway.CallOption) gateway.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Op: op, Method: method, Payload: payload, Detached: len(opts) > 0})
	if res, ok := f.responses[op]; ok {
		return res
	}
	return gateway.Result{Success: true, Data: json.RawMessage(`{"success":true}`), Op: op}
}

func (f *fakeCaller) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return call{}
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeCaller) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type staticAddress string

func (s staticAddress) Lookup(context.Context) string { return string(s) }
