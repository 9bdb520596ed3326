package usecase

import (
	"github.com/omsdash/omsctl/internal/scope"
)

type ScopeOptions = scope.ScopeOptions

// ResolveScope converts CLI/MCP-level scope options into a validated scope.Scope.
func ResolveScope(opts ScopeOptions) (scope.Scope, error) {
	return scope.ResolveScope(opts)
}
