package scope

import (
	"fmt"
	"time"
)

// ScopeOptions contains options for resolving a scope from CLI/MCP input
//
//nolint:revive // ScopeOptions is intentionally prefixed for clarity in external contexts
type ScopeOptions struct {
	Type   string
	Month  string
	Offset int       // Months to move from the resolved month
	Now    time.Time // Reference time for the current month (zero = time.Now)
}

// ResolveScope converts CLI/MCP-level scope options into a validated Scope.
// If no scope type is specified, it defaults to 'month' and uses the current
// local month when none is given.
func ResolveScope(opts ScopeOptions) (Scope, error) {
	scopeType := ScopeType(opts.Type)
	if scopeType == "" {
		scopeType = ScopeMonth
	}

	switch scopeType {
	case ScopeGlobal:
		if opts.Month != "" || opts.Offset != 0 {
			return Scope{}, fmt.Errorf("--month and --offset require --scope month")
		}
		s := NewGlobal()
		return s, Validate(s)

	case ScopeMonth:
		s := NewMonth(opts.Month)
		if opts.Month == "" {
			now := opts.Now
			if now.IsZero() {
				now = time.Now()
			}
			s = Current(now)
		}
		if err := Validate(s); err != nil {
			return Scope{}, err
		}
		if opts.Offset != 0 {
			return Shift(s, opts.Offset)
		}
		return s, nil

	default:
		return Scope{}, fmt.Errorf("invalid scope: %s (valid values: global, month)", opts.Type)
	}
}
