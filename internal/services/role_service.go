package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/omsdash/omsctl/internal/gateway"
	"github.com/omsdash/omsctl/internal/oms"
)

// RoleService wraps the role taxonomy.
type RoleService struct {
	caller gateway.Caller
}

func NewRoleService(caller gateway.Caller) *RoleService {
	return &RoleService{caller: caller}
}

func (s *RoleService) GetRoles(ctx context.Context) ([]oms.Role, error) {
	rows, err := decodeRows(s.caller.Call(ctx, "getRoles", gateway.GET, nil))
	if err != nil {
		return nil, err
	}
	out := make([]oms.Role, 0, len(rows))
	for _, r := range rows {
		out = append(out, oms.Role{
			Name:  r.textOr("", "name", "role"),
			Level: int(r.number("level").IntPart()),
		})
	}
	return out, nil
}

// Levels maps role names to levels, for building a hierarchy.
func Levels(roles []oms.Role) map[string]int {
	levels := make(map[string]int, len(roles))
	for _, r := range roles {
		if r.Name != "" && r.Level > 0 {
			levels[r.Name] = r.Level
		}
	}
	return levels
}

func (s *RoleService) AddRole(ctx context.Context, name string, level int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("role name is required")
	}
	if level <= 0 {
		return fmt.Errorf("role level must be positive")
	}
	return post(ctx, s.caller, "addRole", map[string]any{"role": name, "level": level}, "failed to add role")
}
