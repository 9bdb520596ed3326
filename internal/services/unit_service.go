package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/omsdash/omsctl/internal/gateway"
)

// DefaultUnit is preselected on new order lines.
const DefaultUnit = "Printway"

// UnitService wraps the fulfilment unit registry.
type UnitService struct {
	caller gateway.Caller
}

func NewUnitService(caller gateway.Caller) *UnitService {
	return &UnitService{caller: caller}
}

func (s *UnitService) GetUnits(ctx context.Context) ([]string, error) {
	rows, err := decodeStrings(s.caller.Call(ctx, "getUnits", gateway.GET, nil))
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *UnitService) AddUnit(ctx context.Context, unit string) error {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return fmt.Errorf("unit name is required")
	}
	return post(ctx, s.caller, "addUnit", map[string]any{"unit": unit}, "failed to add unit")
}

func decodeStrings(res gateway.Result) ([]string, error) {
	if err := res.Err(); err != nil {
		return nil, err
	}
	var raw []any
	if err := res.Decode(&raw); err != nil {
		return nil, nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s := (row{"v": v}).text("v"); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
