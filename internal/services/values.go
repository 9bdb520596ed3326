package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/omsdash/omsctl/internal/gateway"
)

// row is one loosely typed record as the sheet backend returns it.
type row map[string]any

// text renders a cell as a string. Missing, null, false, zero and empty
// cells all render as "".
func (r row) text(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return ""
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// textOr returns the first non-empty cell among keys, or fallback.
func (r row) textOr(fallback string, keys ...string) string {
	for _, key := range keys {
		if s := r.text(key); s != "" {
			return s
		}
	}
	return fallback
}

// flag is true for a JSON true or the sheet literal "TRUE".
func (r row) flag(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		return v == "TRUE"
	default:
		return false
	}
}

// number parses a cell like a spreadsheet number: thousands separators are
// dropped and anything unparseable is zero.
func (r row) number(key string) decimal.Decimal {
	return parseSheetNumber(r[key])
}

func parseSheetNumber(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		if s == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// sheetNumber normalizes a cell into a decimal string such as "1200".
func sheetNumber(v any) string {
	return parseSheetNumber(v).String()
}

// decodeRows decodes an array payload. Any other shape yields no rows.
func decodeRows(res gateway.Result) ([]row, error) {
	if err := res.Err(); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(res.Data))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, nil
	}
	var rows []row
	if err := json.Unmarshal(res.Data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", res.Op, err)
	}
	return rows, nil
}

type ack struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// checkAck turns a failed result, or an acknowledgement carrying
// success:false, into an error.
func checkAck(res gateway.Result, fallback string) error {
	if err := res.Err(); err != nil {
		return err
	}
	trimmed := strings.TrimSpace(string(res.Data))
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}
	var a ack
	if err := json.Unmarshal(res.Data, &a); err != nil {
		return nil
	}
	if a.Success != nil && !*a.Success {
		msg := a.Error
		if msg == "" {
			msg = fallback
		}
		return &gateway.Error{Op: res.Op, Kind: gateway.KindApplication, Message: msg}
	}
	return nil
}

// post performs a POST and checks its acknowledgement.
func post(ctx context.Context, caller gateway.Caller, op string, payload map[string]any, fallback string, opts ...gateway.CallOption) error {
	return checkAck(caller.Call(ctx, op, gateway.POST, payload, opts...), fallback)
}
