package scope

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

type ScopeType string

const (
	// ScopeGlobal is the single partition of registries that are not
	// split by time: stores, users, roles and units.
	ScopeGlobal ScopeType = "global"
	// ScopeMonth is a calendar month partition of the order book.
	ScopeMonth ScopeType = "month"
)

// MonthLayout is the wire format of a month partition key.
const MonthLayout = "2006-01"

type Scope struct {
	Type  ScopeType
	Month string
}

var (
	fileSanitizePattern = regexp.MustCompile(`[@/\\:?*"<>|]`)
	monthPattern        = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

func NewGlobal() Scope {
	return Scope{Type: ScopeGlobal}
}

func NewMonth(month string) Scope {
	return Scope{Type: ScopeMonth, Month: month}
}

// Current returns the month scope containing now, in now's location.
func Current(now time.Time) Scope {
	return NewMonth(now.Format(MonthLayout))
}

func IsGlobal(s Scope) bool { return s.Type == ScopeGlobal }
func IsMonth(s Scope) bool  { return s.Type == ScopeMonth }

func Validate(s Scope) error {
	switch s.Type {
	case ScopeGlobal:
		if s.Month != "" {
			return errors.New("Global scope cannot carry a month")
		}
		return nil
	case ScopeMonth:
		if err := ensureNonEmpty("Month scope requires a month (YYYY-MM)", s.Month); err != nil {
			return err
		}
		if _, err := parseMonth(s.Month); err != nil {
			return err
		}
		return nil
	default:
		return fmt.Errorf("invalid scope type: %s", s.Type)
	}
}

// Shift moves a month scope by step months. Other scopes are returned
// unchanged.
func Shift(s Scope, step int) (Scope, error) {
	if s.Type != ScopeMonth {
		return s, nil
	}
	t, err := parseMonth(s.Month)
	if err != nil {
		return Scope{}, err
	}
	return NewMonth(t.AddDate(0, step, 0).Format(MonthLayout)), nil
}

// MonthOf returns the month partition a YYYY-MM-DD date falls in, or
// fallback when the date is too short to carry one.
func MonthOf(date string, fallback Scope) string {
	date = strings.TrimSpace(date)
	if len(date) >= len(MonthLayout) && monthPattern.MatchString(date[:len(MonthLayout)]) {
		return date[:len(MonthLayout)]
	}
	return fallback.Month
}

// GetScopeStorageKey is the key used for the scope in the local cache.
func GetScopeStorageKey(s Scope) string {
	return sanitizeForFile(FormatScope(s))
}

// FormatScope is the key sent to the remote for s.
func FormatScope(s Scope) string {
	switch s.Type {
	case ScopeGlobal:
		return ""
	case ScopeMonth:
		return s.Month
	default:
		return ""
	}
}

// FormatScopeShort renders s for humans: "03/2024" for a month.
func FormatScopeShort(s Scope) string {
	switch s.Type {
	case ScopeGlobal:
		return "global"
	case ScopeMonth:
		t, err := parseMonth(s.Month)
		if err != nil {
			return s.Month
		}
		return t.Format("01/2006")
	default:
		return ""
	}
}

func parseMonth(month string) (time.Time, error) {
	month = strings.TrimSpace(month)
	if !monthPattern.MatchString(month) {
		return time.Time{}, fmt.Errorf("invalid month %q: expected YYYY-MM", month)
	}
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return t, nil
}

func sanitizeForFile(value string) string {
	if value == "" {
		return string(ScopeGlobal)
	}
	return fileSanitizePattern.ReplaceAllString(value, "-")
}

func ensureNonEmpty(msg, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(msg)
	}
	return nil
}
