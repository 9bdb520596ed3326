package scope

import (
	"strings"
	"testing"
	"time"
)

func TestValidateScopes(t *testing.T) {
	cases := []struct {
		name    string
		scope   Scope
		wantErr bool
	}{
		{"global", NewGlobal(), false},
		{"month", NewMonth("2024-03"), false},
		{"missing month", NewMonth(""), true},
		{"bad month", NewMonth("2024-13"), true},
		{"bad shape", NewMonth("2024/03"), true},
		{"global with month", Scope{Type: ScopeGlobal, Month: "2024-03"}, true},
		{"unknown type", Scope{Type: "branch"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.scope)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error but got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestShift(t *testing.T) {
	cases := []struct {
		from string
		step int
		want string
	}{
		{"2024-03", 1, "2024-04"},
		{"2024-12", 1, "2025-01"},
		{"2024-01", -1, "2023-12"},
		{"2024-03", -14, "2023-01"},
		{"2024-03", 0, "2024-03"},
	}
	for _, tc := range cases {
		got, err := Shift(NewMonth(tc.from), tc.step)
		if err != nil {
			t.Fatalf("Shift(%s, %d) returned error: %v", tc.from, tc.step, err)
		}
		if got.Month != tc.want {
			t.Fatalf("Shift(%s, %d) = %s, want %s", tc.from, tc.step, got.Month, tc.want)
		}
	}

	g, err := Shift(NewGlobal(), 3)
	if err != nil || !IsGlobal(g) {
		t.Fatalf("expected global scope to be unchanged, got %+v, %v", g, err)
	}
}

func TestFormatScope(t *testing.T) {
	if got, want := FormatScope(NewMonth("2024-03")), "2024-03"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := FormatScope(NewGlobal()); got != "" {
		t.Fatalf("expected empty remote key for global scope, got %q", got)
	}
	if got, want := FormatScopeShort(NewMonth("2024-03")), "03/2024"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestGetScopeStorageKeySanitises(t *testing.T) {
	key := GetScopeStorageKey(NewMonth("2024/03@x"))
	if strings.ContainsAny(key, "@/\\:?*\"<>|") {
		t.Fatalf("expected key to be sanitised, got %q", key)
	}
	if got := GetScopeStorageKey(NewGlobal()); got != "global" {
		t.Fatalf("expected global storage key, got %q", got)
	}
}

func TestMonthOf(t *testing.T) {
	fallback := NewMonth("2024-05")
	if got := MonthOf("2024-03-05", fallback); got != "2024-03" {
		t.Fatalf("expected 2024-03, got %q", got)
	}
	if got := MonthOf("", fallback); got != "2024-05" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if got := MonthOf("05/03/2024", fallback); got != "2024-05" {
		t.Fatalf("expected fallback for foreign layout, got %q", got)
	}
}

func TestResolveScope(t *testing.T) {
	now := time.Date(2024, time.March, 31, 23, 0, 0, 0, time.Local)

	s, err := ResolveScope(ScopeOptions{Now: now})
	if err != nil || s.Month != "2024-03" {
		t.Fatalf("expected current month, got %+v, %v", s, err)
	}

	s, err = ResolveScope(ScopeOptions{Now: now, Offset: -1})
	if err != nil || s.Month != "2024-02" {
		t.Fatalf("expected previous month, got %+v, %v", s, err)
	}

	s, err = ResolveScope(ScopeOptions{Type: "month", Month: "2023-11", Offset: 2})
	if err != nil || s.Month != "2024-01" {
		t.Fatalf("expected shifted month, got %+v, %v", s, err)
	}

	if _, err := ResolveScope(ScopeOptions{Type: "global", Month: "2024-01"}); err == nil {
		t.Fatalf("expected error for global scope with month")
	}
	if _, err := ResolveScope(ScopeOptions{Type: "week"}); err == nil {
		t.Fatalf("expected error for unknown scope type")
	}
	if _, err := ResolveScope(ScopeOptions{Month: "March"}); err == nil {
		t.Fatalf("expected error for malformed month")
	}
}
