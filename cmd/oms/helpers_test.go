package main

import (
	"testing"
	"time"

	"github.com/omsdash/omsctl/internal/oms"
)

func TestParseItem(t *testing.T) {
	tests := []struct {
		in   string
		want oms.OrderItem
	}{
		{"SKU-1", oms.OrderItem{SKU: "SKU-1"}},
		{"SKU-1:2", oms.OrderItem{SKU: "SKU-1", Quantity: "2"}},
		{"SKU-1:2:Printway:gift: wrap", oms.OrderItem{SKU: "SKU-1", Quantity: "2", Type: "Printway", Note: "gift: wrap"}},
		{" :3", oms.OrderItem{Quantity: "3"}},
	}
	for _, tt := range tests {
		if got := parseItem(tt.in); got != tt.want {
			t.Errorf("parseItem(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestWrapString(t *testing.T) {
	if got := wrapString("short", 10); got != "short" {
		t.Errorf("wrapString short = %q", got)
	}
	if got := wrapString("abcdefgh", 3); got != "abc\ndef\ngh" {
		t.Errorf("wrapString = %q", got)
	}
	// Wide runes take two columns each.
	if got := wrapString("日本語", 4); got != "日本\n語" {
		t.Errorf("wrapString wide = %q", got)
	}
}

func TestMonthFlagsResolve(t *testing.T) {
	m := monthFlags{month: "2024-01", offset: -1}
	got, err := m.resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "2023-12" {
		t.Errorf("resolve = %q, want 2023-12", got)
	}

	m = monthFlags{month: "January"}
	if _, err := m.resolve(); err == nil {
		t.Error("expected an error for a malformed month")
	}

	m = monthFlags{}
	got, err = m.resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != time.Now().Format("2006-01") {
		t.Errorf("resolve = %q, want current month", got)
	}
}

func TestSigned(t *testing.T) {
	if got := signed(3); got != "+3" {
		t.Errorf("signed(3) = %q", got)
	}
	if got := signed(0); got != "0" {
		t.Errorf("signed(0) = %q", got)
	}
	if got := signed(-2); got != "-2" {
		t.Errorf("signed(-2) = %q", got)
	}
}
