package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/omsdash/omsctl/internal/oms"
)

func outputJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func checkFormat(format string) error {
	switch format {
	case "table", "json":
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
	}
}

func getTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

func colorEnabled() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func newTable(cmd *cobra.Command) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	return t
}

// wrapString wraps a string to fit within maxWidth, accounting for multi-byte characters
func wrapString(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return s
	}

	s = strings.TrimSpace(s)
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}

	var result strings.Builder
	var line strings.Builder
	width := 0
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if width+w > maxWidth && width > 0 {
			result.WriteString(line.String())
			result.WriteString("\n")
			line.Reset()
			width = 0
		}
		line.WriteRune(r)
		width += w
	}
	result.WriteString(line.String())
	return result.String()
}

// orderWidths splits the space left by the fixed order columns between the
// store and note columns.
type orderWidths struct {
	store int
	note  int
}

func calculateOrderWidths(termWidth int, orders []oms.Order, storeName func(string) string) orderWidths {
	const columns = 9
	fixed := 10 + 8 + 10 + 6 + 10 + 22
	available := termWidth - columns*3 - fixed

	store := 8
	for _, o := range orders {
		if w := runewidth.StringWidth(storeName(o.StoreID)); w > store {
			store = w
		}
	}
	if store > 24 {
		store = 24
	}

	note := available - store - 16
	if note < 12 {
		note = 12
	}
	return orderWidths{store: store, note: note}
}

var statusColors = map[string]text.Colors{
	"done":      {text.FgGreen},
	"open":      {text.FgYellow},
	"cancelled": {text.FgRed},
	"refund":    {text.FgMagenta},
	"resend":    {text.FgCyan},
}

func colorStatus(status string) string {
	if !colorEnabled() {
		return status
	}
	if c, ok := statusColors[oms.StatusClass(status)]; ok {
		return c.Sprint(status)
	}
	return status
}

func outputOrdersTable(cmd *cobra.Command, orders []oms.Order, storeName func(string) string) {
	t := newTable(cmd)
	widths := calculateOrderWidths(getTerminalWidth(), orders, storeName)

	t.AppendHeader(table.Row{"Date", "Order ID", "Store", "Unit", "SKU", "Qty", "Status", "Tracking", "Note"})
	for _, o := range orders {
		t.AppendRow(table.Row{
			oms.FormatDisplayDate(o.Date),
			o.ID,
			wrapString(storeName(o.StoreID), widths.store),
			o.Type,
			o.SKU,
			o.Quantity,
			colorStatus(o.Status),
			o.Tracking,
			runewidth.Truncate(o.Note, widths.note, "..."),
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d orders", len(orders))})
	t.Render()
}
