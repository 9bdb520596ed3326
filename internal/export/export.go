// Package export writes order books as XLSX workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/omsdash/omsctl/internal/oms"
)

// OrdersSheet is the name of the order worksheet.
const OrdersSheet = "Orders"

var orderHeader = []any{"Date", "Order ID", "Store", "Unit", "SKU", "Quantity", "Note", "Tracking", "Link", "Status", "Checked", "Handler", "Assignee"}

var orderWidths = map[string]float64{"A": 12, "B": 18, "C": 22, "E": 24, "G": 30, "H": 22, "I": 30}

// Orders writes orders to w as a single-sheet workbook in the given order.
// storeName maps a store reference to its display name and may be nil.
func Orders(w io.Writer, orders []oms.Order, storeName func(string) string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), OrdersSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetSheetRow(OrdersSheet, "A1", &orderHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(orderHeader), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(OrdersSheet, "A1", last, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, o := range orders {
		store := o.StoreID
		if storeName != nil {
			store = storeName(o.StoreID)
		}
		checked := ""
		if o.IsChecked {
			checked = "TRUE"
		}
		row := []any{
			oms.FormatDisplayDate(o.Date), o.ID, store, o.Type, o.SKU, o.Quantity,
			o.Note, o.Tracking, o.Link, o.Status, checked, o.Handler, o.ActionRole,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(OrdersSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write order %s: %w", o.ID, err)
		}
	}

	for col, width := range orderWidths {
		if err := f.SetColWidth(OrdersSheet, col, col, width); err != nil {
			return err
		}
	}
	if err := f.SetPanes(OrdersSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
