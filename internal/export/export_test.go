package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/omsdash/omsctl/internal/oms"
)

func TestOrdersWorkbook(t *testing.T) {
	orders := []oms.Order{
		{ID: "B", Date: "2024-03-05", StoreID: "ST-1", SKU: "S1", Quantity: "2", Status: "Pending", IsChecked: true},
		{ID: "A", Date: "2024-03-04", StoreID: "Legacy", SKU: "S2", Quantity: "1", Status: "Fulfilled"},
	}
	names := map[string]string{"ST-1": "Shop A"}

	var buf bytes.Buffer
	require.NoError(t, Orders(&buf, orders, func(ref string) string {
		if n, ok := names[ref]; ok {
			return n
		}
		return ref
	}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, OrdersSheet, f.GetSheetName(0))
	rows, err := f.GetRows(OrdersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Order ID", rows[0][1])
	assert.Equal(t, []string{"05/03/2024", "B", "Shop A"}, rows[1][:3])
	assert.Equal(t, "TRUE", rows[1][10])
	assert.Equal(t, "Legacy", rows[2][2])
	assert.Equal(t, "Fulfilled", rows[2][9])
}

func TestOrdersEmptyBook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Orders(&buf, nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(OrdersSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
