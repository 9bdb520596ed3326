package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/omsdash/omsctl/internal/gateway"
	"github.com/omsdash/omsctl/internal/logging"
	"github.com/omsdash/omsctl/internal/oms"
	"github.com/omsdash/omsctl/internal/scope"
)

// OrderPage is the order book of one month. FileID identifies the month's
// spreadsheet and is empty when the month has none.
type OrderPage struct {
	Orders []oms.Order
	FileID string
}

// OrderService wraps the order operations of the backend.
type OrderService struct {
	caller gateway.Caller
	logger *slog.Logger
	now    func() time.Time
}

func NewOrderService(caller gateway.Caller, logger *slog.Logger) *OrderService {
	return &OrderService{
		caller: caller,
		logger: logging.OrDefault(logger).With("service", "orders"),
		now:    time.Now,
	}
}

// GetOrders fetches the orders of month (YYYY-MM). An empty month means the
// current one. Both the {orders, fileId} shape and a bare array are accepted.
func (s *OrderService) GetOrders(ctx context.Context, month string) (OrderPage, error) {
	if month == "" {
		month = scope.Current(s.now()).Month
	}

	res := s.caller.Call(ctx, "getOrders", gateway.GET, map[string]any{"month": month})
	if err := res.Err(); err != nil {
		return OrderPage{}, err
	}

	trimmed := strings.TrimSpace(string(res.Data))
	switch {
	case strings.HasPrefix(trimmed, "{"):
		var body struct {
			Orders []row `json:"orders"`
			FileID any   `json:"fileId"`
		}
		if err := json.Unmarshal(res.Data, &body); err != nil {
			return OrderPage{}, fmt.Errorf("failed to decode getOrders response: %w", err)
		}
		page := OrderPage{Orders: mapOrders(body.Orders)}
		if body.FileID != nil {
			page.FileID = row{"fileId": body.FileID}.text("fileId")
		}
		return page, nil
	case strings.HasPrefix(trimmed, "["):
		rows, err := decodeRows(res)
		if err != nil {
			return OrderPage{}, err
		}
		s.logger.Debug("legacy order response without file id", "month", month)
		return OrderPage{Orders: mapOrders(rows)}, nil
	default:
		return OrderPage{}, nil
	}
}

func mapOrders(rows []row) []oms.Order {
	orders := make([]oms.Order, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, mapOrder(r))
	}
	return orders
}

func mapOrder(r row) oms.Order {
	return oms.Order{
		Date:       r.text("date"),
		ID:         r.text("id"),
		StoreID:    r.text("storeId"),
		Type:       r.text("type"),
		SKU:        r.text("sku"),
		Quantity:   r.textOr("1", "quantity"),
		Tracking:   r.text("tracking"),
		IsChecked:  r.flag("isChecked"),
		Link:       r.text("link"),
		Status:     r.textOr(string(oms.StatusPending), "status"),
		Note:       r.text("note"),
		Handler:    r.textOr("", "handler", "user"),
		ActionRole: r.text("actionRole"),
	}
}

// AddOrder creates order in the month its date falls in. A rejection by the
// backend is returned as an error.
func (s *OrderService) AddOrder(ctx context.Context, order oms.Order) error {
	payload, err := gateway.Fields(order)
	if err != nil {
		return err
	}
	payload["user"] = order.Handler
	payload["month"] = scope.MonthOf(order.Date, scope.Current(s.now()))

	return post(ctx, s.caller, "addOrder", payload, "failed to add order")
}

// UpdateOrder sets a single field of an order row.
func (s *OrderService) UpdateOrder(ctx context.Context, fileID, orderID, field string, value any) error {
	if fileID == "" {
		return ErrNoPartition
	}
	return post(ctx, s.caller, "updateOrder", map[string]any{
		"fileId":  fileID,
		"orderId": orderID,
		"field":   field,
		"value":   value,
	}, "failed to update order", gateway.Detached())
}

// UpdateOrderRow sends the editable fields of an order in one request.
func (s *OrderService) UpdateOrderRow(ctx context.Context, fileID, orderID string, patch oms.OrderPatch) error {
	if fileID == "" {
		return ErrNoPartition
	}
	data, err := gateway.Fields(patch)
	if err != nil {
		return err
	}
	return post(ctx, s.caller, "updateOrderRow", map[string]any{
		"fileId":  fileID,
		"orderId": orderID,
		"data":    data,
	}, "failed to update order", gateway.Detached())
}

// CreateMonthFile asks the backend to create the spreadsheet for month.
func (s *OrderService) CreateMonthFile(ctx context.Context, month string) error {
	if err := scope.Validate(scope.NewMonth(month)); err != nil {
		return err
	}
	return post(ctx, s.caller, "createMonthFile", map[string]any{"month": month}, "failed to create month file")
}
