package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/omsdash/omsctl/internal/database"
	"github.com/omsdash/omsctl/internal/oms"
	"github.com/omsdash/omsctl/internal/scope"
	"github.com/omsdash/omsctl/internal/usecase"
	"github.com/omsdash/omsctl/internal/view"
)

// Server wraps the MCP server with order-management tools
type Server struct {
	server *mcp.Server
	app    *usecase.App
}

// NewServer creates a new MCP server instance over app
func NewServer(app *usecase.App, version string) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "omsctl",
		Version: version,
	}, nil)

	s := &Server{
		server: mcpServer,
		app:    app,
	}

	s.registerTools()

	return s
}

// Run starts the MCP server with stdio transport
func (s *Server) Run(ctx context.Context) error {
	if s.app.DB != nil {
		defer database.CloseDatabase(s.app.DB)
	}
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_orders",
		Description: "List the orders of a month, filtered and sorted by date",
	}, s.handleListOrders)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_order",
		Description: "Create an order in the month its date falls in",
	}, s.handleAddOrder)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_order",
		Description: "Update the editable fields of an order",
	}, s.handleUpdateOrder)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "designer_queue",
		Description: "List the orders of a month assigned to designers",
	}, s.handleDesignerQueue)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_stores",
		Description: "List the store registry with the dashboard figures",
	}, s.handleListStores)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mutation_history",
		Description: "List recent writes made from this machine and their outcome",
	}, s.handleHistory)
}

// Input/Output types for each tool

type ListOrdersInput struct {
	Month     *string `json:"month,omitempty" jsonschema:"Month partition (YYYY-MM), current month if omitted"`
	Filter    *string `json:"filter,omitempty" jsonschema:"Case-insensitive text matched against id, SKU, tracking, store name and handler"`
	Direction *string `json:"direction,omitempty" jsonschema:"Date sort direction: asc or desc (default desc)"`
}

type ListOrdersOutput struct {
	Month  string      `json:"month"`
	FileID string      `json:"fileId,omitempty"`
	Orders []oms.Order `json:"orders"`
}

type AddOrderInput struct {
	ID         string          `json:"id" jsonschema:"Order id, unique within the month"`
	Date       *string         `json:"date,omitempty" jsonschema:"Order date (YYYY-MM-DD), today if omitted"`
	Store      string          `json:"store" jsonschema:"Store id or name"`
	Items      []oms.OrderItem `json:"items" jsonschema:"Product lines; rows without a SKU are ignored"`
	Tracking   *string         `json:"tracking,omitempty"`
	Link       *string         `json:"link,omitempty"`
	Status     *string         `json:"status,omitempty"`
	ActionRole *string         `json:"actionRole,omitempty" jsonschema:"Username the order is assigned to"`
}

type AddOrderOutput struct {
	Message string    `json:"message"`
	Order   oms.Order `json:"order"`
}

type UpdateOrderInput struct {
	Month      *string `json:"month,omitempty" jsonschema:"Month partition (YYYY-MM), current month if omitted"`
	ID         string  `json:"id" jsonschema:"Order id"`
	SKU        *string `json:"sku,omitempty"`
	Type       *string `json:"type,omitempty" jsonschema:"Fulfilment unit"`
	Quantity   *string `json:"quantity,omitempty"`
	Note       *string `json:"note,omitempty"`
	Tracking   *string `json:"tracking,omitempty"`
	Link       *string `json:"link,omitempty"`
	Status     *string `json:"status,omitempty"`
	ActionRole *string `json:"actionRole,omitempty"`
	IsChecked  *bool   `json:"isChecked,omitempty"`
}

type UpdateOrderOutput struct {
	Message string    `json:"message"`
	Order   oms.Order `json:"order"`
}

type DesignerQueueInput struct {
	Month *string `json:"month,omitempty" jsonschema:"Month partition (YYYY-MM), current month if omitted"`
}

type DesignerQueueOutput struct {
	Orders []oms.Order `json:"orders"`
}

type ListStoresInput struct {
	Filter *string `json:"filter,omitempty" jsonschema:"Case-insensitive text matched against id, name and region"`
}

type ListStoresOutput struct {
	Stores       []oms.Store          `json:"stores"`
	Metrics      oms.DashboardMetrics `json:"metrics"`
	Growth       oms.Growth           `json:"growth"`
	DailyRevenue []oms.DailyRevenue   `json:"dailyRevenue"`
}

type HistoryInput struct {
	Limit *int `json:"limit,omitempty" jsonschema:"Maximum number of entries (default 50)"`
}

type HistoryOutput struct {
	Entries []HistoryEntry `json:"entries"`
}

type HistoryEntry struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	RecordID   string `json:"recordId"`
	Scope      string `json:"scope"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// Helper function to resolve the month partition from input parameters
func resolveMonth(month *string) (string, error) {
	opts := scope.ScopeOptions{}
	if month != nil {
		opts.Month = *month
	}
	sc, err := scope.ResolveScope(opts)
	if err != nil {
		return "", err
	}
	return scope.FormatScope(sc), nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (s *Server) loadOrders(ctx context.Context, month *string) (*usecase.Orders, string, error) {
	m, err := resolveMonth(month)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve month: %w", err)
	}
	screen := s.app.OrdersScreen()
	if err := screen.Load(ctx, m); err != nil {
		return nil, "", fmt.Errorf("failed to load orders: %w", err)
	}
	return screen, m, nil
}

// Tool handlers

func (s *Server) handleListOrders(ctx context.Context, req *mcp.CallToolRequest, input ListOrdersInput) (*mcp.CallToolResult, ListOrdersOutput, error) {
	screen, month, err := s.loadOrders(ctx, input.Month)
	if err != nil {
		return nil, ListOrdersOutput{}, err
	}
	screen.SetFilter(deref(input.Filter))
	if deref(input.Direction) == string(view.Asc) {
		screen.SetSort(view.SortKey{Field: usecase.OrderDateField, Direction: view.Asc})
	}

	return nil, ListOrdersOutput{
		Month:  month,
		FileID: screen.Collection().Handle(),
		Orders: screen.Visible(),
	}, nil
}

func (s *Server) handleAddOrder(ctx context.Context, req *mcp.CallToolRequest, input AddOrderInput) (*mcp.CallToolResult, AddOrderOutput, error) {
	date := deref(input.Date)
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	month := scope.MonthOf(date, scope.Current(time.Now()))

	screen, _, err := s.loadOrders(ctx, &month)
	if err != nil {
		return nil, AddOrderOutput{}, err
	}
	defer screen.Close()

	md, err := s.app.Metadata().Load(ctx)
	if err != nil {
		s.app.Logger.Warn("metadata incomplete", "error", err)
	}
	screen.SetMetadata(md)

	task, err := screen.Create(ctx, usecase.OrderDraft{
		ID:         input.ID,
		Date:       date,
		StoreRef:   input.Store,
		Items:      input.Items,
		Tracking:   deref(input.Tracking),
		Link:       deref(input.Link),
		Status:     deref(input.Status),
		ActionRole: deref(input.ActionRole),
	})
	if err != nil {
		return nil, AddOrderOutput{}, fmt.Errorf("failed to add order: %w", err)
	}

	select {
	case <-task.Done():
	case <-ctx.Done():
		return nil, AddOrderOutput{}, ctx.Err()
	}
	if err := task.Err(); err != nil {
		return nil, AddOrderOutput{}, fmt.Errorf("failed to add order: %w", err)
	}

	order, _ := screen.Collection().Find(input.ID)
	return nil, AddOrderOutput{
		Message: fmt.Sprintf("Added order %s to %s", input.ID, month),
		Order:   order,
	}, nil
}

func (s *Server) handleUpdateOrder(ctx context.Context, req *mcp.CallToolRequest, input UpdateOrderInput) (*mcp.CallToolResult, UpdateOrderOutput, error) {
	screen, _, err := s.loadOrders(ctx, input.Month)
	if err != nil {
		return nil, UpdateOrderOutput{}, err
	}
	defer screen.Close()

	order, ok := screen.Collection().Find(input.ID)
	if !ok {
		return nil, UpdateOrderOutput{}, fmt.Errorf("order not found: %s", input.ID)
	}
	applyUpdate(&order, input)

	task, err := screen.Edit(ctx, order)
	if err != nil {
		return nil, UpdateOrderOutput{}, fmt.Errorf("failed to update order: %w", err)
	}
	select {
	case <-task.Done():
	case <-ctx.Done():
		return nil, UpdateOrderOutput{}, ctx.Err()
	}
	if err := task.Err(); err != nil {
		return nil, UpdateOrderOutput{}, fmt.Errorf("failed to update order: %w", err)
	}

	updated, _ := screen.Collection().Find(input.ID)
	return nil, UpdateOrderOutput{
		Message: fmt.Sprintf("Updated order %s", input.ID),
		Order:   updated,
	}, nil
}

func applyUpdate(o *oms.Order, in UpdateOrderInput) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&o.SKU, in.SKU)
	set(&o.Type, in.Type)
	set(&o.Quantity, in.Quantity)
	set(&o.Note, in.Note)
	set(&o.Tracking, in.Tracking)
	set(&o.Link, in.Link)
	set(&o.Status, in.Status)
	set(&o.ActionRole, in.ActionRole)
	if in.IsChecked != nil {
		o.IsChecked = *in.IsChecked
	}
}

func (s *Server) handleDesignerQueue(ctx context.Context, req *mcp.CallToolRequest, input DesignerQueueInput) (*mcp.CallToolResult, DesignerQueueOutput, error) {
	screen, _, err := s.loadOrders(ctx, input.Month)
	if err != nil {
		return nil, DesignerQueueOutput{}, err
	}
	users, err := s.app.Auth.GetUsers(ctx)
	if err != nil {
		return nil, DesignerQueueOutput{}, fmt.Errorf("failed to load users: %w", err)
	}
	screen.SetMetadata(usecase.Metadata{Users: users})

	queue := screen.DesignerQueue()
	if queue == nil {
		queue = []oms.Order{}
	}
	return nil, DesignerQueueOutput{Orders: queue}, nil
}

func (s *Server) handleListStores(ctx context.Context, req *mcp.CallToolRequest, input ListStoresInput) (*mcp.CallToolResult, ListStoresOutput, error) {
	screen := s.app.StoresScreen()
	if err := screen.Load(ctx, ""); err != nil {
		return nil, ListStoresOutput{}, fmt.Errorf("failed to load stores: %w", err)
	}
	d, err := screen.Dashboard(ctx)
	if err != nil {
		return nil, ListStoresOutput{}, fmt.Errorf("failed to load daily stats: %w", err)
	}
	screen.SetFilter(deref(input.Filter))

	return nil, ListStoresOutput{
		Stores:       screen.Visible(),
		Metrics:      d.Metrics,
		Growth:       d.Growth,
		DailyRevenue: d.DailyRevenue,
	}, nil
}

func (s *Server) handleHistory(ctx context.Context, req *mcp.CallToolRequest, input HistoryInput) (*mcp.CallToolResult, HistoryOutput, error) {
	if s.app.Journal == nil {
		return nil, HistoryOutput{}, errors.New("mutation journal is not available")
	}
	limit := 0
	if input.Limit != nil {
		limit = *input.Limit
	}
	entries, err := s.app.Journal.Recent(ctx, limit)
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("failed to list history: %w", err)
	}

	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		entry := HistoryEntry{
			ID:        e.ID,
			Kind:      string(e.Kind),
			RecordID:  e.RecordID,
			Scope:     e.Scope,
			Status:    string(e.Status),
			Error:     e.Error,
			StartedAt: e.StartedAt.Format(time.RFC3339),
		}
		if !e.FinishedAt.IsZero() {
			entry.FinishedAt = e.FinishedAt.Format(time.RFC3339)
		}
		out = append(out, entry)
	}
	return nil, HistoryOutput{Entries: out}, nil
}
