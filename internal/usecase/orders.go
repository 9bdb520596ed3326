package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/omsdash/omsctl/internal/collection"
	"github.com/omsdash/omsctl/internal/mutation"
	"github.com/omsdash/omsctl/internal/oms"
	"github.com/omsdash/omsctl/internal/refs"
	"github.com/omsdash/omsctl/internal/roles"
	"github.com/omsdash/omsctl/internal/services"
	"github.com/omsdash/omsctl/internal/view"
)

// OrderDateField is the sort field of the order date.
const OrderDateField = "date"

// NewOrderSchema sorts orders by date and filters on id, SKU, tracking
// number, store name and handler. storeName resolves the store reference;
// nil matches the raw reference.
func NewOrderSchema(storeName func(string) string) view.Schema[oms.Order] {
	if storeName == nil {
		storeName = func(ref string) string { return ref }
	}
	return view.Schema[oms.Order]{
		TimestampField: OrderDateField,
		Timestamp:      func(o oms.Order) string { return o.Date },
		FilterFields: []func(oms.Order) string{
			func(o oms.Order) string { return o.ID },
			func(o oms.Order) string { return o.SKU },
			func(o oms.Order) string { return o.Tracking },
			func(o oms.Order) string {
				if o.StoreID == "" {
					return ""
				}
				return storeName(o.StoreID)
			},
			func(o oms.Order) string { return o.Handler },
		},
	}
}

// OrderDraft is the input of the order form.
type OrderDraft struct {
	ID         string
	Date       string
	StoreRef   string
	Items      []oms.OrderItem
	Tracking   string
	Link       string
	Status     string
	ActionRole string
	IsChecked  bool
}

// Orders is the order list screen.
type Orders struct {
	*Screen[oms.Order]

	svc         *services.OrderService
	hierarchy   roles.Hierarchy
	defaultUnit string
	now         func() time.Time

	mu   sync.RWMutex
	user *oms.User
	meta Metadata
}

// NewOrders builds the order screen over svc.
func NewOrders(svc *services.OrderService, hierarchy roles.Hierarchy, defaultUnit string, opts ScreenOptions) *Orders {
	if defaultUnit == "" {
		defaultUnit = services.DefaultUnit
	}
	load := func(ctx context.Context, month string) (collection.Page[oms.Order], error) {
		page, err := svc.GetOrders(ctx, month)
		if err != nil {
			return collection.Page[oms.Order]{}, err
		}
		return collection.Page[oms.Order]{Items: page.Orders, Handle: page.FileID}, nil
	}
	if opts.SnapshotKind == "" {
		opts.SnapshotKind = services.SnapshotOrders
	}
	o := &Orders{
		svc:         svc,
		hierarchy:   hierarchy,
		defaultUnit: defaultUnit,
		now:         time.Now,
	}
	o.Screen = NewScreen("orders", oms.OrderID, load, NewOrderSchema(o.StoreName), validateOrder, opts)
	return o
}

func validateOrder(o oms.Order) error {
	if strings.TrimSpace(o.ID) == "" {
		return mutation.Invalid("id", "order id is required")
	}
	if strings.TrimSpace(o.StoreID) == "" {
		return mutation.Invalid("store", "store is required")
	}
	if strings.TrimSpace(o.SKU) == "" {
		return mutation.Invalid("items", "at least one item with a SKU is required")
	}
	return nil
}

// SetUser sets the signed-in user, who becomes the handler of new orders.
func (o *Orders) SetUser(u *oms.User) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.user = u
}

// SetMetadata replaces the reference data used to resolve stores and users.
func (o *Orders) SetMetadata(md Metadata) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.meta = md
}

// NewItem is an empty item row with the default unit.
func (o *Orders) NewItem() oms.OrderItem {
	return oms.OrderItem{Type: o.defaultUnit, Quantity: "1"}
}

// BuildOrder turns a form draft into an order. Rows without a SKU are
// dropped and the first remaining row becomes the order line. A store
// reference is stored as the store's name when it names a known store id.
func (o *Orders) BuildOrder(d OrderDraft) (oms.Order, error) {
	id := strings.TrimSpace(d.ID)
	if id == "" || strings.TrimSpace(d.StoreRef) == "" {
		return oms.Order{}, mutation.Invalid("id", "order id and store are required")
	}

	items := make([]oms.OrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		if strings.TrimSpace(it.SKU) == "" {
			continue
		}
		if it.Type == "" {
			it.Type = o.defaultUnit
		}
		if it.Quantity == "" {
			it.Quantity = "1"
		}
		items = append(items, it)
	}
	if len(items) == 0 {
		return oms.Order{}, mutation.Invalid("items", "at least one item with a SKU is required")
	}

	o.mu.RLock()
	stores := o.meta.Stores
	handler := "Unknown"
	if o.user != nil && o.user.Username != "" {
		handler = o.user.Username
	}
	o.mu.RUnlock()

	storeValue := d.StoreRef
	for _, st := range stores {
		if st.ID == d.StoreRef {
			storeValue = st.Name
			break
		}
	}

	date := d.Date
	if date == "" {
		date = o.now().Format("2006-01-02")
	}
	status := d.Status
	if status == "" {
		status = string(oms.StatusPending)
	}

	first := items[0]
	return oms.Order{
		ID:         id,
		Date:       date,
		StoreID:    storeValue,
		Items:      items,
		Handler:    handler,
		SKU:        first.SKU,
		Type:       first.Type,
		Quantity:   first.Quantity,
		Note:       first.Note,
		Status:     status,
		Tracking:   d.Tracking,
		Link:       d.Link,
		IsChecked:  d.IsChecked,
		ActionRole: d.ActionRole,
	}, nil
}

// Create inserts the draft optimistically and sends it in the background.
func (o *Orders) Create(ctx context.Context, d OrderDraft) (*mutation.Task, error) {
	order, err := o.BuildOrder(d)
	if err != nil {
		return nil, err
	}
	return o.Controller().Create(ctx, order, func(ctx context.Context) error {
		return o.svc.AddOrder(ctx, order)
	})
}

// Edit sends the editable fields of order. The displayed row changes only
// once the confirming reload lands.
func (o *Orders) Edit(ctx context.Context, order oms.Order) (*mutation.Task, error) {
	fileID := o.Collection().Handle()
	if fileID == "" {
		return nil, services.ErrNoPartition
	}
	patch := oms.PatchFrom(order)
	return o.Controller().Edit(ctx, order, func(ctx context.Context) error {
		return o.svc.UpdateOrderRow(ctx, fileID, order.ID, patch)
	})
}

// StoreName resolves an order's store reference for display.
func (o *Orders) StoreName(ref string) string {
	o.mu.RLock()
	stores := o.meta.Stores
	o.mu.RUnlock()
	return refs.New(stores, oms.StoreID, func(s oms.Store) string { return s.Name }).Name(ref)
}

// DesignerQueue lists the visible orders assigned to a designer.
func (o *Orders) DesignerQueue() []oms.Order {
	o.mu.RLock()
	users := o.meta.Users
	o.mu.RUnlock()

	designers := make(map[string]bool)
	for _, u := range users {
		if roles.IsDesigner(u.Role) {
			designers[u.Username] = true
		}
	}

	var queue []oms.Order
	for _, ord := range o.Visible() {
		if ord.ActionRole != "" && designers[ord.ActionRole] {
			queue = append(queue, ord)
		}
	}
	return queue
}

// AssignableUsers lists the users the signed-in user may assign work to.
func (o *Orders) AssignableUsers() []oms.User {
	o.mu.RLock()
	defer o.mu.RUnlock()
	actor := ""
	if o.user != nil {
		actor = o.user.Role
	}
	return roles.Assignable(o.hierarchy, actor, o.meta.Users, func(u oms.User) string { return u.Role })
}

// CreateMonthFile creates the current month's order file and reloads.
func (o *Orders) CreateMonthFile(ctx context.Context) error {
	if err := o.svc.CreateMonthFile(ctx, o.Collection().Scope()); err != nil {
		return err
	}
	return o.Collection().Reload(ctx)
}
