// Package oms provides the record types exchanged with the order-management API.
package oms

import "strings"

// OrderStatus is the lifecycle state of an order as stored in the sheet.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusFulfilled OrderStatus = "Fulfilled"
	StatusCancelled OrderStatus = "Cancelled"
	StatusRefund    OrderStatus = "Refund"
	StatusResend    OrderStatus = "Resend"
)

// OrderItem is one product line of an order being created.
type OrderItem struct {
	SKU      string `json:"sku"`
	Type     string `json:"type"`
	Quantity string `json:"quantity"`
	Note     string `json:"note"`
}

// Order is a row of a month partition. StoreID holds either a store id or,
// for orders created by the dashboard, the store's display name.
type Order struct {
	ID         string      `json:"id"`
	Date       string      `json:"date"`
	StoreID    string      `json:"storeId"`
	SKU        string      `json:"sku"`
	Tracking   string      `json:"tracking"`
	Status     string      `json:"status"`
	Link       string      `json:"link,omitempty"`
	Type       string      `json:"type,omitempty"`
	Note       string      `json:"note,omitempty"`
	Quantity   string      `json:"quantity,omitempty"`
	Handler    string      `json:"handler,omitempty"`
	IsChecked  bool        `json:"isChecked"`
	ActionRole string      `json:"actionRole,omitempty"`
	Items      []OrderItem `json:"items,omitempty"`
}

// OrderID returns the order identifier. It is the id function used by the
// order collections.
func OrderID(o Order) string { return o.ID }

// OrderPatch holds the editable fields sent by an edit. Identity fields
// (id, date, store) are never part of a patch.
type OrderPatch struct {
	Type       string `json:"type"`
	SKU        string `json:"sku"`
	Quantity   string `json:"quantity"`
	Note       string `json:"note"`
	Tracking   string `json:"tracking"`
	Link       string `json:"link"`
	Status     string `json:"status"`
	ActionRole string `json:"actionRole"`
	IsChecked  bool   `json:"isChecked"`
}

// PatchFrom extracts the editable fields of an order.
func PatchFrom(o Order) OrderPatch {
	return OrderPatch{
		Type:       o.Type,
		SKU:        o.SKU,
		Quantity:   o.Quantity,
		Note:       o.Note,
		Tracking:   o.Tracking,
		Link:       o.Link,
		Status:     o.Status,
		ActionRole: o.ActionRole,
		IsChecked:  o.IsChecked,
	}
}

// Store is an entry of the store registry. Listing and Sale are normalised
// decimal strings.
type Store struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Region  string `json:"region"`
	Status  string `json:"status"`
	Listing string `json:"listing"`
	Sale    string `json:"sale"`
}

// StoreID returns the store identifier.
func StoreID(s Store) string { return s.ID }

// IsLive reports whether the store is marked live or active.
func (s Store) IsLive() bool {
	status := strings.ToUpper(strings.TrimSpace(s.Status))
	return status == "LIVE" || status == "ACTIVE"
}

// User is an account of the dashboard.
type User struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Username returns the user identifier.
func Username(u User) string { return u.Username }

// Role is a named rank in the role taxonomy. Lower levels rank higher.
type Role struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// DailyStat is a daily snapshot of registry-wide totals.
type DailyStat struct {
	Date         string `json:"date"`
	TotalListing int64  `json:"totalListing"`
	TotalSale    int64  `json:"totalSale"`
}

// StoreHistoryItem is a daily snapshot of one store.
type StoreHistoryItem struct {
	Date    string `json:"date"`
	StoreID string `json:"storeId"`
	Listing int64  `json:"listing"`
	Sale    int64  `json:"sale"`
}

// DailyRevenue is the estimated revenue for one day.
type DailyRevenue struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
}

// DashboardMetrics summarises the store registry.
type DashboardMetrics struct {
	Revenue        int64 `json:"revenue"`
	NetIncome      int64 `json:"netIncome"`
	InventoryValue int64 `json:"inventoryValue"`
	Debt           int64 `json:"debt"`
}

// Growth compares current registry totals with the latest daily snapshot.
type Growth struct {
	Listing         int64 `json:"listing"`
	Sale            int64 `json:"sale"`
	TotalListingNow int64 `json:"totalListingNow"`
	TotalSaleNow    int64 `json:"totalSaleNow"`
}

// StatusClass groups order statuses for display.
func StatusClass(status string) string {
	switch strings.ToLower(status) {
	case "fulfilled", "completed":
		return "done"
	case "pending", "processing":
		return "open"
	case "cancelled":
		return "cancelled"
	case "refund":
		return "refund"
	case "resend":
		return "resend"
	default:
		return "other"
	}
}

// FormatDisplayDate renders a YYYY-MM-DD date as DD/MM/YYYY. Anything else
// is returned unchanged.
func FormatDisplayDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return date
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}
