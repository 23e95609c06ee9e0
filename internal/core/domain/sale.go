package domain

import "time"

type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// CartItem is a single line of a sale request.
type CartItem struct {
	ProductID string
	Quantity  int
}

// Sale is immutable once persisted. TotalPrice always equals the sum of
// its items' line totals.
type Sale struct {
	ID         string
	CustomerID string // optional, empty when the buyer is anonymous
	SellerID   string
	LocationID string
	Status     SaleStatus
	TotalPrice int64
	Items      []SaleItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SaleItem records the unit price as a snapshot taken at sale time; later
// catalog price changes do not affect it.
type SaleItem struct {
	SaleID    string
	ProductID string
	Quantity  int
	UnitPrice int64
	LineTotal int64
}
