package domain

import "time"

// Stock is the quantity of a product held at a location. A missing row is
// equivalent to quantity zero; committed quantities are never negative.
type Stock struct {
	ProductID  string
	LocationID string
	Quantity   int
	UpdatedAt  time.Time
}

// StockLine is the joined price/quantity view the sale path reads in a
// single fetch: current stock at the location plus the product's price at
// the time of the read.
type StockLine struct {
	ProductID string
	UnitPrice int64
	Quantity  int
}
