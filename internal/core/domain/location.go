package domain

import "time"

type Location struct {
	ID        string
	Address   string // globally unique
	CreatedAt time.Time
}
