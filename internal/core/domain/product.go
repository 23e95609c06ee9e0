package domain

import "time"

type Category string

const (
	CategoryShirt Category = "shirt"
	CategoryBag   Category = "bag"
	CategoryBook  Category = "book"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryShirt, CategoryBag, CategoryBook:
		return true
	}
	return false
}

// Tag is a category-specific attribute of a product. Tag names are unique
// per product, and a (name, value) pair is unique within a category.
type Tag struct {
	Name  string
	Value string
}

type Product struct {
	ID          string
	Name        string
	Description string
	Price       int64 // minor currency units
	Category    Category
	Tags        []Tag
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
