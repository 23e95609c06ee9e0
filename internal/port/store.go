package port

import (
	"context"
	"errors"
	"time"

	"github.com/lp2808/retail-pos/internal/core/domain"
)

var (
	// ErrTxSerialization marks a transient isolation conflict (deadlock,
	// lock wait timeout). The whole transaction may be retried.
	ErrTxSerialization = errors.New("transaction serialization conflict")

	// ErrDuplicateKey marks a uniqueness violation reported by the store.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConstraint marks a foreign-key or check constraint violation.
	ErrConstraint = errors.New("constraint violation")
)

// SaleTx is the view of the store available inside a single sale
// transaction. All reads and writes happen against the same isolated
// snapshot.
type SaleTx interface {
	// StockLines returns price and current stock quantity for each product
	// at the location in one fetch, locking the touched stock rows for the
	// remainder of the transaction. Products absent from the catalog are
	// absent from the map; a missing stock row reports quantity zero.
	StockLines(ctx context.Context, locationID string, productIDs []string) (map[string]domain.StockLine, error)

	// UserByID returns nil, nil when the user does not exist.
	UserByID(ctx context.Context, id string) (*domain.User, error)

	InsertSale(ctx context.Context, sale *domain.Sale) error
	InsertSaleItems(ctx context.Context, items []domain.SaleItem) error

	// WriteStockQuantities persists absolute quantities for the given
	// products at the location in one bulk write.
	WriteStockQuantities(ctx context.Context, locationID string, quantities map[string]int) error
}

// SaleStore opens isolated transactions for the sale path.
type SaleStore interface {
	// InTx runs fn inside a repeatable-read transaction, committing when fn
	// returns nil and rolling back otherwise.
	InTx(ctx context.Context, fn func(tx SaleTx) error) error
}

// SaleRepository reads persisted sales outside the sale transaction.
type SaleRepository interface {
	// SaleByID returns the sale with its items, or nil, nil when absent.
	SaleByID(ctx context.Context, id string) (*domain.Sale, error)
}

// ProductChange is a partial update; nil fields are left untouched.
// Name, category and id are immutable after creation.
type ProductChange struct {
	Description *string
	Price       *int64
}

type CatalogRepository interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, id string, change ProductChange) error
	// ProductByID returns nil, nil when absent.
	ProductByID(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type LocationRepository interface {
	CreateLocation(ctx context.Context, location *domain.Location) error
	// LocationByID returns nil, nil when absent.
	LocationByID(ctx context.Context, id string) (*domain.Location, error)
	ListLocations(ctx context.Context) ([]domain.Location, error)
}

type StockRepository interface {
	// Upsert sets the absolute quantity of a product at a location. Used by
	// administrative stock updates, never by the sale path.
	Upsert(ctx context.Context, locationID, productID string, quantity int) error

	// LocationStock lists all stock rows at a location.
	LocationStock(ctx context.Context, locationID string) ([]domain.Stock, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	// UserByEmail and UserByID return nil, nil when absent.
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	UserByID(ctx context.Context, id string) (*domain.User, error)
	// UserByRefreshToken returns nil, nil when no user holds the token.
	UserByRefreshToken(ctx context.Context, token string) (*domain.User, error)
	UpdateRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
}
