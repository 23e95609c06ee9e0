package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lp2808/retail-pos/internal/core/domain"
	"github.com/lp2808/retail-pos/internal/port"
)

var (
	ErrEmptyCart         = errors.New("cart has no items")
	ErrDuplicateProduct  = errors.New("duplicate product in cart")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
	ErrSellerNotFound    = errors.New("seller not found")
	ErrSaleNotFound      = errors.New("sale not found")
	ErrDuplicateRequest  = errors.New("duplicate request")
)

const idempotencyKeyPrefix = "sale:"

// SaleService coordinates the sale transaction: it validates a cart against
// current stock, snapshots prices, decrements inventory and appends the sale
// to the ledger as one atomic unit.
type SaleService struct {
	store      port.SaleStore
	sales      port.SaleRepository
	cache      port.CacheRepository
	maxRetries int
}

// NewSaleService wires the coordinator. cache may be nil, in which case
// request idempotency is not enforced. maxRetries bounds re-runs of the
// transaction after a serialization conflict.
func NewSaleService(store port.SaleStore, sales port.SaleRepository, cache port.CacheRepository, maxRetries int) *SaleService {
	return &SaleService{
		store:      store,
		sales:      sales,
		cache:      cache,
		maxRetries: maxRetries,
	}
}

// CreateSale validates the cart, then runs the sale transaction. requestKey
// is an optional caller-supplied idempotency key; the empty string disables
// the check. Insufficient stock and unknown seller are terminal; conflicts
// reported by the store's isolation mechanism are retried with the whole
// transaction re-run, bounded by maxRetries.
func (s *SaleService) CreateSale(ctx context.Context, sellerID, locationID, requestKey string, items []domain.CartItem) (*domain.Sale, error) {
	if err := validateCart(items); err != nil {
		return nil, err
	}

	if requestKey != "" && s.cache != nil {
		key := idempotencyKeyPrefix + requestKey
		ok, err := s.cache.SetIdempotency(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}

		sale, err := s.createSaleRetrying(ctx, sellerID, locationID, items)
		if err != nil {
			// Free the key so the caller may retry with the same request id.
			if clearErr := s.cache.ClearIdempotency(ctx, key); clearErr != nil {
				return nil, fmt.Errorf("clear idempotency after %w: %v", err, clearErr)
			}
			return nil, err
		}
		return sale, nil
	}

	return s.createSaleRetrying(ctx, sellerID, locationID, items)
}

// Sale returns a persisted sale with its items.
func (s *SaleService) Sale(ctx context.Context, id string) (*domain.Sale, error) {
	sale, err := s.sales.SaleByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load sale: %w", err)
	}
	if sale == nil {
		return nil, fmt.Errorf("%w: %s", ErrSaleNotFound, id)
	}
	return sale, nil
}

func validateCart(items []domain.CartItem) error {
	if len(items) == 0 {
		return ErrEmptyCart
	}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: product %s", ErrInvalidQuantity, item.ProductID)
		}
		if _, dup := seen[item.ProductID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateProduct, item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}
	return nil
}

func (s *SaleService) createSaleRetrying(ctx context.Context, sellerID, locationID string, items []domain.CartItem) (*domain.Sale, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		sale, err := s.createSaleTx(ctx, sellerID, locationID, items)
		if err == nil {
			return sale, nil
		}
		if !errors.Is(err, port.ErrTxSerialization) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("sale transaction retries exhausted: %w", lastErr)
}

func (s *SaleService) createSaleTx(ctx context.Context, sellerID, locationID string, items []domain.CartItem) (*domain.Sale, error) {
	productIDs := make([]string, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}

	var sale *domain.Sale
	err := s.store.InTx(ctx, func(tx port.SaleTx) error {
		lines, err := tx.StockLines(ctx, locationID, productIDs)
		if err != nil {
			return fmt.Errorf("read stock: %w", err)
		}

		for _, item := range items {
			line, ok := lines[item.ProductID]
			if !ok {
				return fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
			}
			if line.Quantity < item.Quantity {
				return fmt.Errorf("%w: product %s has %d at location %s, requested %d",
					ErrInsufficientStock, item.ProductID, line.Quantity, locationID, item.Quantity)
			}
		}

		seller, err := tx.UserByID(ctx, sellerID)
		if err != nil {
			return fmt.Errorf("resolve seller: %w", err)
		}
		if seller == nil {
			return fmt.Errorf("%w: %s", ErrSellerNotFound, sellerID)
		}

		now := time.Now()
		next := &domain.Sale{
			ID:         uuid.NewString(),
			SellerID:   seller.ID,
			LocationID: locationID,
			Status:     domain.SaleStatusCompleted,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		// All decrements are computed from the single read above before any
		// write, so no line mixes pre- and post-decrement state.
		remaining := make(map[string]int, len(items))
		for _, item := range items {
			line := lines[item.ProductID]
			saleItem := domain.SaleItem{
				SaleID:    next.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: line.UnitPrice,
				LineTotal: int64(item.Quantity) * line.UnitPrice,
			}
			next.Items = append(next.Items, saleItem)
			next.TotalPrice += saleItem.LineTotal
			remaining[item.ProductID] = line.Quantity - item.Quantity
		}

		if err := tx.InsertSale(ctx, next); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
		if err := tx.InsertSaleItems(ctx, next.Items); err != nil {
			return fmt.Errorf("insert sale items: %w", err)
		}
		if err := tx.WriteStockQuantities(ctx, locationID, remaining); err != nil {
			return fmt.Errorf("write stock: %w", err)
		}

		sale = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}
