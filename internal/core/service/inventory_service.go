package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lp2808/retail-pos/internal/core/domain"
	"github.com/lp2808/retail-pos/internal/port"
)

var (
	ErrInvalidStockLevel = errors.New("stock quantity must not be negative")
	ErrInvalidAddress    = errors.New("address must not be empty")
	ErrLocationNotFound  = errors.New("location not found")
	ErrDuplicateAddress  = errors.New("address already registered")
)

// InventoryService handles administrative stock levels and locations.
// Sales never go through it; they decrement stock inside their own
// transaction.
type InventoryService struct {
	stock     port.StockRepository
	locations port.LocationRepository
	products  port.CatalogRepository
}

func NewInventoryService(stock port.StockRepository, locations port.LocationRepository, products port.CatalogRepository) *InventoryService {
	return &InventoryService{
		stock:     stock,
		locations: locations,
		products:  products,
	}
}

// SetStock sets the absolute quantity of a product at a location.
func (s *InventoryService) SetStock(ctx context.Context, locationID, productID string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidStockLevel, quantity)
	}

	location, err := s.locations.LocationByID(ctx, locationID)
	if err != nil {
		return fmt.Errorf("load location: %w", err)
	}
	if location == nil {
		return fmt.Errorf("%w: %s", ErrLocationNotFound, locationID)
	}

	product, err := s.products.ProductByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}
	if product == nil {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}

	if err := s.stock.Upsert(ctx, locationID, productID, quantity); err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// Levels lists all stock rows at a location.
func (s *InventoryService) Levels(ctx context.Context, locationID string) ([]domain.Stock, error) {
	location, err := s.locations.LocationByID(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	if location == nil {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, locationID)
	}
	return s.stock.LocationStock(ctx, locationID)
}

func (s *InventoryService) CreateLocation(ctx context.Context, address string) (*domain.Location, error) {
	if strings.TrimSpace(address) == "" {
		return nil, ErrInvalidAddress
	}

	location := &domain.Location{
		ID:        uuid.NewString(),
		Address:   address,
		CreatedAt: time.Now(),
	}
	if err := s.locations.CreateLocation(ctx, location); err != nil {
		if errors.Is(err, port.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAddress, address)
		}
		return nil, fmt.Errorf("create location: %w", err)
	}
	return location, nil
}

func (s *InventoryService) Locations(ctx context.Context) ([]domain.Location, error) {
	return s.locations.ListLocations(ctx)
}
