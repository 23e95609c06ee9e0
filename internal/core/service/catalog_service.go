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
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidName     = errors.New("name must not be empty")
	ErrDuplicateTag    = errors.New("duplicate tag")
)

// CatalogService manages products. The sale path never goes through it;
// prices read there are snapshotted inside the sale transaction.
type CatalogService struct {
	products port.CatalogRepository
}

func NewCatalogService(products port.CatalogRepository) *CatalogService {
	return &CatalogService{products: products}
}

func (s *CatalogService) CreateProduct(ctx context.Context, name, description string, price int64, category string, tags []domain.Tag) (*domain.Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	cat := domain.Category(category)
	if !cat.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if _, dup := seen[tag.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTag, tag.Name)
		}
		seen[tag.Name] = struct{}{}
	}

	now := time.Now()
	product := &domain.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Price:       price,
		Category:    cat,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.products.CreateProduct(ctx, product); err != nil {
		// Tag (name, value) pairs are unique within a category; the store
		// reports a collision as a duplicate key.
		if errors.Is(err, port.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateTag, err)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// UpdateProduct changes price and/or description. Category and name are
// immutable after creation.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, change port.ProductChange) (*domain.Product, error) {
	if change.Price != nil && *change.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if _, err := s.Product(ctx, id); err != nil {
		return nil, err
	}
	if change.Price == nil && change.Description == nil {
		return s.Product(ctx, id)
	}

	if err := s.products.UpdateProduct(ctx, id, change); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return s.Product(ctx, id)
}

func (s *CatalogService) Product(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.ProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return product, nil
}

func (s *CatalogService) Products(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListProducts(ctx)
}
