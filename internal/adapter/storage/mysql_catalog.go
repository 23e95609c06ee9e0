package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/lp2808/retail-pos/internal/core/domain"
	"github.com/lp2808/retail-pos/internal/port"
)

// CreateProduct inserts the product and its tags in one transaction. Tag
// uniqueness, per product and per (category, name, value), is enforced by
// unique indexes and surfaces as port.ErrDuplicateKey.
func (m *MySQLStore) CreateProduct(ctx context.Context, product *domain.Product) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query, args, err := squirrel.
		Insert("product").
		SetMap(map[string]interface{}{
			"id":          product.ID,
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"category":    string(product.Category),
			"created_at":  product.CreatedAt,
			"updated_at":  product.UpdatedAt,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build product insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return translateMySQL("insert product", err)
	}

	if len(product.Tags) > 0 {
		builder := squirrel.
			Insert("product_tag").
			Columns("product_id", "category", "name", "value")
		for _, tag := range product.Tags {
			builder = builder.Values(product.ID, string(product.Category), tag.Name, tag.Value)
		}
		query, args, err := builder.ToSql()
		if err != nil {
			return fmt.Errorf("build tag insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return translateMySQL("insert tags", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return translateMySQL("commit tx", err)
	}
	return nil
}

func (m *MySQLStore) UpdateProduct(ctx context.Context, id string, change port.ProductChange) error {
	values := map[string]interface{}{}
	if change.Description != nil {
		values["description"] = *change.Description
	}
	if change.Price != nil {
		values["price"] = *change.Price
	}
	if len(values) == 0 {
		return nil
	}
	values["updated_at"] = squirrel.Expr("NOW()")

	query, args, err := squirrel.
		Update("product").
		SetMap(values).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build product update: %w", err)
	}

	res, err := m.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateMySQL("update product", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update product %s: no such row", id)
	}
	return nil
}

func (m *MySQLStore) ProductByID(ctx context.Context, id string) (*domain.Product, error) {
	var (
		product  domain.Product
		category string
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, category, created_at, updated_at
		FROM product WHERE id = ?`, id,
	).Scan(&product.ID, &product.Name, &product.Description, &product.Price,
		&category, &product.CreatedAt, &product.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateMySQL("query product", err)
	}
	product.Category = domain.Category(category)

	rows, err := m.db.QueryContext(ctx, `
		SELECT name, value FROM product_tag WHERE product_id = ? ORDER BY name`, id)
	if err != nil {
		return nil, translateMySQL("query tags", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.Name, &tag.Value); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		product.Tags = append(product.Tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, translateMySQL("read tags", err)
	}
	return &product, nil
}

func (m *MySQLStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, description, price, category, created_at, updated_at
		FROM product ORDER BY name`)
	if err != nil {
		return nil, translateMySQL("query products", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var (
			product  domain.Product
			category string
		)
		if err := rows.Scan(&product.ID, &product.Name, &product.Description,
			&product.Price, &category, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		product.Category = domain.Category(category)
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, translateMySQL("read products", err)
	}
	return products, nil
}

func (m *MySQLStore) CreateLocation(ctx context.Context, location *domain.Location) error {
	query, args, err := squirrel.
		Insert("location").
		SetMap(map[string]interface{}{
			"id":         location.ID,
			"address":    location.Address,
			"created_at": location.CreatedAt,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build location insert: %w", err)
	}

	if _, err := m.db.ExecContext(ctx, query, args...); err != nil {
		return translateMySQL("insert location", err)
	}
	return nil
}

func (m *MySQLStore) LocationByID(ctx context.Context, id string) (*domain.Location, error) {
	var location domain.Location
	err := m.db.QueryRowContext(ctx, `
		SELECT id, address, created_at FROM location WHERE id = ?`, id,
	).Scan(&location.ID, &location.Address, &location.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateMySQL("query location", err)
	}
	return &location, nil
}

func (m *MySQLStore) ListLocations(ctx context.Context) ([]domain.Location, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT id, address, created_at FROM location ORDER BY address`)
	if err != nil {
		return nil, translateMySQL("query locations", err)
	}
	defer rows.Close()

	var locations []domain.Location
	for rows.Next() {
		var location domain.Location
		if err := rows.Scan(&location.ID, &location.Address, &location.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, location)
	}
	if err := rows.Err(); err != nil {
		return nil, translateMySQL("read locations", err)
	}
	return locations, nil
}

// Upsert sets an absolute stock quantity. Administrative path only.
func (m *MySQLStore) Upsert(ctx context.Context, locationID, productID string, quantity int) error {
	query, args, err := squirrel.
		Insert("stock").
		Columns("product_id", "location_id", "quantity").
		Values(productID, locationID, quantity).
		Suffix("ON DUPLICATE KEY UPDATE quantity = VALUES(quantity)").
		ToSql()
	if err != nil {
		return fmt.Errorf("build stock upsert: %w", err)
	}

	if _, err := m.db.ExecContext(ctx, query, args...); err != nil {
		return translateMySQL("upsert stock", err)
	}
	return nil
}

func (m *MySQLStore) LocationStock(ctx context.Context, locationID string) ([]domain.Stock, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, location_id, quantity, updated_at
		FROM stock WHERE location_id = ? ORDER BY product_id`, locationID)
	if err != nil {
		return nil, translateMySQL("query stock", err)
	}
	defer rows.Close()

	var levels []domain.Stock
	for rows.Next() {
		var stock domain.Stock
		if err := rows.Scan(&stock.ProductID, &stock.LocationID, &stock.Quantity, &stock.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		levels = append(levels, stock)
	}
	if err := rows.Err(); err != nil {
		return nil, translateMySQL("read stock", err)
	}
	return levels, nil
}
