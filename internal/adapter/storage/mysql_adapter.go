package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"

	"github.com/lp2808/retail-pos/internal/core/domain"
	"github.com/lp2808/retail-pos/internal/port"
)

// MySQL error numbers translated into port-level errors.
const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
	mysqlErrDuplicateEntry  = 1062
	mysqlErrForeignKey      = 1452
	mysqlErrCheckViolation  = 3819
)

type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// InTx runs fn inside a repeatable-read transaction. fn returning nil
// commits; anything else rolls back. Deadlocks and lock wait timeouts
// surface as port.ErrTxSerialization so the caller can re-run the whole
// transaction.
func (m *MySQLStore) InTx(ctx context.Context, fn func(tx port.SaleTx) error) error {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&saleTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return translateMySQL("commit tx", err)
	}
	return nil
}

type saleTx struct {
	tx *sql.Tx
}

// StockLines reads product price and stock quantity in one joined fetch,
// locking the matched rows until commit. Unknown products are simply absent
// from the result; a product without a stock row reports quantity zero.
func (t *saleTx) StockLines(ctx context.Context, locationID string, productIDs []string) (map[string]domain.StockLine, error) {
	query, args, err := squirrel.
		Select("p.id", "p.price", "COALESCE(s.quantity, 0)").
		From("product p").
		LeftJoin("stock s ON s.product_id = p.id AND s.location_id = ?", locationID).
		Where(squirrel.Eq{"p.id": productIDs}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stock query: %w", err)
	}

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateMySQL("query stock", err)
	}
	defer rows.Close()

	lines := make(map[string]domain.StockLine, len(productIDs))
	for rows.Next() {
		var line domain.StockLine
		if err := rows.Scan(&line.ProductID, &line.UnitPrice, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan stock line: %w", err)
		}
		lines[line.ProductID] = line
	}
	if err := rows.Err(); err != nil {
		return nil, translateMySQL("read stock rows", err)
	}
	return lines, nil
}

func (t *saleTx) UserByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(t.tx.QueryRowContext(ctx, userSelect+` WHERE id = ?`, id))
}

func (t *saleTx) InsertSale(ctx context.Context, sale *domain.Sale) error {
	var customerID any
	if sale.CustomerID != "" {
		customerID = sale.CustomerID
	}

	query, args, err := squirrel.
		Insert("sale").
		SetMap(map[string]interface{}{
			"id":          sale.ID,
			"customer_id": customerID,
			"seller_id":   sale.SellerID,
			"location_id": sale.LocationID,
			"status":      string(sale.Status),
			"total_price": sale.TotalPrice,
			"created_at":  sale.CreatedAt,
			"updated_at":  sale.UpdatedAt,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sale insert: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return translateMySQL("insert sale", err)
	}
	return nil
}

func (t *saleTx) InsertSaleItems(ctx context.Context, items []domain.SaleItem) error {
	builder := squirrel.
		Insert("sale_item").
		Columns("sale_id", "product_id", "quantity", "unit_price", "line_total")
	for _, item := range items {
		builder = builder.Values(item.SaleID, item.ProductID, item.Quantity, item.UnitPrice, item.LineTotal)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build sale item insert: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return translateMySQL("insert sale items", err)
	}
	return nil
}

// WriteStockQuantities persists absolute quantities in one bulk upsert.
// Last write wins per row; the transaction's isolation guarantees no
// interleaving writer observed a stale read.
func (t *saleTx) WriteStockQuantities(ctx context.Context, locationID string, quantities map[string]int) error {
	builder := squirrel.
		Insert("stock").
		Columns("product_id", "location_id", "quantity")
	for productID, quantity := range quantities {
		builder = builder.Values(productID, locationID, quantity)
	}

	query, args, err := builder.
		Suffix("ON DUPLICATE KEY UPDATE quantity = VALUES(quantity)").
		ToSql()
	if err != nil {
		return fmt.Errorf("build stock upsert: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return translateMySQL("write stock", err)
	}
	return nil
}

// SaleByID loads a persisted sale with its items.
func (m *MySQLStore) SaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	var (
		sale       domain.Sale
		customerID sql.NullString
		status     string
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, customer_id, seller_id, location_id, status, total_price, created_at, updated_at
		FROM sale WHERE id = ?`, id,
	).Scan(&sale.ID, &customerID, &sale.SellerID, &sale.LocationID, &status,
		&sale.TotalPrice, &sale.CreatedAt, &sale.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateMySQL("query sale", err)
	}
	sale.CustomerID = customerID.String
	sale.Status = domain.SaleStatus(status)

	rows, err := m.db.QueryContext(ctx, `
		SELECT sale_id, product_id, quantity, unit_price, line_total
		FROM sale_item WHERE sale_id = ?`, id)
	if err != nil {
		return nil, translateMySQL("query sale items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.SaleID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		sale.Items = append(sale.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, translateMySQL("read sale items", err)
	}
	return &sale, nil
}

func translateMySQL(op string, err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrLockWaitTimeout, mysqlErrDeadlock:
			return fmt.Errorf("%s: %w: %s", op, port.ErrTxSerialization, mysqlErr.Message)
		case mysqlErrDuplicateEntry:
			return fmt.Errorf("%s: %w: %s", op, port.ErrDuplicateKey, mysqlErr.Message)
		case mysqlErrForeignKey, mysqlErrCheckViolation:
			return fmt.Errorf("%s: %w: %s", op, port.ErrConstraint, mysqlErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
