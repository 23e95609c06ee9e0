package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/lp2808/retail-pos/internal/core/domain"
	"github.com/lp2808/retail-pos/internal/port"
)

// Tests require a MySQL with schema.sql applied; they skip otherwise.

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/retailpos?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	return db
}

type fixture struct {
	store      *MySQLStore
	locationID string
	productID  string
	sellerID   string
}

func setupFixture(t *testing.T, db *sql.DB, quantity int) *fixture {
	t.Helper()
	ctx := context.Background()
	store := NewMySQLStore(db)

	f := &fixture{
		store:      store,
		locationID: uuid.NewString(),
		productID:  uuid.NewString(),
		sellerID:   uuid.NewString(),
	}

	now := time.Now()
	err := store.CreateLocation(ctx, &domain.Location{ID: f.locationID, Address: "addr-" + f.locationID, CreatedAt: now})
	if err != nil {
		t.Fatalf("setup location: %v", err)
	}

	err = store.CreateProduct(ctx, &domain.Product{
		ID: f.productID, Name: "Test book", Price: 900,
		Category: domain.CategoryBook, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("setup product: %v", err)
	}

	err = store.CreateUser(ctx, &domain.User{
		ID: f.sellerID, Email: f.sellerID + "@example.com", Name: "Seller",
		PasswordHash: "x", Role: domain.RoleSeller, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("setup user: %v", err)
	}

	if err := store.Upsert(ctx, f.locationID, f.productID, quantity); err != nil {
		t.Fatalf("setup stock: %v", err)
	}

	t.Cleanup(func() {
		db.ExecContext(ctx, `DELETE FROM sale_item WHERE product_id = ?`, f.productID)
		db.ExecContext(ctx, `DELETE FROM sale WHERE location_id = ?`, f.locationID)
		db.ExecContext(ctx, `DELETE FROM stock WHERE location_id = ?`, f.locationID)
		db.ExecContext(ctx, `DELETE FROM product_tag WHERE product_id = ?`, f.productID)
		db.ExecContext(ctx, `DELETE FROM product WHERE id = ?`, f.productID)
		db.ExecContext(ctx, `DELETE FROM location WHERE id = ?`, f.locationID)
		db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, f.sellerID)
	})

	return f
}

func TestStockLines(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	f := setupFixture(t, db, 5)

	err := f.store.InTx(ctx, func(tx port.SaleTx) error {
		lines, err := tx.StockLines(ctx, f.locationID, []string{f.productID, "no-such-product"})
		if err != nil {
			return err
		}

		line, ok := lines[f.productID]
		if !ok {
			t.Fatal("expected a line for the seeded product")
		}
		if line.Quantity != 5 || line.UnitPrice != 900 {
			t.Errorf("unexpected line: %+v", line)
		}

		// Products absent from the catalog are absent from the result.
		if _, ok := lines["no-such-product"]; ok {
			t.Error("unexpected line for unknown product")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}
}

func TestStockLines_MissingRowIsZero(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	f := setupFixture(t, db, 3)

	otherLocation := uuid.NewString()
	err := f.store.CreateLocation(ctx, &domain.Location{ID: otherLocation, Address: "addr-" + otherLocation, CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("setup location: %v", err)
	}
	t.Cleanup(func() {
		db.ExecContext(ctx, `DELETE FROM location WHERE id = ?`, otherLocation)
	})

	err = f.store.InTx(ctx, func(tx port.SaleTx) error {
		lines, err := tx.StockLines(ctx, otherLocation, []string{f.productID})
		if err != nil {
			return err
		}
		if line := lines[f.productID]; line.Quantity != 0 {
			t.Errorf("expected quantity 0 for missing stock row, got %d", line.Quantity)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}
}

func TestInTx_RollbackOnError(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	f := setupFixture(t, db, 5)

	boom := errors.New("boom")
	err := f.store.InTx(ctx, func(tx port.SaleTx) error {
		if err := tx.WriteStockQuantities(ctx, f.locationID, map[string]int{f.productID: 1}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got: %v", err)
	}

	levels, err := f.store.LocationStock(ctx, f.locationID)
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if len(levels) != 1 || levels[0].Quantity != 5 {
		t.Errorf("expected quantity unchanged at 5, got %+v", levels)
	}
}

func TestSaleRoundTrip(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	f := setupFixture(t, db, 5)

	now := time.Now().Truncate(time.Second)
	saleID := uuid.NewString()
	sale := &domain.Sale{
		ID: saleID, SellerID: f.sellerID, LocationID: f.locationID,
		Status: domain.SaleStatusCompleted, TotalPrice: 2700,
		CreatedAt: now, UpdatedAt: now,
	}
	items := []domain.SaleItem{
		{SaleID: saleID, ProductID: f.productID, Quantity: 3, UnitPrice: 900, LineTotal: 2700},
	}

	err := f.store.InTx(ctx, func(tx port.SaleTx) error {
		if err := tx.InsertSale(ctx, sale); err != nil {
			return err
		}
		if err := tx.InsertSaleItems(ctx, items); err != nil {
			return err
		}
		return tx.WriteStockQuantities(ctx, f.locationID, map[string]int{f.productID: 2})
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}

	loaded, err := f.store.SaleByID(ctx, saleID)
	if err != nil {
		t.Fatalf("SaleByID failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("sale not found")
	}
	if loaded.TotalPrice != 2700 || loaded.Status != domain.SaleStatusCompleted {
		t.Errorf("unexpected sale: %+v", loaded)
	}
	if len(loaded.Items) != 1 || loaded.Items[0].LineTotal != 2700 {
		t.Errorf("unexpected items: %+v", loaded.Items)
	}

	levels, err := f.store.LocationStock(ctx, f.locationID)
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if len(levels) != 1 || levels[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %+v", levels)
	}
}

func TestCreateProduct_TagCollision(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	store := NewMySQLStore(db)

	now := time.Now()
	value := uuid.NewString()
	first := &domain.Product{
		ID: uuid.NewString(), Name: "Shirt A", Price: 100, Category: domain.CategoryShirt,
		Tags:      []domain.Tag{{Name: "sku", Value: value}},
		CreatedAt: now, UpdatedAt: now,
	}
	second := &domain.Product{
		ID: uuid.NewString(), Name: "Shirt B", Price: 120, Category: domain.CategoryShirt,
		Tags:      []domain.Tag{{Name: "sku", Value: value}},
		CreatedAt: now, UpdatedAt: now,
	}
	t.Cleanup(func() {
		for _, id := range []string{first.ID, second.ID} {
			db.ExecContext(ctx, `DELETE FROM product_tag WHERE product_id = ?`, id)
			db.ExecContext(ctx, `DELETE FROM product WHERE id = ?`, id)
		}
	})

	if err := store.CreateProduct(ctx, first); err != nil {
		t.Fatalf("first product failed: %v", err)
	}

	err := store.CreateProduct(ctx, second)
	if !errors.Is(err, port.ErrDuplicateKey) {
		t.Errorf("expected port.ErrDuplicateKey, got: %v", err)
	}
}

func TestUserRefreshTokenLookup(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	f := setupFixture(t, db, 0)

	token := uuid.NewString()
	expiresAt := time.Now().Add(time.Hour).Truncate(time.Second)
	if err := f.store.UpdateRefreshToken(ctx, f.sellerID, token, expiresAt); err != nil {
		t.Fatalf("update refresh token: %v", err)
	}

	user, err := f.store.UserByRefreshToken(ctx, token)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if user == nil || user.ID != f.sellerID {
		t.Fatalf("expected seller, got %+v", user)
	}
	if !user.RefreshExpiresAt.Equal(expiresAt) {
		t.Errorf("expected expiry %v, got %v", expiresAt, user.RefreshExpiresAt)
	}

	missing, err := f.store.UserByRefreshToken(ctx, "no-such-token")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown token, got %+v", missing)
	}
}
