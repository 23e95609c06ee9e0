package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/lp2808/retail-pos/internal/adapter/storage"
	"github.com/lp2808/retail-pos/internal/core/domain"
	"github.com/lp2808/retail-pos/internal/core/service"
)

const (
	mysqlDSN      = "root:root@tcp(localhost:3306)/retailpos?parseTime=true"
	productID     = "stress-product"
	locationID    = "stress-location"
	sellerID      = "stress-seller"
	initialStock  = 20
	totalRequests = 50
	maxRetries    = 5
)

func main() {
	ctx := context.Background()

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(50)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	if err := seed(ctx, db); err != nil {
		log.Fatalf("failed to seed test data: %v", err)
	}

	store := storage.NewMySQLStore(db)
	saleService := service.NewSaleService(store, store, nil, maxRetries)

	var successCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := saleService.CreateSale(ctx, sellerID, locationID, "", []domain.CartItem{
				{ProductID: productID, Quantity: 1},
			})
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == int32(initialStock) && fail == int32(totalRequests-initialStock) {
		fmt.Printf("PASS: Exactly %d sales succeeded, %d failed\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d fail, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
	}

	var finalStock int
	if err := db.QueryRowContext(ctx, `SELECT quantity FROM stock WHERE product_id = ? AND location_id = ?`,
		productID, locationID).Scan(&finalStock); err != nil {
		log.Fatalf("failed to read final stock: %v", err)
	}
	fmt.Printf("Final Stock:      %d\n", finalStock)

	if finalStock == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", finalStock)
	}
}

func seed(ctx context.Context, db *sql.DB) error {
	db.ExecContext(ctx, `DELETE FROM sale_item WHERE product_id = ?`, productID)
	db.ExecContext(ctx, `DELETE FROM sale WHERE location_id = ?`, locationID)

	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO location (id, address, created_at) VALUES (?, ?, NOW())
			ON DUPLICATE KEY UPDATE address = address`, []any{locationID, "1 Stress Test Rd"}},
		{`INSERT INTO product (id, name, description, price, category, created_at, updated_at)
			VALUES (?, 'Stress product', '', 1500, 'book', NOW(), NOW())
			ON DUPLICATE KEY UPDATE price = 1500`, []any{productID}},
		{`INSERT INTO users (id, email, name, password_hash, role, created_at, updated_at)
			VALUES (?, 'stress@example.com', 'Stress Seller', 'x', 'seller', NOW(), NOW())
			ON DUPLICATE KEY UPDATE role = 'seller'`, []any{sellerID}},
		{`INSERT INTO stock (product_id, location_id, quantity) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE quantity = ?`, []any{productID, locationID, initialStock, initialStock}},
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return err
		}
	}
	return nil
}
