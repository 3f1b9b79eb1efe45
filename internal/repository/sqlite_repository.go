package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"
)

// sqliteTimeLayout is fixed width so created_at sorts as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository is the local backend: product catalog and order history
// in a single SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time, SQLite locks the whole file anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, productID string) (*domain.Product, error) {
	query := `
		SELECT id, name, description, price, image_url, stock, category_id, featured, created_at
		FROM products
		WHERE id = ?
	`

	var (
		p         domain.Product
		featured  int
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, query, productID).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.UnitPrice,
		&p.ImageRef,
		&p.Stock,
		&p.CategoryID,
		&featured,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(productID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	p.Featured = featured != 0
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at of product %s: %w", productID, err)
	}
	return &p, nil
}

// SetStock overwrites the stock level of a product.
func (r *SQLiteRepository) SetStock(ctx context.Context, productID string, stock int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET stock = ? WHERE id = ?`, stock, productID)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(productID)
	}
	return nil
}

func (r *SQLiteRepository) Create(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	query := `INSERT INTO orders (id, user_id, items, subtotal, shipping, discount, tax, total, status, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.OwnerID,
		string(itemsJSON),
		order.Subtotal.String(),
		order.Shipping.String(),
		order.Discount.String(),
		order.Tax.String(),
		order.Total.String(),
		string(order.Status),
		order.CreatedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		if exists, _ := r.orderExists(ctx, order.ID); exists {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) orderExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM orders WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Order, error) {
	query := `SELECT id, user_id, items, subtotal, shipping, discount, tax, total, status, created_at
	          FROM orders WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var (
			order     domain.Order
			itemsJSON string
			createdAt string
		)
		if err := rows.Scan(
			&order.ID,
			&order.OwnerID,
			&itemsJSON,
			&order.Subtotal,
			&order.Shipping,
			&order.Discount,
			&order.Tax,
			&order.Total,
			&order.Status,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		if err := json.Unmarshal([]byte(itemsJSON), &order.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
		if order.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at of order %s: %w", order.ID, err)
		}
		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
