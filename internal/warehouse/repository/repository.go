// Package repository provides data access for warehouse stock and stock
// movements.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rentops_backend/platform/apperr"
)

// StockItem is one warehouse stock row.
type StockItem struct {
	ID          string `json:"id"`
	WarehouseID string `json:"warehouseId"`
	ItemID      string `json:"itemId"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// Movement is a recorded stock quantity change. Reference carries the
// facility task id for transfer-driven movements.
type Movement struct {
	ID        string  `json:"id"`
	StockID   string  `json:"stockId"`
	QtyChange int     `json:"qtyChange"`
	Reason    string  `json:"reason"`
	Reference *string `json:"reference"`
	CreatedAt string  `json:"createdAt"`
}

// CreateStockParams carries the fields for a new stock row.
type CreateStockParams struct {
	WarehouseID string
	ItemID      string
	Name        string
	Quantity    int
}

// Repository defines data access for warehouse stock.
type Repository interface {
	ListStock(ctx context.Context, warehouseID string) ([]StockItem, error)
	GetStock(ctx context.Context, id string) (StockItem, error)
	CreateStock(ctx context.Context, params CreateStockParams) (StockItem, error)
	AdjustQuantity(ctx context.Context, stockID string, qtyChange int, reason string) (StockItem, error)
	DecrementForReference(ctx context.Context, stockID string, qty int, reason, reference string) (bool, error)
	ListMovements(ctx context.Context, stockID string) ([]Movement, error)
}

// Repo is the pgx implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new warehouse repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const stockColumns = `id, warehouse_id, item_id, name, quantity, created_at, updated_at`

func scanStock(scan func(dest ...any) error) (StockItem, error) {
	var item StockItem
	var createdAt, updatedAt time.Time
	err := scan(&item.ID, &item.WarehouseID, &item.ItemID, &item.Name, &item.Quantity, &createdAt, &updatedAt)
	if err != nil {
		return StockItem{}, err
	}
	item.CreatedAt = createdAt.Format(time.RFC3339)
	item.UpdatedAt = updatedAt.Format(time.RFC3339)
	return item, nil
}

// ListStock returns stock rows, optionally scoped to one warehouse.
func (r *Repo) ListStock(ctx context.Context, warehouseID string) ([]StockItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM warehouse_stock`, stockColumns)
	var args []any
	if warehouseID != "" {
		query += " WHERE warehouse_id = $1"
		args = append(args, warehouseID)
	}
	query += " ORDER BY name"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()

	var items []StockItem
	for rows.Next() {
		item, err := scanStock(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetStock returns a single stock row by id.
func (r *Repo) GetStock(ctx context.Context, id string) (StockItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM warehouse_stock WHERE id = $1`, stockColumns)

	item, err := scanStock(r.pool.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockItem{}, apperr.NotFound("stock item not found")
		}
		return StockItem{}, fmt.Errorf("get stock: %w", err)
	}
	return item, nil
}

// CreateStock inserts a new stock row.
func (r *Repo) CreateStock(ctx context.Context, params CreateStockParams) (StockItem, error) {
	query := fmt.Sprintf(`
		INSERT INTO warehouse_stock (id, warehouse_id, item_id, name, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, stockColumns)

	item, err := scanStock(r.pool.QueryRow(ctx, query,
		uuid.New().String(), params.WarehouseID, params.ItemID, params.Name, params.Quantity,
	).Scan)
	if err != nil {
		return StockItem{}, fmt.Errorf("create stock: %w", err)
	}
	return item, nil
}

// AdjustQuantity applies a manual quantity change and records a movement.
func (r *Repo) AdjustQuantity(ctx context.Context, stockID string, qtyChange int, reason string) (StockItem, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return StockItem{}, fmt.Errorf("begin adjust: %w", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`
		UPDATE warehouse_stock
		SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1
		RETURNING %s`, stockColumns)

	item, err := scanStock(tx.QueryRow(ctx, query, stockID, qtyChange).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockItem{}, apperr.NotFound("stock item not found")
		}
		return StockItem{}, fmt.Errorf("adjust stock: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO stock_movements (id, stock_id, qty_change, reason)
		VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), stockID, qtyChange, reason)
	if err != nil {
		return StockItem{}, fmt.Errorf("record movement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return StockItem{}, fmt.Errorf("commit adjust: %w", err)
	}
	return item, nil
}

// DecrementForReference decrements stock by qty, keyed by reference. The
// movement row is inserted first under the unique (reference, stock_id)
// index; when the row already exists the decrement was already applied and
// the call returns false with no mutation.
func (r *Repo) DecrementForReference(ctx context.Context, stockID string, qty int, reason, reference string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin decrement: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO stock_movements (id, stock_id, qty_change, reason, reference)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (reference, stock_id) WHERE reference IS NOT NULL DO NOTHING`,
		uuid.New().String(), stockID, -qty, reason, reference)
	if err != nil {
		return false, fmt.Errorf("record movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	tag, err = tx.Exec(ctx, `
		UPDATE warehouse_stock
		SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1`,
		stockID, qty)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, apperr.NotFound("stock item not found")
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit decrement: %w", err)
	}
	return true, nil
}

// ListMovements returns the movement history for a stock row, newest first.
func (r *Repo) ListMovements(ctx context.Context, stockID string) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, stock_id, qty_change, reason, reference, created_at
		FROM stock_movements
		WHERE stock_id = $1
		ORDER BY created_at DESC`, stockID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var m Movement
		var createdAt time.Time
		if err := rows.Scan(&m.ID, &m.StockID, &m.QtyChange, &m.Reason, &m.Reference, &createdAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.CreatedAt = createdAt.Format(time.RFC3339)
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
