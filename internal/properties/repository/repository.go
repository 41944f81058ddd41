// Package repository provides data access for properties and their
// inventory lines.
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

// Inventory line provenance. Transfer-created lines carry SourceTransfer so
// cleanup is a flag check instead of name matching.
const (
	SourceManual   = "manual"
	SourceTransfer = "transfer"
)

// Property is a rental property.
type Property struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	OwnerName string `json:"ownerName"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// InventoryItem is one inventory line of a property. ItemID back-references
// a warehouse stock row for transfer-created lines; InvNumber carries the
// legacy inventory number where one exists.
type InventoryItem struct {
	ID         string  `json:"id"`
	PropertyID string  `json:"propertyId"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	ItemID     *string `json:"itemId"`
	InvNumber  *string `json:"invNumber"`
	Source     string  `json:"source"`
	CreatedAt  string  `json:"createdAt"`
}

// CreatePropertyParams carries the fields for a new property.
type CreatePropertyParams struct {
	Name      string
	Address   string
	OwnerName string
}

// UpdatePropertyParams is a partial property update.
type UpdatePropertyParams struct {
	Name      *string
	Address   *string
	OwnerName *string
}

// InsertInventoryParams carries the fields for a new inventory line.
type InsertInventoryParams struct {
	PropertyID string
	Name       string
	Quantity   int
	ItemID     *string
	InvNumber  *string
	Source     string
}

// Repository defines data access for properties.
type Repository interface {
	ListProperties(ctx context.Context) ([]Property, error)
	GetProperty(ctx context.Context, id string) (Property, error)
	CreateProperty(ctx context.Context, params CreatePropertyParams) (Property, error)
	UpdateProperty(ctx context.Context, id string, params UpdatePropertyParams) (Property, error)
	ListInventory(ctx context.Context, propertyID string) ([]InventoryItem, error)
	InsertInventory(ctx context.Context, params InsertInventoryParams) (InventoryItem, error)
	IncrementInventoryByInvNumber(ctx context.Context, propertyID, invNumber string, qty int) (bool, error)
	DeleteInventoryItems(ctx context.Context, ids []string) error
}

// Repo is the pgx implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new properties repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const propertyColumns = `id, name, address, owner_name, created_at, updated_at`

func scanProperty(scan func(dest ...any) error) (Property, error) {
	var p Property
	var createdAt, updatedAt time.Time
	err := scan(&p.ID, &p.Name, &p.Address, &p.OwnerName, &createdAt, &updatedAt)
	if err != nil {
		return Property{}, err
	}
	p.CreatedAt = createdAt.Format(time.RFC3339)
	p.UpdatedAt = updatedAt.Format(time.RFC3339)
	return p, nil
}

// ListProperties returns all properties ordered by name.
func (r *Repo) ListProperties(ctx context.Context) ([]Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties ORDER BY name`, propertyColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var properties []Property
	for rows.Next() {
		p, err := scanProperty(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

// GetProperty returns a single property by id.
func (r *Repo) GetProperty(ctx context.Context, id string) (Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE id = $1`, propertyColumns)

	p, err := scanProperty(r.pool.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, apperr.NotFound("property not found")
		}
		return Property{}, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

// CreateProperty inserts a new property.
func (r *Repo) CreateProperty(ctx context.Context, params CreatePropertyParams) (Property, error) {
	query := fmt.Sprintf(`
		INSERT INTO properties (id, name, address, owner_name)
		VALUES ($1, $2, $3, $4)
		RETURNING %s`, propertyColumns)

	p, err := scanProperty(r.pool.QueryRow(ctx, query,
		uuid.New().String(), params.Name, params.Address, params.OwnerName,
	).Scan)
	if err != nil {
		return Property{}, fmt.Errorf("create property: %w", err)
	}
	return p, nil
}

// UpdateProperty applies a partial update.
func (r *Repo) UpdateProperty(ctx context.Context, id string, params UpdatePropertyParams) (Property, error) {
	query := fmt.Sprintf(`
		UPDATE properties SET
			name = COALESCE($2, name),
			address = COALESCE($3, address),
			owner_name = COALESCE($4, owner_name),
			updated_at = now()
		WHERE id = $1
		RETURNING %s`, propertyColumns)

	p, err := scanProperty(r.pool.QueryRow(ctx, query, id, params.Name, params.Address, params.OwnerName).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, apperr.NotFound("property not found")
		}
		return Property{}, fmt.Errorf("update property: %w", err)
	}
	return p, nil
}

const inventoryColumns = `id, property_id, name, quantity, item_id, inv_number, source, created_at`

func scanInventory(scan func(dest ...any) error) (InventoryItem, error) {
	var item InventoryItem
	var createdAt time.Time
	err := scan(&item.ID, &item.PropertyID, &item.Name, &item.Quantity, &item.ItemID, &item.InvNumber, &item.Source, &createdAt)
	if err != nil {
		return InventoryItem{}, err
	}
	item.CreatedAt = createdAt.Format(time.RFC3339)
	return item, nil
}

// ListInventory returns a property's inventory lines.
func (r *Repo) ListInventory(ctx context.Context, propertyID string) ([]InventoryItem, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM property_inventory_items
		WHERE property_id = $1
		ORDER BY name`, inventoryColumns)

	rows, err := r.pool.Query(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		item, err := scanInventory(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// InsertInventory adds a new inventory line.
func (r *Repo) InsertInventory(ctx context.Context, params InsertInventoryParams) (InventoryItem, error) {
	source := params.Source
	if source == "" {
		source = SourceManual
	}

	query := fmt.Sprintf(`
		INSERT INTO property_inventory_items (id, property_id, name, quantity, item_id, inv_number, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, inventoryColumns)

	item, err := scanInventory(r.pool.QueryRow(ctx, query,
		uuid.New().String(), params.PropertyID, params.Name, params.Quantity,
		params.ItemID, params.InvNumber, source,
	).Scan)
	if err != nil {
		return InventoryItem{}, fmt.Errorf("insert inventory: %w", err)
	}
	return item, nil
}

// IncrementInventoryByInvNumber adds qty to the line with the given
// inventory number. Returns false when no such line exists.
func (r *Repo) IncrementInventoryByInvNumber(ctx context.Context, propertyID, invNumber string, qty int) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE property_inventory_items
		SET quantity = quantity + $3
		WHERE property_id = $1 AND inv_number = $2`,
		propertyID, invNumber, qty)
	if err != nil {
		return false, fmt.Errorf("increment inventory: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteInventoryItems removes the given inventory lines.
func (r *Repo) DeleteInventoryItems(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM property_inventory_items WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("delete inventory items: %w", err)
	}
	return nil
}
