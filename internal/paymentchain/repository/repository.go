// Package repository provides data access for payment chain edges and
// their evidence files.
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

// Edge kinds. The owner receipt tile is derived from the rent timeline and
// never stored.
const (
	KindC1ToOwner = "c1_to_owner"
	KindC2ToC1    = "c2_to_c1"
)

// File tiles. Evidence can be attached to the derived tile too.
const (
	TileOwnerReceipt = "owner_receipt"
	TileC1ToOwner    = KindC1ToOwner
	TileC2ToC1       = KindC2ToC1
)

// Edge is a stored payment chain edge. Nil fields mean "not configured",
// which the API renders differently from an explicit zero.
type Edge struct {
	ID          string  `json:"id"`
	PropertyID  string  `json:"propertyId"`
	Kind        string  `json:"kind"`
	PayByDay    *int    `json:"payByDay"`
	TotalCents  *int64  `json:"totalCents"`
	Description *string `json:"description"`
	KmCents     *int64  `json:"kmCents"`
	BkCents     *int64  `json:"bkCents"`
	HkCents     *int64  `json:"hkCents"`
	UpdatedAt   string  `json:"updatedAt"`
}

// File is an evidence file attached to a payment chain tile.
type File struct {
	ID          string `json:"id"`
	PropertyID  string `json:"propertyId"`
	Tile        string `json:"tile"`
	FileKey     string `json:"fileKey"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
	CreatedAt   string `json:"createdAt"`
}

// UpsertEdgeParams carries the editable edge fields.
type UpsertEdgeParams struct {
	PayByDay    *int
	TotalCents  *int64
	Description *string
	KmCents     *int64
	BkCents     *int64
	HkCents     *int64
}

// InsertFileParams carries the metadata for a stored evidence file.
type InsertFileParams struct {
	PropertyID  string
	Tile        string
	FileKey     string
	FileName    string
	ContentType string
	SizeBytes   int64
}

// Repository defines data access for the payment chain.
type Repository interface {
	ListEdges(ctx context.Context, propertyID string) ([]Edge, error)
	UpsertEdge(ctx context.Context, propertyID, kind string, params UpsertEdgeParams) (Edge, error)
	ListFiles(ctx context.Context, propertyID string) ([]File, error)
	GetFile(ctx context.Context, id string) (File, error)
	InsertFile(ctx context.Context, params InsertFileParams) (File, error)
	DeleteFile(ctx context.Context, id string) error
}

// Repo is the pgx implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new payment chain repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const edgeColumns = `id, property_id, kind, pay_by_day, total_cents, description,
	km_cents, bk_cents, hk_cents, updated_at`

func scanEdge(scan func(dest ...any) error) (Edge, error) {
	var edge Edge
	var updatedAt time.Time
	err := scan(
		&edge.ID, &edge.PropertyID, &edge.Kind, &edge.PayByDay, &edge.TotalCents,
		&edge.Description, &edge.KmCents, &edge.BkCents, &edge.HkCents, &updatedAt,
	)
	if err != nil {
		return Edge{}, err
	}
	edge.UpdatedAt = updatedAt.Format(time.RFC3339)
	return edge, nil
}

// ListEdges returns the stored edges for a property.
func (r *Repo) ListEdges(ctx context.Context, propertyID string) ([]Edge, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payment_chain_edges
		WHERE property_id = $1
		ORDER BY kind`, edgeColumns)

	rows, err := r.pool.Query(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list payment chain edges: %w", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		edge, err := scanEdge(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan payment chain edge: %w", err)
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}

// UpsertEdge inserts or replaces the edge of the given kind for a property.
func (r *Repo) UpsertEdge(ctx context.Context, propertyID, kind string, params UpsertEdgeParams) (Edge, error) {
	query := fmt.Sprintf(`
		INSERT INTO payment_chain_edges (
			id, property_id, kind, pay_by_day, total_cents, description,
			km_cents, bk_cents, hk_cents, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (property_id, kind) DO UPDATE SET
			pay_by_day = EXCLUDED.pay_by_day,
			total_cents = EXCLUDED.total_cents,
			description = EXCLUDED.description,
			km_cents = EXCLUDED.km_cents,
			bk_cents = EXCLUDED.bk_cents,
			hk_cents = EXCLUDED.hk_cents,
			updated_at = now()
		RETURNING %s`, edgeColumns)

	edge, err := scanEdge(r.pool.QueryRow(ctx, query,
		uuid.New().String(), propertyID, kind,
		params.PayByDay, params.TotalCents, params.Description,
		params.KmCents, params.BkCents, params.HkCents,
	).Scan)
	if err != nil {
		return Edge{}, fmt.Errorf("upsert payment chain edge: %w", err)
	}
	return edge, nil
}

const fileColumns = `id, property_id, tile, file_key, file_name, content_type, size_bytes, created_at`

func scanFile(scan func(dest ...any) error) (File, error) {
	var file File
	var createdAt time.Time
	err := scan(
		&file.ID, &file.PropertyID, &file.Tile, &file.FileKey, &file.FileName,
		&file.ContentType, &file.SizeBytes, &createdAt,
	)
	if err != nil {
		return File{}, err
	}
	file.CreatedAt = createdAt.Format(time.RFC3339)
	return file, nil
}

// ListFiles returns all evidence files for a property across tiles.
func (r *Repo) ListFiles(ctx context.Context, propertyID string) ([]File, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payment_chain_files
		WHERE property_id = $1
		ORDER BY created_at DESC`, fileColumns)

	rows, err := r.pool.Query(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list payment chain files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		file, err := scanFile(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan payment chain file: %w", err)
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// GetFile returns a single evidence file by id.
func (r *Repo) GetFile(ctx context.Context, id string) (File, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_chain_files WHERE id = $1`, fileColumns)

	file, err := scanFile(r.pool.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return File{}, apperr.NotFound("payment chain file not found")
		}
		return File{}, fmt.Errorf("get payment chain file: %w", err)
	}
	return file, nil
}

// InsertFile records the metadata of an uploaded evidence file.
func (r *Repo) InsertFile(ctx context.Context, params InsertFileParams) (File, error) {
	query := fmt.Sprintf(`
		INSERT INTO payment_chain_files (
			id, property_id, tile, file_key, file_name, content_type, size_bytes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, fileColumns)

	file, err := scanFile(r.pool.QueryRow(ctx, query,
		uuid.New().String(), params.PropertyID, params.Tile, params.FileKey,
		params.FileName, params.ContentType, params.SizeBytes,
	).Scan)
	if err != nil {
		return File{}, fmt.Errorf("insert payment chain file: %w", err)
	}
	return file, nil
}

// DeleteFile removes an evidence file record.
func (r *Repo) DeleteFile(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM payment_chain_files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payment chain file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("payment chain file not found")
	}
	return nil
}
