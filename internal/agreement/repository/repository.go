// Package repository provides data access for generated rental agreement
// files.
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

// AgreementFile is the stored metadata of a generated agreement PDF. One
// row per booking; regeneration replaces the file key in place.
type AgreementFile struct {
	ID         string `json:"id"`
	BookingID  string `json:"bookingId"`
	PropertyID string `json:"propertyId"`
	FileKey    string `json:"fileKey"`
	FileName   string `json:"fileName"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// Repository defines data access for agreement files.
type Repository interface {
	GetByBooking(ctx context.Context, bookingID string) (AgreementFile, error)
	Upsert(ctx context.Context, bookingID, propertyID, fileKey, fileName string) (AgreementFile, error)
}

// Repo is the pgx implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new agreement repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const agreementColumns = `id, booking_id, property_id, file_key, file_name, created_at, updated_at`

func scanAgreement(scan func(dest ...any) error) (AgreementFile, error) {
	var file AgreementFile
	var createdAt, updatedAt time.Time
	err := scan(
		&file.ID, &file.BookingID, &file.PropertyID, &file.FileKey, &file.FileName,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return AgreementFile{}, err
	}
	file.CreatedAt = createdAt.Format(time.RFC3339)
	file.UpdatedAt = updatedAt.Format(time.RFC3339)
	return file, nil
}

// GetByBooking returns the agreement file for a booking.
func (r *Repo) GetByBooking(ctx context.Context, bookingID string) (AgreementFile, error) {
	query := fmt.Sprintf(`SELECT %s FROM agreement_files WHERE booking_id = $1`, agreementColumns)

	file, err := scanAgreement(r.pool.QueryRow(ctx, query, bookingID).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AgreementFile{}, apperr.NotFound("agreement not found")
		}
		return AgreementFile{}, fmt.Errorf("get agreement file: %w", err)
	}
	return file, nil
}

// Upsert records the agreement file for a booking, replacing the key of an
// earlier generation.
func (r *Repo) Upsert(ctx context.Context, bookingID, propertyID, fileKey, fileName string) (AgreementFile, error) {
	query := fmt.Sprintf(`
		INSERT INTO agreement_files (id, booking_id, property_id, file_key, file_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (booking_id) DO UPDATE SET
			file_key = EXCLUDED.file_key,
			file_name = EXCLUDED.file_name,
			updated_at = now()
		RETURNING %s`, agreementColumns)

	file, err := scanAgreement(r.pool.QueryRow(ctx, query,
		uuid.New().String(), bookingID, propertyID, fileKey, fileName,
	).Scan)
	if err != nil {
		return AgreementFile{}, fmt.Errorf("upsert agreement file: %w", err)
	}
	return file, nil
}
