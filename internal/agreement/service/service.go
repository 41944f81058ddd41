// Package service generates rental agreement PDFs for confirmed bookings
// and stores them in object storage. Generation is idempotent per booking:
// re-running replaces the stored document.
package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"rentops_backend/internal/adapters/storage"
	"rentops_backend/internal/agreement/pdf"
	"rentops_backend/internal/agreement/repository"
	"rentops_backend/platform/logger"
)

// PropertyInfo is the property slice the agreement document needs.
type PropertyInfo struct {
	Name      string
	Address   string
	OwnerName string
}

// PropertyReader resolves property master data. Implemented by an adapter
// over the properties module.
type PropertyReader interface {
	PropertyInfo(ctx context.Context, propertyID string) (PropertyInfo, error)
}

// RentResolver resolves the warm rent total active on a date.
type RentResolver interface {
	ActiveWarmTotal(ctx context.Context, propertyID, asOf string) (int64, bool, error)
}

// Input carries everything needed to generate an agreement. All fields come
// from the booking confirmation.
type Input struct {
	BookingID  string
	ProformaID string
	PropertyID string
	StartDate  string
	EndDate    string
	GuestName  string
	GuestEmail string
}

// Service generates and serves rental agreements.
type Service struct {
	repo       repository.Repository
	properties PropertyReader
	rents      RentResolver
	storage    storage.StorageService
	bucket     string
	log        *logger.Logger
}

// New creates a new agreement service.
func New(repo repository.Repository, properties PropertyReader, rents RentResolver, storageSvc storage.StorageService, bucket string, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		properties: properties,
		rents:      rents,
		storage:    storageSvc,
		bucket:     bucket,
		log:        log,
	}
}

// Generate renders the agreement PDF for a booking and stores it. A missing
// rent timeline row does not block generation; the document falls back to
// "nach Vereinbarung".
func (s *Service) Generate(ctx context.Context, input Input) (repository.AgreementFile, error) {
	property, err := s.properties.PropertyInfo(ctx, input.PropertyID)
	if err != nil {
		return repository.AgreementFile{}, err
	}

	warmRent, configured, err := s.rents.ActiveWarmTotal(ctx, input.PropertyID, input.StartDate)
	if err != nil {
		s.log.Error("failed to resolve rent for agreement", "propertyId", input.PropertyID, "error", err)
		warmRent, configured = 0, false
	}

	doc, err := pdf.GenerateAgreementPDF(pdf.AgreementData{
		BookingID:       input.BookingID,
		ProformaID:      input.ProformaID,
		PropertyName:    property.Name,
		PropertyAddress: property.Address,
		OwnerName:       property.OwnerName,
		GuestName:       input.GuestName,
		GuestEmail:      input.GuestEmail,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		WarmRentCents:   warmRent,
		RentConfigured:  configured,
		GeneratedAt:     time.Now(),
	})
	if err != nil {
		return repository.AgreementFile{}, fmt.Errorf("generate agreement: %w", err)
	}

	fileName := fmt.Sprintf("mietvertrag-%s.pdf", input.BookingID)
	folder := fmt.Sprintf("bookings/%s", input.BookingID)
	fileKey, err := s.storage.UploadFile(ctx, s.bucket, folder, fileName, "application/pdf",
		bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return repository.AgreementFile{}, fmt.Errorf("store agreement: %w", err)
	}

	file, err := s.repo.Upsert(ctx, input.BookingID, input.PropertyID, fileKey, fileName)
	if err != nil {
		return repository.AgreementFile{}, err
	}

	s.log.Info("agreement generated", "bookingId", input.BookingID, "fileKey", fileKey)
	return file, nil
}

// DownloadURL returns a presigned URL for a booking's agreement.
func (s *Service) DownloadURL(ctx context.Context, bookingID string) (*storage.PresignedURL, error) {
	file, err := s.repo.GetByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.storage.GenerateDownloadURL(ctx, s.bucket, file.FileKey)
}
