package adapters

import (
	"context"

	agreementsvc "rentops_backend/internal/agreement/service"
	propertiesrepo "rentops_backend/internal/properties/repository"
)

// PropertyMaster adapts property master data to the agreement generator.
// It reads the repository directly: the agreement only needs name, address
// and owner, not the inventory view the service assembles.
type PropertyMaster struct {
	repo propertiesrepo.Repository
}

// NewPropertyMaster creates the property master data adapter.
func NewPropertyMaster(repo propertiesrepo.Repository) *PropertyMaster {
	return &PropertyMaster{repo: repo}
}

// PropertyInfo returns the agreement-facing slice of a property.
func (a *PropertyMaster) PropertyInfo(ctx context.Context, propertyID string) (agreementsvc.PropertyInfo, error) {
	property, err := a.repo.GetProperty(ctx, propertyID)
	if err != nil {
		return agreementsvc.PropertyInfo{}, err
	}
	return agreementsvc.PropertyInfo{
		Name:      property.Name,
		Address:   property.Address,
		OwnerName: property.OwnerName,
	}, nil
}

var _ agreementsvc.PropertyReader = (*PropertyMaster)(nil)
