// Package transport defines request DTOs for the properties HTTP API.
package transport

// CreatePropertyRequest is the payload for creating a property.
type CreatePropertyRequest struct {
	Name      string `json:"name" binding:"required"`
	Address   string `json:"address"`
	OwnerName string `json:"ownerName"`
}

// UpdatePropertyRequest is a partial property update.
type UpdatePropertyRequest struct {
	Name      *string `json:"name"`
	Address   *string `json:"address"`
	OwnerName *string `json:"ownerName"`
}

// AddInventoryRequest is the payload for a manual inventory line.
type AddInventoryRequest struct {
	Name      string  `json:"name" binding:"required"`
	Quantity  int     `json:"quantity" validate:"gt=0"`
	ItemID    *string `json:"itemId"`
	InvNumber *string `json:"invNumber"`
}
