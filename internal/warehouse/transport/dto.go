// Package transport defines request DTOs for the warehouse HTTP API.
package transport

// CreateStockRequest is the payload for adding a stock row.
type CreateStockRequest struct {
	WarehouseID string `json:"warehouseId" binding:"required"`
	ItemID      string `json:"itemId" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Quantity    int    `json:"quantity" validate:"gte=0"`
}

// AdjustStockRequest is the payload for a manual quantity correction.
type AdjustStockRequest struct {
	QtyChange int    `json:"qtyChange" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}
