// Package transport defines request DTOs for the transfer HTTP API.
package transport

// TransferItem is one requested line of a staged transfer.
type TransferItem struct {
	StockID string `json:"stockId" binding:"required"`
	Qty     int    `json:"qty" binding:"required" validate:"gt=0"`
}

// StageTransferRequest stages a warehouse-to-property move.
type StageTransferRequest struct {
	WarehouseID  string         `json:"warehouseId" binding:"required"`
	ToPropertyID string         `json:"toPropertyId" binding:"required"`
	Items        []TransferItem `json:"items" binding:"required" validate:"min=1,dive"`
}
