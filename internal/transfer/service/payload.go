package service

import (
	"encoding/json"
	"strings"
)

// payloadKind marks a task description as carrying a staged transfer.
const payloadKind = "inventory_transfer"

// PayloadItem is one staged line of a transfer.
type PayloadItem struct {
	StockID  string `json:"stockId"`
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Qty      int    `json:"qty"`
	Executed bool   `json:"executed"`
}

// Payload is the transfer instruction embedded in a facility task's
// description. TransferExecuted is the guard flag: it is set only after
// every item has been decremented and merged, so a retry after partial
// failure re-attempts the remaining items.
type Payload struct {
	Kind             string        `json:"kind"`
	WarehouseID      string        `json:"warehouseId"`
	ToPropertyID     string        `json:"toPropertyId"`
	Items            []PayloadItem `json:"items"`
	TransferExecuted bool          `json:"transferExecuted"`
}

// ParsePayload decodes a task description into a transfer payload. Returns
// false for descriptions that are not staged transfers.
func ParsePayload(description string) (Payload, bool) {
	trimmed := strings.TrimSpace(description)
	if !strings.HasPrefix(trimmed, "{") {
		return Payload{}, false
	}

	var p Payload
	if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
		return Payload{}, false
	}
	if p.Kind != payloadKind {
		return Payload{}, false
	}
	return p, true
}

// Encode serializes the payload back into a task description.
func (p Payload) Encode() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
