package service

import (
	"strings"

	"rentops_backend/internal/properties/repository"
	"rentops_backend/platform/ident"
)

// invNumberPrefix marks inventory numbers derived from warehouse stock.
const invNumberPrefix = "WH-"

// StockRef is the slice of warehouse stock the sweep compares against.
type StockRef struct {
	StockID string
	ItemID  string
}

// DerivedInvNumber builds the inventory number stamped on transfer-created
// lines. The sweep recognizes this prefix to tell warehouse-derived lines
// from legacy manual entries.
func DerivedInvNumber(itemID string) string {
	return invNumberPrefix + itemID
}

// ReconcileInventory decides which inventory lines are orphaned relative to
// the current warehouse stock. A line is removed when:
//   - its itemId is set but no stock row carries that item anymore;
//   - its invNumber is warehouse-derived and the referenced item is gone;
//   - stock is empty and the line carries no itemId at all.
//
// Lines without an itemId are otherwise preserved while stock is non-empty,
// so manually entered legacy inventory survives the sweep. The function is
// pure; callers persist the removals.
func ReconcileInventory(items []repository.InventoryItem, stock []StockRef) (keep, removed []repository.InventoryItem) {
	for _, item := range items {
		if shouldRemove(item, stock) {
			removed = append(removed, item)
		} else {
			keep = append(keep, item)
		}
	}
	return keep, removed
}

func shouldRemove(item repository.InventoryItem, stock []StockRef) bool {
	if item.ItemID != nil && !ident.IsEmpty(*item.ItemID) {
		return !stockHasItem(stock, *item.ItemID)
	}

	if item.InvNumber != nil && strings.HasPrefix(*item.InvNumber, invNumberPrefix) {
		derived := strings.TrimPrefix(*item.InvNumber, invNumberPrefix)
		return !stockHasItem(stock, derived)
	}

	return len(stock) == 0
}

func stockHasItem(stock []StockRef, itemID string) bool {
	for _, ref := range stock {
		if ident.Equal(ref.ItemID, itemID) || ident.Equal(ref.StockID, itemID) {
			return true
		}
	}
	return false
}
