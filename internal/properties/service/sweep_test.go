package service

import (
	"testing"

	"rentops_backend/internal/properties/repository"
)

func strPtr(s string) *string { return &s }

func TestSweepRemovesOrphanedTrackedItem(t *testing.T) {
	items := []repository.InventoryItem{
		{ID: "i1", Name: "Sofa", ItemID: strPtr("A")},
	}
	stock := []StockRef{{StockID: "s1", ItemID: "B"}}

	keep, removed := ReconcileInventory(items, stock)
	if len(removed) != 1 || removed[0].ID != "i1" {
		t.Fatalf("expected tracked item with missing stock to be removed, got keep=%d removed=%d", len(keep), len(removed))
	}
}

func TestSweepKeepsTrackedItemStillInStock(t *testing.T) {
	items := []repository.InventoryItem{
		{ID: "i1", Name: "Sofa", ItemID: strPtr("A")},
	}
	stock := []StockRef{{StockID: "s1", ItemID: "A"}}

	keep, removed := ReconcileInventory(items, stock)
	if len(keep) != 1 || len(removed) != 0 {
		t.Fatalf("expected tracked item to survive, got keep=%d removed=%d", len(keep), len(removed))
	}
}

func TestSweepPreservesLegacyLineWhileStockNonEmpty(t *testing.T) {
	items := []repository.InventoryItem{
		{ID: "i1", Name: "Custom Lamp"},
	}
	stock := []StockRef{{StockID: "s1", ItemID: "B"}}

	keep, removed := ReconcileInventory(items, stock)
	if len(removed) != 0 {
		t.Fatalf("legacy line without itemId must be preserved, got removed=%d", len(removed))
	}
	if len(keep) != 1 || keep[0].Name != "Custom Lamp" {
		t.Fatalf("unexpected keep set: %+v", keep)
	}
}

func TestSweepRemovesLegacyLineWhenStockEmpty(t *testing.T) {
	items := []repository.InventoryItem{
		{ID: "i1", Name: "Custom Lamp"},
	}

	_, removed := ReconcileInventory(items, nil)
	if len(removed) != 1 {
		t.Fatalf("expected legacy line removed when stock is empty, got removed=%d", len(removed))
	}
}

func TestSweepRemovesLineWithOrphanedDerivedInvNumber(t *testing.T) {
	items := []repository.InventoryItem{
		{ID: "i1", Name: "Bed", InvNumber: strPtr(DerivedInvNumber("A"))},
	}
	stock := []StockRef{{StockID: "s1", ItemID: "B"}}

	_, removed := ReconcileInventory(items, stock)
	if len(removed) != 1 {
		t.Fatalf("expected warehouse-derived line to be removed, got removed=%d", len(removed))
	}
}

func TestSweepKeepsLineWithDerivedInvNumberStillInStock(t *testing.T) {
	items := []repository.InventoryItem{
		{ID: "i1", Name: "Bed", InvNumber: strPtr(DerivedInvNumber("A"))},
	}
	stock := []StockRef{{StockID: "s1", ItemID: "A"}}

	keep, removed := ReconcileInventory(items, stock)
	if len(keep) != 1 || len(removed) != 0 {
		t.Fatalf("expected derived line to survive, got keep=%d removed=%d", len(keep), len(removed))
	}
}

func TestSweepMatchesItemIdsAcrossRepresentations(t *testing.T) {
	items := []repository.InventoryItem{
		{ID: "i1", Name: "Fridge", ItemID: strPtr("42")},
	}
	stock := []StockRef{{StockID: "s1", ItemID: "42"}}

	keep, removed := ReconcileInventory(items, stock)
	if len(keep) != 1 || len(removed) != 0 {
		t.Fatalf("numeric-string ids must match, got keep=%d removed=%d", len(keep), len(removed))
	}
}
