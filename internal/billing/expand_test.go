package billing

import (
	"errors"
	"testing"
)

func TestExpandLengthMatchesQuantity(t *testing.T) {
	for n := 1; n <= 12; n++ {
		line := NewLineItemDraft("l1", "svc-cut", KindService)
		for i := 1; i < n; i++ {
			line.IncrementQuantity()
		}
		entries := Expand(line)
		if len(entries) != n {
			t.Fatalf("quantity %d expanded to %d entries", n, len(entries))
		}
	}
}

func TestExpandPadsAndTruncatesByIndex(t *testing.T) {
	line := LineItemDraft{ItemID: "svc-cut", Kind: KindService, Quantity: 3, StaffIDs: []string{"a"}}
	entries := Expand(line)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].StaffID != "a" || entries[1].StaffID != "" || entries[2].StaffID != "" {
		t.Fatalf("unexpected staff padding: %+v", entries)
	}

	line = LineItemDraft{ItemID: "svc-cut", Kind: KindService, Quantity: 1, StaffIDs: []string{"a", "b", "c"}}
	entries = Expand(line)
	if len(entries) != 1 || entries[0].StaffID != "a" {
		t.Fatalf("expected truncation to first slot, got %+v", entries)
	}
}

func TestQuantityKeepsStaffSlotsInLockstep(t *testing.T) {
	line := NewLineItemDraft("l1", "svc-color", KindService)
	if err := line.AssignStaff(0, "anna"); err != nil {
		t.Fatal(err)
	}
	line.IncrementQuantity()
	line.IncrementQuantity()
	if line.Quantity != 3 || len(line.StaffIDs) != 3 {
		t.Fatalf("slots out of lockstep: qty=%d slots=%d", line.Quantity, len(line.StaffIDs))
	}
	if err := line.AssignStaff(2, "ben"); err != nil {
		t.Fatal(err)
	}

	// Decrement pops the last slot only; earlier assignments keep their index.
	if err := line.DecrementQuantity(); err != nil {
		t.Fatal(err)
	}
	if line.Quantity != 2 || len(line.StaffIDs) != 2 {
		t.Fatalf("slots out of lockstep after pop: qty=%d slots=%d", line.Quantity, len(line.StaffIDs))
	}
	if line.StaffIDs[0] != "anna" || line.StaffIDs[1] != "" {
		t.Fatalf("pop renumbered slots: %v", line.StaffIDs)
	}
}

func TestDecrementAtOneSignalsRemoval(t *testing.T) {
	line := NewLineItemDraft("l1", "prd-wax", KindProduct)
	if err := line.DecrementQuantity(); !errors.Is(err, ErrLineRemoved) {
		t.Fatalf("expected ErrLineRemoved, got %v", err)
	}
	if line.Quantity != 1 {
		t.Fatalf("removal signal must not mutate the line, qty=%d", line.Quantity)
	}
}

func TestAssignStaffOutOfRange(t *testing.T) {
	line := NewLineItemDraft("l1", "svc-cut", KindService)
	if err := line.AssignStaff(1, "anna"); !errors.Is(err, ErrSlotOutOfRange) {
		t.Fatalf("expected ErrSlotOutOfRange, got %v", err)
	}
	if err := line.AssignStaff(-1, "anna"); !errors.Is(err, ErrSlotOutOfRange) {
		t.Fatalf("expected ErrSlotOutOfRange, got %v", err)
	}
}

func TestUnassignedCountsMissingSlots(t *testing.T) {
	line := LineItemDraft{ItemID: "svc-cut", Kind: KindService, Quantity: 4, StaffIDs: []string{"a", ""}}
	if got := line.Unassigned(); got != 3 {
		t.Fatalf("expected 3 unassigned, got %d", got)
	}
}
