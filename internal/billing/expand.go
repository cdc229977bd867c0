package billing

import "errors"

var (
	// ErrSlotOutOfRange is returned when a staff assignment targets a slot that does not exist.
	ErrSlotOutOfRange = errors.New("billing: slot index out of range")
	// ErrLineRemoved signals that a quantity decrement dropped the line entirely.
	ErrLineRemoved = errors.New("billing: line removed")
)

// ItemKind distinguishes service lines from retail product lines.
type ItemKind string

const (
	KindService ItemKind = "service"
	KindProduct ItemKind = "product"
)

// LineItemDraft is one distinct selected item on an in-progress invoice.
// StaffIDs is kept in lock-step with Quantity: StaffIDs[i] is the staff
// member handling the i-th billable unit, "" when not yet assigned.
type LineItemDraft struct {
	ID       string
	ItemID   string
	Kind     ItemKind
	Quantity int
	StaffIDs []string
}

// UnitEntry is a single billable unit produced by expanding a line item.
type UnitEntry struct {
	ItemID  string
	Kind    ItemKind
	StaffID string
}

// NewLineItemDraft starts a line for a freshly selected item: one unit,
// one unassigned staff slot.
func NewLineItemDraft(id, itemID string, kind ItemKind) LineItemDraft {
	return LineItemDraft{
		ID:       id,
		ItemID:   itemID,
		Kind:     kind,
		Quantity: 1,
		StaffIDs: []string{""},
	}
}

// IncrementQuantity adds one unit and appends an empty staff slot.
// Existing slots are never renumbered.
func (d *LineItemDraft) IncrementQuantity() {
	d.Quantity++
	d.StaffIDs = append(d.StaffIDs, "")
}

// DecrementQuantity removes the last unit and its staff slot (LIFO).
// When the quantity would fall below one the line is considered removed
// and ErrLineRemoved is returned; the caller drops it from the draft.
func (d *LineItemDraft) DecrementQuantity() error {
	if d.Quantity <= 1 {
		return ErrLineRemoved
	}
	d.Quantity--
	if len(d.StaffIDs) > 0 {
		d.StaffIDs = d.StaffIDs[:len(d.StaffIDs)-1]
	}
	return nil
}

// AssignStaff sets the staff member for one unit slot.
func (d *LineItemDraft) AssignStaff(slot int, staffID string) error {
	if slot < 0 || slot >= len(d.StaffIDs) {
		return ErrSlotOutOfRange
	}
	d.StaffIDs[slot] = staffID
	return nil
}

// Unassigned reports how many unit slots still lack a staff member.
func (d LineItemDraft) Unassigned() int {
	n := 0
	for i := 0; i < d.Quantity && i < len(d.StaffIDs); i++ {
		if d.StaffIDs[i] == "" {
			n++
		}
	}
	if d.Quantity > len(d.StaffIDs) {
		n += d.Quantity - len(d.StaffIDs)
	}
	return n
}

// Expand turns a line item into exactly Quantity unit entries. The staff
// slice is reconciled by index: missing slots pad with "", extra slots are
// truncated. Expand never repairs the draft itself.
func Expand(d LineItemDraft) []UnitEntry {
	if d.Quantity < 1 {
		return nil
	}
	entries := make([]UnitEntry, 0, d.Quantity)
	for i := 0; i < d.Quantity; i++ {
		staffID := ""
		if i < len(d.StaffIDs) {
			staffID = d.StaffIDs[i]
		}
		entries = append(entries, UnitEntry{
			ItemID:  d.ItemID,
			Kind:    d.Kind,
			StaffID: staffID,
		})
	}
	return entries
}
