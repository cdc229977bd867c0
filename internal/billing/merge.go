package billing

import "github.com/shopspring/decimal"

// CatalogItem is the slice of catalog data the merger needs: unit price at
// selection time plus a display name.
type CatalogItem struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// CatalogLookup resolves an item id against the currently loaded catalog.
// The second return is false when the item is unknown.
type CatalogLookup func(kind ItemKind, itemID string) (CatalogItem, bool)

// StaffLookup resolves a staff id to a display name.
type StaffLookup func(staffID string) (string, bool)

// MergedLine is one aggregated invoice row: all units of the same item
// handled by the same staff member collapsed together.
type MergedLine struct {
	ItemID    string
	ItemName  string
	Kind      ItemKind
	Price     decimal.Decimal
	Quantity  int
	Total     decimal.Decimal
	StaffID   string
	StaffName string
}

// mergeKey groups units by item and staff. A struct key rather than a
// concatenated string, so ids containing any separator cannot collide.
type mergeKey struct {
	itemID  string
	staffID string
}

// Merge collapses unit entries into invoice lines grouped by (item, staff).
// An empty staff id is its own group. Unknown catalog items degrade to a
// zero-priced placeholder line instead of failing the whole aggregation:
// a persisted invoice may reference items deleted from the catalog since.
// Output preserves first-seen order per group. staff may be nil when names
// are resolved later.
func Merge(entries []UnitEntry, catalog CatalogLookup, staff StaffLookup) []MergedLine {
	groups := make(map[mergeKey]int, len(entries))
	lines := make([]MergedLine, 0, len(entries))
	for _, e := range entries {
		key := mergeKey{itemID: e.ItemID, staffID: e.StaffID}
		if idx, ok := groups[key]; ok {
			lines[idx].Quantity++
			continue
		}
		line := MergedLine{
			ItemID:   e.ItemID,
			Kind:     e.Kind,
			Quantity: 1,
			StaffID:  e.StaffID,
		}
		item, ok := lookupItem(catalog, e.Kind, e.ItemID)
		if ok {
			line.ItemName = item.Name
			line.Price = item.Price
		} else {
			line.ItemName = unknownName(e.Kind)
			line.Price = decimal.Zero
		}
		if staff != nil && e.StaffID != "" {
			if name, ok := staff(e.StaffID); ok {
				line.StaffName = name
			}
		}
		groups[key] = len(lines)
		lines = append(lines, line)
	}
	for i := range lines {
		lines[i].Total = lines[i].Price.Mul(decimal.NewFromInt(int64(lines[i].Quantity))).Round(2)
	}
	return lines
}

func lookupItem(catalog CatalogLookup, kind ItemKind, itemID string) (CatalogItem, bool) {
	if catalog == nil {
		return CatalogItem{}, false
	}
	return catalog(kind, itemID)
}

func unknownName(kind ItemKind) string {
	if kind == KindProduct {
		return "Unknown Product"
	}
	return "Unknown Service"
}

// SubtotalOf sums the line totals of a merged set.
func SubtotalOf(lines []MergedLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total)
	}
	return total
}
