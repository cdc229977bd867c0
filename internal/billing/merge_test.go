package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testCatalog() CatalogLookup {
	items := map[ItemKind]map[string]CatalogItem{
		KindService: {
			"svc-cut":   {ID: "svc-cut", Name: "Haircut", Price: decimal.NewFromInt(20)},
			"svc-color": {ID: "svc-color", Name: "Coloring", Price: decimal.NewFromFloat(45.50)},
		},
		KindProduct: {
			"prd-wax": {ID: "prd-wax", Name: "Hair Wax", Price: decimal.NewFromFloat(12.99)},
		},
	}
	return func(kind ItemKind, id string) (CatalogItem, bool) {
		item, ok := items[kind][id]
		return item, ok
	}
}

func testStaff() StaffLookup {
	names := map[string]string{"a": "Anna", "b": "Ben"}
	return func(id string) (string, bool) {
		name, ok := names[id]
		return name, ok
	}
}

func TestMergeSplitStaff(t *testing.T) {
	line := LineItemDraft{ItemID: "svc-cut", Kind: KindService, Quantity: 2, StaffIDs: []string{"a", "b"}}
	entries := Expand(line)
	require.Len(t, entries, 2)

	lines := Merge(entries, testCatalog(), testStaff())
	require.Len(t, lines, 2)
	for _, l := range lines {
		require.Equal(t, 1, l.Quantity)
		require.True(t, decimal.NewFromInt(20).Equal(l.Total), "total %s", l.Total)
	}
	require.Equal(t, "a", lines[0].StaffID)
	require.Equal(t, "Anna", lines[0].StaffName)
	require.Equal(t, "b", lines[1].StaffID)
	require.Equal(t, "Ben", lines[1].StaffName)
}

func TestMergeConservation(t *testing.T) {
	entries := []UnitEntry{
		{ItemID: "svc-cut", Kind: KindService, StaffID: "a"},
		{ItemID: "svc-cut", Kind: KindService, StaffID: "a"},
		{ItemID: "svc-cut", Kind: KindService, StaffID: "b"},
		{ItemID: "svc-color", Kind: KindService, StaffID: "a"},
		{ItemID: "prd-wax", Kind: KindProduct, StaffID: ""},
	}
	catalog := testCatalog()
	lines := Merge(entries, catalog, nil)

	totalQty := 0
	lineSum := decimal.Zero
	for _, l := range lines {
		totalQty += l.Quantity
		lineSum = lineSum.Add(l.Total)
	}
	require.Equal(t, len(entries), totalQty)

	unitSum := decimal.Zero
	for _, e := range entries {
		item, ok := catalog(e.Kind, e.ItemID)
		require.True(t, ok)
		unitSum = unitSum.Add(item.Price)
	}
	require.True(t, unitSum.Round(2).Equal(lineSum), "unit sum %s vs line sum %s", unitSum, lineSum)
}

func TestMergeEmptyStaffIsItsOwnGroup(t *testing.T) {
	entries := []UnitEntry{
		{ItemID: "svc-cut", Kind: KindService, StaffID: "a"},
		{ItemID: "svc-cut", Kind: KindService, StaffID: ""},
		{ItemID: "svc-cut", Kind: KindService, StaffID: ""},
	}
	lines := Merge(entries, testCatalog(), nil)
	require.Len(t, lines, 2)
	require.Equal(t, "a", lines[0].StaffID)
	require.Equal(t, 1, lines[0].Quantity)
	require.Equal(t, "", lines[1].StaffID)
	require.Equal(t, 2, lines[1].Quantity)
}

func TestMergeCatalogMissDegrades(t *testing.T) {
	entries := []UnitEntry{
		{ItemID: "svc-gone", Kind: KindService, StaffID: "a"},
		{ItemID: "prd-gone", Kind: KindProduct, StaffID: "a"},
	}
	lines := Merge(entries, testCatalog(), nil)
	require.Len(t, lines, 2)
	require.Equal(t, "Unknown Service", lines[0].ItemName)
	require.True(t, lines[0].Price.IsZero())
	require.True(t, lines[0].Total.IsZero())
	require.Equal(t, "Unknown Product", lines[1].ItemName)
	require.True(t, lines[1].Total.IsZero())
}

func TestMergeNilCatalog(t *testing.T) {
	entries := []UnitEntry{{ItemID: "svc-cut", Kind: KindService}}
	lines := Merge(entries, nil, nil)
	require.Len(t, lines, 1)
	require.Equal(t, "Unknown Service", lines[0].ItemName)
}

func TestMergeFirstSeenOrderIsStable(t *testing.T) {
	entries := []UnitEntry{
		{ItemID: "svc-color", Kind: KindService, StaffID: "b"},
		{ItemID: "svc-cut", Kind: KindService, StaffID: "a"},
		{ItemID: "svc-color", Kind: KindService, StaffID: "b"},
	}
	for i := 0; i < 50; i++ {
		lines := Merge(entries, testCatalog(), nil)
		require.Equal(t, "svc-color", lines[0].ItemID)
		require.Equal(t, "svc-cut", lines[1].ItemID)
	}
}
