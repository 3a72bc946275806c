package fraud

import "testing"

func catPtr(c Category) *Category { return &c }

func TestAggregateCounts_AllEqualsPopulation(t *testing.T) {
	// 10 invoices: 3 duplicate, 2 overbilling, 5 untagged.
	tags := []*Category{
		catPtr(CategoryDuplicate), catPtr(CategoryDuplicate), catPtr(CategoryDuplicate),
		catPtr(CategoryOverbilling), catPtr(CategoryOverbilling),
		nil, nil, nil, nil, nil,
	}
	counts := AggregateCounts(tags)
	if counts[CategoryAll] != 10 {
		t.Fatalf("count(all) expected 10, got %d", counts[CategoryAll])
	}
	if counts[CategoryDuplicate] != 3 {
		t.Fatalf("count(duplicate) expected 3, got %d", counts[CategoryDuplicate])
	}
	if counts[CategoryOverbilling] != 2 {
		t.Fatalf("count(overbilling) expected 2, got %d", counts[CategoryOverbilling])
	}

	named := counts[CategoryDuplicate] + counts[CategoryOverbilling] +
		counts[CategoryVendorMismatch] + counts[CategoryAmountMismatch] +
		counts[CategoryInvoiceMismatch]
	if named >= counts[CategoryAll] {
		t.Fatalf("sum of named counts (%d) must be below population (%d) when untagged records exist", named, counts[CategoryAll])
	}
}

func TestAggregateCounts_UnrecognizedTagOnlyCountsTowardAll(t *testing.T) {
	weird := Category("material")
	counts := AggregateCounts([]*Category{&weird, catPtr(CategoryDuplicate)})
	if counts[CategoryAll] != 2 {
		t.Fatalf("count(all) expected 2, got %d", counts[CategoryAll])
	}
	if counts[CategoryDuplicate] != 1 {
		t.Fatalf("count(duplicate) expected 1, got %d", counts[CategoryDuplicate])
	}
	if _, exists := counts[weird]; exists {
		t.Fatalf("unrecognized tag must not get its own bucket")
	}
}

func TestAggregateCounts_EmptyPopulation(t *testing.T) {
	counts := AggregateCounts(nil)
	if counts[CategoryAll] != 0 {
		t.Fatalf("count(all) of empty population expected 0, got %d", counts[CategoryAll])
	}
	// Named buckets are present (zeroed) so filter buttons always render.
	if _, ok := counts[CategoryDuplicate]; !ok {
		t.Fatalf("named buckets should exist even for empty population")
	}
}
