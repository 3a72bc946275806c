package fraud

// AggregateCounts computes the per-category counts for the full high-risk
// population. The input must be the unfiltered population: deriving counts
// from a filtered subset would make filter button labels lie.
//
// CategoryAll always equals the population size. Records with a nil or
// unrecognized tag count only toward CategoryAll, so the sum of named
// category counts may be less than the population size.
func AggregateCounts(tags []*Category) map[Category]int {
	counts := map[Category]int{
		CategoryAll:             len(tags),
		CategoryDuplicate:       0,
		CategoryOverbilling:     0,
		CategoryVendorMismatch:  0,
		CategoryAmountMismatch:  0,
		CategoryInvoiceMismatch: 0,
	}
	for _, tag := range tags {
		if tag == nil {
			continue
		}
		if _, ok := categoryLabels[*tag]; ok {
			counts[*tag]++
		}
	}
	return counts
}
