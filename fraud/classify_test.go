package fraud

import "testing"

func TestBadgeLabel_Boundaries(t *testing.T) {
	cases := []struct {
		score    int
		expected string
	}{
		{100, "High Risk"},
		{75, "High Risk"},
		{74, "Medium Risk"},
		{40, "Medium Risk"},
		{39, "Low Risk"},
		{0, "Low Risk"},
	}
	for _, tc := range cases {
		if got := BadgeLabel(tc.score); got != tc.expected {
			t.Fatalf("BadgeLabel(%d) expected %q, got %q", tc.score, tc.expected, got)
		}
	}
}

func TestStatusLabel_Boundaries(t *testing.T) {
	cases := []struct {
		score    int
		expected string
	}{
		{100, "Critical"},
		{80, "Critical"},
		{79, "High Priority"},
		{70, "High Priority"},
		{69, "Under Review"},
		{50, "Under Review"},
		{49, "Flagged"},
		{0, "Flagged"},
	}
	for _, tc := range cases {
		if got := StatusLabel(tc.score); got != tc.expected {
			t.Fatalf("StatusLabel(%d) expected %q, got %q", tc.score, tc.expected, got)
		}
	}
}

func TestCategoryLabel_TagUsedVerbatim(t *testing.T) {
	cases := []struct {
		tag      Category
		expected string
	}{
		{CategoryDuplicate, "Duplicate Invoice"},
		{CategoryOverbilling, "Overbilling"},
		{CategoryVendorMismatch, "Suspicious Vendor"},
		{CategoryAmountMismatch, "Amount Mismatch"},
		{CategoryInvoiceMismatch, "Invoice Mismatch"},
	}
	for _, tc := range cases {
		// Score must not influence the label when a recognized tag is present.
		if got := CategoryLabel(5, &tc.tag); got != tc.expected {
			t.Fatalf("CategoryLabel(5, %q) expected %q, got %q", tc.tag, tc.expected, got)
		}
	}
}

func TestCategoryLabel_UnrecognizedTag(t *testing.T) {
	weird := Category("money_laundering")
	if got := CategoryLabel(95, &weird); got != "Unknown" {
		t.Fatalf("CategoryLabel with unrecognized tag expected Unknown, got %q", got)
	}
}

func TestCategoryLabel_ScoreFallback(t *testing.T) {
	cases := []struct {
		score    int
		expected string
	}{
		{80, "High Risk"},
		{79, "Medium Risk"},
		{50, "Medium Risk"},
		{49, "Low Risk"},
	}
	for _, tc := range cases {
		if got := CategoryLabel(tc.score, nil); got != tc.expected {
			t.Fatalf("CategoryLabel(%d, nil) expected %q, got %q", tc.score, tc.expected, got)
		}
	}
}

// The badge and status scales use different cut points over the same score.
// They must never be unified; 72 is the score that tells them apart.
func TestBadgeAndStatusScalesAreDistinct(t *testing.T) {
	if BadgeLabel(72) != "Medium Risk" {
		t.Fatalf("BadgeLabel(72) expected Medium Risk, got %q", BadgeLabel(72))
	}
	if StatusLabel(72) != "High Priority" {
		t.Fatalf("StatusLabel(72) expected High Priority, got %q", StatusLabel(72))
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory("duplicate"); !ok || c != CategoryDuplicate {
		t.Fatalf("ParseCategory(duplicate) = %q, %v", c, ok)
	}
	if c, ok := ParseCategory("material"); ok || c != CategoryUnknown {
		t.Fatalf("ParseCategory(material) expected unknown branch, got %q, %v", c, ok)
	}
	if c, ok := ParseCategory(""); ok || c != CategoryUnknown {
		t.Fatalf("ParseCategory(\"\") expected unknown branch, got %q, %v", c, ok)
	}
}
