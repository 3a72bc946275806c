package fraud

// Category is the fixed enumeration tagging why an invoice is suspicious.
// Unrecognized tags map to CategoryUnknown; an absent tag falls back to a
// score-based label.
type Category string

const (
	CategoryDuplicate       Category = "duplicate"
	CategoryOverbilling     Category = "overbilling"
	CategoryVendorMismatch  Category = "vendor_mismatch"
	CategoryAmountMismatch  Category = "amount_mismatch"
	CategoryInvoiceMismatch Category = "invoice_mismatch"
	CategoryUnknown         Category = "unknown"

	// CategoryAll is the pseudo-category whose count always equals the full
	// high-risk population size.
	CategoryAll Category = "all"
)

// HighRiskFloor is the minimum risk score for membership in the high-risk
// population shown on the fraud dashboard.
const HighRiskFloor = 40

// ParseCategory maps a raw tag to the enumeration. The boolean reports
// whether the tag was recognized; unrecognized non-empty tags return
// CategoryUnknown, false.
func ParseCategory(tag string) (Category, bool) {
	switch Category(tag) {
	case CategoryDuplicate, CategoryOverbilling, CategoryVendorMismatch,
		CategoryAmountMismatch, CategoryInvoiceMismatch:
		return Category(tag), true
	default:
		return CategoryUnknown, false
	}
}

var categoryLabels = map[Category]string{
	CategoryDuplicate:       "Duplicate Invoice",
	CategoryOverbilling:     "Overbilling",
	CategoryVendorMismatch:  "Suspicious Vendor",
	CategoryAmountMismatch:  "Amount Mismatch",
	CategoryInvoiceMismatch: "Invoice Mismatch",
}

// CategoryLabel returns the display label for an invoice's fraud category.
// A recognized tag is used verbatim; an unrecognized tag renders "Unknown";
// an absent tag falls back to a score-based label.
func CategoryLabel(score int, tag *Category) string {
	if tag != nil {
		if label, ok := categoryLabels[*tag]; ok {
			return label
		}
		return "Unknown"
	}
	switch {
	case score >= 80:
		return "High Risk"
	case score >= 50:
		return "Medium Risk"
	default:
		return "Low Risk"
	}
}

// StatusLabel returns the review-status label derived from the risk score
// alone. This scale is independent of CategoryLabel's fallback scale and of
// BadgeLabel; the three must stay separate (they serve different UI surfaces).
func StatusLabel(score int) string {
	switch {
	case score >= 80:
		return "Critical"
	case score >= 70:
		return "High Priority"
	case score >= 50:
		return "Under Review"
	default:
		return "Flagged"
	}
}

// BadgeLabel returns the severity badge shown wherever a risk score is
// rendered (list rows, summary cards). Note the 75/40 cut points differ from
// StatusLabel's scale on purpose.
func BadgeLabel(score int) string {
	switch {
	case score >= 75:
		return "High Risk"
	case score >= 40:
		return "Medium Risk"
	default:
		return "Low Risk"
	}
}
