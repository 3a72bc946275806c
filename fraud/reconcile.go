// Package fraud holds the invoice verification and risk classification core:
// submitted-vs-extracted field reconciliation, the risk score taxonomy used by
// the dashboard, and the filter-independent category count aggregation.
package fraud

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NotFoundLabel is rendered wherever an OCR field could not be extracted.
const NotFoundLabel = "Not found"

// OCRFields carries the field strings the extraction service produced for an
// uploaded document. A nil field means extraction failed for that field; this
// is distinct from an extracted-but-different value and never counts as a match.
type OCRFields struct {
	InvoiceNumber *string `json:"invoice_number_ocr"`
	VendorName    *string `json:"vendor_name_ocr"`
	Amount        *string `json:"amount_ocr"`
}

// VerificationResult is the per-field outcome of reconciling a submitted
// invoice against its OCR extraction.
type VerificationResult struct {
	InvoiceNumberMatch bool `json:"invoice_number_match"`
	VendorMatch        bool `json:"vendor_match"`
	AmountMatch        bool `json:"amount_match"`
}

// OverallVerified is true only when every compared field matched.
func (v VerificationResult) OverallVerified() bool {
	return v.InvoiceNumberMatch && v.VendorMatch && v.AmountMatch
}

// ReconcileFields compares the submitted invoice fields against the OCR
// extraction. String fields compare case-insensitively after trimming (OCR
// output casing is unreliable). When the risk service reports an amount
// mismatch percentage greater than zero, that verdict wins over the raw
// string comparison.
func ReconcileFields(invoiceNumber string, vendorName string, amount decimal.Decimal, ocr OCRFields, amountMismatchPct *decimal.Decimal) VerificationResult {
	result := VerificationResult{
		InvoiceNumberMatch: stringFieldMatches(invoiceNumber, ocr.InvoiceNumber),
		VendorMatch:        stringFieldMatches(vendorName, ocr.VendorName),
		AmountMatch:        amountFieldMatches(amount, ocr.Amount),
	}
	if amountMismatchPct != nil && amountMismatchPct.IsPositive() {
		result.AmountMatch = false
	}
	return result
}

func stringFieldMatches(submitted string, extracted *string) bool {
	if extracted == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(*extracted))
}

func amountFieldMatches(submitted decimal.Decimal, extracted *string) bool {
	if extracted == nil {
		return false
	}
	parsed, err := decimal.NewFromString(strings.TrimSpace(*extracted))
	if err != nil {
		return false
	}
	return submitted.Equal(parsed)
}

// RenderOCRField returns the display value for an extracted field,
// substituting NotFoundLabel when extraction failed.
func RenderOCRField(extracted *string) string {
	if extracted == nil {
		return NotFoundLabel
	}
	return *extracted
}
