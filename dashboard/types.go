package dashboard

import (
	"bitbucket.org/mmdatafocus/fundtracker_backend/fraud"
	"github.com/shopspring/decimal"
)

// InvoiceItem is one row of the fraud review list as served by the REST API.
type InvoiceItem struct {
	ID            int             `json:"id"`
	ProjectId     int             `json:"project_id"`
	InvoiceNumber string          `json:"invoice_number"`
	VendorName    string          `json:"vendor_name"`
	Amount        decimal.Decimal `json:"amount"`
	RiskScore     int             `json:"risk_score"`
	RiskLevel     string          `json:"risk_level"`
	FraudCategory *string         `json:"fraud_category"`
	Status        string          `json:"status"`
}

// Badge renders the severity badge for the row.
func (i InvoiceItem) Badge() string {
	return fraud.BadgeLabel(i.RiskScore)
}

// ReviewStatus renders the review-status label for the row.
func (i InvoiceItem) ReviewStatus() string {
	return fraud.StatusLabel(i.RiskScore)
}

// CategoryText renders the category column, falling back to a score-derived
// label when the invoice carries no tag.
func (i InvoiceItem) CategoryText() string {
	var tag *fraud.Category
	if i.FraudCategory != nil {
		c := fraud.Category(*i.FraudCategory)
		tag = &c
	}
	return fraud.CategoryLabel(i.RiskScore, tag)
}

// InvoiceDetail is the full record shown in the detail view.
type InvoiceDetail struct {
	InvoiceItem
	DocumentPath string            `json:"document_path"`
	Verification map[string]bool   `json:"verification"`
	OCRFields    map[string]string `json:"ocr_fields"`
}
