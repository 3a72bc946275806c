package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/fundtracker_backend/config"
	"bitbucket.org/mmdatafocus/fundtracker_backend/fraud"
	"bitbucket.org/mmdatafocus/fundtracker_backend/utils"
	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Invoice struct {
	ID            int             `gorm:"primary_key" json:"id"`
	ProjectId     int             `gorm:"index;not null" json:"project_id" binding:"required"`
	InvoiceNumber string          `gorm:"size:100;not null;index" json:"invoice_number" binding:"required"`
	VendorName    string          `gorm:"size:255;not null" json:"vendor_name" binding:"required"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	DocumentPath  string          `gorm:"size:500" json:"document_path"`

	// Raw OCR extractions; nil means the field was absent from the document.
	InvoiceNumberOCR *string `gorm:"size:100" json:"invoice_number_ocr"`
	VendorNameOCR    *string `gorm:"size:255" json:"vendor_name_ocr"`
	AmountOCR        *string `gorm:"size:100" json:"amount_ocr"`
	OCRTable         []byte  `gorm:"type:json" json:"-"`

	InvoiceNumberMatch bool `gorm:"not null" json:"invoice_number_match"`
	VendorMatch        bool `gorm:"not null" json:"vendor_match"`
	AmountMatch        bool `gorm:"not null" json:"amount_match"`

	RiskScore                int              `gorm:"not null;index:idx_invoice_risk" json:"risk_score"`
	RiskLevel                RiskLevel        `gorm:"type:enum('high','medium','low');not null" json:"risk_level"`
	FraudScore               int              `gorm:"not null" json:"fraud_score"`
	FraudCategory            *string          `gorm:"size:50;index" json:"fraud_category"`
	AmountMismatchPercentage *decimal.Decimal `gorm:"type:decimal(8,2)" json:"amount_mismatch_percentage"`

	Status     InvoiceStatus `gorm:"type:enum('pending','verified','flagged','rejected');not null;default:'pending';index" json:"status"`
	FlaggedBy  *int          `json:"flagged_by"`
	FlaggedAt  *time.Time    `json:"flagged_at"`
	ReviewedBy *int          `json:"reviewed_by"`
	ReviewedAt *time.Time    `json:"reviewed_at"`

	UploadedBy int       `gorm:"index" json:"uploaded_by"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInvoice struct {
	ProjectId     int             `form:"project_id" binding:"required"`
	InvoiceNumber string          `form:"invoice_number" binding:"required"`
	VendorName    string          `form:"vendor_name" binding:"required"`
	Amount        decimal.Decimal `form:"amount"`
}

// RiskAssessment is the scoring output attached to an invoice at upload time.
type RiskAssessment struct {
	Score                    int
	Level                    RiskLevel
	FraudScore               int
	Category                 *string
	AmountMismatchPercentage *decimal.Decimal
}

// Verification is the reconciliation block of the upload response.
type Verification struct {
	InvoiceNumberMatch bool `json:"invoice_number_match"`
	VendorMatch        bool `json:"vendor_match"`
	AmountMatch        bool `json:"amount_match"`
	OverallVerified    bool `json:"overall_verified"`
}

func (inv *Invoice) VerificationView() Verification {
	return Verification{
		InvoiceNumberMatch: inv.InvoiceNumberMatch,
		VendorMatch:        inv.VendorMatch,
		AmountMatch:        inv.AmountMatch,
		OverallVerified:    inv.InvoiceNumberMatch && inv.VendorMatch && inv.AmountMatch,
	}
}

// OCRFieldsView renders the stored extractions with the absent-field label,
// matching what the dashboard shows in the detail modal.
func (inv *Invoice) OCRFieldsView() map[string]string {
	return map[string]string{
		"invoice_number_ocr": fraud.RenderOCRField(inv.InvoiceNumberOCR),
		"vendor_name_ocr":    fraud.RenderOCRField(inv.VendorNameOCR),
		"amount_ocr":         fraud.RenderOCRField(inv.AmountOCR),
	}
}

// CreateInvoice persists an uploaded, OCR'd and scored invoice. Reconciliation
// runs here so the stored match booleans and the response body can never
// disagree. The invoice row, the project utilized-amount bump and (when the
// score reaches the high-risk floor) the alert outbox row commit in one
// transaction.
func CreateInvoice(ctx context.Context, input *NewInvoice, documentPath string, ocrTable []byte, ocr fraud.OCRFields, assessment RiskAssessment) (*Invoice, error) {
	if input.Amount.IsNegative() {
		return nil, errors.New("amount must not be negative")
	}

	if _, err := GetProjectById(ctx, input.ProjectId); err != nil {
		return nil, err
	}

	verification := fraud.ReconcileFields(input.InvoiceNumber, input.VendorName, input.Amount, ocr, assessment.AmountMismatchPercentage)

	userId, _ := utils.GetUserIdFromContext(ctx)
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	status := InvoiceStatusPending
	if verification.OverallVerified() && assessment.Score < fraud.HighRiskFloor {
		status = InvoiceStatusVerified
	}

	invoice := Invoice{
		ProjectId:        input.ProjectId,
		InvoiceNumber:    input.InvoiceNumber,
		VendorName:       input.VendorName,
		Amount:           input.Amount,
		DocumentPath:     documentPath,
		InvoiceNumberOCR: ocr.InvoiceNumber,
		VendorNameOCR:    ocr.VendorName,
		AmountOCR:        ocr.Amount,
		OCRTable:         ocrTable,

		InvoiceNumberMatch: verification.InvoiceNumberMatch,
		VendorMatch:        verification.VendorMatch,
		AmountMatch:        verification.AmountMatch,

		RiskScore:                assessment.Score,
		RiskLevel:                assessment.Level,
		FraudScore:               assessment.FraudScore,
		FraudCategory:            assessment.Category,
		AmountMismatchPercentage: assessment.AmountMismatchPercentage,

		Status:     status,
		UploadedBy: userId,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		if err := AddUtilizedAmount(tx, invoice.ProjectId, invoice.Amount); err != nil {
			return err
		}
		if invoice.RiskScore >= fraud.HighRiskFloor {
			if err := createAlertRecordTx(tx, &invoice, correlationId); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &invoice, nil
}

func GetInvoiceById(ctx context.Context, id int) (*Invoice, error) {
	db := config.GetDB()

	var invoice Invoice
	if err := db.WithContext(ctx).First(&invoice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func GetInvoicesByProject(ctx context.Context, projectId int) ([]Invoice, error) {
	db := config.GetDB()

	var invoices []Invoice
	err := db.WithContext(ctx).
		Where("project_id = ?", projectId).
		Order("created_at DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// ListInvoices returns invoices across all projects, newest first, optionally
// narrowed to one review status.
func ListInvoices(ctx context.Context, status *InvoiceStatus) ([]Invoice, error) {
	db := config.GetDB()

	q := db.WithContext(ctx).Model(&Invoice{}).Order("created_at DESC, id DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var invoices []Invoice
	if err := q.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// ListHighRiskInvoices returns the full high-risk population: every invoice at
// or above minRisk, highest score first.
func ListHighRiskInvoices(ctx context.Context, minRisk int) ([]Invoice, error) {
	db := config.GetDB()

	var invoices []Invoice
	err := db.WithContext(ctx).
		Where("risk_score >= ?", minRisk).
		Order("risk_score DESC, id ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// ListInvoicesByCategory narrows the high-risk population to one category.
func ListInvoicesByCategory(ctx context.Context, minRisk int, category fraud.Category) ([]Invoice, error) {
	db := config.GetDB()

	var invoices []Invoice
	err := db.WithContext(ctx).
		Where("risk_score >= ? AND fraud_category = ?", minRisk, string(category)).
		Order("risk_score DESC, id ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// FraudSummary computes category counts over the full high-risk population.
// Counts must come from the population, never from a filtered subset.
func FraudSummary(ctx context.Context, minRisk int) (map[fraud.Category]int, error) {
	db := config.GetDB()

	var rows []struct {
		FraudCategory *string
	}
	err := db.WithContext(ctx).Model(&Invoice{}).
		Select("fraud_category").
		Where("risk_score >= ?", minRisk).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	tags := make([]*fraud.Category, 0, len(rows))
	for _, row := range rows {
		if row.FraudCategory == nil {
			tags = append(tags, nil)
			continue
		}
		c := fraud.Category(*row.FraudCategory)
		tags = append(tags, &c)
	}
	return fraud.AggregateCounts(tags), nil
}

// FlagInvoice marks an invoice for manual review. The operation is one-way
// and idempotent: flagging an already-flagged invoice succeeds without
// changing anything. A Redis lock serializes concurrent flags on the same
// invoice; when Redis is unavailable the database update stands alone.
func FlagInvoice(ctx context.Context, invoiceId int) (*Invoice, error) {
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, fmt.Sprintf("invoice:flag:%d", invoiceId), 5*time.Second, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 10),
		})
		if err == nil {
			defer lock.Release(ctx)
		}
	}

	invoice, err := GetInvoiceById(ctx, invoiceId)
	if err != nil {
		return nil, err
	}
	if invoice.Status == InvoiceStatusFlagged {
		return invoice, nil
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	now := time.Now().UTC()

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&Invoice{}).
		Where("id = ?", invoiceId).
		Updates(map[string]interface{}{
			"status":     InvoiceStatusFlagged,
			"flagged_by": userId,
			"flagged_at": &now,
		}).Error
	if err != nil {
		return nil, err
	}

	invoice.Status = InvoiceStatusFlagged
	invoice.FlaggedBy = &userId
	invoice.FlaggedAt = &now
	return invoice, nil
}

// ReviewInvoice records an admin's manual verification decision. Approve and
// reject overwrite the automated status; the flag leg delegates to
// FlagInvoice. A flagged invoice cannot be approved or rejected, keeping the
// flag one-way.
func ReviewInvoice(ctx context.Context, invoiceId int, action ReviewAction) (*Invoice, error) {
	var status InvoiceStatus
	switch action {
	case ReviewActionApprove:
		status = InvoiceStatusVerified
	case ReviewActionReject:
		status = InvoiceStatusRejected
	case ReviewActionFlag:
		return FlagInvoice(ctx, invoiceId)
	default:
		return nil, errors.New("invalid review action")
	}

	invoice, err := GetInvoiceById(ctx, invoiceId)
	if err != nil {
		return nil, err
	}
	if invoice.Status == InvoiceStatusFlagged {
		return nil, errors.New("invoice is flagged for review and cannot be approved or rejected")
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	now := time.Now().UTC()

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&Invoice{}).
		Where("id = ?", invoiceId).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": userId,
			"reviewed_at": &now,
		}).Error
	if err != nil {
		return nil, err
	}

	invoice.Status = status
	invoice.ReviewedBy = &userId
	invoice.ReviewedAt = &now
	return invoice, nil
}
