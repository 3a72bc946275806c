package models

// UserRole gates mutations. Viewers get read access to public project data
// and the fraud dashboard; admins additionally create projects and upload
// invoices.
type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleViewer UserRole = "viewer"
)

// RiskLevel is the coarse level attached to an invoice at scoring time.
type RiskLevel string

const (
	RiskLevelHigh   RiskLevel = "high"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelLow    RiskLevel = "low"
)

// InvoiceStatus tracks the review lifecycle of an uploaded invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending  InvoiceStatus = "pending"
	InvoiceStatusVerified InvoiceStatus = "verified"
	InvoiceStatusFlagged  InvoiceStatus = "flagged"
	InvoiceStatusRejected InvoiceStatus = "rejected"
)

func ParseInvoiceStatus(raw string) (InvoiceStatus, bool) {
	switch InvoiceStatus(raw) {
	case InvoiceStatusPending, InvoiceStatusVerified, InvoiceStatusFlagged, InvoiceStatusRejected:
		return InvoiceStatus(raw), true
	}
	return "", false
}

// ReviewAction is the manual verification decision an admin records against
// an uploaded invoice.
type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "approve"
	ReviewActionReject  ReviewAction = "reject"
	ReviewActionFlag    ReviewAction = "flag"
)

// ProjectStatus is the public-facing lifecycle of a works project.
type ProjectStatus string

const (
	ProjectStatusPlanned   ProjectStatus = "planned"
	ProjectStatusOngoing   ProjectStatus = "ongoing"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusStalled   ProjectStatus = "stalled"
)

// Outbox publish states for fraud alert records. Publish happens after commit
// via the dispatcher, never inline with the invoice transaction.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)
