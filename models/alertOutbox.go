package models

import (
	"time"

	"bitbucket.org/mmdatafocus/fundtracker_backend/config"
	"gorm.io/gorm"
)

// FraudAlertRecord is the transactional outbox row for high-risk alerts.
// A row is written in the same transaction that persists the scored invoice;
// the dispatcher publishes it to Pub/Sub after commit.
type FraudAlertRecord struct {
	ID         int       `gorm:"primary_key;index:idx_alert_dispatch,priority:3" json:"id"`
	InvoiceId  int       `gorm:"index;not null" json:"invoice_id"`
	ProjectId  int       `gorm:"index;not null" json:"project_id"`
	RiskScore  int       `gorm:"not null" json:"risk_score"`
	Category   *string   `gorm:"size:50" json:"category"`
	DetectedAt time.Time `gorm:"not null" json:"detected_at"`

	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_alert_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_alert_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToAlertMessage(record FraudAlertRecord) config.AlertMessage {
	category := ""
	if record.Category != nil {
		category = *record.Category
	}
	return config.AlertMessage{
		ID:            record.ID,
		InvoiceId:     record.InvoiceId,
		ProjectId:     record.ProjectId,
		RiskScore:     record.RiskScore,
		Category:      category,
		DetectedAt:    record.DetectedAt,
		CorrelationId: record.CorrelationId,
	}
}

// createAlertRecordTx enqueues an alert inside the invoice transaction so the
// alert and the invoice commit or roll back together.
func createAlertRecordTx(tx *gorm.DB, invoice *Invoice, correlationId string) error {
	record := FraudAlertRecord{
		InvoiceId:     invoice.ID,
		ProjectId:     invoice.ProjectId,
		RiskScore:     invoice.RiskScore,
		Category:      invoice.FraudCategory,
		DetectedAt:    time.Now().UTC(),
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationId,
	}
	return tx.Create(&record).Error
}
