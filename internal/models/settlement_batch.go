package models

import (
	"time"

	"github.com/google/uuid"
)

// SettlementBatch tracks one uploaded settlement file through processing.
type SettlementBatch struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Filename         string
	TotalRecords     int
	ProcessedCount   int
	JournalLineCount int
	InvoiceLineCount int
	PaymentCount     int
	SettlementCount  int
	Status           string
	Error            string
	StartedAt        time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
}
