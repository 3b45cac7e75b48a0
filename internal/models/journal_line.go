package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalLine is one side of a double entry. Exactly one of Debit/Credit is
// non-zero. A single SourceRow yields zero, one, or two journal lines (the
// second being the synthetic tax line).
type JournalLine struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	BatchID      uuid.UUID `gorm:"index"`
	SettlementID string    `gorm:"index"`
	Date         *time.Time
	JournalType  string
	GLAccount    string          `gorm:"index"`
	Description  string
	Debit        decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	Credit       decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	Notes        string
	TaxLine      bool
	SourceRowID  int `gorm:"index"`
	CreatedAt    time.Time
}
