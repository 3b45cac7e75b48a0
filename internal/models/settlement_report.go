package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	CheckBalanced   = "BALANCED"
	CheckUnbalanced = "UNBALANCED"
)

// SettlementReport is the per-settlement reconciliation record computed after
// the journal, invoice, and payment builders run. It never mutates their
// output; a non-zero LineCountCheck or a clearing difference is a finding to
// inspect, not a silent pass.
type SettlementReport struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	BatchID      uuid.UUID `gorm:"index"`
	SettlementID string    `gorm:"index"`

	DepositDate       *time.Time
	DateFrom          *time.Time
	DateTo            *time.Time
	BankDepositAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0"`

	TotalRecords     int
	JournalLineCount int
	InvoiceLineCount int
	TaxLineCount     int
	SplitLineCount   int
	LineCountCheck   int

	TotalDebits  decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	TotalCredits decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	BalanceCheck string

	ClearingDebits      decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	TotalAmountInvoiced decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	ClearingCheck       string
	ClearingDifference  decimal.Decimal `gorm:"type:decimal(20,4);default:0"`

	TransactionAmountSum decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	TotalTaxAmount       decimal.Decimal `gorm:"type:decimal(20,4);default:0"`

	UnresolvedRowIDs datatypes.JSON
	UnmappedAccounts datatypes.JSON

	CreatedAt time.Time
}
