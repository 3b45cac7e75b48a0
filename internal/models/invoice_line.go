package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice line validation flags. Review-flagged lines are kept for auditing
// but excluded from exports, payments, and reconciliation counts.
const (
	InvoiceLineValid     = "Valid"
	InvoiceLineValidZero = "Valid - $0 Transaction"
	InvoiceLineReview    = "Zero Invoice Amount: Review"
)

// InvoiceLine is one line of a customer invoice, produced only from source
// rows carrying a quantity. Lines sharing an InvoiceNumber compose one
// logical invoice.
type InvoiceLine struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	BatchID         uuid.UUID `gorm:"index"`
	SettlementID    string    `gorm:"index"`
	InvoiceNumber   string    `gorm:"index"`
	InvoiceDate     time.Time
	InvoiceStatus   string
	CustomerName    string
	SKU             string
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	ItemPrice       decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	LineAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	Notes           string
	ValidationFlag  string `gorm:"index"`
	SourceRowID     int    `gorm:"index"`
	MerchantOrderID string
	CreatedAt       time.Time
}

// Valid reports whether the line survives validation and belongs in the
// final export.
func (l InvoiceLine) Valid() bool {
	return l.ValidationFlag == InvoiceLineValid || l.ValidationFlag == InvoiceLineValidZero
}
