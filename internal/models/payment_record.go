package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRecord is one payment per distinct invoice number. The payment date
// is the settlement's bank deposit date, not the invoice date.
type PaymentRecord struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	BatchID            uuid.UUID `gorm:"index"`
	SettlementID       string    `gorm:"index"`
	InvoiceNumber      string    `gorm:"index"`
	CustomerName       string
	Amount             decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	PaymentDate        *time.Time
	PaidThroughAccount string
	PaymentMode        string
	Description        string
	CreatedAt          time.Time
}
