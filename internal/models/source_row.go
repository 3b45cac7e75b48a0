package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SourceRow is one line of a settlement report after header normalization.
// RowID is assigned per batch at ingestion and is the lineage unit for every
// downstream check; rows are never mutated after the derived fields
// (LookupKey, TransactionAmount, TaxAmount, DepositAnchor) are set.
type SourceRow struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	BatchID         uuid.UUID `gorm:"index"`
	RowID           int       `gorm:"index"`
	SettlementID    string    `gorm:"index"`
	OrderID         string
	MerchantOrderID string
	SKU             string
	TransactionType string
	MarketplaceName string
	PriceType       string
	Currency        string

	ShipmentFeeType    string
	OrderFeeType       string
	ItemRelatedFeeType string
	OtherFeeReason     string `gorm:"column:other_fee_reason_description"`
	PromotionType      string

	PostedDate  *time.Time
	DepositDate *time.Time

	// TotalAmount and QuantityPurchased keep their null state: a null
	// total_amount changes GL routing and a null quantity excludes the row
	// from invoicing, so neither may collapse to zero.
	QuantityPurchased decimal.NullDecimal `gorm:"type:decimal(20,4)"`
	TotalAmount       decimal.NullDecimal `gorm:"type:decimal(20,4)"`

	PriceAmount          decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	ShipmentFeeAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	OrderFeeAmount       decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	ItemRelatedFeeAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	MiscFeeAmount        decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	OtherFeeAmount       decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	DirectPaymentAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	OtherAmount          decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	PromotionAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0"`

	// Derived once per batch before journal/invoice generation.
	LookupKey         string          `gorm:"index"`
	TransactionAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	TaxAmount         decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	DepositAnchor     bool

	SourceFile string
	ParseNote  string
	CreatedAt  time.Time
}
