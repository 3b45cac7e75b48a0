package engine

import (
	"strings"

	"github.com/shopspring/decimal"

	"settlement-ledger-backend/internal/models"
)

// MarkDepositAnchors flags, per settlement, the row with the minimum row id.
// That row carries the batch-level deposit total, which must not be
// double-counted as a fee component.
func MarkDepositAnchors(rows []models.SourceRow) {
	minRow := make(map[string]int)
	for i := range rows {
		if cur, ok := minRow[rows[i].SettlementID]; !ok || rows[i].RowID < cur {
			minRow[rows[i].SettlementID] = rows[i].RowID
		}
	}
	for i := range rows {
		rows[i].DepositAnchor = rows[i].RowID == minRow[rows[i].SettlementID]
	}
}

// TransactionAmount sums the fee and amount components of a row. On the
// deposit anchor row the settlement's total amount is subtracted so the
// deposit total is not counted twice.
func TransactionAmount(row *models.SourceRow) decimal.Decimal {
	sum := row.PriceAmount.
		Add(row.ShipmentFeeAmount).
		Add(row.OrderFeeAmount).
		Add(row.ItemRelatedFeeAmount).
		Add(row.MiscFeeAmount).
		Add(row.OtherFeeAmount).
		Add(row.DirectPaymentAmount).
		Add(row.OtherAmount).
		Add(row.PromotionAmount)
	if row.DepositAnchor && row.TotalAmount.Valid {
		sum = sum.Sub(row.TotalAmount.Decimal)
	}
	return sum
}

// TaxAmount is the "other fee" amount when its reason classifier says it is
// tax, zero otherwise.
func TaxAmount(row *models.SourceRow) decimal.Decimal {
	if strings.EqualFold(strings.TrimSpace(row.OtherFeeReason), "taxamount") {
		return row.OtherFeeAmount
	}
	return decimal.Zero
}

// PrepareRows computes every derived field the builders depend on: lookup
// keys, deposit anchors, transaction amounts, and tax amounts. It must run
// exactly once per batch, before BuildPriceLookup.
func PrepareRows(rows []models.SourceRow) {
	for i := range rows {
		rows[i].LookupKey = LookupKey(&rows[i])
	}
	MarkDepositAnchors(rows)
	for i := range rows {
		rows[i].TransactionAmount = TransactionAmount(&rows[i])
		rows[i].TaxAmount = TaxAmount(&rows[i])
	}
}
