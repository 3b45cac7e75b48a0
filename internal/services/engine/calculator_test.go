package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"settlement-ledger-backend/internal/models"
)

func TestMarkDepositAnchors(t *testing.T) {
	rows := []models.SourceRow{
		{RowID: 5, SettlementID: "A"},
		{RowID: 2, SettlementID: "A"},
		{RowID: 9, SettlementID: "B"},
		{RowID: 3, SettlementID: "A"},
	}
	MarkDepositAnchors(rows)

	require.False(t, rows[0].DepositAnchor)
	require.True(t, rows[1].DepositAnchor)
	require.True(t, rows[2].DepositAnchor)
	require.False(t, rows[3].DepositAnchor)
}

func TestTransactionAmountSumsComponents(t *testing.T) {
	row := models.SourceRow{
		PriceAmount:          dec("10.00"),
		ShipmentFeeAmount:    dec("1.00"),
		OrderFeeAmount:       dec("-0.50"),
		ItemRelatedFeeAmount: dec("-2.00"),
		MiscFeeAmount:        dec("0.25"),
		OtherFeeAmount:       dec("0.75"),
		DirectPaymentAmount:  dec("3.00"),
		OtherAmount:          dec("-1.00"),
		PromotionAmount:      dec("-0.50"),
	}
	require.True(t, TransactionAmount(&row).Equal(dec("11")))
}

func TestTransactionAmountSubtractsDepositOnAnchor(t *testing.T) {
	row := models.SourceRow{
		PriceAmount:   dec("10.00"),
		TotalAmount:   nullDec("1000.00"),
		DepositAnchor: true,
	}
	require.True(t, TransactionAmount(&row).Equal(dec("-990")))

	// Non-anchor rows keep the deposit total out of the sum.
	row.DepositAnchor = false
	require.True(t, TransactionAmount(&row).Equal(dec("10")))
}

func TestTaxAmount(t *testing.T) {
	row := models.SourceRow{
		OtherFeeReason: "TaxAmount",
		OtherFeeAmount: dec("1.30"),
	}
	require.True(t, TaxAmount(&row).Equal(dec("1.3")))

	row.OtherFeeReason = "ShippingChargeback"
	require.True(t, TaxAmount(&row).IsZero())
}

func TestPrepareRowsDerivesEverything(t *testing.T) {
	rows := []models.SourceRow{
		{
			RowID:        1,
			SettlementID: "S1",
			TotalAmount:  nullDec("100.00"),
			PriceAmount:  dec("25.00"),
		},
		{
			RowID:          2,
			SettlementID:   "S1",
			OrderID:        "701-1234567-1234567",
			SKU:            "SKU1",
			OtherFeeReason: "taxamount",
			OtherFeeAmount: dec("2.60"),
			PriceAmount:    dec("20.00"),
		},
	}
	PrepareRows(rows)

	require.True(t, rows[0].DepositAnchor)
	require.True(t, rows[0].TransactionAmount.Equal(dec("-75")))
	require.Equal(t, "1234567SKU1", rows[1].LookupKey)
	require.True(t, rows[1].TransactionAmount.Equal(dec("22.6")))
	require.True(t, rows[1].TaxAmount.Equal(dec("2.6")))
}
