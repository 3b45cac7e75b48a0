package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"settlement-ledger-backend/internal/models"
)

func TestBuildPaymentsGroupsByInvoice(t *testing.T) {
	invoiceDate := time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC)
	depositDate := date(2025, time.March, 15)

	lines := []models.InvoiceLine{
		{
			SettlementID:    "S1",
			InvoiceNumber:   "AMZN7654321",
			CustomerName:    "Amazon.ca",
			InvoiceDate:     invoiceDate,
			LineAmount:      dec("19.99"),
			ValidationFlag:  models.InvoiceLineValid,
			SourceRowID:     2,
			MerchantOrderID: "M-1",
		},
		{
			SettlementID:   "S1",
			InvoiceNumber:  "AMZN7654321",
			CustomerName:   "Amazon.ca",
			InvoiceDate:    invoiceDate,
			LineAmount:     dec("5.01"),
			ValidationFlag: models.InvoiceLineValid,
			SourceRowID:    3,
		},
		{
			SettlementID:   "S1",
			InvoiceNumber:  "AMZN1111111",
			CustomerName:   "Amazon.ca",
			InvoiceDate:    invoiceDate,
			LineAmount:     dec("7.00"),
			ValidationFlag: models.InvoiceLineValid,
			SourceRowID:    4,
		},
	}

	payments := newTestEngine(nil).BuildPayments(lines, depositDate)
	require.Len(t, payments, 2)

	first := payments[0]
	require.Equal(t, "AMZN7654321", first.InvoiceNumber)
	require.True(t, first.Amount.Equal(dec("25")), "got %s", first.Amount)
	require.Equal(t, depositDate, first.PaymentDate)
	require.Equal(t, AccountClearing, first.PaidThroughAccount)
	require.Equal(t, "Direct Deposit", first.PaymentMode)
	// Description comes from the first line of the group.
	require.Equal(t, "Row ID: 2 - Merchant Order ID: M-1", first.Description)

	require.Equal(t, "AMZN1111111", payments[1].InvoiceNumber)
}

func TestBuildPaymentsExcludesReviewLines(t *testing.T) {
	lines := []models.InvoiceLine{
		{
			InvoiceNumber:  "AMZN0000001",
			ValidationFlag: models.InvoiceLineReview,
			LineAmount:     dec("9.99"),
		},
		{
			InvoiceNumber:  "AMZN0000002",
			ValidationFlag: models.InvoiceLineValidZero,
		},
	}
	payments := newTestEngine(nil).BuildPayments(lines, nil)

	// $0 lines are valid and still produce a payment; review lines never do.
	require.Len(t, payments, 1)
	require.Equal(t, "AMZN0000002", payments[0].InvoiceNumber)
	require.True(t, payments[0].Amount.IsZero())
}

func TestPaymentsRoundTripInvoiceTotals(t *testing.T) {
	invoiceDate := time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC)
	lines := []models.InvoiceLine{
		{InvoiceNumber: "A", CustomerName: "C", InvoiceDate: invoiceDate, LineAmount: dec("1.10"), ValidationFlag: models.InvoiceLineValid},
		{InvoiceNumber: "A", CustomerName: "C", InvoiceDate: invoiceDate, LineAmount: dec("2.20"), ValidationFlag: models.InvoiceLineValid},
		{InvoiceNumber: "B", CustomerName: "C", InvoiceDate: invoiceDate, LineAmount: dec("3.30"), ValidationFlag: models.InvoiceLineValid},
	}
	payments := newTestEngine(nil).BuildPayments(lines, nil)

	byInvoice := make(map[string]decimal.Decimal)
	for _, p := range payments {
		byInvoice[p.InvoiceNumber] = p.Amount
	}
	require.True(t, byInvoice["A"].Equal(dec("3.3")))
	require.True(t, byInvoice["B"].Equal(dec("3.3")))
}
