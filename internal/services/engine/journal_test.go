package engine

import (
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"settlement-ledger-backend/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestEngine(lookup PriceLookup) *Engine {
	return New(lookup, GLMapping{}, testLogger())
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestBuildJournalSignPasses(t *testing.T) {
	rows := []models.SourceRow{
		{
			RowID:           1,
			SettlementID:    "S1",
			TransactionType: "Order",
			PriceType:       "Principal",
			PriceAmount:     dec("29.99"),
		},
		{
			RowID:                2,
			SettlementID:         "S1",
			TransactionType:      "ServiceFee",
			ItemRelatedFeeType:   "Cost of Advertising",
			ItemRelatedFeeAmount: dec("-5.00"),
		},
	}
	PrepareRows(rows)
	// Row 1 is the anchor but carries no total amount, so nothing is
	// subtracted.
	result := newTestEngine(nil).BuildJournal(rows)

	require.Len(t, result.Lines, 2)

	order := result.Lines[0]
	require.Equal(t, AccountClearing, order.GLAccount)
	// Positive revenue-type amounts post as credits after the override pass.
	require.True(t, order.Debit.IsZero())
	require.True(t, order.Credit.Equal(dec("29.99")), "got %s", order.Credit)
	require.Equal(t, "both", order.JournalType)
	require.Equal(t, "Row ID: 1 - Merchant Order ID: ", order.Notes)

	// A negative advertising fee flips to a debit on the expense account.
	ad := result.Lines[1]
	require.Equal(t, AccountAdvertising, ad.GLAccount)
	require.True(t, ad.Debit.Equal(dec("5")), "got %s", ad.Debit)
	require.True(t, ad.Credit.IsZero())
}

func TestBuildJournalSkipsZeroAmountRows(t *testing.T) {
	rows := []models.SourceRow{
		{RowID: 1, SettlementID: "S1", TransactionType: "Other"},
		// Zero-amount principal orders are kept for lineage.
		{RowID: 2, SettlementID: "S1", TransactionType: "Order", PriceType: "Principal"},
	}
	PrepareRows(rows)
	result := newTestEngine(nil).BuildJournal(rows)

	require.Len(t, result.Lines, 1)
	require.Equal(t, 2, result.Lines[0].SourceRowID)
}

func TestBuildJournalDepositPlug(t *testing.T) {
	rows := []models.SourceRow{
		{
			RowID:        1,
			SettlementID: "S1",
			DepositDate:  date(2025, time.March, 15),
			PriceAmount:  dec("1000.00"),
		},
		{
			RowID:           2,
			SettlementID:    "S1",
			TransactionType: "Order",
			PriceType:       "Principal",
			PriceAmount:     dec("995.00"),
		},
	}
	PrepareRows(rows)
	result := newTestEngine(nil).BuildJournal(rows)

	require.Empty(t, result.Unbalanced)
	require.Len(t, result.Lines, 2)

	deposit := result.Lines[0]
	require.Equal(t, "Bank Deposit on 2025-03-15", deposit.Description)
	// Credits 995 - debits 1000 = -5 absorbed into the deposit debit.
	require.True(t, deposit.Debit.Equal(dec("995")), "got %s", deposit.Debit)

	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range result.Lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	require.True(t, debits.Equal(credits))
}

func TestBuildJournalFlagsUnbalancedWithoutDepositLine(t *testing.T) {
	rows := []models.SourceRow{
		{
			RowID:           1,
			SettlementID:    "S1",
			TransactionType: "Order",
			PriceType:       "Principal",
			PriceAmount:     dec("29.99"),
		},
	}
	PrepareRows(rows)
	result := newTestEngine(nil).BuildJournal(rows)

	require.Len(t, result.Lines, 1)
	diff, ok := result.Unbalanced["S1"]
	require.True(t, ok)
	require.True(t, diff.Equal(dec("-29.99")), "got %s", diff)
	// The lines themselves are untouched.
	require.True(t, result.Lines[0].Credit.Equal(dec("29.99")))
}

func TestBuildJournalSynthesizesTaxLines(t *testing.T) {
	rows := []models.SourceRow{
		{
			RowID:           1,
			SettlementID:    "S1",
			TransactionType: "Order",
			PriceType:       "Principal",
			PriceAmount:     dec("10.00"),
			OtherFeeReason:  "taxamount",
			OtherFeeAmount:  dec("1.30"),
		},
	}
	PrepareRows(rows)
	result := newTestEngine(nil).BuildJournal(rows)

	require.Len(t, result.Lines, 2)

	main := result.Lines[0]
	// Tax is carved out of the main line's amount.
	require.True(t, main.Credit.Equal(dec("10")), "got %s", main.Credit)
	require.False(t, main.TaxLine)

	tax := result.Lines[1]
	require.True(t, tax.TaxLine)
	require.Equal(t, AccountCombinedTax, tax.GLAccount)
	require.Equal(t, "Combined GST and PST charged on line # 1", tax.Description)
	// Tax lines use ordinary sign rules, no overrides.
	require.True(t, tax.Debit.Equal(dec("1.3")), "got %s", tax.Debit)
}

func TestBuildJournalTaxLineFromFilteredRow(t *testing.T) {
	// A row whose components cancel to zero still yields its tax line.
	rows := []models.SourceRow{
		{
			RowID:           1,
			SettlementID:    "S1",
			TransactionType: "Refund",
			PriceAmount:     dec("1.30"),
			OtherFeeReason:  "taxamount",
			OtherFeeAmount:  dec("-1.30"),
		},
	}
	PrepareRows(rows)
	require.True(t, rows[0].TransactionAmount.IsZero())

	result := newTestEngine(nil).BuildJournal(rows)
	require.Len(t, result.Lines, 1)
	require.True(t, result.Lines[0].TaxLine)
	require.True(t, result.Lines[0].Credit.Equal(dec("1.3")))
}

func TestBuildJournalPropagatesDepositDates(t *testing.T) {
	rows := []models.SourceRow{
		{
			RowID:        1,
			SettlementID: "S1",
			DepositDate:  date(2025, time.March, 15),
			PriceAmount:  dec("10.00"),
		},
		{
			RowID:           2,
			SettlementID:    "S1",
			TransactionType: "Order",
			PriceType:       "Principal",
			PriceAmount:     dec("10.00"),
		},
	}
	PrepareRows(rows)
	result := newTestEngine(nil).BuildJournal(rows)

	require.Len(t, result.Lines, 2)
	for _, l := range result.Lines {
		require.NotNil(t, l.Date)
		require.Equal(t, *date(2025, time.March, 15), *l.Date)
	}
}

func TestBuildJournalBalancesSettlementsIndependently(t *testing.T) {
	rows := []models.SourceRow{
		{RowID: 1, SettlementID: "S1", DepositDate: date(2025, time.January, 10), PriceAmount: dec("50.00")},
		{RowID: 2, SettlementID: "S1", TransactionType: "Order", PriceType: "Principal", PriceAmount: dec("45.00")},
		{RowID: 3, SettlementID: "S2", DepositDate: date(2025, time.February, 10), PriceAmount: dec("80.00")},
		{RowID: 4, SettlementID: "S2", TransactionType: "Order", PriceType: "Principal", PriceAmount: dec("70.00")},
	}
	PrepareRows(rows)
	result := newTestEngine(nil).BuildJournal(rows)

	require.Empty(t, result.Unbalanced)
	for _, settlementID := range []string{"S1", "S2"} {
		debits, credits := decimal.Zero, decimal.Zero
		for _, l := range result.Lines {
			if l.SettlementID != settlementID {
				continue
			}
			debits = debits.Add(l.Debit)
			credits = credits.Add(l.Credit)
		}
		require.True(t, debits.Equal(credits), "settlement %s: %s vs %s", settlementID, debits, credits)
	}
}

func TestStrictBalancerNeverPlugs(t *testing.T) {
	lines := []*models.JournalLine{
		{Description: "Bank Deposit on 2025-03-15", Debit: dec("10")},
		{Credit: dec("15")},
	}
	err := StrictBalancer{}.Balance("S1", lines)
	require.Error(t, err)
	// The deposit line is untouched.
	require.True(t, lines[0].Debit.Equal(dec("10")))
}
