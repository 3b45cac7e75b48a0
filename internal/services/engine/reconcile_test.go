package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"settlement-ledger-backend/internal/models"
)

// settlementFixture is a small settlement whose rows reach every output:
// row 1 is the bank deposit (journal only), row 2 is a principal order with
// quantity (journal and invoice, a split row).
func settlementFixture() []models.SourceRow {
	rows := []models.SourceRow{
		{
			RowID:        1,
			SettlementID: "S1",
			DepositDate:  date(2025, time.March, 15),
			PriceAmount:  dec("19.99"),
		},
		{
			RowID:             2,
			SettlementID:      "S1",
			OrderID:           "701-1234567-7654321",
			SKU:               "SKU1",
			TransactionType:   "Order",
			PriceType:         "Principal",
			PriceAmount:       dec("19.99"),
			QuantityPurchased: nullDec("2"),
			PostedDate:        date(2025, time.March, 7),
		},
	}
	PrepareRows(rows)
	return rows
}

func runPipeline(t *testing.T, eng *Engine, rows []models.SourceRow) ([]models.JournalLine, []models.InvoiceLine, []models.SettlementReport) {
	t.Helper()
	journal := eng.BuildJournal(rows)
	invoices := eng.BuildInvoices(rows)
	reports := eng.Reconcile(rows, journal.Lines, invoices)
	return journal.Lines, invoices, reports
}

func TestReconcileLineCountConservation(t *testing.T) {
	rows := settlementFixture()
	eng := newTestEngine(BuildPriceLookup(rows))
	eng.Now = fixedNow

	journal, invoices, reports := runPipeline(t, eng, rows)
	require.Len(t, journal, 2)
	require.Len(t, invoices, 1)
	require.Len(t, reports, 1)

	r := reports[0]
	require.Equal(t, "S1", r.SettlementID)
	require.Equal(t, 2, r.TotalRecords)
	require.Equal(t, 2, r.JournalLineCount)
	require.Equal(t, 1, r.InvoiceLineCount)
	require.Equal(t, 0, r.TaxLineCount)
	require.Equal(t, 1, r.SplitLineCount)
	require.Equal(t, 0, r.LineCountCheck)
	require.Equal(t, models.CheckBalanced, r.BalanceCheck)
}

func TestReconcileClearingAgainstInvoicing(t *testing.T) {
	rows := settlementFixture()
	eng := newTestEngine(BuildPriceLookup(rows))
	eng.Now = fixedNow

	_, _, reports := runPipeline(t, eng, rows)
	r := reports[0]

	// The deposit line debits Clearing with 19.99 and the single invoice
	// line carries the same amount.
	require.True(t, r.ClearingDebits.Equal(dec("19.99")), "got %s", r.ClearingDebits)
	require.True(t, r.TotalAmountInvoiced.Equal(dec("19.99")), "got %s", r.TotalAmountInvoiced)
	require.Equal(t, models.CheckBalanced, r.ClearingCheck)
	require.True(t, r.ClearingDifference.IsZero())
}

func TestReconcileFlagsUnresolvedRows(t *testing.T) {
	rows := settlementFixture()
	// A zero-amount, quantity-free row reaches neither output.
	rows = append(rows, models.SourceRow{
		RowID:           3,
		SettlementID:    "S1",
		TransactionType: "Other",
	})
	PrepareRows(rows)

	eng := newTestEngine(BuildPriceLookup(rows))
	eng.Now = fixedNow

	_, _, reports := runPipeline(t, eng, rows)
	r := reports[0]

	require.Equal(t, 3, r.TotalRecords)
	require.Equal(t, 1, r.LineCountCheck)

	var unresolved []int
	require.NoError(t, json.Unmarshal(r.UnresolvedRowIDs, &unresolved))
	require.Equal(t, []int{3}, unresolved)
}

func TestReconcileReportsUnmappedAccounts(t *testing.T) {
	rows := settlementFixture()
	eng := newTestEngine(BuildPriceLookup(rows))
	eng.Now = fixedNow

	_, _, reports := runPipeline(t, eng, rows)

	var unmapped []string
	require.NoError(t, json.Unmarshal(reports[0].UnmappedAccounts, &unmapped))
	require.Equal(t, []string{AccountClearing}, unmapped)
}

func TestReconcileMappedAccountsStayQuiet(t *testing.T) {
	rows := settlementFixture()
	eng := New(BuildPriceLookup(rows), GLMapping{AccountClearing: "2000001"}, testLogger())
	eng.Now = fixedNow

	_, _, reports := runPipeline(t, eng, rows)

	var unmapped []string
	require.NoError(t, json.Unmarshal(reports[0].UnmappedAccounts, &unmapped))
	require.Empty(t, unmapped)
}

func TestReconcileCarriesSettlementMetadata(t *testing.T) {
	rows := settlementFixture()
	rows[0].TotalAmount = nullDec("19.99")
	PrepareRows(rows)

	eng := newTestEngine(BuildPriceLookup(rows))
	eng.Now = fixedNow

	_, _, reports := runPipeline(t, eng, rows)
	r := reports[0]

	require.NotNil(t, r.DepositDate)
	require.Equal(t, *date(2025, time.March, 15), *r.DepositDate)
	require.True(t, r.BankDepositAmount.Equal(dec("19.99")))
	require.NotNil(t, r.DateFrom)
	require.Equal(t, *date(2025, time.March, 7), *r.DateFrom)
}

func TestReconcileSeparatesSettlements(t *testing.T) {
	rows := settlementFixture()
	rows = append(rows, models.SourceRow{
		RowID:           10,
		SettlementID:    "S2",
		TransactionType: "Order",
		PriceType:       "Principal",
		PriceAmount:     dec("5.00"),
	})
	PrepareRows(rows)

	eng := newTestEngine(BuildPriceLookup(rows))
	eng.Now = fixedNow

	_, _, reports := runPipeline(t, eng, rows)
	require.Len(t, reports, 2)
	require.Equal(t, "S1", reports[0].SettlementID)
	require.Equal(t, "S2", reports[1].SettlementID)
	require.Equal(t, 1, reports[1].TotalRecords)
	// S2 has no deposit line; its lone credit leaves it unbalanced.
	require.Equal(t, models.CheckUnbalanced, reports[1].BalanceCheck)
}
