package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"settlement-ledger-backend/internal/models"
	"settlement-ledger-backend/internal/repository"
	"settlement-ledger-backend/internal/services/engine"
)

const dashboardSheet = "Dashboard"
const glSummarySheet = "GL Summary"

var dashboardHeader = []string{
	"Settlement ID", "Date From", "Date To", "Deposit Date",
	"Bank Deposit Amount", "Total Records", "Journal Line Count",
	"Invoice Line Count", "Tax Line Count", "Split Line Count",
	"LineCount = 0 Check", "Total Tax Amount", "Total Debits",
	"Total Credits", "Net Balance", "Balance Check",
	"Clearing Debits", "Total Amount Invoiced",
	"Clearing Debits v Invoicing", "TxnAmtSUM = 0 Check",
	"Missing Lines Check", "Generated",
}

// WriteDashboard produces the reconciliation workbook: one row per
// settlement plus an overall totals row, and a second sheet with per-account
// journal totals.
func WriteDashboard(w io.Writer, reports []models.SettlementReport, summaries []repository.AccountSummary, glMap engine.GLMapping) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", dashboardSheet)
	if _, err := f.NewSheet(glSummarySheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DCE6F1"}},
	})
	if err != nil {
		return err
	}

	if err := writeDashboardSheet(f, headerStyle, reports); err != nil {
		return err
	}
	if err := writeGLSummarySheet(f, headerStyle, summaries, glMap); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeDashboardSheet(f *excelize.File, headerStyle int, reports []models.SettlementReport) error {
	for i, h := range dashboardHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(dashboardSheet, cell, h)
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(dashboardHeader), 1)
	f.SetCellStyle(dashboardSheet, "A1", lastCol, headerStyle)
	if err := f.SetPanes(dashboardSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}

	generated := time.Now().Format("2006-01-02 15:04:05")
	var totals struct {
		records, journal, invoice, tax, split int
		debits, credits                       decimal.Decimal
	}

	for i, r := range reports {
		rowNum := i + 2
		values := []interface{}{
			r.SettlementID,
			formatDate(r.DateFrom),
			formatDate(r.DateTo),
			formatDate(r.DepositDate),
			amountCell(r.BankDepositAmount),
			r.TotalRecords,
			r.JournalLineCount,
			r.InvoiceLineCount,
			r.TaxLineCount,
			r.SplitLineCount,
			r.LineCountCheck,
			amountCell(r.TotalTaxAmount),
			amountCell(r.TotalDebits),
			amountCell(r.TotalCredits),
			amountCell(r.TotalDebits.Sub(r.TotalCredits)),
			r.BalanceCheck,
			amountCell(r.ClearingDebits),
			amountCell(r.TotalAmountInvoiced),
			amountCell(r.ClearingDifference),
			amountCell(r.TransactionAmountSum),
			missingLinesCell(r),
			generated,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			f.SetCellValue(dashboardSheet, cell, v)
		}

		totals.records += r.TotalRecords
		totals.journal += r.JournalLineCount
		totals.invoice += r.InvoiceLineCount
		totals.tax += r.TaxLineCount
		totals.split += r.SplitLineCount
		totals.debits = totals.debits.Add(r.TotalDebits)
		totals.credits = totals.credits.Add(r.TotalCredits)
	}

	totalsRow := len(reports) + 2
	totalsValues := map[int]interface{}{
		1:  "OVERALL TOTALS",
		6:  totals.records,
		7:  totals.journal,
		8:  totals.invoice,
		9:  totals.tax,
		10: totals.split,
		13: amountCell(totals.debits),
		14: amountCell(totals.credits),
		15: amountCell(totals.debits.Sub(totals.credits)),
	}
	for col, v := range totalsValues {
		cell, _ := excelize.CoordinatesToCellName(col, totalsRow)
		f.SetCellValue(dashboardSheet, cell, v)
	}
	firstTotal, _ := excelize.CoordinatesToCellName(1, totalsRow)
	lastTotal, _ := excelize.CoordinatesToCellName(len(dashboardHeader), totalsRow)
	f.SetCellStyle(dashboardSheet, firstTotal, lastTotal, headerStyle)
	return nil
}

func writeGLSummarySheet(f *excelize.File, headerStyle int, summaries []repository.AccountSummary, glMap engine.GLMapping) error {
	header := []string{"GL_Account", "External Account ID", "Lines", "Debits", "Credits"}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(glSummarySheet, cell, h)
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(header), 1)
	f.SetCellStyle(glSummarySheet, "A1", lastCol, headerStyle)

	for i, s := range summaries {
		rowNum := i + 2
		externalID, _ := glMap.Resolve(s.GLAccount)
		values := []interface{}{
			s.GLAccount,
			externalID,
			s.LineCount,
			amountCell(s.Debits),
			amountCell(s.Credits),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			f.SetCellValue(glSummarySheet, cell, v)
		}
	}
	return nil
}

// missingLinesCell renders the unresolved row ids the way reviewers read
// them, truncated past ten ids.
func missingLinesCell(r models.SettlementReport) string {
	var ids []int
	if len(r.UnresolvedRowIDs) > 0 {
		_ = json.Unmarshal(r.UnresolvedRowIDs, &ids)
	}
	if len(ids) == 0 {
		return "COMPLETE"
	}
	shown := ids
	truncated := false
	if len(shown) > 10 {
		shown = shown[:10]
		truncated = true
	}
	parts := make([]string, len(shown))
	for i, id := range shown {
		parts[i] = fmt.Sprint(id)
	}
	s := "MISSING: [" + strings.Join(parts, ", ") + "]"
	if truncated {
		s += "..."
	}
	return s
}

// amountCell converts decimals to float for excelize so Excel treats the
// cells as numbers.
func amountCell(d decimal.Decimal) float64 {
	v, _ := d.Round(2).Float64()
	return v
}
