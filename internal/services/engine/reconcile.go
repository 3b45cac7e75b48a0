package engine

import (
	"encoding/json"
	"sort"
	"time"

	"gorm.io/datatypes"

	"settlement-ledger-backend/internal/models"
)

// Reconcile computes the per-settlement report after the builders run. It
// reads the builder outputs and never mutates them. Non-zero line-count
// checks, clearing differences, and unresolved rows are findings for the
// caller to inspect, not aborts.
func (e *Engine) Reconcile(rows []models.SourceRow, journal []models.JournalLine, invoices []models.InvoiceLine) []models.SettlementReport {
	var reports []models.SettlementReport
	for _, settlementID := range rowSettlementOrder(rows) {
		reports = append(reports, e.reconcileSettlement(settlementID, rows, journal, invoices))
	}
	return reports
}

func (e *Engine) reconcileSettlement(settlementID string, rows []models.SourceRow, journal []models.JournalLine, invoices []models.InvoiceLine) models.SettlementReport {
	report := models.SettlementReport{SettlementID: settlementID}

	rowIDs := make(map[int]bool)
	for i := range rows {
		row := &rows[i]
		if row.SettlementID != settlementID {
			continue
		}
		report.BatchID = row.BatchID
		report.TotalRecords++
		rowIDs[row.RowID] = true
		report.TransactionAmountSum = report.TransactionAmountSum.Add(row.TransactionAmount)
		report.TotalTaxAmount = report.TotalTaxAmount.Add(row.TaxAmount)

		if row.DepositDate != nil && report.DepositDate == nil {
			report.DepositDate = row.DepositDate
		}
		if row.DepositAnchor && row.TotalAmount.Valid {
			report.BankDepositAmount = row.TotalAmount.Decimal
		}
		if row.PostedDate != nil {
			if report.DateFrom == nil || row.PostedDate.Before(*report.DateFrom) {
				report.DateFrom = row.PostedDate
			}
			if report.DateTo == nil || row.PostedDate.After(*report.DateTo) {
				report.DateTo = row.PostedDate
			}
		}
	}

	journalRowIDs := make(map[int]bool)
	accounts := make(map[string]bool)
	for i := range journal {
		l := &journal[i]
		if l.SettlementID != settlementID {
			continue
		}
		report.JournalLineCount++
		if l.TaxLine {
			report.TaxLineCount++
		}
		journalRowIDs[l.SourceRowID] = true
		accounts[l.GLAccount] = true
		report.TotalDebits = report.TotalDebits.Add(l.Debit)
		report.TotalCredits = report.TotalCredits.Add(l.Credit)
		if l.GLAccount == AccountClearing {
			report.ClearingDebits = report.ClearingDebits.Add(l.Debit)
		}
	}

	invoiceRowIDs := make(map[int]bool)
	for i := range invoices {
		l := &invoices[i]
		if l.SettlementID != settlementID || !l.Valid() {
			continue
		}
		report.InvoiceLineCount++
		invoiceRowIDs[l.SourceRowID] = true
		report.TotalAmountInvoiced = report.TotalAmountInvoiced.Add(l.LineAmount)
	}

	for id := range journalRowIDs {
		if invoiceRowIDs[id] {
			report.SplitLineCount++
		}
	}
	report.LineCountCheck = report.TotalRecords - report.JournalLineCount - report.InvoiceLineCount +
		report.TaxLineCount + report.SplitLineCount

	if report.TotalDebits.Sub(report.TotalCredits).Abs().LessThanOrEqual(balanceTolerance) {
		report.BalanceCheck = models.CheckBalanced
	} else {
		report.BalanceCheck = models.CheckUnbalanced
	}

	report.ClearingDifference = report.ClearingDebits.Sub(report.TotalAmountInvoiced)
	if report.ClearingDifference.Abs().LessThan(balanceTolerance) {
		report.ClearingCheck = models.CheckBalanced
	} else {
		report.ClearingCheck = models.CheckUnbalanced
	}

	report.UnresolvedRowIDs = marshalRowIDs(unresolvedRows(rowIDs, journalRowIDs, invoiceRowIDs))
	report.UnmappedAccounts = marshalAccounts(e.unmappedAccounts(accounts))

	if report.LineCountCheck != 0 {
		e.logger().WithField("settlement_id", settlementID).
			WithField("linecount_check", report.LineCountCheck).
			Warn("settlement line counts do not reconcile")
	}
	if report.ClearingCheck == models.CheckUnbalanced {
		e.logger().WithField("settlement_id", settlementID).
			WithField("difference", report.ClearingDifference.String()).
			Warn("clearing debits do not match invoiced total")
	}

	return report
}

// unresolvedRows returns the row ids that reached neither the journal nor the
// invoice output, sorted for stable reporting.
func unresolvedRows(rowIDs, journalRowIDs, invoiceRowIDs map[int]bool) []int {
	var unresolved []int
	for id := range rowIDs {
		if !journalRowIDs[id] && !invoiceRowIDs[id] {
			unresolved = append(unresolved, id)
		}
	}
	sort.Ints(unresolved)
	return unresolved
}

// unmappedAccounts checks every GL account the journal used against the
// injected mapping. Missing entries block downstream posting but never the
// journal computation itself.
func (e *Engine) unmappedAccounts(accounts map[string]bool) []string {
	var unmapped []string
	for account := range accounts {
		if _, err := e.GLMap.Resolve(account); err != nil {
			unmapped = append(unmapped, account)
		}
	}
	sort.Strings(unmapped)
	return unmapped
}

func marshalRowIDs(ids []int) datatypes.JSON {
	if len(ids) == 0 {
		return datatypes.JSON("[]")
	}
	b, _ := json.Marshal(ids)
	return datatypes.JSON(b)
}

func marshalAccounts(accounts []string) datatypes.JSON {
	if len(accounts) == 0 {
		return datatypes.JSON("[]")
	}
	b, _ := json.Marshal(accounts)
	return datatypes.JSON(b)
}

// DepositDateFor returns the settlement's single deposit date, used by the
// payment builder as the payment date.
func DepositDateFor(rows []models.SourceRow, settlementID string) *time.Time {
	for i := range rows {
		if rows[i].SettlementID == settlementID && rows[i].DepositDate != nil {
			return rows[i].DepositDate
		}
	}
	return nil
}

func rowSettlementOrder(rows []models.SourceRow) []string {
	var order []string
	seen := make(map[string]bool)
	for i := range rows {
		if !seen[rows[i].SettlementID] {
			seen[rows[i].SettlementID] = true
			order = append(order, rows[i].SettlementID)
		}
	}
	return order
}
