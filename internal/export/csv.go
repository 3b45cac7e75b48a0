// Package export serializes the ledger outputs for the accounting system:
// per-settlement CSV files shaped for import, a GL account summary, and a
// reconciliation dashboard workbook.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"settlement-ledger-backend/internal/models"
	"settlement-ledger-backend/internal/repository"
	"settlement-ledger-backend/internal/services/engine"
)

// utf8BOM makes Excel open the files as UTF-8 instead of guessing.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var journalHeader = []string{
	"Date", "Reference Number", "Journal Type", "GL_Account", "Description",
	"Debit", "Credit", "Notes",
}

var invoiceHeader = []string{
	"Invoice Date", "Invoice Number", "Invoice Status", "Customer Name",
	"SKU", "Quantity", "Item Price", "Invoice Line Amount", "Notes",
	"Reference Number",
}

var paymentHeader = []string{
	"Invoice Number", "Customer Name", "Payment Amount", "Payment Date",
	"Paid Through Account", "Payment Mode", "Description", "Reference Number",
}

// WriteJournalCSV writes journal lines in import order.
func WriteJournalCSV(w io.Writer, lines []models.JournalLine) error {
	cw, err := newBOMWriter(w)
	if err != nil {
		return err
	}
	if err := cw.Write(journalHeader); err != nil {
		return err
	}
	for _, l := range lines {
		record := []string{
			formatDate(l.Date),
			l.SettlementID,
			l.JournalType,
			l.GLAccount,
			l.Description,
			formatAmount(l.Debit),
			formatAmount(l.Credit),
			l.Notes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteInvoiceCSV writes invoice lines. Review-flagged lines never reach the
// export; pass already-filtered lines.
func WriteInvoiceCSV(w io.Writer, lines []models.InvoiceLine) error {
	cw, err := newBOMWriter(w)
	if err != nil {
		return err
	}
	if err := cw.Write(invoiceHeader); err != nil {
		return err
	}
	for _, l := range lines {
		record := []string{
			l.InvoiceDate.Format("2006-01-02"),
			l.InvoiceNumber,
			l.InvoiceStatus,
			l.CustomerName,
			l.SKU,
			l.Quantity.String(),
			formatAmount(l.ItemPrice),
			formatAmount(l.LineAmount),
			l.Notes,
			l.SettlementID,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WritePaymentCSV(w io.Writer, payments []models.PaymentRecord) error {
	cw, err := newBOMWriter(w)
	if err != nil {
		return err
	}
	if err := cw.Write(paymentHeader); err != nil {
		return err
	}
	for _, p := range payments {
		record := []string{
			p.InvoiceNumber,
			p.CustomerName,
			formatAmount(p.Amount),
			formatDate(p.PaymentDate),
			p.PaidThroughAccount,
			p.PaymentMode,
			p.Description,
			p.SettlementID,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAccountSummaryCSV writes per-account totals with the external ledger
// account ids, blank where the account is unmapped.
func WriteAccountSummaryCSV(w io.Writer, summaries []repository.AccountSummary, glMap engine.GLMapping) error {
	cw, err := newBOMWriter(w)
	if err != nil {
		return err
	}
	header := []string{"GL_Account", "External Account ID", "Lines", "Debits", "Credits"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range summaries {
		externalID, _ := glMap.Resolve(s.GLAccount)
		record := []string{
			s.GLAccount,
			externalID,
			itoa64(s.LineCount),
			formatAmount(s.Debits),
			formatAmount(s.Credits),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func newBOMWriter(w io.Writer) (*csv.Writer, error) {
	if _, err := w.Write(utf8BOM); err != nil {
		return nil, err
	}
	return csv.NewWriter(w), nil
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func itoa64(n int64) string {
	return strconv.FormatInt(n, 10)
}
