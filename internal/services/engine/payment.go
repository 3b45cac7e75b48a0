package engine

import (
	"time"

	"settlement-ledger-backend/internal/models"
)

// BuildPayments groups valid invoice lines into one payment per invoice.
// The payment date is the settlement's bank deposit date, overriding the
// invoice date: every payment in a settlement clears on the single deposit.
func (e *Engine) BuildPayments(lines []models.InvoiceLine, depositDate *time.Time) []models.PaymentRecord {
	type key struct {
		invoiceNumber string
		customer      string
		invoiceDate   time.Time
	}
	index := make(map[key]int)
	var payments []models.PaymentRecord

	for _, l := range lines {
		if !l.Valid() {
			continue
		}
		k := key{l.InvoiceNumber, l.CustomerName, l.InvoiceDate}
		if i, ok := index[k]; ok {
			payments[i].Amount = payments[i].Amount.Add(l.LineAmount)
			continue
		}
		index[k] = len(payments)
		payments = append(payments, models.PaymentRecord{
			BatchID:            l.BatchID,
			SettlementID:       l.SettlementID,
			InvoiceNumber:      l.InvoiceNumber,
			CustomerName:       l.CustomerName,
			Amount:             l.LineAmount,
			PaymentDate:        depositDate,
			PaidThroughAccount: AccountClearing,
			PaymentMode:        "Direct Deposit",
			Description:        lineNotes(l.SourceRowID, l.MerchantOrderID),
		})
	}
	return payments
}
