package engine

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"settlement-ledger-backend/internal/models"
)

// fallbackInvoiceDate stands in for an unparseable posted date, matching the
// upstream report convention.
var fallbackInvoiceDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

const defaultCustomer = "Amazon.ca"

// InvoiceNumber derives a deterministic invoice number. Warehouse-damage rows
// and rows without an order id get AMZN + last year digit + MMDDHH of the
// posted date; everything else gets AMZN + the last 7 characters of the
// order id.
func InvoiceNumber(orderID, transactionType string, postedDate time.Time, now func() time.Time) string {
	txnType := strings.ToUpper(strings.TrimSpace(transactionType))
	orderID = strings.TrimSpace(orderID)

	isDamage := strings.Contains(txnType, "WAREHOUSE") && strings.Contains(txnType, "DAMAGE")
	if !isDamage && orderID != "" {
		suffix := orderID
		if len(orderID) > 7 {
			suffix = orderID[len(orderID)-7:]
		}
		return "AMZN" + suffix
	}

	if postedDate.IsZero() || postedDate.Equal(fallbackInvoiceDate) {
		postedDate = now()
	}
	year := itoa(postedDate.Year())
	return "AMZN" + year[len(year)-1:] + postedDate.Format("010215")
}

// itemPrice resolves the per-unit price for an invoice line. Damage and
// reversal rows always derive it from their own transaction amount; other
// rows prefer the recovered lookup price and fall back to the transaction
// amount.
func (e *Engine) itemPrice(row *models.SourceRow) decimal.Decimal {
	qty := row.QuantityPurchased.Decimal
	txnType := strings.ToUpper(strings.TrimSpace(row.TransactionType))
	if (txnType == "REVERSAL_REIMBURSEMENT" || txnType == "WAREHOUSE DAMAGE") &&
		!qty.IsZero() && !row.TransactionAmount.IsZero() {
		return row.TransactionAmount.Div(qty)
	}
	if entry, ok := e.Lookup[row.LookupKey]; ok && !entry.UnitPrice.IsZero() {
		return entry.UnitPrice
	}
	return row.TransactionAmount
}

func invoiceNotes(row *models.SourceRow) string {
	var b strings.Builder
	b.WriteString(row.TransactionType)
	if strings.EqualFold(strings.TrimSpace(row.TransactionType), "order") && strings.TrimSpace(row.OrderID) != "" {
		b.WriteString(" " + row.OrderID)
	}
	if !row.TaxAmount.IsZero() {
		b.WriteString(" Tax: " + row.TaxAmount.String())
	}
	if row.SettlementID != "" {
		b.WriteString("-" + row.SettlementID + "_" + itoa(row.RowID))
	}
	return b.String()
}

func validateInvoiceLine(quantity, itemPrice, lineAmount decimal.Decimal) string {
	// Quantity without a recoverable price is a legitimate $0 line, kept.
	if !quantity.IsZero() && itemPrice.IsZero() && lineAmount.IsZero() {
		return models.InvoiceLineValidZero
	}
	if !lineAmount.IsZero() {
		return models.InvoiceLineValid
	}
	return models.InvoiceLineReview
}

// BuildInvoices produces invoice lines from quantity-bearing rows. Every
// candidate row yields a line carrying a validation flag; review-flagged
// lines are retained for auditing but excluded from exports and payments.
func (e *Engine) BuildInvoices(rows []models.SourceRow) []models.InvoiceLine {
	var lines []models.InvoiceLine
	for i := range rows {
		row := &rows[i]
		if !row.QuantityPurchased.Valid {
			continue
		}

		invoiceDate := fallbackInvoiceDate
		if row.PostedDate != nil {
			d := row.PostedDate
			invoiceDate = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		}
		postedForNumber := fallbackInvoiceDate
		if row.PostedDate != nil {
			postedForNumber = *row.PostedDate
		}

		customer := strings.TrimSpace(row.MarketplaceName)
		if customer == "" {
			customer = defaultCustomer
		}

		qty := row.QuantityPurchased.Decimal
		price := e.itemPrice(row)
		amount := price.Mul(qty)
		flag := validateInvoiceLine(qty, price, amount)

		if flag == models.InvoiceLineReview {
			e.logger().WithField("settlement_id", row.SettlementID).
				WithField("row_id", row.RowID).
				Warn("invoice line has zero amount, excluded from export")
		}

		lines = append(lines, models.InvoiceLine{
			BatchID:         row.BatchID,
			SettlementID:    row.SettlementID,
			InvoiceNumber:   InvoiceNumber(row.OrderID, row.TransactionType, postedForNumber, e.now),
			InvoiceDate:     invoiceDate,
			InvoiceStatus:   "Draft",
			CustomerName:    customer,
			SKU:             row.SKU,
			Quantity:        qty,
			ItemPrice:       price,
			LineAmount:      amount,
			Notes:           invoiceNotes(row),
			ValidationFlag:  flag,
			SourceRowID:     row.RowID,
			MerchantOrderID: row.MerchantOrderID,
		})
	}
	return lines
}

// ValidInvoiceLines filters to the lines that belong in the final export.
func ValidInvoiceLines(lines []models.InvoiceLine) []models.InvoiceLine {
	var valid []models.InvoiceLine
	for _, l := range lines {
		if l.Valid() {
			valid = append(valid, l)
		}
	}
	return valid
}
