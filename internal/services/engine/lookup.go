package engine

import (
	"strings"

	"github.com/shopspring/decimal"

	"settlement-ledger-backend/internal/models"
)

// fallbackDateKey stands in for an unparseable posted date inside a lookup
// key, matching the upstream report convention.
const fallbackDateKey = "01011900"

// LookupKey derives the composite join key linking rows that belong to the
// same commercial event. Amazon splits one sale into several rows (principal
// price, fees, promotions) that share order_id+sku but carry different amount
// fields; the key is the only way to recombine them. Rows without a SKU get
// an empty key and stay out of price lookup.
func LookupKey(row *models.SourceRow) string {
	sku := strings.TrimSpace(row.SKU)
	if sku == "" {
		return ""
	}
	orderID := strings.TrimSpace(row.OrderID)
	if orderID == "" {
		posted := fallbackDateKey
		if row.PostedDate != nil {
			posted = row.PostedDate.Format("02012006")
		}
		return row.SettlementID + posted + strings.ToLower(strings.TrimSpace(row.TransactionType))
	}
	suffix := orderID
	if len(orderID) > 7 {
		suffix = orderID[len(orderID)-7:]
	}
	return suffix + sku
}

// PriceEntry recovers a per-unit price for quantity-bearing rows whose price
// arrived on a different source row.
type PriceEntry struct {
	TotalPriceAmount decimal.Decimal
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
}

// PriceLookup is built once per batch before journal and invoice generation
// and read-only afterward.
type PriceLookup map[string]PriceEntry

// priceAmountLine picks the amount field that carries price information for a
// row: the "other" amount for damage/reversal rows with quantity, the price
// amount for principal rows, zero otherwise.
func priceAmountLine(row *models.SourceRow) decimal.Decimal {
	txnType := strings.ToUpper(strings.TrimSpace(row.TransactionType))
	if (txnType == "WAREHOUSE DAMAGE" || txnType == "REVERSAL_REIMBURSEMENT") &&
		row.QuantityPurchased.Valid && row.QuantityPurchased.Decimal.IsPositive() {
		return row.OtherAmount
	}
	if strings.EqualFold(strings.TrimSpace(row.PriceType), "principal") {
		return row.PriceAmount
	}
	return decimal.Zero
}

// BuildPriceLookup groups rows by lookup key, keeping max(price_amount_line)
// and max(quantity_purchased) per key. Keys with zero on either side have no
// recoverable price and are dropped.
func BuildPriceLookup(rows []models.SourceRow) PriceLookup {
	type agg struct {
		price    decimal.Decimal
		quantity decimal.Decimal
	}
	groups := make(map[string]*agg)

	for i := range rows {
		row := &rows[i]
		if row.LookupKey == "" {
			continue
		}
		price := priceAmountLine(row)
		quantity := decimal.Zero
		if row.QuantityPurchased.Valid {
			quantity = row.QuantityPurchased.Decimal
		}
		if price.IsZero() && quantity.IsZero() {
			continue
		}
		g, ok := groups[row.LookupKey]
		if !ok {
			g = &agg{price: price, quantity: quantity}
			groups[row.LookupKey] = g
			continue
		}
		if price.GreaterThan(g.price) {
			g.price = price
		}
		if quantity.GreaterThan(g.quantity) {
			g.quantity = quantity
		}
	}

	lookup := make(PriceLookup, len(groups))
	for key, g := range groups {
		if g.price.IsZero() || g.quantity.IsZero() {
			continue
		}
		lookup[key] = PriceEntry{
			TotalPriceAmount: g.price,
			Quantity:         g.quantity,
			UnitPrice:        g.price.Div(g.quantity),
		}
	}
	return lookup
}
