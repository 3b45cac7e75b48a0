package engine

import (
	"strings"

	"settlement-ledger-backend/internal/models"
)

// Named GL accounts the router can emit.
const (
	AccountClearing       = "Amazon.ca Clearing"
	AccountRevenue        = "Amazon.ca Revenue"
	AccountFBAFees        = "Amazon FBA Fulfillment Fees"
	AccountInboundFreight = "Amazon Inbound Freight Charges"
	AccountAccountFees    = "Amazon Account Fees"
	AccountAdvertising    = "Amazon Advertising Expense"
	AccountStorage        = "Amazon Storage Expense"
	AccountSellingExpense = "Amazon.ca Selling Expenses"
	AccountReferralFees   = "Amazon Referral Fees"
	AccountDigitalFees    = "Amazon Digital Services Fees"
	AccountCombinedTax    = "Amazon Combined Tax Charged"
)

// expenseAccounts are the accounts whose lines get the debit/credit swap in
// the third sign pass, so expenses post as credits netting against Clearing.
var expenseAccounts = map[string]bool{
	AccountFBAFees:        true,
	AccountAdvertising:    true,
	AccountStorage:        true,
	AccountInboundFreight: true,
	AccountAccountFees:    true,
	AccountSellingExpense: true,
	AccountReferralFees:   true,
	AccountDigitalFees:    true,
}

// IsExpenseAccount reports whether lines routed to the account are inverted
// by the expense override pass.
func IsExpenseAccount(account string) bool {
	return expenseAccounts[account]
}

// RouteAccount maps a row to a GL account. Ordered decision table, first
// match wins, catch-all Clearing.
func RouteAccount(row *models.SourceRow) string {
	currency := strings.ToLower(strings.TrimSpace(row.Currency))
	txnType := strings.ToLower(strings.TrimSpace(row.TransactionType))
	priceType := strings.ToLower(strings.TrimSpace(row.PriceType))
	itemFeeType := strings.ToLower(strings.TrimSpace(row.ItemRelatedFeeType))
	promoType := strings.ToLower(strings.TrimSpace(row.PromotionType))
	shipFeeType := strings.ToLower(strings.TrimSpace(row.ShipmentFeeType))

	isOrderOrRefund := txnType == "order" || txnType == "refund"

	switch {
	case row.TotalAmount.Valid && currency == "cad":
		return AccountClearing
	case isOrderOrRefund && priceType == "principal":
		return AccountClearing
	case isOrderOrRefund && promoType == "shipping":
		return AccountRevenue
	case isOrderOrRefund && priceType == "shipping":
		return AccountRevenue
	case txnType == "order" && itemFeeType == "shippingchargeback":
		return AccountRevenue
	case isOrderOrRefund && shipFeeType == "fba transportation fee":
		return AccountFBAFees
	case isOrderOrRefund && itemFeeType == "fbaperunitfulfillmentfee":
		return AccountFBAFees
	case isOrderOrRefund && (itemFeeType == "commission" || itemFeeType == "digitalservicesfee" || itemFeeType == "refundcommission"):
		return AccountFBAFees
	case txnType == "inbound transportation fee":
		return AccountInboundFreight
	case txnType == "subscription fee":
		return AccountAccountFees
	case txnType == "servicefee" && itemFeeType == "cost of advertising":
		return AccountAdvertising
	case txnType == "storage fee":
		return AccountStorage
	case txnType == "payable to amazon":
		return AccountClearing
	case txnType == "warehouse_damage" || txnType == "micro deposit" ||
		txnType == "reversal_reimbursement" || txnType == "successful charge":
		return AccountClearing
	default:
		return AccountClearing
	}
}

// GLMapping maps GL account names to external ledger account ids. It is
// injected read-only; the engine never fails internally on a missing entry.
type GLMapping map[string]string

// Resolve returns the external account id for a GL account name.
func (m GLMapping) Resolve(name string) (string, error) {
	if id, ok := m[name]; ok && id != "" {
		return id, nil
	}
	return "", &UnmappedAccountError{Account: name}
}
