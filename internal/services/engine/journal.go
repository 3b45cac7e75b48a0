package engine

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"settlement-ledger-backend/internal/models"
)

// balanceTolerance is the cent-level tolerance for every balance comparison.
var balanceTolerance = decimal.NewFromFloat(0.01)

// Balancer forces a settlement's journal lines to balance. The default
// DepositPlug mirrors the upstream behavior of absorbing the difference into
// the bank deposit line; StrictBalancer refuses to patch at all.
type Balancer interface {
	Balance(settlementID string, lines []*models.JournalLine) error
}

// DepositPlug adds the signed debit/credit difference to the debit of the
// line whose description contains "Bank Deposit". ErrNoDepositLine when no
// such line exists.
type DepositPlug struct{}

func (DepositPlug) Balance(_ string, lines []*models.JournalLine) error {
	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	diff := credits.Sub(debits)
	if diff.Abs().LessThanOrEqual(balanceTolerance) {
		return nil
	}
	for _, l := range lines {
		if strings.Contains(l.Description, "Bank Deposit") {
			l.Debit = l.Debit.Add(diff)
			return nil
		}
	}
	return ErrNoDepositLine
}

// StrictBalancer flags any out-of-tolerance settlement instead of plugging.
type StrictBalancer struct{}

func (StrictBalancer) Balance(_ string, lines []*models.JournalLine) error {
	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	if credits.Sub(debits).Abs().LessThanOrEqual(balanceTolerance) {
		return nil
	}
	return ErrNoDepositLine
}

// JournalResult carries the built lines plus the settlements the balancer
// could not fix. Unbalanced settlements still produce output; they are
// findings for the caller, not aborts.
type JournalResult struct {
	Lines      []models.JournalLine
	Unbalanced map[string]decimal.Decimal
}

// revenueOverrideTypes are transaction types whose positive amounts represent
// revenue owed rather than cash received; their debit/credit is swapped in
// the second sign pass.
var revenueOverrideTypes = map[string]bool{
	"successful charge": true,
	"chargeback":        true,
	"order":             true,
	"refund":            true,
}

// applyDefaultSign sets the line's polarity from the signed amount: positive
// debits, negative credits, absolute value either way.
func applyDefaultSign(line *models.JournalLine, amount decimal.Decimal) {
	if amount.Sign() >= 0 {
		line.Debit = amount
		line.Credit = decimal.Zero
	} else {
		line.Debit = decimal.Zero
		line.Credit = amount.Neg()
	}
}

// applyRevenueOverride swaps polarity for positive revenue-type rows.
// Independent from applyExpenseOverride and must run before it.
func applyRevenueOverride(line *models.JournalLine, row *models.SourceRow, amount decimal.Decimal) {
	if amount.Sign() > 0 && revenueOverrideTypes[strings.ToLower(strings.TrimSpace(row.TransactionType))] {
		line.Debit, line.Credit = line.Credit, line.Debit
	}
}

// applyExpenseOverride swaps polarity for lines routed to expense accounts,
// regardless of sign, so expenses net against Clearing.
func applyExpenseOverride(line *models.JournalLine) {
	if IsExpenseAccount(line.GLAccount) {
		line.Debit, line.Credit = line.Credit, line.Debit
	}
}

// journalDescription joins the row's non-empty classifier fields with "/",
// deduplicated in order. A row carrying the deposit date and no classifiers
// is the bank deposit itself.
func journalDescription(row *models.SourceRow) string {
	classifiers := []string{
		row.TransactionType,
		row.PriceType,
		row.ShipmentFeeType,
		row.OrderFeeType,
		row.ItemRelatedFeeType,
		row.OtherFeeReason,
		row.PromotionType,
	}
	var parts []string
	seen := make(map[string]bool)
	for _, v := range classifiers {
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, "nan") || seen[v] {
			continue
		}
		seen[v] = true
		parts = append(parts, v)
	}
	if len(parts) == 0 && row.DepositDate != nil {
		return "Bank Deposit on " + row.DepositDate.Format("2006-01-02")
	}
	return strings.Join(parts, "/")
}

// lineNotes ties a journal or payment line back to its source row.
func lineNotes(rowID int, merchantOrderID string) string {
	return "Row ID: " + itoa(rowID) + " - Merchant Order ID: " + merchantOrderID
}

// BuildJournal turns prepared source rows into balanced journal lines:
// filter, route, three sign passes, synthetic tax lines, deposit-date
// propagation, then the balancing plug per settlement.
func (e *Engine) BuildJournal(rows []models.SourceRow) JournalResult {
	lines := make([]*models.JournalLine, 0, len(rows))

	for i := range rows {
		row := &rows[i]
		isPrincipalOrder := strings.EqualFold(strings.TrimSpace(row.TransactionType), "order") &&
			strings.EqualFold(strings.TrimSpace(row.PriceType), "principal")
		if row.TransactionAmount.IsZero() && !isPrincipalOrder {
			continue
		}

		adjusted := row.TransactionAmount.Sub(row.TaxAmount)
		line := &models.JournalLine{
			BatchID:      row.BatchID,
			SettlementID: row.SettlementID,
			JournalType:  "both",
			GLAccount:    RouteAccount(row),
			Description:  journalDescription(row),
			Notes:        lineNotes(row.RowID, row.MerchantOrderID),
			SourceRowID:  row.RowID,
		}
		applyDefaultSign(line, adjusted)
		applyRevenueOverride(line, row, adjusted)
		applyExpenseOverride(line)
		lines = append(lines, line)
	}

	// Tax lines come from every row with tax, filtered or not, and use
	// ordinary sign rules.
	for i := range rows {
		row := &rows[i]
		if row.TaxAmount.IsZero() {
			continue
		}
		line := &models.JournalLine{
			BatchID:      row.BatchID,
			SettlementID: row.SettlementID,
			JournalType:  "both",
			GLAccount:    AccountCombinedTax,
			Description:  "Combined GST and PST charged on line # " + itoa(row.RowID),
			Notes:        lineNotes(row.RowID, row.MerchantOrderID),
			TaxLine:      true,
			SourceRowID:  row.RowID,
		}
		applyDefaultSign(line, row.TaxAmount)
		lines = append(lines, line)
	}

	propagateDepositDates(rows, lines)

	result := JournalResult{Unbalanced: make(map[string]decimal.Decimal)}
	balancer := e.Balancer
	if balancer == nil {
		balancer = DepositPlug{}
	}
	for _, settlementID := range settlementOrder(lines) {
		group := linesFor(lines, settlementID)
		if err := balancer.Balance(settlementID, group); err != nil {
			debits, credits := decimal.Zero, decimal.Zero
			for _, l := range group {
				debits = debits.Add(l.Debit)
				credits = credits.Add(l.Credit)
			}
			result.Unbalanced[settlementID] = debits.Sub(credits)
			e.logger().WithField("settlement_id", settlementID).
				WithField("difference", debits.Sub(credits).String()).
				Warn("settlement journal does not balance and has no deposit line to adjust")
		}
	}

	result.Lines = make([]models.JournalLine, len(lines))
	for i, l := range lines {
		result.Lines[i] = *l
	}
	return result
}

// propagateDepositDates copies each settlement's single deposit date onto
// every journal line of that settlement; it is the journal line date.
func propagateDepositDates(rows []models.SourceRow, lines []*models.JournalLine) {
	dates := make(map[string]*time.Time)
	for i := range rows {
		if rows[i].DepositDate != nil {
			if _, ok := dates[rows[i].SettlementID]; !ok {
				dates[rows[i].SettlementID] = rows[i].DepositDate
			}
		}
	}
	for _, l := range lines {
		l.Date = dates[l.SettlementID]
	}
}

func settlementOrder(lines []*models.JournalLine) []string {
	var order []string
	seen := make(map[string]bool)
	for _, l := range lines {
		if !seen[l.SettlementID] {
			seen[l.SettlementID] = true
			order = append(order, l.SettlementID)
		}
	}
	return order
}

func linesFor(lines []*models.JournalLine, settlementID string) []*models.JournalLine {
	var group []*models.JournalLine
	for _, l := range lines {
		if l.SettlementID == settlementID {
			group = append(group, l)
		}
	}
	return group
}
