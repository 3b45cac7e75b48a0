// Package parser reads raw Amazon settlement report files into normalized
// source rows. It owns all file-format concerns so the transformation engine
// can assume clean column names and typed values.
package parser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"settlement-ledger-backend/internal/models"
	"settlement-ledger-backend/internal/services/engine"
)

// dateLayouts are tried in order when parsing posted and deposit dates.
// Settlement exports are inconsistent about this across marketplaces.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006 15:04:05 MST",
	"02.01.2006",
	"02-01-2006",
}

var headerCleaner = regexp.MustCompile(`[^\w]+`)

// NormalizeHeader lowercases a raw column header and collapses every run of
// non-word characters into a single underscore.
func NormalizeHeader(raw string) string {
	h := strings.ToLower(strings.TrimSpace(raw))
	h = headerCleaner.ReplaceAllString(h, "_")
	return strings.Trim(h, "_")
}

// Reader parses settlement files one after another, assigning row ids
// sequentially across the whole batch so the first row of each settlement
// stays identifiable after files are combined.
type Reader struct {
	Log *logrus.Logger

	nextRowID int
}

func NewReader(log *logrus.Logger) *Reader {
	return &Reader{Log: log, nextRowID: 1}
}

func (r *Reader) logger() *logrus.Logger {
	if r.Log != nil {
		return r.Log
	}
	return logrus.StandardLogger()
}

// Parse reads one settlement file. Tab and comma delimiters are both
// accepted; the delimiter is sniffed from the header line. Malformed rows are
// skipped with a log entry, malformed cells are recovered per value with a
// note on the row. Only an unreadable header aborts the file.
func (r *Reader) Parse(src io.Reader, sourceFile string) ([]models.SourceRow, error) {
	buffered := bufio.NewReader(src)
	delimiter, err := sniffDelimiter(buffered)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(buffered)
	csvReader.Comma = delimiter
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	headerRow, err := csvReader.Read()
	if err != nil {
		return nil, errors.New("cannot read settlement file header")
	}
	columns := make([]string, len(headerRow))
	for i, h := range headerRow {
		columns[i] = NormalizeHeader(h)
	}

	var rows []models.SourceRow
	lineNum := 1
	for {
		record, err := csvReader.Read()
		lineNum++
		if err == io.EOF {
			break
		}
		if err != nil {
			r.logger().WithField("file", sourceFile).
				WithField("line", lineNum).
				WithError(err).Warn("skipping malformed settlement row")
			continue
		}
		if blankRecord(record) {
			continue
		}

		row := models.SourceRow{RowID: r.nextRowID, SourceFile: sourceFile}
		r.nextRowID++
		for i, value := range record {
			if i >= len(columns) {
				break
			}
			r.setField(&row, columns[i], strings.TrimSpace(value))
		}
		rows = append(rows, row)
	}

	r.logger().WithField("file", sourceFile).
		WithField("rows", len(rows)).Info("settlement file parsed")
	return rows, nil
}

// setField maps one normalized column onto the row. Unknown columns are
// ignored; settlement exports carry more columns than the ledger needs.
func (r *Reader) setField(row *models.SourceRow, column, value string) {
	switch column {
	case "settlement_id":
		row.SettlementID = value
	case "order_id":
		row.OrderID = value
	case "merchant_order_id":
		row.MerchantOrderID = value
	case "sku":
		row.SKU = value
	case "transaction_type":
		row.TransactionType = value
	case "marketplace_name":
		row.MarketplaceName = value
	case "price_type":
		row.PriceType = value
	case "currency":
		row.Currency = value
	case "shipment_fee_type":
		row.ShipmentFeeType = value
	case "order_fee_type":
		row.OrderFeeType = value
	case "item_related_fee_type":
		row.ItemRelatedFeeType = value
	case "other_fee_reason_description":
		row.OtherFeeReason = value
	case "promotion_type":
		row.PromotionType = value
	case "posted_date":
		row.PostedDate = r.parseDate(row, column, value)
	case "deposit_date":
		row.DepositDate = r.parseDate(row, column, value)
	case "quantity_purchased":
		row.QuantityPurchased = r.parseNullAmount(row, column, value)
	case "total_amount":
		row.TotalAmount = r.parseNullAmount(row, column, value)
	case "price_amount":
		row.PriceAmount = r.parseAmount(row, column, value)
	case "shipment_fee_amount":
		row.ShipmentFeeAmount = r.parseAmount(row, column, value)
	case "order_fee_amount":
		row.OrderFeeAmount = r.parseAmount(row, column, value)
	case "item_related_fee_amount":
		row.ItemRelatedFeeAmount = r.parseAmount(row, column, value)
	case "misc_fee_amount":
		row.MiscFeeAmount = r.parseAmount(row, column, value)
	case "other_fee_amount":
		row.OtherFeeAmount = r.parseAmount(row, column, value)
	case "direct_payment_amount":
		row.DirectPaymentAmount = r.parseAmount(row, column, value)
	case "other_amount":
		row.OtherAmount = r.parseAmount(row, column, value)
	case "promotion_amount":
		row.PromotionAmount = r.parseAmount(row, column, value)
	}
}

// parseAmount recovers malformed amounts to zero with a note on the row's
// lineage; a single bad cell never drops the row.
func (r *Reader) parseAmount(row *models.SourceRow, column, value string) decimal.Decimal {
	amount, err := engine.ParseAmount(value)
	if err != nil {
		r.noteParseIssue(row, column, value)
		return decimal.Zero
	}
	return amount
}

// parseNullAmount keeps the null state of columns whose absence is
// meaningful downstream.
func (r *Reader) parseNullAmount(row *models.SourceRow, column, value string) decimal.NullDecimal {
	if isEmptyCell(value) {
		return decimal.NullDecimal{}
	}
	amount, err := engine.ParseAmount(value)
	if err != nil {
		r.noteParseIssue(row, column, value)
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: amount, Valid: true}
}

func (r *Reader) parseDate(row *models.SourceRow, column, value string) *time.Time {
	if isEmptyCell(value) {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	r.noteParseIssue(row, column, value)
	return nil
}

func (r *Reader) noteParseIssue(row *models.SourceRow, column, value string) {
	note := column + "=" + value
	if row.ParseNote == "" {
		row.ParseNote = note
	} else {
		row.ParseNote += "; " + note
	}
	r.logger().WithField("file", row.SourceFile).
		WithField("row_id", row.RowID).
		WithField("column", column).
		WithField("value", value).
		Warn("unparseable cell, recovered with default")
}

// sniffDelimiter inspects the header line without consuming it. Tab wins
// over comma because settlement exports are tab separated by default and
// their descriptions may contain commas.
func sniffDelimiter(buffered *bufio.Reader) (rune, error) {
	sample, err := buffered.Peek(4096)
	if len(sample) == 0 {
		if err != nil && err != io.EOF {
			return 0, err
		}
		return 0, errors.New("settlement file is empty")
	}
	firstLine := string(sample)
	if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}
	if strings.Contains(firstLine, "\t") {
		return '\t', nil
	}
	if strings.Contains(firstLine, ",") {
		return ',', nil
	}
	return '\t', nil
}

func blankRecord(record []string) bool {
	return len(record) == 0 || strings.Join(record, "") == ""
}

func isEmptyCell(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "nan", "null", "none", "n/a":
		return true
	}
	return false
}
