package settlement

import (
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"settlement-ledger-backend/internal/models"
	"settlement-ledger-backend/internal/parser"
	"settlement-ledger-backend/internal/repository"
	"settlement-ledger-backend/internal/services/engine"
)

// SettlementService drives one upload through parse, transform, and persist.
// Batches are independent; the engine itself holds no cross-batch state.
type SettlementService struct {
	rowRepo     *repository.SourceRowRepository
	journalRepo *repository.JournalRepository
	invoiceRepo *repository.InvoiceLineRepository
	paymentRepo *repository.PaymentRepository
	reportRepo  *repository.ReportRepository
	db          *gorm.DB

	glMap engine.GLMapping
	log   *logrus.Logger

	progressCache sync.Map // batchID -> *Progress
}

type Progress struct {
	ProcessedCount int
	Total          int
	Status         string
}

// NamedFile pairs an upload stream with its original filename for lineage.
type NamedFile struct {
	Name   string
	Reader io.Reader
}

func NewSettlementService(
	rowRepo *repository.SourceRowRepository,
	journalRepo *repository.JournalRepository,
	invoiceRepo *repository.InvoiceLineRepository,
	paymentRepo *repository.PaymentRepository,
	reportRepo *repository.ReportRepository,
	glMap engine.GLMapping,
	log *logrus.Logger,
) *SettlementService {
	return &SettlementService{
		rowRepo:     rowRepo,
		journalRepo: journalRepo,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		reportRepo:  reportRepo,
		db:          rowRepo.DB(),
		glMap:       glMap,
		log:         log,
	}
}

// CreateBatch creates a new SettlementBatch in DB
func (s *SettlementService) CreateBatch(filename string) *models.SettlementBatch {
	batch := &models.SettlementBatch{
		ID:        uuid.New(),
		Filename:  filename,
		Status:    "processing",
		StartedAt: time.Now(),
		CreatedAt: time.Now(),
	}
	s.db.Create(batch)
	s.progressCache.Store(batch.ID, &Progress{Status: "processing"})
	return batch
}

// ProcessBatch runs the whole pipeline for one batch. Called from a
// background goroutine; failures are recorded on the batch, never panicked.
func (s *SettlementService) ProcessBatch(batchID uuid.UUID, files []NamedFile) {
	rows, err := s.parseFiles(files)
	if err != nil {
		s.markBatchFailed(batchID, err)
		return
	}
	if len(rows) == 0 {
		s.markBatchFailed(batchID, errEmptyUpload)
		return
	}
	for i := range rows {
		rows[i].ID = uuid.New()
		rows[i].BatchID = batchID
	}

	engine.PrepareRows(rows)
	lookup := engine.BuildPriceLookup(rows)
	eng := engine.New(lookup, s.glMap, s.log)

	journal := eng.BuildJournal(rows)
	invoices := eng.BuildInvoices(rows)

	var payments []models.PaymentRecord
	for _, settlementID := range settlementIDs(rows) {
		group := invoiceLinesFor(invoices, settlementID)
		depositDate := engine.DepositDateFor(rows, settlementID)
		payments = append(payments, eng.BuildPayments(group, depositDate)...)
	}

	reports := eng.Reconcile(rows, journal.Lines, invoices)

	for i := range journal.Lines {
		journal.Lines[i].ID = uuid.New()
		journal.Lines[i].BatchID = batchID
	}
	for i := range invoices {
		invoices[i].ID = uuid.New()
		invoices[i].BatchID = batchID
	}
	for i := range payments {
		payments[i].ID = uuid.New()
		payments[i].BatchID = batchID
	}
	for i := range reports {
		reports[i].ID = uuid.New()
		reports[i].BatchID = batchID
	}

	if err := s.persist(batchID, rows, journal.Lines, invoices, payments, reports); err != nil {
		s.markBatchFailed(batchID, err)
		return
	}

	s.markBatchCompleted(batchID, batchCounts{
		totalRecords: len(rows),
		journalLines: len(journal.Lines),
		invoiceLines: len(invoices),
		payments:     len(payments),
		settlements:  len(reports),
	})
}

var errEmptyUpload = &emptyUploadError{}

type emptyUploadError struct{}

func (*emptyUploadError) Error() string { return "upload contained no settlement rows" }

func (s *SettlementService) parseFiles(files []NamedFile) ([]models.SourceRow, error) {
	reader := parser.NewReader(s.log)
	var rows []models.SourceRow
	for _, f := range files {
		parsed, err := reader.Parse(f.Reader, f.Name)
		if err != nil {
			return nil, err
		}
		rows = append(rows, parsed...)
	}
	return rows, nil
}

func (s *SettlementService) persist(
	batchID uuid.UUID,
	rows []models.SourceRow,
	journal []models.JournalLine,
	invoices []models.InvoiceLine,
	payments []models.PaymentRecord,
	reports []models.SettlementReport,
) error {
	if err := s.rowRepo.BulkInsert(rows); err != nil {
		return err
	}
	s.updateProgress(batchID, len(rows))
	if err := s.journalRepo.BulkInsert(journal); err != nil {
		return err
	}
	if err := s.invoiceRepo.BulkInsert(invoices); err != nil {
		return err
	}
	if err := s.paymentRepo.BulkInsert(payments); err != nil {
		return err
	}
	return s.reportRepo.BulkInsert(reports)
}

type batchCounts struct {
	totalRecords int
	journalLines int
	invoiceLines int
	payments     int
	settlements  int
}

func (s *SettlementService) markBatchCompleted(batchID uuid.UUID, counts batchCounts) {
	now := time.Now()
	s.db.Model(&models.SettlementBatch{}).
		Where("id = ?", batchID).
		Updates(map[string]interface{}{
			"total_records":      counts.totalRecords,
			"processed_count":    counts.totalRecords,
			"journal_line_count": counts.journalLines,
			"invoice_line_count": counts.invoiceLines,
			"payment_count":      counts.payments,
			"settlement_count":   counts.settlements,
			"status":             "completed",
			"completed_at":       now,
		})
	s.progressCache.Store(batchID, &Progress{
		ProcessedCount: counts.totalRecords,
		Total:          counts.totalRecords,
		Status:         "completed",
	})
}

func (s *SettlementService) markBatchFailed(batchID uuid.UUID, err error) {
	s.log.WithField("batch_id", batchID).WithError(err).Error("batch processing failed")
	now := time.Now()
	s.db.Model(&models.SettlementBatch{}).
		Where("id = ?", batchID).
		Updates(map[string]interface{}{
			"status":       "failed",
			"error":        err.Error(),
			"completed_at": now,
		})
	s.progressCache.Store(batchID, &Progress{Status: "failed"})
}

func (s *SettlementService) updateProgress(batchID uuid.UUID, count int) {
	val, _ := s.progressCache.LoadOrStore(batchID, &Progress{Status: "processing"})
	p := val.(*Progress)
	p.ProcessedCount = count
	s.progressCache.Store(batchID, p)

	s.db.Model(&models.SettlementBatch{}).
		Where("id = ?", batchID).
		Update("processed_count", count)
}

func (s *SettlementService) GetBatch(batchID uuid.UUID) (*models.SettlementBatch, error) {
	var batch models.SettlementBatch
	if err := s.db.First(&batch, "id = ?", batchID).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (s *SettlementService) GetProgress(batchID uuid.UUID) (Progress, bool) {
	if val, ok := s.progressCache.Load(batchID); ok {
		return *val.(*Progress), true
	}
	return Progress{}, false
}

// BatchStats aggregates invoice validation outcomes plus journal totals for
// the upload overview.
type BatchStats struct {
	Settlements int64 `json:"settlements"`

	JournalLineCount int64           `json:"journal_line_count"`
	TotalDebits      decimal.Decimal `json:"total_debits"`
	TotalCredits     decimal.Decimal `json:"total_credits"`

	ValidInvoiceCount    int64           `json:"valid_invoice_count"`
	ZeroInvoiceCount     int64           `json:"zero_invoice_count"`
	ReviewInvoiceCount   int64           `json:"review_invoice_count"`
	TotalAmountInvoiced  decimal.Decimal `json:"total_amount_invoiced"`
	PaymentCount         int64           `json:"payment_count"`
	TotalAmountPaid      decimal.Decimal `json:"total_amount_paid"`
	UnbalancedSettlement int64           `json:"unbalanced_settlements"`
}

type flagRow struct {
	ValidationFlag string
	Count          int64
	Sum            decimal.Decimal
}

func (s *SettlementService) GetBatchStats(batchID uuid.UUID) (BatchStats, error) {
	var stats BatchStats

	err := s.db.Model(&models.JournalLine{}).
		Where("batch_id = ?", batchID).
		Select("COUNT(*) as journal_line_count, COALESCE(SUM(debit),0) as total_debits, COALESCE(SUM(credit),0) as total_credits").
		Row().Scan(&stats.JournalLineCount, &stats.TotalDebits, &stats.TotalCredits)
	if err != nil {
		return stats, err
	}

	var flags []flagRow
	err = s.db.Model(&models.InvoiceLine{}).
		Where("batch_id = ?", batchID).
		Select("validation_flag, COUNT(*) as count, COALESCE(SUM(line_amount),0) as sum").
		Group("validation_flag").
		Scan(&flags).Error
	if err != nil {
		return stats, err
	}
	for _, r := range flags {
		switch r.ValidationFlag {
		case models.InvoiceLineValid:
			stats.ValidInvoiceCount = r.Count
			stats.TotalAmountInvoiced = stats.TotalAmountInvoiced.Add(r.Sum)
		case models.InvoiceLineValidZero:
			stats.ZeroInvoiceCount = r.Count
		case models.InvoiceLineReview:
			stats.ReviewInvoiceCount = r.Count
		}
	}

	err = s.db.Model(&models.PaymentRecord{}).
		Where("batch_id = ?", batchID).
		Select("COUNT(*) as payment_count, COALESCE(SUM(amount),0) as total_amount_paid").
		Row().Scan(&stats.PaymentCount, &stats.TotalAmountPaid)
	if err != nil {
		return stats, err
	}

	s.db.Model(&models.SettlementReport{}).
		Where("batch_id = ?", batchID).
		Count(&stats.Settlements)
	s.db.Model(&models.SettlementReport{}).
		Where("batch_id = ? AND balance_check = ?", batchID, models.CheckUnbalanced).
		Count(&stats.UnbalancedSettlement)

	return stats, nil
}

// ListJournalLines is cursor-paginated over the line id for the review UI.
func (s *SettlementService) ListJournalLines(
	batchID uuid.UUID,
	settlementID string,
	cursor string,
	limit int,
	search string,
) ([]models.JournalLine, string, bool) {
	var lines []models.JournalLine
	query := s.db.
		Where("batch_id = ?", batchID).
		Order("id ASC").
		Limit(limit + 1)

	if settlementID != "" {
		query = query.Where("settlement_id = ?", settlementID)
	}
	if cursor != "" {
		query = query.Where("id > ?", cursor)
	}
	if search != "" {
		likeQuery := "%" + search + "%"
		query = query.Where(
			"description ILIKE ? OR gl_account ILIKE ?",
			likeQuery, likeQuery,
		)
	}

	query.Find(&lines)

	hasMore := false
	var nextCursor string
	if len(lines) > limit {
		hasMore = true
		nextCursor = lines[limit-1].ID.String()
		lines = lines[:limit]
	}
	return lines, nextCursor, hasMore
}

func (s *SettlementService) ListInvoiceLines(
	batchID uuid.UUID,
	flag string,
	cursor string,
	limit int,
	search string,
) ([]models.InvoiceLine, string, bool) {
	var lines []models.InvoiceLine
	query := s.db.
		Where("batch_id = ?", batchID).
		Order("id ASC").
		Limit(limit + 1)

	if flag != "" && flag != "all" {
		query = query.Where("validation_flag = ?", flag)
	}
	if cursor != "" {
		query = query.Where("id > ?", cursor)
	}
	if search != "" {
		likeQuery := "%" + search + "%"
		query = query.Where(
			"customer_name ILIKE ? OR invoice_number ILIKE ? OR sku ILIKE ?",
			likeQuery, likeQuery, likeQuery,
		)
	}

	query.Find(&lines)

	hasMore := false
	var nextCursor string
	if len(lines) > limit {
		hasMore = true
		nextCursor = lines[limit-1].ID.String()
		lines = lines[:limit]
	}
	return lines, nextCursor, hasMore
}

func (s *SettlementService) Reports(batchID uuid.UUID) ([]models.SettlementReport, error) {
	return s.reportRepo.ByBatch(batchID)
}

func (s *SettlementService) Report(batchID uuid.UUID, settlementID string) (*models.SettlementReport, error) {
	return s.reportRepo.BySettlement(batchID, settlementID)
}

func (s *SettlementService) AccountSummary(batchID uuid.UUID) ([]repository.AccountSummary, error) {
	return s.journalRepo.SummarizeByAccount(batchID)
}

func (s *SettlementService) JournalRepo() *repository.JournalRepository {
	return s.journalRepo
}

func (s *SettlementService) InvoiceRepo() *repository.InvoiceLineRepository {
	return s.invoiceRepo
}

func (s *SettlementService) PaymentRepo() *repository.PaymentRepository {
	return s.paymentRepo
}

func (s *SettlementService) DB() *gorm.DB {
	return s.db
}

func settlementIDs(rows []models.SourceRow) []string {
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

func invoiceLinesFor(lines []models.InvoiceLine, settlementID string) []models.InvoiceLine {
	var group []models.InvoiceLine
	for _, l := range lines {
		if l.SettlementID == settlementID {
			group = append(group, l)
		}
	}
	return group
}
