package repository

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"settlement-ledger-backend/internal/models"
)

type JournalRepository struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) DB() *gorm.DB {
	return r.db
}

func (r *JournalRepository) BulkInsert(lines []models.JournalLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.CreateInBatches(lines, 500).Error
}

func (r *JournalRepository) ByBatch(batchID uuid.UUID) ([]models.JournalLine, error) {
	var lines []models.JournalLine
	err := r.db.Where("batch_id = ?", batchID).Order("source_row_id ASC").Find(&lines).Error
	return lines, err
}

func (r *JournalRepository) BySettlement(batchID uuid.UUID, settlementID string) ([]models.JournalLine, error) {
	var lines []models.JournalLine
	err := r.db.Where("batch_id = ? AND settlement_id = ?", batchID, settlementID).
		Order("source_row_id ASC").Find(&lines).Error
	return lines, err
}

// AccountSummary aggregates debits and credits per GL account for a batch.
type AccountSummary struct {
	GLAccount string          `json:"gl_account"`
	Debits    decimal.Decimal `json:"debits"`
	Credits   decimal.Decimal `json:"credits"`
	LineCount int64           `json:"line_count"`
}

func (r *JournalRepository) SummarizeByAccount(batchID uuid.UUID) ([]AccountSummary, error) {
	var rows []AccountSummary
	err := r.db.Model(&models.JournalLine{}).
		Where("batch_id = ?", batchID).
		Select("gl_account, COALESCE(SUM(debit),0) as debits, COALESCE(SUM(credit),0) as credits, COUNT(*) as line_count").
		Group("gl_account").
		Order("gl_account ASC").
		Scan(&rows).Error
	return rows, err
}
