package repository

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"settlement-ledger-backend/internal/models"
)

type InvoiceLineRepository struct {
	db *gorm.DB
}

func NewInvoiceLineRepository(db *gorm.DB) *InvoiceLineRepository {
	return &InvoiceLineRepository{db: db}
}

// Expose DB if needed
func (r *InvoiceLineRepository) DB() *gorm.DB {
	return r.db
}

func (r *InvoiceLineRepository) BulkInsert(lines []models.InvoiceLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.CreateInBatches(lines, 500).Error
}

func (r *InvoiceLineRepository) ByBatch(batchID uuid.UUID) ([]models.InvoiceLine, error) {
	var lines []models.InvoiceLine
	err := r.db.Where("batch_id = ?", batchID).Order("source_row_id ASC").Find(&lines).Error
	return lines, err
}

// ValidByBatch excludes review-flagged lines, matching the export rule.
func (r *InvoiceLineRepository) ValidByBatch(batchID uuid.UUID) ([]models.InvoiceLine, error) {
	var lines []models.InvoiceLine
	err := r.db.Where("batch_id = ? AND validation_flag IN ?", batchID,
		[]string{models.InvoiceLineValid, models.InvoiceLineValidZero}).
		Order("source_row_id ASC").Find(&lines).Error
	return lines, err
}

// ValidBySettlement narrows ValidByBatch to one settlement for the
// per-settlement export.
func (r *InvoiceLineRepository) ValidBySettlement(batchID uuid.UUID, settlementID string) ([]models.InvoiceLine, error) {
	var lines []models.InvoiceLine
	err := r.db.Where("batch_id = ? AND settlement_id = ? AND validation_flag IN ?",
		batchID, settlementID,
		[]string{models.InvoiceLineValid, models.InvoiceLineValidZero}).
		Order("source_row_id ASC").Find(&lines).Error
	return lines, err
}

// SearchByCustomer is a simple LIKE search for the review UI.
func (r *InvoiceLineRepository) SearchByCustomer(batchID uuid.UUID, query string) ([]models.InvoiceLine, error) {
	var lines []models.InvoiceLine
	likeQuery := "%" + strings.ToLower(query) + "%"
	err := r.db.Where("batch_id = ? AND LOWER(customer_name) LIKE ?", batchID, likeQuery).
		Find(&lines).Error
	return lines, err
}
