package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"settlement-ledger-backend/internal/models"
)

type SourceRowRepository struct {
	db *gorm.DB
}

func NewSourceRowRepository(db *gorm.DB) *SourceRowRepository {
	return &SourceRowRepository{db: db}
}

// Expose DB if needed
func (r *SourceRowRepository) DB() *gorm.DB {
	return r.db
}

// BulkInsert writes parsed rows in chunks to keep statement sizes bounded.
func (r *SourceRowRepository) BulkInsert(rows []models.SourceRow) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.CreateInBatches(rows, 500).Error
}

func (r *SourceRowRepository) ByBatch(batchID uuid.UUID) ([]models.SourceRow, error) {
	var rows []models.SourceRow
	err := r.db.Where("batch_id = ?", batchID).Order("row_id ASC").Find(&rows).Error
	return rows, err
}

func (r *SourceRowRepository) CountByBatch(batchID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.SourceRow{}).Where("batch_id = ?", batchID).Count(&count).Error
	return count, err
}

// SettlementIDs returns the distinct settlement ids of a batch in first-row
// order.
func (r *SourceRowRepository) SettlementIDs(batchID uuid.UUID) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.SourceRow{}).
		Where("batch_id = ?", batchID).
		Group("settlement_id").
		Order("MIN(row_id) ASC").
		Pluck("settlement_id", &ids).Error
	return ids, err
}
