package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"settlement-ledger-backend/internal/models"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) DB() *gorm.DB {
	return r.db
}

func (r *ReportRepository) BulkInsert(reports []models.SettlementReport) error {
	if len(reports) == 0 {
		return nil
	}
	return r.db.CreateInBatches(reports, 100).Error
}

func (r *ReportRepository) ByBatch(batchID uuid.UUID) ([]models.SettlementReport, error) {
	var reports []models.SettlementReport
	err := r.db.Where("batch_id = ?", batchID).Order("settlement_id ASC").Find(&reports).Error
	return reports, err
}

func (r *ReportRepository) BySettlement(batchID uuid.UUID, settlementID string) (*models.SettlementReport, error) {
	var report models.SettlementReport
	if err := r.db.First(&report, "batch_id = ? AND settlement_id = ?", batchID, settlementID).Error; err != nil {
		return nil, err
	}
	return &report, nil
}
