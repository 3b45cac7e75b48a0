package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"settlement-ledger-backend/internal/models"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) DB() *gorm.DB {
	return r.db
}

func (r *PaymentRepository) BulkInsert(payments []models.PaymentRecord) error {
	if len(payments) == 0 {
		return nil
	}
	return r.db.CreateInBatches(payments, 500).Error
}

func (r *PaymentRepository) ByBatch(batchID uuid.UUID) ([]models.PaymentRecord, error) {
	var payments []models.PaymentRecord
	err := r.db.Where("batch_id = ?", batchID).Order("invoice_number ASC").Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) BySettlement(batchID uuid.UUID, settlementID string) ([]models.PaymentRecord, error) {
	var payments []models.PaymentRecord
	err := r.db.Where("batch_id = ? AND settlement_id = ?", batchID, settlementID).
		Order("invoice_number ASC").Find(&payments).Error
	return payments, err
}
