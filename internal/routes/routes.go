package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"settlement-ledger-backend/internal/config"
	handler "settlement-ledger-backend/internal/handlers"
	"settlement-ledger-backend/internal/repository"
	"settlement-ledger-backend/internal/services/engine"
	service "settlement-ledger-backend/internal/services/settlement"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, glMap engine.GLMapping) {
	rowRepo := repository.NewSourceRowRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	invoiceRepo := repository.NewInvoiceLineRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	reportRepo := repository.NewReportRepository(db)

	settlementService := service.NewSettlementService(
		rowRepo,
		journalRepo,
		invoiceRepo,
		paymentRepo,
		reportRepo,
		glMap,
		config.GetLogger(),
	)

	settlementHandler := handler.NewSettlementHandler(settlementService, glMap)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// GL account mapping used by the exports
	api.GET("/gl-mapping", settlementHandler.GetGLMapping)

	// Settlement batch routes
	settlements := api.Group("/settlements")
	settlements.POST("/upload", settlementHandler.Upload)
	settlements.GET("/:batchId", settlementHandler.GetBatch)
	settlements.GET("/:batchId/progress", settlementHandler.GetBatchProgress)
	settlements.GET("/:batchId/journal", settlementHandler.ListJournalLines)
	settlements.GET("/:batchId/invoices", settlementHandler.ListInvoiceLines)
	settlements.GET("/:batchId/reports", settlementHandler.ListReports)
	settlements.GET("/:batchId/reports/:settlementId", settlementHandler.GetReport)

	// Export routes
	exports := settlements.Group("/:batchId/export")
	{
		exports.GET("/journal/:settlementId", settlementHandler.ExportJournal)
		exports.GET("/invoices/:settlementId", settlementHandler.ExportInvoices)
		exports.GET("/payments/:settlementId", settlementHandler.ExportPayments)
		exports.GET("/summary", settlementHandler.ExportAccountSummary)
		exports.GET("/dashboard", settlementHandler.ExportDashboard)
	}
}
