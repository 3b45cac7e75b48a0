package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"settlement-ledger-backend/internal/export"
	"settlement-ledger-backend/internal/services/engine"
	service "settlement-ledger-backend/internal/services/settlement"
)

type SettlementHandler struct {
	service *service.SettlementService
	glMap   engine.GLMapping
}

func NewSettlementHandler(s *service.SettlementService, glMap engine.GLMapping) *SettlementHandler {
	return &SettlementHandler{service: s, glMap: glMap}
}

// Upload accepts one or more settlement report files, creates a batch, and
// processes it in the background. Files are buffered before responding; the
// request body is gone once the handler returns.
func (h *SettlementHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		fileHeaders = form.File["file"]
	}
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}

	var files []service.NamedFile
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded file"})
			return
		}
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, f); err != nil {
			f.Close()
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
			return
		}
		f.Close()
		files = append(files, service.NamedFile{Name: fh.Filename, Reader: &buf})
	}

	batch := h.service.CreateBatch(fileHeaders[0].Filename)

	go h.service.ProcessBatch(batch.ID, files)

	c.JSON(http.StatusAccepted, gin.H{
		"batch_id": batch.ID.String(),
		"status":   "processing",
	})
}

func (h *SettlementHandler) GetBatchProgress(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}

	if p, ok := h.service.GetProgress(batchID); ok {
		c.JSON(http.StatusOK, gin.H{
			"processed_count": p.ProcessedCount,
			"total":           p.Total,
			"status":          p.Status,
		})
		return
	}

	batch, err := h.service.GetBatch(batchID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"processed_count": batch.ProcessedCount,
		"total":           batch.TotalRecords,
		"status":          batch.Status,
	})
}

func (h *SettlementHandler) GetBatch(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}
	batch, err := h.service.GetBatch(batchID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}
	stats, _ := h.service.GetBatchStats(batchID)
	c.JSON(http.StatusOK, gin.H{"batch": batch, "stats": stats})
}

func (h *SettlementHandler) ListJournalLines(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}

	settlementID := c.Query("settlement_id")
	cursor := c.Query("cursor")
	search := c.Query("search")
	limit := 50

	items, nextCursor, hasMore := h.service.ListJournalLines(batchID, settlementID, cursor, limit, search)

	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"next_cursor": nextCursor,
		"has_more":    hasMore,
	})
}

func (h *SettlementHandler) ListInvoiceLines(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}

	flag := c.Query("flag")
	cursor := c.Query("cursor")
	search := c.Query("search")
	limit := 50

	items, nextCursor, hasMore := h.service.ListInvoiceLines(batchID, flag, cursor, limit, search)

	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"next_cursor": nextCursor,
		"has_more":    hasMore,
	})
}

func (h *SettlementHandler) ListReports(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}
	reports, err := h.service.Reports(batchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *SettlementHandler) GetReport(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}
	report, err := h.service.Report(batchID, c.Param("settlementId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// ExportJournal streams one settlement's journal as CSV.
func (h *SettlementHandler) ExportJournal(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}
	settlementID := c.Param("settlementId")

	lines, err := h.service.JournalRepo().BySettlement(batchID, settlementID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	setCSVHeaders(c, fmt.Sprintf("Journal_%s.csv", settlementID))
	if err := export.WriteJournalCSV(c.Writer, lines); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// ExportInvoices streams one settlement's valid invoice lines as CSV.
func (h *SettlementHandler) ExportInvoices(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}
	settlementID := c.Param("settlementId")

	lines, err := h.service.InvoiceRepo().ValidBySettlement(batchID, settlementID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	setCSVHeaders(c, fmt.Sprintf("Invoice_%s.csv", settlementID))
	if err := export.WriteInvoiceCSV(c.Writer, lines); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

func (h *SettlementHandler) ExportPayments(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}
	settlementID := c.Param("settlementId")

	payments, err := h.service.PaymentRepo().BySettlement(batchID, settlementID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	setCSVHeaders(c, fmt.Sprintf("Payment_%s.csv", settlementID))
	if err := export.WritePaymentCSV(c.Writer, payments); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// ExportAccountSummary streams per-account journal totals for the batch.
func (h *SettlementHandler) ExportAccountSummary(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}

	summaries, err := h.service.AccountSummary(batchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	setCSVHeaders(c, fmt.Sprintf("GL_Account_Summary_%s.csv", batchID))
	if err := export.WriteAccountSummaryCSV(c.Writer, summaries, h.glMap); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// ExportDashboard streams the reconciliation workbook.
func (h *SettlementHandler) ExportDashboard(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}

	reports, err := h.service.Reports(batchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	summaries, err := h.service.AccountSummary(batchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=Settlement_Dashboard_%s.xlsx", batchID))
	if err := export.WriteDashboard(c.Writer, reports, summaries, h.glMap); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// GetGLMapping exposes the configured account name to external id mapping.
func (h *SettlementHandler) GetGLMapping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"accounts": h.glMap})
}

func setCSVHeaders(c *gin.Context, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename="+filename)
}
