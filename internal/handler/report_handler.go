package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"simreg/internal/report"
	"simreg/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler handles the operator report endpoints.
type ReportHandler struct {
	wizards service.WizardService
	now     func() time.Time
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(wizards service.WizardService) *ReportHandler {
	return &ReportHandler{wizards: wizards, now: time.Now}
}

// Funnel handles GET /api/v1/admin/reports/funnel
// @Summary Wizard funnel
// @Description Counts the live wizards on every step
// @Tags reports
// @Produce json
// @Success 200 {object} FunnelResponse "Funnel rows"
// @Failure 401 {object} ErrorResponseBody "Invalid API key"
// @Security ApiKeyAuth
// @Router /admin/reports/funnel [get]
func (h *ReportHandler) Funnel(c *gin.Context) {
	RespondOK(c, h.wizards.Funnel())
}

// FunnelWorkbook handles GET /api/v1/admin/reports/funnel.xlsx
// @Summary Wizard funnel workbook
// @Description Downloads the funnel as an Excel workbook
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "Funnel workbook"
// @Failure 401 {object} ErrorResponseBody "Invalid API key"
// @Security ApiKeyAuth
// @Router /admin/reports/funnel.xlsx [get]
func (h *ReportHandler) FunnelWorkbook(c *gin.Context) {
	now := h.now()
	var buf bytes.Buffer
	if err := report.WriteFunnel(&buf, h.wizards.Funnel(), now); err != nil {
		HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("funnel-%s.xlsx", now.UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// FunnelCSV handles GET /api/v1/admin/reports/funnel.csv
// @Summary Wizard funnel CSV
// @Description Downloads the funnel as CSV with a UTF-8 BOM
// @Tags reports
// @Produce text/csv
// @Success 200 {file} file "Funnel CSV"
// @Failure 401 {object} ErrorResponseBody "Invalid API key"
// @Security ApiKeyAuth
// @Router /admin/reports/funnel.csv [get]
func (h *ReportHandler) FunnelCSV(c *gin.Context) {
	now := h.now()
	var buf bytes.Buffer
	if err := report.WriteFunnelCSV(&buf, h.wizards.Funnel(), now); err != nil {
		HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("funnel-%s.csv", now.UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
