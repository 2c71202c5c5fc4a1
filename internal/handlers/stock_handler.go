package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/models"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/services"
)

type StockHandler struct {
	audit  *services.AuditService
	notify *services.NotifyService
}

func NewStockHandler(audit *services.AuditService, notify *services.NotifyService) *StockHandler {
	return &StockHandler{
		audit:  audit,
		notify: notify,
	}
}

// AuditStock runs a stock audit over all variant-bearing products. With
// fixIssues set, detected drift is repaired in the same run.
func (h *StockHandler) AuditStock(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	// Body is optional; an empty request audits without repairing.
	var req models.AuditRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "VALIDATION_ERROR",
					Message: err.Error(),
				},
			})
			return
		}
	}

	report, err := h.audit.AuditStock(c.Request.Context(), tenantID, req.FixIssues)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AuditResponse{
		Success: true,
		Data:    report,
	})
}

// UpdateStock replaces a product's variants wholesale and resolves pending
// restock notifications for variants that came back above their MOQ.
func (h *StockHandler) UpdateStock(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	var req models.StockUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	product, err := h.notify.ApplyStockUpdate(c.Request.Context(), tenantID, productID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
	})
}

// ExportAuditReport runs a read-only audit and streams the report as an
// Excel workbook.
func (h *StockHandler) ExportAuditReport(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	report, err := h.audit.AuditStock(c.Request.Context(), tenantID, false)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	summary := "Summary"
	f.SetSheetName("Sheet1", summary)
	f.SetCellValue(summary, "A1", "Generated At")
	f.SetCellValue(summary, "B1", time.Now().UTC().Format(time.RFC3339))
	f.SetCellValue(summary, "A2", "Products Scanned")
	f.SetCellValue(summary, "B2", report.Scanned)
	f.SetCellValue(summary, "A3", "Issues Found")
	f.SetCellValue(summary, "B3", report.IssuesFound)
	f.SetCellValue(summary, "A4", "Failures")
	f.SetCellValue(summary, "B4", len(report.Failures))

	details := "Drift Details"
	if _, err := f.NewSheet(details); err == nil {
		headers := []string{"Product ID", "Name", "SKU", "Stated", "Actual", "Diff", "Variant Count"}
		for i, header := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(details, cell, header)
		}
		for row, d := range report.Details {
			values := []interface{}{d.ProductID, d.Name, d.SKU, d.Stated, d.Actual, d.Diff, d.VariantCount}
			for col, value := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				f.SetCellValue(details, cell, value)
			}
		}
	}

	filename := fmt.Sprintf("stock-audit-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EXPORT_FAILED",
				Message: "Failed to write audit report workbook",
			},
		})
	}
}
