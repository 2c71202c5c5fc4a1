package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/models"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/services"
)

// ImportHandler ingests supplier restock sheets. Each row is one
// variant; rows sharing a productId are that product's complete
// variant list and are applied as a single stock update, so the sheet
// must list every variant the product keeps.
type ImportHandler struct {
	notify *services.NotifyService
}

func NewImportHandler(notify *services.NotifyService) *ImportHandler {
	return &ImportHandler{notify: notify}
}

// GetImportTemplate returns the stock import template definition or file
// GET /api/v1/inventory/stock-import/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := models.StockImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=stock_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)
}

func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Stock"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Stock Import Instructions")
	f.SetCellValue("Instructions", "A3", "Each row is one variant. Rows with the same productId replace")
	f.SetCellValue("Instructions", "A4", "that product's full variant list, so include every variant the")
	f.SetCellValue("Instructions", "A5", "product should keep, not just the ones being restocked.")
	f.SetCellValue("Instructions", "A6", "Leave sku blank to have one generated from name, color and size.")
	f.SetCellValue("Instructions", "A7", "Pending restock notifications are sent when stock reaches the")
	f.SetCellValue("Instructions", "A8", "minimum order quantity.")

	f.SetCellValue("Instructions", "A10", "Column Definitions:")
	f.SetCellValue("Instructions", "A11", "Column")
	f.SetCellValue("Instructions", "B11", "Description")
	f.SetCellValue("Instructions", "C11", "Required")
	f.SetCellValue("Instructions", "D11", "Type")
	f.SetCellValue("Instructions", "E11", "Example")

	for i, col := range template.Columns {
		row := i + 12
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 25)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=stock_import_template.xlsx")

	f.Write(c.Writer)
}

// ImportStock applies stock levels from a CSV or Excel file
// POST /api/v1/inventory/stock-import
func (h *ImportHandler) ImportStock(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	startTime := time.Now()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Please upload a CSV or Excel file",
			},
		})
		return
	}
	defer file.Close()

	validateOnly := c.DefaultPostForm("validateOnly", "false") == "true"

	filename := strings.ToLower(header.Filename)
	var rows []map[string]string
	var parseErr error
	switch {
	case strings.HasSuffix(filename, ".csv"):
		rows, parseErr = h.parseCSV(file)
	case strings.HasSuffix(filename, ".xlsx"):
		rows, parseErr = h.parseXLSX(file)
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FORMAT",
				Message: "Only CSV and XLSX files are supported",
			},
		})
		return
	}

	if parseErr != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "PARSE_ERROR",
				Message: parseErr.Error(),
			},
		})
		return
	}

	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EMPTY_FILE",
				Message: "The file contains no data rows",
			},
		})
		return
	}

	result := h.processImport(c, tenantID, rows, validateOnly)
	result.ProcessingMs = time.Since(startTime).Milliseconds()

	c.JSON(http.StatusOK, result)
}

type importGroup struct {
	productID uuid.UUID
	rowNums   []int
	variants  []models.VariantInput
}

// processImport groups rows by product and applies each group as one
// stock update. A failing product is reported and skipped; the rest of
// the file still goes through.
func (h *ImportHandler) processImport(c *gin.Context, tenantID string, rows []map[string]string, validateOnly bool) *models.StockImportResult {
	result := &models.StockImportResult{
		TotalRows:    len(rows),
		ValidateOnly: validateOnly,
		Errors:       make([]models.ImportRowError, 0),
		UpdatedIDs:   make([]string, 0),
	}

	groups := make(map[uuid.UUID]*importGroup)
	order := make([]uuid.UUID, 0)

	for _, row := range rows {
		rowNum, _ := strconv.Atoi(row["_row"])

		variant, productID, rowErrs := h.parseRow(row, rowNum)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			result.FailedRows++
			continue
		}

		group, ok := groups[productID]
		if !ok {
			group = &importGroup{productID: productID}
			groups[productID] = group
			order = append(order, productID)
		}
		group.rowNums = append(group.rowNums, rowNum)
		group.variants = append(group.variants, variant)
	}

	if validateOnly {
		result.Success = result.FailedRows == 0
		return result
	}

	for _, productID := range order {
		group := groups[productID]
		req := &models.StockUpdateRequest{Variants: group.variants}

		if _, err := h.notify.ApplyStockUpdate(c.Request.Context(), tenantID, group.productID, req); err != nil {
			result.FailedProducts++
			result.FailedRows += len(group.rowNums)
			result.Errors = append(result.Errors, models.ImportRowError{
				Row:     group.rowNums[0],
				Column:  "productId",
				Code:    importErrorCode(err),
				Message: err.Error(),
			})
			continue
		}

		result.ProductsUpdated++
		result.UpdatedIDs = append(result.UpdatedIDs, group.productID.String())
	}

	result.Success = result.ProductsUpdated > 0 && result.FailedProducts == 0 && result.FailedRows == 0
	return result
}

func (h *ImportHandler) parseRow(row map[string]string, rowNum int) (models.VariantInput, uuid.UUID, []models.ImportRowError) {
	var errs []models.ImportRowError

	productID, err := uuid.Parse(row["productid"])
	if err != nil {
		errs = append(errs, models.ImportRowError{
			Row: rowNum, Column: "productId", Code: "INVALID_ID",
			Message: "productId must be a valid UUID",
		})
	}

	if row["price"] == "" {
		errs = append(errs, models.ImportRowError{
			Row: rowNum, Column: "price", Code: "REQUIRED",
			Message: "Price is required",
		})
	} else if _, err := strconv.ParseFloat(row["price"], 64); err != nil {
		errs = append(errs, models.ImportRowError{
			Row: rowNum, Column: "price", Code: "INVALID",
			Message: "Price must be a valid number",
		})
	}

	stock := 0
	if row["stock"] == "" {
		errs = append(errs, models.ImportRowError{
			Row: rowNum, Column: "stock", Code: "REQUIRED",
			Message: "Stock is required",
		})
	} else if stock, err = strconv.Atoi(row["stock"]); err != nil || stock < 0 {
		errs = append(errs, models.ImportRowError{
			Row: rowNum, Column: "stock", Code: "INVALID",
			Message: "Stock must be a non-negative integer",
		})
	}

	variant := models.VariantInput{
		Color: row["color"],
		Size:  row["size"],
		Price: row["price"],
		Stock: stock,
	}
	if sku := row["sku"]; sku != "" {
		variant.SKU = &sku
	}
	if name := row["name"]; name != "" {
		variant.Name = &name
	}
	if moq := row["minorderqty"]; moq != "" {
		parsed, err := strconv.Atoi(moq)
		if err != nil || parsed < 1 {
			errs = append(errs, models.ImportRowError{
				Row: rowNum, Column: "minOrderQty", Code: "INVALID",
				Message: "Minimum order quantity must be a positive integer",
			})
		} else {
			variant.MinOrderQty = &parsed
		}
	}

	return variant, productID, errs
}

func importErrorCode(err error) string {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		return "NOT_FOUND"
	case errors.Is(err, services.ErrDuplicateSKU):
		return "DUPLICATE_SKU"
	case errors.Is(err, services.ErrVersionConflict):
		return "VERSION_CONFLICT"
	default:
		return "DB_ERROR"
	}
}

// parseCSV parses a CSV file into rows keyed by lowercased header
func (h *ImportHandler) parseCSV(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}

	var rows []map[string]string
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}

		row := make(map[string]string)
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(lineNum + 1)
		rows = append(rows, row)
		lineNum++
	}

	return rows, nil
}

// parseXLSX parses an Excel file into rows
func (h *ImportHandler) parseXLSX(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, "Stock") {
			sheetName = name
			break
		}
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	headers := excelRows[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}

	var rows []map[string]string
	for rowIdx, excelRow := range excelRows[1:] {
		row := make(map[string]string)
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(rowIdx + 2)
		rows = append(rows, row)
	}

	return rows, nil
}
