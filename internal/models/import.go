package models

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number, uuid
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// ImportRowError represents an error for a specific row
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StockImportResult represents the outcome of a bulk stock import.
// Rows are grouped per product; one product failing does not abort
// the rest of the file.
type StockImportResult struct {
	Success         bool             `json:"success"`
	TotalRows       int              `json:"totalRows"`
	ProductsUpdated int              `json:"productsUpdated"`
	FailedProducts  int              `json:"failedProducts"`
	FailedRows      int              `json:"failedRows"`
	ValidateOnly    bool             `json:"validateOnly"`
	Errors          []ImportRowError `json:"errors,omitempty"`
	UpdatedIDs      []string         `json:"updatedIds,omitempty"`
	ProcessingMs    int64            `json:"processingMs"`
}

// StockImportColumns returns the column definitions for the bulk
// stock import sheet. Each row is one variant; rows sharing a
// productId together form that product's complete variant list.
func StockImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "productId", Description: "Product UUID", Required: true, Type: "uuid", Example: "3f8a6c1e-0000-0000-0000-000000000000"},
		{Name: "color", Description: "Variant color", Required: false, Type: "string", Example: "Red"},
		{Name: "size", Description: "Variant size", Required: false, Type: "string", Example: "M"},
		{Name: "sku", Description: "Variant SKU, generated when blank", Required: false, Type: "string", Example: "CHA-RE-M-512"},
		{Name: "name", Description: "Variant display name", Required: false, Type: "string", Example: "Red / M"},
		{Name: "price", Description: "Variant price", Required: true, Type: "number", Example: "29.99"},
		{Name: "stock", Description: "Stock level after restock", Required: true, Type: "number", Example: "40"},
		{Name: "minOrderQty", Description: "Minimum order quantity override", Required: false, Type: "number", Example: ""},
	}
}

// StockImportTemplate returns the template definition for bulk stock imports
func StockImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "stock",
		Version: "1.0",
		Columns: StockImportColumns(),
	}
}
