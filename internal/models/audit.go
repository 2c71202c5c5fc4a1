package models

// StockDriftDetail is one per-product drift record in an audit report.
// Diff is actual minus stated, so an overstated aggregate yields a
// negative value.
type StockDriftDetail struct {
	ProductID    string `json:"productId"`
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Stated       int    `json:"stated"`
	Actual       int    `json:"actual"`
	Diff         int    `json:"diff"`
	VariantCount int    `json:"variantCount"`
	Repaired     bool   `json:"repaired"`
}

// StockAuditFailure records a product the scan could not process. Failures
// never abort the run; they ride along in the report.
type StockAuditFailure struct {
	ProductID string `json:"productId"`
	Error     string `json:"error"`
}

// StockAuditReport summarizes one audit run over all variant-bearing
// products of a tenant.
type StockAuditReport struct {
	Scanned     int                 `json:"scanned"`
	IssuesFound int                 `json:"issuesFound"`
	Fixed       int                 `json:"fixed"`
	Details     []StockDriftDetail  `json:"details"`
	Failures    []StockAuditFailure `json:"failures,omitempty"`
}

// AuditRequest triggers a stock audit; FixIssues additionally repairs any
// drift that is found.
type AuditRequest struct {
	FixIssues bool `json:"fixIssues"`
}

type AuditResponse struct {
	Success bool              `json:"success"`
	Data    *StockAuditReport `json:"data"`
	Message *string           `json:"message,omitempty"`
}
