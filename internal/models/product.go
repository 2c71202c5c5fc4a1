package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "DRAFT"
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusInactive ProductStatus = "INACTIVE"
	ProductStatusArchived ProductStatus = "ARCHIVED"
)

// JSON type for PostgreSQL JSONB (object/map)
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// JSONArray type for PostgreSQL JSONB (array)
type JSONArray []interface{}

func (j JSONArray) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONArray, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Product represents a catalog product. Stock on a variant-bearing product is
// derived: every full save recomputes it as the sum of the variants' stock
// (see BeforeSave). Narrow column updates skip that recomputation, which is
// why the stock audit exists.
type Product struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string            `json:"tenantId" gorm:"not null;index:idx_products_tenant_id;index:idx_products_tenant_sku,unique;index:idx_products_tenant_status"`
	Name        string            `json:"name" gorm:"not null"`
	Slug        *string           `json:"slug,omitempty" gorm:"index"`
	SKU         string            `json:"sku" gorm:"not null;index:idx_products_tenant_sku,unique"`
	Description *string           `json:"description,omitempty"`
	Price       string            `json:"price" gorm:"not null"`
	Status      ProductStatus     `json:"status" gorm:"not null;default:'ACTIVE';index:idx_products_tenant_status"`
	HasVariants bool              `json:"hasVariants" gorm:"not null;default:false;index"`
	Stock       int               `json:"stock" gorm:"not null;default:0"`
	MinOrderQty *int              `json:"minOrderQty,omitempty"`
	Version     int               `json:"version" gorm:"not null;default:1"`
	Tags        *JSONArray        `json:"tags,omitempty" gorm:"type:jsonb"`
	Attributes  *JSON             `json:"attributes,omitempty" gorm:"type:jsonb"`
	Images      *JSONArray        `json:"images,omitempty" gorm:"type:jsonb"`
	Variants    []*ProductVariant `json:"variants,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	DeletedAt   *gorm.DeletedAt   `json:"deletedAt,omitempty" gorm:"index"`
	CreatedBy   *string           `json:"createdBy,omitempty"`
	UpdatedBy   *string           `json:"updatedBy,omitempty"`
}

// EffectiveMinOrderQty is the product-level MOQ floor, defaulting to 1.
func (p *Product) EffectiveMinOrderQty() int {
	if p.MinOrderQty != nil && *p.MinOrderQty >= 1 {
		return *p.MinOrderQty
	}
	return 1
}

// ProductVariant represents a size/color variant of a product. Variants are
// replaced wholesale on product edits, never patched item by item.
type ProductVariant struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID   uuid.UUID       `json:"productId" gorm:"type:uuid;not null;index"`
	SKU         string          `json:"sku" gorm:"not null;unique"`
	Name        *string         `json:"name,omitempty"`
	Color       string          `json:"color"`
	Size        string          `json:"size"`
	Price       string          `json:"price" gorm:"not null"`
	Stock       int             `json:"stock" gorm:"not null;default:0"`
	MinOrderQty *int            `json:"minOrderQty,omitempty"`
	Attributes  *JSON           `json:"attributes,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// VariantKey returns the "{color}-{size}" key used to correlate a variant
// with stock notification requests.
func (v *ProductVariant) VariantKey() string {
	return v.Color + "-" + v.Size
}

// EffectiveMinOrderQty resolves the variant's MOQ, falling back to the
// parent product's value and finally to 1.
func (v *ProductVariant) EffectiveMinOrderQty(parent *Product) int {
	if v.MinOrderQty != nil && *v.MinOrderQty >= 1 {
		return *v.MinOrderQty
	}
	if parent != nil {
		return parent.EffectiveMinOrderQty()
	}
	return 1
}

// VariantInput represents a variant in create/update/stock-update payloads.
type VariantInput struct {
	SKU         *string `json:"sku,omitempty"`
	Name        *string `json:"name,omitempty"`
	Color       string  `json:"color"`
	Size        string  `json:"size"`
	Price       string  `json:"price" binding:"required"`
	Stock       int     `json:"stock" binding:"min=0"`
	MinOrderQty *int    `json:"minOrderQty,omitempty"`
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name        string         `json:"name" binding:"required"`
	Slug        *string        `json:"slug,omitempty"`
	SKU         *string        `json:"sku,omitempty"`
	Description *string        `json:"description,omitempty"`
	Price       string         `json:"price" binding:"required"`
	Status      *ProductStatus `json:"status,omitempty"`
	Stock       *int           `json:"stock,omitempty"`
	MinOrderQty *int           `json:"minOrderQty,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Attributes  *JSON          `json:"attributes,omitempty"`
	Variants    []VariantInput `json:"variants,omitempty"`
}

// UpdateProductRequest represents a request to update a product. Version is
// the optimistic concurrency token the caller read; a stale value is
// rejected with a conflict.
type UpdateProductRequest struct {
	Name        *string        `json:"name,omitempty"`
	Slug        *string        `json:"slug,omitempty"`
	SKU         *string        `json:"sku,omitempty"`
	Description *string        `json:"description,omitempty"`
	Price       *string        `json:"price,omitempty"`
	Status      *ProductStatus `json:"status,omitempty"`
	Stock       *int           `json:"stock,omitempty"`
	MinOrderQty *int           `json:"minOrderQty,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Attributes  *JSON          `json:"attributes,omitempty"`
	Variants    []VariantInput `json:"variants,omitempty"`
	Version     int            `json:"version" binding:"required,min=1"`
}

// StockUpdateRequest replaces a product's variants wholesale with the given
// set and re-resolves pending restock notifications.
type StockUpdateRequest struct {
	Variants []VariantInput `json:"variants" binding:"required,min=1,dive"`
	Version  *int           `json:"version,omitempty"`
}

// Response types
type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
	Message *string  `json:"message,omitempty"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
}

type ProductVariantListResponse struct {
	Success bool              `json:"success"`
	Data    []*ProductVariant `json:"data"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details *JSON  `json:"details,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// TableName returns the table name for the ProductVariant model
func (ProductVariant) TableName() string {
	return "product_variants"
}
