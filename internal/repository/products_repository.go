package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/models"
)

// Cache TTL constants
const (
	ProductCacheTTL     = 5 * time.Minute // Single product cache
	ProductListCacheTTL = 2 * time.Minute // Product list cache (shorter due to frequent changes)
)

var (
	// ErrNotFound is returned when the requested record does not exist
	// for the tenant.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when a save carries a stale version.
	// The caller should re-read the product and retry.
	ErrVersionConflict = errors.New("version conflict: product was modified concurrently")

	// ErrDuplicateSKU is returned when a save violates SKU uniqueness.
	ErrDuplicateSKU = errors.New("duplicate SKU")
)

// ProductsRepositoryInterface defines product persistence operations.
type ProductsRepositoryInterface interface {
	CreateProduct(ctx context.Context, tenantID string, product *models.Product) error
	GetProductByID(ctx context.Context, tenantID string, productID uuid.UUID, includeVariants bool) (*models.Product, error)
	GetProducts(ctx context.Context, tenantID string, query *ListProductsQuery) ([]models.Product, int64, error)
	SaveProduct(ctx context.Context, tenantID string, product *models.Product) error
	ArchiveProduct(ctx context.Context, tenantID string, productID uuid.UUID) error
	GetVariantsByProductID(ctx context.Context, tenantID string, productID uuid.UUID) ([]*models.ProductVariant, error)
	AdjustVariantStock(ctx context.Context, tenantID string, productID, variantID uuid.UUID, delta int) error
	FindVariantProductsInBatches(ctx context.Context, tenantID string, batchSize int, fn func(batch []*models.Product) error) error
	InvalidateProductCaches(ctx context.Context, tenantID string, productID uuid.UUID)
}

// ListProductsQuery holds list filters and pagination.
type ListProductsQuery struct {
	Page        int
	Limit       int
	Status      *models.ProductStatus
	HasVariants *bool
	Search      *string
}

type ProductsRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

var _ ProductsRepositoryInterface = (*ProductsRepository)(nil)

func NewProductsRepository(db *gorm.DB, redisClient *redis.Client) *ProductsRepository {
	return &ProductsRepository{
		db:    db,
		redis: redisClient,
	}
}

func translateError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateSKU
	}
	return err
}

// InvalidateProductCaches invalidates all caches related to a product.
func (r *ProductsRepository) InvalidateProductCaches(ctx context.Context, tenantID string, productID uuid.UUID) {
	if r.redis == nil {
		return
	}

	// Invalidate single product cache (both variants)
	productKey := fmt.Sprintf("product:%s:%s", tenantID, productID.String())
	r.redis.Del(ctx, productKey+":true", productKey+":false")

	// Invalidate list caches for this tenant (pattern-based)
	r.deletePattern(ctx, fmt.Sprintf("products:list:%s:*", tenantID))
}

func (r *ProductsRepository) invalidateTenantProductListCaches(ctx context.Context, tenantID string) {
	if r.redis == nil {
		return
	}
	r.deletePattern(ctx, fmt.Sprintf("products:list:%s:*", tenantID))
}

func (r *ProductsRepository) deletePattern(ctx context.Context, pattern string) {
	iter := r.redis.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		r.redis.Del(ctx, iter.Val())
	}
}

// Product CRUD Operations

// CreateProduct creates a new product. Stock normalization and SKU backfill
// run in the model's save lifecycle.
func (r *ProductsRepository) CreateProduct(ctx context.Context, tenantID string, product *models.Product) error {
	product.TenantID = tenantID
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	// Ensure product has an ID before generating slug (for uniqueness)
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}

	// Generate slug from name if not provided or empty
	if product.Slug == nil || *product.Slug == "" {
		baseSlug := generateSlug(product.Name)
		uniqueSlug := fmt.Sprintf("%s-%s", baseSlug, product.ID.String()[:8])
		product.Slug = &uniqueSlug
	}

	for _, v := range product.Variants {
		v.ProductID = product.ID
	}

	err := r.db.WithContext(ctx).Create(product).Error
	if err != nil {
		return translateError(err)
	}

	r.invalidateTenantProductListCaches(ctx, tenantID)
	return nil
}

// GetProductByID retrieves a product by ID with caching
func (r *ProductsRepository) GetProductByID(ctx context.Context, tenantID string, productID uuid.UUID, includeVariants bool) (*models.Product, error) {
	cacheKey := fmt.Sprintf("product:%s:%s:%v", tenantID, productID.String(), includeVariants)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				return &product, nil
			}
		}
	}

	var product models.Product
	query := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, productID)
	if includeVariants {
		query = query.Preload("Variants")
	}
	if err := query.First(&product).Error; err != nil {
		return nil, translateError(err)
	}

	if r.redis != nil {
		data, err := json.Marshal(product)
		if err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductCacheTTL)
		}
	}

	return &product, nil
}

// GetProducts retrieves products with filters and pagination
func (r *ProductsRepository) GetProducts(ctx context.Context, tenantID string, q *ListProductsQuery) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("tenant_id = ?", tenantID)

	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}
	if q.HasVariants != nil {
		query = query.Where("has_variants = ?", *q.HasVariants)
	}
	if q.Search != nil && *q.Search != "" {
		like := "%" + strings.ToLower(*q.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (q.Page - 1) * q.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(q.Limit).Preload("Variants").Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// SaveProduct performs a full-document save: the version check guards against
// concurrent writers, the variants array is replaced wholesale, and the
// model's save lifecycle recomputes aggregate stock and backfills SKUs.
//
// The product must have been loaded with its variants (or carry the complete
// replacement set): whatever is in product.Variants becomes the product's
// entire variant list, so saving a product fetched with includeVariants=false
// would delete its variants.
func (r *ProductsRepository) SaveProduct(ctx context.Context, tenantID string, product *models.Product) error {
	expected := product.Version

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Product{}).
			Where("tenant_id = ? AND id = ? AND version = ?", tenantID, product.ID, expected).
			Update("version", expected+1)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Either the product is gone or someone saved in between.
			var count int64
			if err := tx.Model(&models.Product{}).
				Where("tenant_id = ? AND id = ?", tenantID, product.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrVersionConflict
		}

		product.TenantID = tenantID
		product.Version = expected + 1
		product.UpdatedAt = time.Now()

		// Replaced variants are removed outright so their SKUs stay reusable
		// under the unique index.
		if err := tx.Unscoped().Where("product_id = ?", product.ID).
			Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}

		if err := tx.Omit("Variants").Save(product).Error; err != nil {
			return err
		}

		if len(product.Variants) > 0 {
			for _, v := range product.Variants {
				v.ProductID = product.ID
			}
			if err := tx.Create(&product.Variants).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translateError(err)
	}

	r.InvalidateProductCaches(ctx, tenantID, product.ID)
	return nil
}

// ArchiveProduct soft deletes a product and marks it archived.
func (r *ProductsRepository) ArchiveProduct(ctx context.Context, tenantID string, productID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Product{}).
			Where("tenant_id = ? AND id = ?", tenantID, productID).
			Update("status", models.ProductStatusArchived)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("tenant_id = ? AND id = ?", tenantID, productID).
			Delete(&models.Product{}).Error
	})
	if err != nil {
		return err
	}

	r.InvalidateProductCaches(ctx, tenantID, productID)
	return nil
}

// GetVariantsByProductID lists the variants of a tenant's product.
func (r *ProductsRepository) GetVariantsByProductID(ctx context.Context, tenantID string, productID uuid.UUID) ([]*models.ProductVariant, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, productID).
		First(&product).Error; err != nil {
		return nil, translateError(err)
	}

	var variants []*models.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// AdjustVariantStock applies a delta to a single variant's stock with a
// narrow column update. This intentionally skips the full save lifecycle, so
// the product's aggregate stock is NOT recomputed here; the stock audit
// reconciles the drift. Used by order placement paths.
func (r *ProductsRepository) AdjustVariantStock(ctx context.Context, tenantID string, productID, variantID uuid.UUID, delta int) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("tenant_id = ? AND id = ?", tenantID, productID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}

	result := r.db.WithContext(ctx).Model(&models.ProductVariant{}).
		Where("id = ? AND product_id = ?", variantID, productID).
		UpdateColumns(map[string]interface{}{
			"stock":      gorm.Expr("GREATEST(stock + ?, 0)", delta),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	r.InvalidateProductCaches(ctx, tenantID, productID)
	return nil
}

// FindVariantProductsInBatches streams every variant-bearing product of the
// tenant to fn in fixed-size batches, variants preloaded.
func (r *ProductsRepository) FindVariantProductsInBatches(ctx context.Context, tenantID string, batchSize int, fn func(batch []*models.Product) error) error {
	var batch []*models.Product
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND has_variants = ?", tenantID, true).
		Preload("Variants").
		Order("created_at ASC").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		})
	return result.Error
}

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// generateSlug creates a URL-friendly slug from a product name
func generateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
