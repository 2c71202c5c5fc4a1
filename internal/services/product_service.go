package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/events"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/models"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/repository"
)

var (
	// ErrProductNotFound is returned when the product does not exist for
	// the tenant.
	ErrProductNotFound = errors.New("product not found")

	// ErrVersionConflict is returned when a save carried a stale version
	// token. The caller should re-read and retry.
	ErrVersionConflict = errors.New("product was modified concurrently, re-read and retry")

	// ErrDuplicateSKU is returned when a save collides with an existing SKU.
	ErrDuplicateSKU = errors.New("a product or variant with this SKU already exists")
)

// ProductService implements the admin catalog operations. Every write goes
// through the full save lifecycle so aggregate stock and SKUs stay
// consistent.
type ProductService struct {
	repo      repository.ProductsRepositoryInterface
	publisher *events.Publisher
	logger    *logrus.Entry
}

func NewProductService(repo repository.ProductsRepositoryInterface, publisher *events.Publisher, logger *logrus.Logger) *ProductService {
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithField("component", "product-service"),
	}
}

// CreateProduct creates a product, with variants when provided.
func (s *ProductService) CreateProduct(ctx context.Context, tenantID string, req *models.CreateProductRequest) (*models.Product, error) {
	product := &models.Product{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Status:      models.ProductStatusActive,
		MinOrderQty: req.MinOrderQty,
		Attributes:  req.Attributes,
	}
	if req.SKU != nil {
		product.SKU = *req.SKU
	}
	if req.Status != nil {
		product.Status = *req.Status
	}
	if req.Stock != nil && *req.Stock > 0 {
		product.Stock = *req.Stock
	}
	if len(req.Tags) > 0 {
		tags := make(models.JSONArray, 0, len(req.Tags))
		for _, t := range req.Tags {
			tags = append(tags, t)
		}
		product.Tags = &tags
	}
	product.Variants = buildVariants(req.Variants)
	product.HasVariants = len(product.Variants) > 0

	if err := s.repo.CreateProduct(ctx, tenantID, product); err != nil {
		return nil, translateRepoError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"tenantId":  tenantID,
		"productId": product.ID,
		"sku":       product.SKU,
		"variants":  len(product.Variants),
	}).Info("Product created")

	if s.publisher != nil {
		s.publisher.PublishProductCreated(ctx, tenantID, product)
	}
	return product, nil
}

// GetProduct returns a single product with its variants.
func (s *ProductService) GetProduct(ctx context.Context, tenantID string, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.GetProductByID(ctx, tenantID, productID, true)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return product, nil
}

// ListProducts returns a page of the tenant's products.
func (s *ProductService) ListProducts(ctx context.Context, tenantID string, query *repository.ListProductsQuery) ([]models.Product, int64, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 || query.Limit > 100 {
		query.Limit = 20
	}
	return s.repo.GetProducts(ctx, tenantID, query)
}

// UpdateProduct applies an admin edit as a full-document save. When the
// request carries variants they replace the existing set wholesale;
// otherwise the current variants are carried over unchanged.
func (s *ProductService) UpdateProduct(ctx context.Context, tenantID string, productID uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {
	product, err := s.repo.GetProductByID(ctx, tenantID, productID, true)
	if err != nil {
		return nil, translateRepoError(err)
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Slug != nil {
		product.Slug = req.Slug
	}
	if req.SKU != nil {
		product.SKU = *req.SKU
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Status != nil {
		product.Status = *req.Status
	}
	if req.MinOrderQty != nil {
		product.MinOrderQty = req.MinOrderQty
	}
	if req.Stock != nil && !product.HasVariants {
		product.Stock = *req.Stock
	}
	if req.Attributes != nil {
		product.Attributes = req.Attributes
	}
	if len(req.Tags) > 0 {
		tags := make(models.JSONArray, 0, len(req.Tags))
		for _, t := range req.Tags {
			tags = append(tags, t)
		}
		product.Tags = &tags
	}
	if req.Variants != nil {
		product.Variants = buildVariants(req.Variants)
		product.HasVariants = len(product.Variants) > 0
	}

	product.Version = req.Version

	if err := s.repo.SaveProduct(ctx, tenantID, product); err != nil {
		return nil, translateRepoError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"tenantId":  tenantID,
		"productId": product.ID,
		"version":   product.Version,
	}).Info("Product updated")
	return product, nil
}

// ArchiveProduct soft deletes a product.
func (s *ProductService) ArchiveProduct(ctx context.Context, tenantID string, productID uuid.UUID) error {
	product, err := s.repo.GetProductByID(ctx, tenantID, productID, false)
	if err != nil {
		return translateRepoError(err)
	}

	if err := s.repo.ArchiveProduct(ctx, tenantID, productID); err != nil {
		return translateRepoError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"tenantId":  tenantID,
		"productId": productID,
	}).Info("Product archived")

	if s.publisher != nil {
		s.publisher.PublishProductArchived(ctx, tenantID, product)
	}
	return nil
}

// ListVariants lists the variants of one product.
func (s *ProductService) ListVariants(ctx context.Context, tenantID string, productID uuid.UUID) ([]*models.ProductVariant, error) {
	variants, err := s.repo.GetVariantsByProductID(ctx, tenantID, productID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return variants, nil
}

// AdjustVariantStock applies a narrow stock delta to one variant, the order
// placement path. The aggregate is not recomputed here; the stock audit
// reconciles any resulting drift.
func (s *ProductService) AdjustVariantStock(ctx context.Context, tenantID string, productID, variantID uuid.UUID, delta int) error {
	if err := s.repo.AdjustVariantStock(ctx, tenantID, productID, variantID, delta); err != nil {
		return translateRepoError(err)
	}
	s.logger.WithFields(logrus.Fields{
		"tenantId":  tenantID,
		"productId": productID,
		"variantId": variantID,
		"delta":     delta,
	}).Info("Variant stock adjusted")
	return nil
}

func buildVariants(inputs []models.VariantInput) []*models.ProductVariant {
	if len(inputs) == 0 {
		return nil
	}
	variants := make([]*models.ProductVariant, 0, len(inputs))
	for _, in := range inputs {
		v := &models.ProductVariant{
			Name:        in.Name,
			Color:       in.Color,
			Size:        in.Size,
			Price:       in.Price,
			Stock:       in.Stock,
			MinOrderQty: in.MinOrderQty,
		}
		if in.SKU != nil {
			v.SKU = *in.SKU
		}
		variants = append(variants, v)
	}
	return variants
}

func translateRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrProductNotFound
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrVersionConflict
	case errors.Is(err, repository.ErrDuplicateSKU):
		return ErrDuplicateSKU
	}
	return fmt.Errorf("product persistence failed: %w", err)
}
