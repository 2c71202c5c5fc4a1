package services

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/models"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newVariantProduct(name string, stated int, variantStocks ...int) *models.Product {
	product := &models.Product{
		ID:          uuid.New(),
		TenantID:    "tenant-1",
		Name:        name,
		SKU:         "SKU-" + name,
		Price:       "10.00",
		HasVariants: true,
		Stock:       stated,
		Version:     1,
	}
	for i, stock := range variantStocks {
		product.Variants = append(product.Variants, &models.ProductVariant{
			ID:        uuid.New(),
			ProductID: product.ID,
			SKU:       product.SKU + "-V" + string(rune('A'+i)),
			Color:     "Red",
			Size:      "M",
			Price:     "10.00",
			Stock:     stock,
		})
	}
	return product
}

func expectBatch(repo *MockProductsRepository, batchSize int, products ...*models.Product) *mock.Call {
	return repo.On("FindVariantProductsInBatches", mock.Anything, "tenant-1", batchSize, mock.Anything).
		Run(func(args mock.Arguments) {
			fn := args.Get(3).(func(batch []*models.Product) error)
			_ = fn(products)
		}).
		Return(nil)
}

func TestAuditStock_DetectsDriftWithoutMutation(t *testing.T) {
	mockRepo := new(MockProductsRepository)
	service := NewAuditService(mockRepo, nil, 0, newTestLogger())

	// Stated 50, variants sum to 42
	product := newVariantProduct("Bracelet", 50, 30, 12)
	expectBatch(mockRepo, defaultAuditBatchSize, product)

	report, err := service.AuditStock(context.Background(), "tenant-1", false)

	assert.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.IssuesFound)
	assert.Equal(t, 0, report.Fixed)
	assert.Len(t, report.Details, 1)

	detail := report.Details[0]
	assert.Equal(t, 50, detail.Stated)
	assert.Equal(t, 42, detail.Actual)
	assert.Equal(t, -8, detail.Diff)
	assert.Equal(t, 2, detail.VariantCount)
	assert.False(t, detail.Repaired)

	// Audit without repair never writes
	mockRepo.AssertNotCalled(t, "SaveProduct", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestAuditStock_RepairRewritesAggregate(t *testing.T) {
	mockRepo := new(MockProductsRepository)
	service := NewAuditService(mockRepo, nil, 0, newTestLogger())

	product := newVariantProduct("Bracelet", 50, 30, 12)
	expectBatch(mockRepo, defaultAuditBatchSize, product)

	mockRepo.On("SaveProduct", mock.Anything, "tenant-1", mock.Anything).
		Run(func(args mock.Arguments) {
			saved := args.Get(2).(*models.Product)
			assert.Equal(t, 42, saved.Stock)
			models.NormalizeStock(saved)
		}).
		Return(nil)

	report, err := service.AuditStock(context.Background(), "tenant-1", true)

	assert.NoError(t, err)
	assert.Equal(t, 1, report.IssuesFound)
	assert.Equal(t, 1, report.Fixed)
	assert.True(t, report.Details[0].Repaired)
	mockRepo.AssertExpectations(t)
}

func TestAuditStock_IdempotentAfterRepair(t *testing.T) {
	mockRepo := new(MockProductsRepository)
	service := NewAuditService(mockRepo, nil, 0, newTestLogger())

	// The product was repaired: stated now equals the variant sum
	product := newVariantProduct("Bracelet", 42, 30, 12)
	expectBatch(mockRepo, defaultAuditBatchSize, product)

	report, err := service.AuditStock(context.Background(), "tenant-1", true)

	assert.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 0, report.IssuesFound)
	assert.Equal(t, 0, report.Fixed)
	assert.Empty(t, report.Details)
	mockRepo.AssertNotCalled(t, "SaveProduct", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestAuditStock_NegativeVariantStockCountsAsZero(t *testing.T) {
	mockRepo := new(MockProductsRepository)
	service := NewAuditService(mockRepo, nil, 0, newTestLogger())

	product := newVariantProduct("Bracelet", 10, 10, -5)
	expectBatch(mockRepo, defaultAuditBatchSize, product)

	report, err := service.AuditStock(context.Background(), "tenant-1", false)

	assert.NoError(t, err)
	assert.Equal(t, 0, report.IssuesFound)
	mockRepo.AssertExpectations(t)
}

func TestAuditStock_IsolatesPerProductFailures(t *testing.T) {
	mockRepo := new(MockProductsRepository)
	service := NewAuditService(mockRepo, nil, 0, newTestLogger())

	broken := newVariantProduct("Broken", 50, 42)
	healthyDrift := newVariantProduct("Charm", 20, 7, 6)
	expectBatch(mockRepo, defaultAuditBatchSize, broken, healthyDrift)

	mockRepo.On("SaveProduct", mock.Anything, "tenant-1", broken).
		Return(errors.New("connection reset")).Once()
	mockRepo.On("SaveProduct", mock.Anything, "tenant-1", healthyDrift).
		Return(nil).Once()

	report, err := service.AuditStock(context.Background(), "tenant-1", true)

	assert.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 2, report.IssuesFound)
	assert.Equal(t, 1, report.Fixed)
	assert.Len(t, report.Failures, 1)
	assert.Equal(t, broken.ID.String(), report.Failures[0].ProductID)
	assert.Contains(t, report.Failures[0].Error, "connection reset")
	mockRepo.AssertExpectations(t)
}

func TestAuditStock_UsesConfiguredBatchSize(t *testing.T) {
	mockRepo := new(MockProductsRepository)
	service := NewAuditService(mockRepo, nil, 50, newTestLogger())

	expectBatch(mockRepo, 50)

	report, err := service.AuditStock(context.Background(), "tenant-1", false)

	assert.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)
	mockRepo.AssertExpectations(t)
}
