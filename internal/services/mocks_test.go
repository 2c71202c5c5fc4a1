package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/mailer"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/models"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/repository"
)

// MockProductsRepository is a mock implementation of ProductsRepositoryInterface
type MockProductsRepository struct {
	mock.Mock
}

var _ repository.ProductsRepositoryInterface = (*MockProductsRepository)(nil)

func (m *MockProductsRepository) CreateProduct(ctx context.Context, tenantID string, product *models.Product) error {
	args := m.Called(ctx, tenantID, product)
	return args.Error(0)
}

func (m *MockProductsRepository) GetProductByID(ctx context.Context, tenantID string, productID uuid.UUID, includeVariants bool) (*models.Product, error) {
	args := m.Called(ctx, tenantID, productID, includeVariants)
	if p := args.Get(0); p != nil {
		return p.(*models.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductsRepository) GetProducts(ctx context.Context, tenantID string, query *repository.ListProductsQuery) ([]models.Product, int64, error) {
	args := m.Called(ctx, tenantID, query)
	var products []models.Product
	if p := args.Get(0); p != nil {
		products = p.([]models.Product)
	}
	return products, args.Get(1).(int64), args.Error(2)
}

func (m *MockProductsRepository) SaveProduct(ctx context.Context, tenantID string, product *models.Product) error {
	args := m.Called(ctx, tenantID, product)
	return args.Error(0)
}

func (m *MockProductsRepository) ArchiveProduct(ctx context.Context, tenantID string, productID uuid.UUID) error {
	args := m.Called(ctx, tenantID, productID)
	return args.Error(0)
}

func (m *MockProductsRepository) GetVariantsByProductID(ctx context.Context, tenantID string, productID uuid.UUID) ([]*models.ProductVariant, error) {
	args := m.Called(ctx, tenantID, productID)
	if v := args.Get(0); v != nil {
		return v.([]*models.ProductVariant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductsRepository) AdjustVariantStock(ctx context.Context, tenantID string, productID, variantID uuid.UUID, delta int) error {
	args := m.Called(ctx, tenantID, productID, variantID, delta)
	return args.Error(0)
}

func (m *MockProductsRepository) FindVariantProductsInBatches(ctx context.Context, tenantID string, batchSize int, fn func(batch []*models.Product) error) error {
	args := m.Called(ctx, tenantID, batchSize, fn)
	return args.Error(0)
}

func (m *MockProductsRepository) InvalidateProductCaches(ctx context.Context, tenantID string, productID uuid.UUID) {
	m.Called(ctx, tenantID, productID)
}

// MockNotificationsRepository is a mock implementation of NotificationsRepositoryInterface
type MockNotificationsRepository struct {
	mock.Mock
}

var _ repository.NotificationsRepositoryInterface = (*MockNotificationsRepository)(nil)

func (m *MockNotificationsRepository) CreateNotification(ctx context.Context, notification *models.StockNotification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationsRepository) FindPendingByVariant(ctx context.Context, tenantID string, productID uuid.UUID, variantKey string) ([]models.StockNotification, error) {
	args := m.Called(ctx, tenantID, productID, variantKey)
	if n := args.Get(0); n != nil {
		return n.([]models.StockNotification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockNotificationsRepository) MarkNotified(ctx context.Context, tenantID string, id uuid.UUID, deliveryErr *string) error {
	args := m.Called(ctx, tenantID, id, deliveryErr)
	return args.Error(0)
}

func (m *MockNotificationsRepository) ListNotifications(ctx context.Context, tenantID string, status *models.NotificationStatus, page, limit int) ([]models.StockNotification, int64, error) {
	args := m.Called(ctx, tenantID, status, page, limit)
	var notifications []models.StockNotification
	if n := args.Get(0); n != nil {
		notifications = n.([]models.StockNotification)
	}
	return notifications, args.Get(1).(int64), args.Error(2)
}

// MockMailer is a mock implementation of mailer.Mailer
type MockMailer struct {
	mock.Mock
}

var _ mailer.Mailer = (*MockMailer)(nil)

func (m *MockMailer) SendRestockNotification(to, productName, variantKey string) error {
	args := m.Called(to, productName, variantKey)
	return args.Error(0)
}
