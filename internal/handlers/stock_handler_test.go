package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/mailer"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/models"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/repository"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/services"
)

type mockProductsRepo struct {
	mock.Mock
}

var _ repository.ProductsRepositoryInterface = (*mockProductsRepo)(nil)

func (m *mockProductsRepo) CreateProduct(ctx context.Context, tenantID string, product *models.Product) error {
	return m.Called(ctx, tenantID, product).Error(0)
}

func (m *mockProductsRepo) GetProductByID(ctx context.Context, tenantID string, productID uuid.UUID, includeVariants bool) (*models.Product, error) {
	args := m.Called(ctx, tenantID, productID, includeVariants)
	if p := args.Get(0); p != nil {
		return p.(*models.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProductsRepo) GetProducts(ctx context.Context, tenantID string, query *repository.ListProductsQuery) ([]models.Product, int64, error) {
	args := m.Called(ctx, tenantID, query)
	var products []models.Product
	if p := args.Get(0); p != nil {
		products = p.([]models.Product)
	}
	return products, args.Get(1).(int64), args.Error(2)
}

func (m *mockProductsRepo) SaveProduct(ctx context.Context, tenantID string, product *models.Product) error {
	return m.Called(ctx, tenantID, product).Error(0)
}

func (m *mockProductsRepo) ArchiveProduct(ctx context.Context, tenantID string, productID uuid.UUID) error {
	return m.Called(ctx, tenantID, productID).Error(0)
}

func (m *mockProductsRepo) GetVariantsByProductID(ctx context.Context, tenantID string, productID uuid.UUID) ([]*models.ProductVariant, error) {
	args := m.Called(ctx, tenantID, productID)
	if v := args.Get(0); v != nil {
		return v.([]*models.ProductVariant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProductsRepo) AdjustVariantStock(ctx context.Context, tenantID string, productID, variantID uuid.UUID, delta int) error {
	return m.Called(ctx, tenantID, productID, variantID, delta).Error(0)
}

func (m *mockProductsRepo) FindVariantProductsInBatches(ctx context.Context, tenantID string, batchSize int, fn func(batch []*models.Product) error) error {
	args := m.Called(ctx, tenantID, batchSize, fn)
	return args.Error(0)
}

func (m *mockProductsRepo) InvalidateProductCaches(ctx context.Context, tenantID string, productID uuid.UUID) {
	m.Called(ctx, tenantID, productID)
}

type mockNotificationsRepo struct {
	mock.Mock
}

var _ repository.NotificationsRepositoryInterface = (*mockNotificationsRepo)(nil)

func (m *mockNotificationsRepo) CreateNotification(ctx context.Context, notification *models.StockNotification) error {
	return m.Called(ctx, notification).Error(0)
}

func (m *mockNotificationsRepo) FindPendingByVariant(ctx context.Context, tenantID string, productID uuid.UUID, variantKey string) ([]models.StockNotification, error) {
	args := m.Called(ctx, tenantID, productID, variantKey)
	if n := args.Get(0); n != nil {
		return n.([]models.StockNotification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationsRepo) MarkNotified(ctx context.Context, tenantID string, id uuid.UUID, deliveryErr *string) error {
	return m.Called(ctx, tenantID, id, deliveryErr).Error(0)
}

func (m *mockNotificationsRepo) ListNotifications(ctx context.Context, tenantID string, status *models.NotificationStatus, page, limit int) ([]models.StockNotification, int64, error) {
	args := m.Called(ctx, tenantID, status, page, limit)
	var notifications []models.StockNotification
	if n := args.Get(0); n != nil {
		notifications = n.([]models.StockNotification)
	}
	return notifications, args.Get(1).(int64), args.Error(2)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupStockRouter(products *mockProductsRepo, notifications *mockNotificationsRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)

	audit := services.NewAuditService(products, nil, 0, testLogger())
	notify := services.NewNotifyService(products, notifications, mailer.NoopMailer{}, nil, testLogger())
	handler := NewStockHandler(audit, notify)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("tenant_id", "tenant-1")
		c.Next()
	})
	router.POST("/api/v1/inventory/audit", handler.AuditStock)
	router.PUT("/api/v1/products/:id/stock", handler.UpdateStock)
	return router
}

func TestAuditStockEndpoint_ReportsDrift(t *testing.T) {
	products := new(mockProductsRepo)
	notifications := new(mockNotificationsRepo)
	router := setupStockRouter(products, notifications)

	drifted := &models.Product{
		ID:          uuid.New(),
		TenantID:    "tenant-1",
		Name:        "Bracelet",
		SKU:         "BRA-XX-NA-101",
		Price:       "10.00",
		HasVariants: true,
		Stock:       50,
		Version:     1,
		Variants: []*models.ProductVariant{
			{ID: uuid.New(), SKU: "BRA-RE-M-101", Color: "Red", Size: "M", Price: "10.00", Stock: 42},
		},
	}
	products.On("FindVariantProductsInBatches", mock.Anything, "tenant-1", 200, mock.Anything).
		Run(func(args mock.Arguments) {
			fn := args.Get(3).(func(batch []*models.Product) error)
			_ = fn([]*models.Product{drifted})
		}).
		Return(nil)

	body := bytes.NewBufferString(`{"fixIssues": false}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/audit", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.AuditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Data.Scanned)
	assert.Equal(t, 1, resp.Data.IssuesFound)
	assert.Equal(t, -8, resp.Data.Details[0].Diff)
	products.AssertExpectations(t)
}

func TestAuditStockEndpoint_EmptyBodyDefaultsToReadOnly(t *testing.T) {
	products := new(mockProductsRepo)
	notifications := new(mockNotificationsRepo)
	router := setupStockRouter(products, notifications)

	products.On("FindVariantProductsInBatches", mock.Anything, "tenant-1", 200, mock.Anything).
		Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/audit", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	products.AssertNotCalled(t, "SaveProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStockEndpoint_AppliesUpdate(t *testing.T) {
	products := new(mockProductsRepo)
	notifications := new(mockNotificationsRepo)
	router := setupStockRouter(products, notifications)

	productID := uuid.New()
	product := &models.Product{
		ID:          productID,
		TenantID:    "tenant-1",
		Name:        "Bracelet",
		SKU:         "BRA-XX-NA-101",
		Price:       "10.00",
		HasVariants: true,
		Version:     1,
	}

	products.On("GetProductByID", mock.Anything, "tenant-1", productID, true).
		Return(product, nil)
	products.On("SaveProduct", mock.Anything, "tenant-1", mock.Anything).
		Run(func(args mock.Arguments) {
			models.NormalizeStock(args.Get(2).(*models.Product))
		}).
		Return(nil)
	notifications.On("FindPendingByVariant", mock.Anything, "tenant-1", productID, "Red-M").
		Return([]models.StockNotification{}, nil)

	body := bytes.NewBufferString(`{"variants":[{"color":"Red","size":"M","price":"10.00","stock":12}]}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/"+productID.String()+"/stock", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ProductResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 12, resp.Data.Stock)
	products.AssertExpectations(t)
	notifications.AssertExpectations(t)
}

func TestUpdateStockEndpoint_VersionConflictMapsTo409(t *testing.T) {
	products := new(mockProductsRepo)
	notifications := new(mockNotificationsRepo)
	router := setupStockRouter(products, notifications)

	productID := uuid.New()
	product := &models.Product{
		ID:          productID,
		TenantID:    "tenant-1",
		Name:        "Bracelet",
		SKU:         "BRA-XX-NA-101",
		Price:       "10.00",
		HasVariants: true,
		Version:     2,
	}

	products.On("GetProductByID", mock.Anything, "tenant-1", productID, true).
		Return(product, nil)
	products.On("SaveProduct", mock.Anything, "tenant-1", mock.Anything).
		Return(repository.ErrVersionConflict)

	body := bytes.NewBufferString(`{"variants":[{"color":"Red","size":"M","price":"10.00","stock":12}],"version":1}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/"+productID.String()+"/stock", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "VERSION_CONFLICT", resp.Error.Code)
}

func TestUpdateStockEndpoint_InvalidProductID(t *testing.T) {
	products := new(mockProductsRepo)
	notifications := new(mockNotificationsRepo)
	router := setupStockRouter(products, notifications)

	body := bytes.NewBufferString(`{"variants":[{"color":"Red","size":"M","price":"10.00","stock":12}]}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/not-a-uuid/stock", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
