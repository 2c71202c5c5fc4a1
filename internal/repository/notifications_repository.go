package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/models"
)

// ErrDuplicateRequest is returned when a pending notification request
// already exists for the same (email, product, variant key) tuple.
var ErrDuplicateRequest = errors.New("a pending notification request already exists")

// NotificationsRepositoryInterface defines stock notification persistence.
type NotificationsRepositoryInterface interface {
	CreateNotification(ctx context.Context, notification *models.StockNotification) error
	FindPendingByVariant(ctx context.Context, tenantID string, productID uuid.UUID, variantKey string) ([]models.StockNotification, error)
	MarkNotified(ctx context.Context, tenantID string, id uuid.UUID, deliveryErr *string) error
	ListNotifications(ctx context.Context, tenantID string, status *models.NotificationStatus, page, limit int) ([]models.StockNotification, int64, error)
}

type NotificationsRepository struct {
	db *gorm.DB
}

var _ NotificationsRepositoryInterface = (*NotificationsRepository)(nil)

func NewNotificationsRepository(db *gorm.DB) *NotificationsRepository {
	return &NotificationsRepository{db: db}
}

// CreateNotification inserts a new pending request. The partial unique index
// on (tenant_id, email, product_id, variant_key) WHERE status = 'PENDING'
// closes the check-then-insert race: a concurrent duplicate comes back as a
// uniqueness violation, mapped to ErrDuplicateRequest.
func (r *NotificationsRepository) CreateNotification(ctx context.Context, notification *models.StockNotification) error {
	// Friendly pre-check so the common duplicate gets a clean error without
	// burning a failed insert.
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.StockNotification{}).
		Where("tenant_id = ? AND email = ? AND product_id = ? AND variant_key = ? AND status = ?",
			notification.TenantID, notification.Email, notification.ProductID,
			notification.VariantKey, models.NotificationStatusPending).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateRequest
	}

	notification.Status = models.NotificationStatusPending
	err := r.db.WithContext(ctx).Create(notification).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateRequest
	}
	return err
}

// FindPendingByVariant returns all pending requests for a product+variant key.
func (r *NotificationsRepository) FindPendingByVariant(ctx context.Context, tenantID string, productID uuid.UUID, variantKey string) ([]models.StockNotification, error) {
	var notifications []models.StockNotification
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND variant_key = ? AND status = ?",
			tenantID, productID, variantKey, models.NotificationStatusPending).
		Order("created_at ASC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotified transitions a request from PENDING to NOTIFIED exactly once.
// The status guard in the WHERE clause makes concurrent resolvers harmless:
// only one update lands. A delivery error is recorded on the row without
// blocking the transition.
func (r *NotificationsRepository) MarkNotified(ctx context.Context, tenantID string, id uuid.UUID, deliveryErr *string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":      models.NotificationStatusNotified,
		"notified_at": now,
		"updated_at":  now,
	}
	if deliveryErr != nil {
		updates["delivery_failed"] = true
		updates["delivery_error"] = *deliveryErr
	}

	result := r.db.WithContext(ctx).Model(&models.StockNotification{}).
		Where("tenant_id = ? AND id = ? AND status = ?", tenantID, id, models.NotificationStatusPending).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListNotifications returns a page of the tenant's requests, optionally
// filtered by status.
func (r *NotificationsRepository) ListNotifications(ctx context.Context, tenantID string, status *models.NotificationStatus, page, limit int) ([]models.StockNotification, int64, error) {
	var notifications []models.StockNotification
	var total int64

	query := r.db.WithContext(ctx).Model(&models.StockNotification{}).Where("tenant_id = ?", tenantID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}
