package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/events"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/mailer"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/models"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/repository"
)

// ErrDuplicateRequest is returned when a pending restock request already
// exists for the same email, product and variant key.
var ErrDuplicateRequest = errors.New("a pending notification request already exists for this variant")

// NotifyService applies stock updates and resolves outstanding "notify me
// when back in stock" registrations.
type NotifyService struct {
	products      repository.ProductsRepositoryInterface
	notifications repository.NotificationsRepositoryInterface
	mailer        mailer.Mailer
	publisher     *events.Publisher
	logger        *logrus.Entry
}

func NewNotifyService(
	products repository.ProductsRepositoryInterface,
	notifications repository.NotificationsRepositoryInterface,
	m mailer.Mailer,
	publisher *events.Publisher,
	logger *logrus.Logger,
) *NotifyService {
	return &NotifyService{
		products:      products,
		notifications: notifications,
		mailer:        m,
		publisher:     publisher,
		logger:        logger.WithField("component", "notify-service"),
	}
}

// ApplyStockUpdate replaces the product's variants wholesale with the given
// set and performs a full save, so aggregate stock is recomputed and missing
// SKUs are backfilled. Afterwards every variant whose stock reaches its
// effective MOQ resolves any pending restock requests for its variant key.
//
// Resolution is idempotent: a request transitions to NOTIFIED once, so
// applying the same stock levels twice sends no second email.
func (s *NotifyService) ApplyStockUpdate(ctx context.Context, tenantID string, productID uuid.UUID, req *models.StockUpdateRequest) (*models.Product, error) {
	product, err := s.products.GetProductByID(ctx, tenantID, productID, true)
	if err != nil {
		return nil, translateRepoError(err)
	}

	product.Variants = buildVariants(req.Variants)
	product.HasVariants = len(product.Variants) > 0
	if req.Version != nil {
		product.Version = *req.Version
	}

	if err := s.products.SaveProduct(ctx, tenantID, product); err != nil {
		return nil, translateRepoError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"tenantId":  tenantID,
		"productId": productID,
		"stock":     product.Stock,
		"variants":  len(product.Variants),
	}).Info("Stock update applied")

	s.resolveNotifications(ctx, tenantID, product)

	if s.publisher != nil {
		s.publisher.PublishStockUpdated(ctx, tenantID, product)
	}
	return product, nil
}

// resolveNotifications walks the saved variants and resolves pending
// requests for every variant that is available for purchase again.
func (s *NotifyService) resolveNotifications(ctx context.Context, tenantID string, product *models.Product) {
	for _, variant := range product.Variants {
		moq := variant.EffectiveMinOrderQty(product)
		if variant.Stock < moq {
			continue
		}

		key := variant.VariantKey()
		pending, err := s.notifications.FindPendingByVariant(ctx, tenantID, product.ID, key)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"tenantId":   tenantID,
				"productId":  product.ID,
				"variantKey": key,
			}).WithError(err).Error("Failed to look up pending restock requests")
			continue
		}

		for i := range pending {
			s.resolveOne(ctx, tenantID, product, &pending[i])
		}
	}
}

// resolveOne sends the restock email and transitions the request to
// NOTIFIED. A failed send does not block the transition; it is recorded on
// the row so delivery can be retried out of band.
func (s *NotifyService) resolveOne(ctx context.Context, tenantID string, product *models.Product, n *models.StockNotification) {
	var deliveryErr *string
	if err := s.mailer.SendRestockNotification(n.Email, product.Name, n.VariantKey); err != nil {
		msg := err.Error()
		deliveryErr = &msg
		s.logger.WithFields(logrus.Fields{
			"tenantId":       tenantID,
			"notificationId": n.ID,
			"email":          n.Email,
		}).WithError(err).Error("Restock email delivery failed")
	}

	if err := s.notifications.MarkNotified(ctx, tenantID, n.ID, deliveryErr); err != nil {
		// Another resolver already took it; nothing more to do.
		if errors.Is(err, repository.ErrNotFound) {
			return
		}
		s.logger.WithFields(logrus.Fields{
			"tenantId":       tenantID,
			"notificationId": n.ID,
		}).WithError(err).Error("Failed to mark restock request notified")
		return
	}

	n.Status = models.NotificationStatusNotified
	n.DeliveryFailed = deliveryErr != nil
	n.DeliveryError = deliveryErr

	s.logger.WithFields(logrus.Fields{
		"tenantId":       tenantID,
		"notificationId": n.ID,
		"productId":      product.ID,
		"variantKey":     n.VariantKey,
		"deliveryFailed": n.DeliveryFailed,
	}).Info("Restock request resolved")

	if s.publisher != nil {
		s.publisher.PublishNotificationResolved(ctx, tenantID, n)
	}
}

// RegisterNotification records a "notify me" request for a product+variant
// combination. At most one pending request may exist per email and variant.
func (s *NotifyService) RegisterNotification(ctx context.Context, tenantID string, productID uuid.UUID, req *models.RegisterNotificationRequest) (*models.StockNotification, error) {
	if _, err := s.products.GetProductByID(ctx, tenantID, productID, false); err != nil {
		return nil, translateRepoError(err)
	}

	notification := &models.StockNotification{
		TenantID:   tenantID,
		Email:      req.Email,
		ProductID:  productID,
		VariantKey: req.VariantKey,
		Status:     models.NotificationStatusPending,
	}

	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		if errors.Is(err, repository.ErrDuplicateRequest) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tenantId":   tenantID,
		"productId":  productID,
		"variantKey": req.VariantKey,
	}).Info("Restock notification registered")
	return notification, nil
}

// ListNotifications returns a page of the tenant's restock requests.
func (s *NotifyService) ListNotifications(ctx context.Context, tenantID string, status *models.NotificationStatus, page, limit int) ([]models.StockNotification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.notifications.ListNotifications(ctx, tenantID, status, page, limit)
}
