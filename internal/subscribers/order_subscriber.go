package subscribers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/repository"
)

// OrderLine is one purchased variant inside an order.placed event.
type OrderLine struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// OrderPlacedEvent is the payload published by the order service when a
// checkout completes.
type OrderPlacedEvent struct {
	OrderID  string      `json:"orderId"`
	TenantID string      `json:"tenantId"`
	Items    []OrderLine `json:"items"`
}

// OrderSubscriber decrements variant stock when orders are placed. The
// decrement is a narrow column update that does not recompute the product's
// aggregate stock; the stock audit reconciles the drift this introduces.
type OrderSubscriber struct {
	nc     *nats.Conn
	repo   repository.ProductsRepositoryInterface
	sub    *nats.Subscription
	logger *logrus.Entry
}

func NewOrderSubscriber(nc *nats.Conn, repo repository.ProductsRepositoryInterface, logger *logrus.Logger) *OrderSubscriber {
	return &OrderSubscriber{
		nc:     nc,
		repo:   repo,
		logger: logger.WithField("component", "order-subscriber"),
	}
}

// Start subscribes to order.placed events.
func (s *OrderSubscriber) Start() error {
	sub, err := s.nc.Subscribe("order.placed", s.handleOrderPlaced)
	if err != nil {
		return err
	}
	s.sub = sub
	s.logger.Info("Order subscriber started")
	return nil
}

func (s *OrderSubscriber) handleOrderPlaced(msg *nats.Msg) {
	var event OrderPlacedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.WithError(err).Error("Failed to decode order.placed event")
		return
	}
	if event.TenantID == "" {
		s.logger.WithField("orderId", event.OrderID).Warn("order.placed event without tenant, skipping")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, line := range event.Items {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			s.logger.WithField("productId", line.ProductID).Warn("Invalid product ID in order line")
			continue
		}
		variantID, err := uuid.Parse(line.VariantID)
		if err != nil {
			// Simple products carry no variant; nothing to decrement here.
			continue
		}
		if line.Quantity <= 0 {
			continue
		}

		if err := s.repo.AdjustVariantStock(ctx, event.TenantID, productID, variantID, -line.Quantity); err != nil {
			s.logger.WithFields(logrus.Fields{
				"orderId":   event.OrderID,
				"tenantId":  event.TenantID,
				"productId": line.ProductID,
				"variantId": line.VariantID,
			}).WithError(err).Error("Failed to decrement variant stock")
			continue
		}

		s.logger.WithFields(logrus.Fields{
			"orderId":   event.OrderID,
			"tenantId":  event.TenantID,
			"variantId": line.VariantID,
			"quantity":  line.Quantity,
		}).Info("Variant stock decremented for order")
	}
}

// Stop unsubscribes from order events.
func (s *OrderSubscriber) Stop() {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
	s.logger.Info("Order subscriber stopped")
}
