package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/models"
)

// Event subjects
const (
	SubjectProductCreated       = "product.created"
	SubjectProductArchived      = "product.archived"
	SubjectStockUpdated         = "stock.updated"
	SubjectStockDriftRepaired   = "stock.drift_repaired"
	SubjectNotificationResolved = "notification.resolved"
)

// StockEvent is the payload published for product and stock changes.
type StockEvent struct {
	EventID     string                 `json:"eventId"`
	EventType   string                 `json:"eventType"`
	TenantID    string                 `json:"tenantId"`
	ProductID   string                 `json:"productId,omitempty"`
	ProductName string                 `json:"productName,omitempty"`
	SKU         string                 `json:"sku,omitempty"`
	Stock       int                    `json:"stock,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// Publisher publishes stock events over NATS. All publishes are asynchronous
// and never fail the calling operation.
type Publisher struct {
	nc     *nats.Conn
	logger *logrus.Entry
}

// NewPublisher connects to NATS and returns a stock events publisher.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("inventory-consistency-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Publisher{
		nc:     nc,
		logger: logger.WithField("component", "stock-events"),
	}, nil
}

// Conn exposes the underlying NATS connection for subscribers.
func (p *Publisher) Conn() *nats.Conn {
	return p.nc
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}

// PublishProductCreated publishes a product.created event
func (p *Publisher) PublishProductCreated(ctx context.Context, tenantID string, product *models.Product) {
	event := p.buildEvent(SubjectProductCreated, tenantID, product)
	p.publish(event)
}

// PublishProductArchived publishes a product.archived event
func (p *Publisher) PublishProductArchived(ctx context.Context, tenantID string, product *models.Product) {
	event := p.buildEvent(SubjectProductArchived, tenantID, product)
	p.publish(event)
}

// PublishStockUpdated publishes a stock.updated event after a stock update
// has been applied and saved.
func (p *Publisher) PublishStockUpdated(ctx context.Context, tenantID string, product *models.Product) {
	event := p.buildEvent(SubjectStockUpdated, tenantID, product)
	event.Payload = map[string]interface{}{
		"variantCount": len(product.Variants),
	}
	p.publish(event)
}

// PublishDriftRepaired publishes a stock.drift_repaired event summarizing an
// audit run that fixed at least one product.
func (p *Publisher) PublishDriftRepaired(ctx context.Context, tenantID string, report *models.StockAuditReport) {
	event := p.buildEvent(SubjectStockDriftRepaired, tenantID, nil)
	event.Payload = map[string]interface{}{
		"scanned":     report.Scanned,
		"issuesFound": report.IssuesFound,
		"fixed":       report.Fixed,
	}
	p.publish(event)
}

// PublishNotificationResolved publishes a notification.resolved event for a
// restock request that transitioned to NOTIFIED.
func (p *Publisher) PublishNotificationResolved(ctx context.Context, tenantID string, notification *models.StockNotification) {
	event := p.buildEvent(SubjectNotificationResolved, tenantID, nil)
	event.ProductID = notification.ProductID.String()
	event.Payload = map[string]interface{}{
		"notificationId": notification.ID.String(),
		"variantKey":     notification.VariantKey,
		"deliveryFailed": notification.DeliveryFailed,
	}
	p.publish(event)
}

func (p *Publisher) buildEvent(eventType, tenantID string, product *models.Product) *StockEvent {
	event := &StockEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		TenantID:  tenantID,
		Timestamp: time.Now().UTC(),
	}
	if product != nil {
		event.ProductID = product.ID.String()
		event.ProductName = product.Name
		event.SKU = product.SKU
		event.Stock = product.Stock
	}
	return event
}

// publish marshals and publishes asynchronously to not block the main flow.
func (p *Publisher) publish(event *StockEvent) {
	go func() {
		data, err := json.Marshal(event)
		if err != nil {
			p.logger.WithError(err).Error("Failed to marshal stock event")
			return
		}

		if err := p.nc.Publish(event.EventType, data); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"productID": event.ProductID,
				"tenantID":  event.TenantID,
			}).WithError(err).Error("Failed to publish stock event")
			return
		}

		p.logger.WithFields(logrus.Fields{
			"eventType": event.EventType,
			"productID": event.ProductID,
			"tenantID":  event.TenantID,
		}).Info("Stock event published successfully")
	}()
}
