package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationStatus represents the lifecycle state of a restock request.
type NotificationStatus string

const (
	NotificationStatusPending  NotificationStatus = "PENDING"
	NotificationStatusNotified NotificationStatus = "NOTIFIED"
)

// StockNotification is a "notify me when back in stock" registration for a
// specific product+variant combination. At most one PENDING row may exist per
// (tenant, email, product, variant key); a partial unique index enforces this
// at the database so the application-level duplicate check cannot race.
type StockNotification struct {
	ID             uuid.UUID          `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID       string             `json:"tenantId" gorm:"not null;index:idx_stock_notifications_tenant"`
	Email          string             `json:"email" gorm:"not null;index"`
	ProductID      uuid.UUID          `json:"productId" gorm:"type:uuid;not null;index:idx_stock_notifications_product"`
	VariantKey     string             `json:"variantKey" gorm:"not null;index:idx_stock_notifications_product"`
	Status         NotificationStatus `json:"status" gorm:"not null;default:'PENDING';index"`
	NotifiedAt     *time.Time         `json:"notifiedAt,omitempty"`
	DeliveryFailed bool               `json:"deliveryFailed" gorm:"not null;default:false"`
	DeliveryError  *string            `json:"deliveryError,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
	DeletedAt      *gorm.DeletedAt    `json:"deletedAt,omitempty" gorm:"index"`
}

// RegisterNotificationRequest represents a storefront "notify me" submission.
type RegisterNotificationRequest struct {
	Email      string `json:"email" binding:"required,email"`
	VariantKey string `json:"variantKey" binding:"required"`
}

type NotificationResponse struct {
	Success bool               `json:"success"`
	Data    *StockNotification `json:"data"`
	Message *string            `json:"message,omitempty"`
}

type NotificationListResponse struct {
	Success    bool                `json:"success"`
	Data       []StockNotification `json:"data"`
	Pagination *PaginationInfo     `json:"pagination"`
}

// TableName returns the table name for the StockNotification model
func (StockNotification) TableName() string {
	return "stock_notifications"
}
