package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/models"
	"github.com/towhidul-islam-dev/charmandbead-sub001/internal/services"
)

type NotificationsHandler struct {
	notify *services.NotifyService
}

func NewNotificationsHandler(notify *services.NotifyService) *NotificationsHandler {
	return &NotificationsHandler{notify: notify}
}

// RegisterNotification records a "notify me when back in stock" request for
// a product+variant combination.
func (h *NotificationsHandler) RegisterNotification(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	var req models.RegisterNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	notification, err := h.notify.RegisterNotification(c.Request.Context(), tenantID, productID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	message := "You will be notified when this item is back in stock"
	c.JSON(http.StatusCreated, models.NotificationResponse{
		Success: true,
		Data:    notification,
		Message: &message,
	})
}

// ListNotifications lists the tenant's restock requests with an optional
// status filter.
func (h *NotificationsHandler) ListNotifications(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	var status *models.NotificationStatus
	if raw := c.Query("status"); raw != "" {
		s := models.NotificationStatus(raw)
		if s != models.NotificationStatusPending && s != models.NotificationStatusNotified {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "VALIDATION_ERROR",
					Message: "status must be PENDING or NOTIFIED",
					Field:   "status",
				},
			})
			return
		}
		status = &s
	}

	notifications, total, err := h.notify.ListNotifications(c.Request.Context(), tenantID, status, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	c.JSON(http.StatusOK, models.NotificationListResponse{
		Success:    true,
		Data:       notifications,
		Pagination: buildPagination(page, limit, total),
	})
}
