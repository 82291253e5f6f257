package controller

import (
	"net/http"

	model "github.com/Itish41/complytrack/models"
	service "github.com/Itish41/complytrack/service"

	"github.com/gin-gonic/gin"
)

// NotificationController triggers reminder generation and delivery, and
// lists notifications and audit entries.
type NotificationController struct {
	notifications *service.NotificationService
	audit         *service.AuditService
}

func NewNotificationController(n *service.NotificationService, a *service.AuditService) *NotificationController {
	return &NotificationController{notifications: n, audit: a}
}

// GenerateReminders queues due-soon reminders, for one company when
// company_id is given.
func (c *NotificationController) GenerateReminders(ctx *gin.Context) {
	companyID, ok := optionalUintQuery(ctx, "company_id")
	if !ok {
		return
	}
	n, err := c.notifications.GenerateDueTaskReminders(ctx.Request.Context(), companyID)
	if err != nil {
		respondError(ctx, "GenerateReminders", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"queued": n})
}

func (c *NotificationController) SendPending(ctx *gin.Context) {
	companyID, ok := optionalUintQuery(ctx, "company_id")
	if !ok {
		return
	}
	res, err := c.notifications.SendPending(ctx.Request.Context(), companyID)
	if err != nil {
		respondError(ctx, "SendPending", err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

func (c *NotificationController) ListNotifications(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	status := model.NotificationStatus(ctx.Query("status"))
	switch status {
	case "", model.NotificationQueued, model.NotificationSent, model.NotificationFailed:
	default:
		badRequest(ctx, "invalid notification status", nil)
		return
	}
	items, err := c.notifications.List(ctx.Request.Context(), id, status)
	if err != nil {
		respondError(ctx, "ListNotifications", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"notifications": items, "total": len(items)})
}

func (c *NotificationController) ListAuditLogs(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	limit, ok := intQuery(ctx, "limit", 0)
	if !ok {
		return
	}
	logs, err := c.audit.List(ctx.Request.Context(), id, limit)
	if err != nil {
		respondError(ctx, "ListAuditLogs", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"audit_logs": logs, "total": len(logs)})
}
