package controller

import (
	"net/http"

	service "github.com/Itish41/complytrack/service"

	"github.com/gin-gonic/gin"
)

// ReportController exposes the compliance aggregates.
type ReportController struct {
	service *service.ReportingService
}

func NewReportController(s *service.ReportingService) *ReportController {
	return &ReportController{service: s}
}

func (c *ReportController) SystemStatusCounts(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	counts, err := c.service.TaskStatusCounts(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "SystemStatusCounts", err)
		return
	}
	ctx.JSON(http.StatusOK, counts)
}

func (c *ReportController) SystemCompliance(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	sc, err := c.service.SystemCompliance(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "SystemCompliance", err)
		return
	}
	ctx.JSON(http.StatusOK, sc)
}

func (c *ReportController) CompanyCompliance(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	cc, err := c.service.CompanyCompliance(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "CompanyCompliance", err)
		return
	}
	ctx.JSON(http.StatusOK, cc)
}

func (c *ReportController) CompanySystemCompliance(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	rows, err := c.service.CompanySystemCompliance(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "CompanySystemCompliance", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"systems": rows})
}

func (c *ReportController) CompanyStatusCounts(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	rows, err := c.service.CompanyTaskStatusCounts(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "CompanyStatusCounts", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"systems": rows})
}

func (c *ReportController) ReferenceBreakdown(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	rows, err := c.service.ReferenceBreakdown(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "ReferenceBreakdown", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"references": rows})
}

func (c *ReportController) OverdueByOwner(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	limit, ok := intQuery(ctx, "limit", 0)
	if !ok {
		return
	}
	rows, err := c.service.OverdueByOwner(ctx.Request.Context(), id, limit)
	if err != nil {
		respondError(ctx, "OverdueByOwner", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"owners": rows})
}

func (c *ReportController) UpcomingDeadlines(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	days, ok := intQuery(ctx, "days", 0)
	if !ok {
		return
	}
	rows, err := c.service.UpcomingDeadlines(ctx.Request.Context(), id, days)
	if err != nil {
		respondError(ctx, "UpcomingDeadlines", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"tasks": rows})
}

func (c *ReportController) Dashboard(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	d, err := c.service.CompanyDashboard(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "Dashboard", err)
		return
	}
	ctx.JSON(http.StatusOK, d)
}
