package controller

import "github.com/gin-gonic/gin"

// Controllers groups every handler set mounted by RegisterRoutes.
type Controllers struct {
	Registry      *RegistryController
	Tasks         *TaskController
	Reports       *ReportController
	Notifications *NotificationController
}

// RegisterRoutes mounts the API on r. writeLimit, when non-nil, runs in front
// of every mutating route.
func (h *Controllers) RegisterRoutes(r gin.IRouter, writeLimit gin.HandlerFunc) {
	write := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		if writeLimit == nil {
			return []gin.HandlerFunc{handler}
		}
		return []gin.HandlerFunc{writeLimit, handler}
	}

	r.POST("/companies", write(h.Registry.CreateCompany)...)
	r.GET("/companies", h.Registry.ListCompanies)
	r.GET("/companies/:id", h.Registry.GetCompany)
	r.DELETE("/companies/:id", write(h.Registry.DeleteCompany)...)
	r.GET("/companies/:id/users", h.Registry.ListUsers)
	r.GET("/companies/:id/systems", h.Registry.ListSystems)

	r.GET("/companies/:id/compliance", h.Reports.CompanyCompliance)
	r.GET("/companies/:id/dashboard", h.Reports.Dashboard)
	r.GET("/companies/:id/reports/systems", h.Reports.CompanySystemCompliance)
	r.GET("/companies/:id/reports/status-counts", h.Reports.CompanyStatusCounts)
	r.GET("/companies/:id/reports/references", h.Reports.ReferenceBreakdown)
	r.GET("/companies/:id/reports/overdue-by-owner", h.Reports.OverdueByOwner)
	r.GET("/companies/:id/reports/upcoming", h.Reports.UpcomingDeadlines)

	r.GET("/companies/:id/notifications", h.Notifications.ListNotifications)
	r.GET("/companies/:id/audit-logs", h.Notifications.ListAuditLogs)
	r.GET("/companies/:id/tasks/search", h.Tasks.SearchTasks)

	r.POST("/users", write(h.Registry.CreateUser)...)
	r.GET("/users/:id", h.Registry.GetUser)

	r.POST("/systems", write(h.Registry.CreateSystem)...)
	r.GET("/systems/:id", h.Registry.GetSystem)
	r.DELETE("/systems/:id", write(h.Registry.DeleteSystem)...)
	r.POST("/systems/:id/members", write(h.Registry.AddMember)...)
	r.GET("/systems/:id/members", h.Registry.ListMembers)
	r.GET("/systems/:id/tasks", h.Tasks.ListSystemTasks)
	r.GET("/systems/:id/compliance", h.Reports.SystemCompliance)
	r.GET("/systems/:id/status-counts", h.Reports.SystemStatusCounts)

	r.POST("/tasks", write(h.Tasks.CreateTask)...)
	r.GET("/tasks/:id", h.Tasks.GetTask)
	r.PATCH("/tasks/:id", write(h.Tasks.UpdateTask)...)
	r.DELETE("/tasks/:id", write(h.Tasks.DeleteTask)...)

	r.POST("/notifications/generate", write(h.Notifications.GenerateReminders)...)
	r.POST("/notifications/send", write(h.Notifications.SendPending)...)
}
