package controller

import (
	"net/http"

	model "github.com/Itish41/complytrack/models"
	service "github.com/Itish41/complytrack/service"

	"github.com/gin-gonic/gin"
)

// TaskController serves compliance tasks and task search.
type TaskController struct {
	tasks  *service.TaskService
	search *service.SearchService
}

func NewTaskController(tasks *service.TaskService, search *service.SearchService) *TaskController {
	return &TaskController{tasks: tasks, search: search}
}

func (c *TaskController) CreateTask(ctx *gin.Context) {
	var in service.TaskCreate
	if err := ctx.ShouldBindJSON(&in); err != nil {
		badRequest(ctx, "Invalid task payload", err)
		return
	}
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	task, err := c.tasks.Create(ctx.Request.Context(), in, actor)
	if err != nil {
		respondError(ctx, "CreateTask", err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"task":    task,
	})
}

func (c *TaskController) GetTask(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	task, err := c.tasks.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "GetTask", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"task": task})
}

// ListSystemTasks lists a system's tasks. Supported query parameters:
// status, severity, owner_user_id, reference, skip, limit, sort_by, order.
func (c *TaskController) ListSystemTasks(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	owner, ok := optionalUintQuery(ctx, "owner_user_id")
	if !ok {
		return
	}
	skip, ok := intQuery(ctx, "skip", 0)
	if !ok {
		return
	}
	limit, ok := intQuery(ctx, "limit", 0)
	if !ok {
		return
	}

	q := service.TaskQuery{
		Status:      model.TaskStatus(ctx.Query("status")),
		Severity:    model.TaskSeverity(ctx.Query("severity")),
		OwnerUserID: owner,
		Reference:   ctx.Query("reference"),
		Skip:        skip,
		Limit:       limit,
		SortBy:      ctx.Query("sort_by"),
		Order:       ctx.Query("order"),
	}
	tasks, err := c.tasks.ListBySystem(ctx.Request.Context(), id, q)
	if err != nil {
		respondError(ctx, "ListSystemTasks", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": len(tasks)})
}

func (c *TaskController) UpdateTask(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var in service.TaskUpdate
	if err := ctx.ShouldBindJSON(&in); err != nil {
		badRequest(ctx, "Invalid task payload", err)
		return
	}
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	task, err := c.tasks.Update(ctx.Request.Context(), id, in, actor)
	if err != nil {
		respondError(ctx, "UpdateTask", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "Task updated successfully",
		"task":    task,
	})
}

func (c *TaskController) DeleteTask(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	if err := c.tasks.Delete(ctx.Request.Context(), id, actor); err != nil {
		respondError(ctx, "DeleteTask", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

func (c *TaskController) SearchTasks(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	query := ctx.Query("q")
	if query == "" {
		badRequest(ctx, "Query parameter 'q' is required", nil)
		return
	}
	results, err := c.search.SearchTasks(ctx.Request.Context(), id, query)
	if err != nil {
		respondError(ctx, "SearchTasks", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
}
