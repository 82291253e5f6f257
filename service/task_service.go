package services

import (
	"context"
	"log"
	"strings"
	"time"

	model "github.com/Itish41/complytrack/models"
	"github.com/go-playground/validator/v10"
	"github.com/sergi/go-diff/diffmatchpatch"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultTaskLimit = 50
	maxTaskLimit     = 200
)

// taskSortColumns maps accepted sort_by values to columns.
var taskSortColumns = map[string]string{
	"id":                   "id",
	"title":                "title",
	"status":               "status",
	"severity":             "severity",
	"mandatory":            "mandatory",
	"owner_user_id":        "owner_user_id",
	"due_date":             "due_date",
	"completed_at":         "completed_at",
	"created_at":           "created_at",
	"updated_at":           "updated_at",
	"reference":            "reference",
	"reminder_days_before": "reminder_days_before",
}

type TaskService struct {
	db       *gorm.DB
	validate *validator.Validate
	indexer  TaskIndexer
	now      func() time.Time
}

// NewTaskService builds a TaskService. indexer may be nil; now defaults to time.Now.
func NewTaskService(db *gorm.DB, validate *validator.Validate, indexer TaskIndexer, now func() time.Time) *TaskService {
	if validate == nil {
		validate = NewValidator()
	}
	if now == nil {
		now = time.Now
	}
	return &TaskService{db: db, validate: validate, indexer: indexer, now: now}
}

type TaskCreate struct {
	AISystemID         uint               `json:"ai_system_id" validate:"required"`
	Title              string             `json:"title" validate:"required,max=255"`
	Description        *string            `json:"description"`
	Status             model.TaskStatus   `json:"status" validate:"omitempty,taskstatus"`
	Severity           model.TaskSeverity `json:"severity" validate:"omitempty,taskseverity"`
	Mandatory          *bool              `json:"mandatory"`
	OwnerUserID        *uint              `json:"owner_user_id"`
	DueDate            *time.Time         `json:"due_date"`
	CompletedAt        *time.Time         `json:"completed_at"`
	EvidenceURL        *string            `json:"evidence_url" validate:"omitempty,url"`
	Notes              *string            `json:"notes"`
	Reference          *string            `json:"reference" validate:"omitempty,max=255"`
	ReminderDaysBefore *int               `json:"reminder_days_before" validate:"omitempty,min=0,max=365"`
}

// TaskUpdate is a partial update. Plain pointers are left alone when nil;
// Nullable fields can also be cleared with an explicit null.
type TaskUpdate struct {
	Title              *string             `json:"title" validate:"omitempty,min=1,max=255"`
	Status             *model.TaskStatus   `json:"status" validate:"omitempty,taskstatus"`
	Severity           *model.TaskSeverity `json:"severity" validate:"omitempty,taskseverity"`
	Mandatory          *bool               `json:"mandatory"`
	ReminderDaysBefore *int                `json:"reminder_days_before" validate:"omitempty,min=0,max=365"`
	Description        Nullable[string]    `json:"description"`
	OwnerUserID        Nullable[uint]      `json:"owner_user_id"`
	DueDate            Nullable[time.Time] `json:"due_date"`
	CompletedAt        Nullable[time.Time] `json:"completed_at"`
	EvidenceURL        Nullable[string]    `json:"evidence_url" validate:"omitempty,url"`
	Notes              Nullable[string]    `json:"notes"`
	Reference          Nullable[string]    `json:"reference" validate:"omitempty,max=255"`
}

type TaskQuery struct {
	Status      model.TaskStatus
	Severity    model.TaskSeverity
	OwnerUserID *uint
	Reference   string
	Skip        int
	Limit       int
	SortBy      string
	Order       string
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Create stores a task under the AI system's company. A task created as
// done gets completed_at stamped unless the caller supplied one.
func (s *TaskService) Create(ctx context.Context, in TaskCreate, actor Actor) (*model.ComplianceTask, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := checkStruct(s.validate, in); err != nil {
		return nil, err
	}

	task := &model.ComplianceTask{
		AISystemID:         in.AISystemID,
		Title:              in.Title,
		Description:        in.Description,
		Status:             in.Status,
		Severity:           in.Severity,
		Mandatory:          true,
		OwnerUserID:        in.OwnerUserID,
		DueDate:            utcPtr(in.DueDate),
		CompletedAt:        utcPtr(in.CompletedAt),
		EvidenceURL:        in.EvidenceURL,
		Notes:              in.Notes,
		Reference:          in.Reference,
		ReminderDaysBefore: in.ReminderDaysBefore,
		CreatedBy:          actor.UserID,
		UpdatedBy:          actor.UserID,
	}
	if task.Status == "" {
		task.Status = model.TaskOpen
	}
	if task.Severity == "" {
		task.Severity = model.SeverityMandatory
	}
	if in.Mandatory != nil {
		task.Mandatory = *in.Mandatory
	}
	if task.ReminderDaysBefore == nil {
		d := model.DefaultReminderDaysBefore
		task.ReminderDaysBefore = &d
	}
	if task.Status == model.TaskDone && task.CompletedAt == nil {
		now := s.now().UTC()
		task.CompletedAt = &now
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sys model.AISystem
		if err := tx.First(&sys, in.AISystemID).Error; err != nil {
			return translateError("create task", err)
		}
		task.CompanyID = sys.CompanyID

		if err := tx.Create(task).Error; err != nil {
			return translateError("create task", err)
		}
		_, err := writeAudit(tx, AuditEntry{
			CompanyID:  task.CompanyID,
			UserID:     actor.UserID,
			IPAddress:  actor.IP,
			Action:     ActionTaskCreated,
			EntityType: "compliance_task",
			EntityID:   &task.ID,
			Meta: map[string]interface{}{
				"title":        task.Title,
				"status":       task.Status,
				"ai_system_id": task.AISystemID,
			},
		})
		return err
	})
	if err != nil {
		log.Printf("[CreateTask] Error: %v", err)
		return nil, err
	}

	log.Printf("[CreateTask] Task %d created for system %d", task.ID, task.AISystemID)
	s.index(ctx, task)
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, id uint) (*model.ComplianceTask, error) {
	var task model.ComplianceTask
	if err := s.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, translateError("get task", err)
	}
	return &task, nil
}

// ListBySystem filters and pages the tasks of one AI system. Sorting falls
// back to due_date for unknown columns and always breaks ties by id.
func (s *TaskService) ListBySystem(ctx context.Context, systemID uint, q TaskQuery) ([]model.ComplianceTask, error) {
	if q.Limit == 0 {
		q.Limit = defaultTaskLimit
	}
	if q.Limit < 1 || q.Limit > maxTaskLimit {
		return nil, invalid("limit must be between 1 and %d", maxTaskLimit)
	}
	if q.Skip < 0 {
		return nil, invalid("skip must not be negative")
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, invalid("unknown status %q", q.Status)
	}

	var sys model.AISystem
	if err := s.db.WithContext(ctx).Select("id").First(&sys, systemID).Error; err != nil {
		return nil, translateError("list tasks", err)
	}

	tx := s.db.WithContext(ctx).Where("ai_system_id = ?", systemID)
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Severity != "" {
		tx = tx.Where("severity = ?", q.Severity)
	}
	if q.OwnerUserID != nil {
		tx = tx.Where("owner_user_id = ?", *q.OwnerUserID)
	}
	if ref := strings.TrimSpace(q.Reference); ref != "" {
		tx = tx.Where("LOWER(reference) LIKE ?", "%"+strings.ToLower(ref)+"%")
	}

	col, ok := taskSortColumns[q.SortBy]
	if !ok {
		col = "due_date"
	}
	desc := strings.EqualFold(q.Order, "desc")

	var tasks []model.ComplianceTask
	err := tx.
		Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Offset(q.Skip).
		Limit(q.Limit).
		Find(&tasks).Error
	if err != nil {
		return nil, translateError("list tasks", err)
	}
	return tasks, nil
}

// Update applies a partial update. Unless completed_at is part of the
// update, entering done stamps it and leaving done clears it.
func (s *TaskService) Update(ctx context.Context, id uint, in TaskUpdate, actor Actor) (*model.ComplianceTask, error) {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		in.Title = &t
	}
	if err := checkStruct(s.validate, in); err != nil {
		return nil, err
	}

	var task model.ComplianceTask
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, id).Error; err != nil {
			return translateError("update task", err)
		}
		old := task
		changed := applyTaskUpdate(&task, in)

		if !in.CompletedAt.Set {
			switch {
			case old.Status != model.TaskDone && task.Status == model.TaskDone:
				if task.CompletedAt == nil {
					now := s.now().UTC()
					task.CompletedAt = &now
				}
			case old.Status == model.TaskDone && task.Status != model.TaskDone:
				task.CompletedAt = nil
			}
		}
		task.UpdatedBy = actor.UserID

		if err := tx.Save(&task).Error; err != nil {
			return translateError("update task", err)
		}

		meta := map[string]interface{}{"changed": changed}
		if p := textPatch(old.Description, task.Description); p != "" {
			meta["description_patch"] = p
		}
		if p := textPatch(old.Notes, task.Notes); p != "" {
			meta["notes_patch"] = p
		}
		if old.Status != task.Status {
			meta["status_from"] = old.Status
			meta["status_to"] = task.Status
		}
		_, err := writeAudit(tx, AuditEntry{
			CompanyID:  task.CompanyID,
			UserID:     actor.UserID,
			IPAddress:  actor.IP,
			Action:     ActionTaskUpdated,
			EntityType: "compliance_task",
			EntityID:   &task.ID,
			Meta:       meta,
		})
		return err
	})
	if err != nil {
		log.Printf("[UpdateTask] Error updating task %d: %v", id, err)
		return nil, err
	}

	s.index(ctx, &task)
	return &task, nil
}

func applyTaskUpdate(task *model.ComplianceTask, in TaskUpdate) []string {
	changed := []string{}
	if in.Title != nil {
		task.Title = *in.Title
		changed = append(changed, "title")
	}
	if in.Status != nil {
		task.Status = *in.Status
		changed = append(changed, "status")
	}
	if in.Severity != nil {
		task.Severity = *in.Severity
		changed = append(changed, "severity")
	}
	if in.Mandatory != nil {
		task.Mandatory = *in.Mandatory
		changed = append(changed, "mandatory")
	}
	if in.ReminderDaysBefore != nil {
		task.ReminderDaysBefore = in.ReminderDaysBefore
		changed = append(changed, "reminder_days_before")
	}
	if in.Description.Set {
		task.Description = in.Description.Value
		changed = append(changed, "description")
	}
	if in.OwnerUserID.Set {
		task.OwnerUserID = in.OwnerUserID.Value
		changed = append(changed, "owner_user_id")
	}
	if in.DueDate.Set {
		task.DueDate = utcPtr(in.DueDate.Value)
		changed = append(changed, "due_date")
	}
	if in.CompletedAt.Set {
		task.CompletedAt = utcPtr(in.CompletedAt.Value)
		changed = append(changed, "completed_at")
	}
	if in.EvidenceURL.Set {
		task.EvidenceURL = in.EvidenceURL.Value
		changed = append(changed, "evidence_url")
	}
	if in.Notes.Set {
		task.Notes = in.Notes.Value
		changed = append(changed, "notes")
	}
	if in.Reference.Set {
		task.Reference = in.Reference.Value
		changed = append(changed, "reference")
	}
	return changed
}

// textPatch returns a diff-match-patch patch from before to after, or "" if
// the text did not change.
func textPatch(before, after *string) string {
	var b, a string
	if before != nil {
		b = *before
	}
	if after != nil {
		a = *after
	}
	if a == b {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(b, a, false)
	return dmp.PatchToText(dmp.PatchMake(b, diffs))
}

func (s *TaskService) Delete(ctx context.Context, id uint, actor Actor) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.ComplianceTask
		if err := tx.First(&task, id).Error; err != nil {
			return translateError("delete task", err)
		}
		if err := tx.Delete(&task).Error; err != nil {
			return translateError("delete task", err)
		}
		_, err := writeAudit(tx, AuditEntry{
			CompanyID:  task.CompanyID,
			UserID:     actor.UserID,
			IPAddress:  actor.IP,
			Action:     ActionTaskDeleted,
			EntityType: "compliance_task",
			EntityID:   &task.ID,
			Meta:       map[string]interface{}{"title": task.Title},
		})
		return err
	})
	if err != nil {
		return err
	}

	if s.indexer != nil {
		if err := s.indexer.DeleteTask(ctx, id); err != nil {
			log.Printf("[DeleteTask] Elasticsearch delete error for task %d: %v", id, err)
		}
	}
	return nil
}

// index pushes the task to the search backend. Failures are logged only.
func (s *TaskService) index(ctx context.Context, task *model.ComplianceTask) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexTask(ctx, task); err != nil {
		log.Printf("[TaskService] Elasticsearch indexing error for task %d: %v", task.ID, err)
	}
}
