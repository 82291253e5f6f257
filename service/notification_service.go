package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	model "github.com/Itish41/complytrack/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	sendBatchSize       = 200
	reminderGuardWindow = 24 * time.Hour
)

// Sender delivers a notification over one channel.
type Sender interface {
	Send(ctx context.Context, n *model.Notification) error
}

// LogSender "delivers" by writing the message to the process log.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, n *model.Notification) error {
	log.Printf("[Notification] id=%d company=%d type=%s subject=%q", n.ID, n.CompanyID, n.Type, n.Subject)
	return nil
}

type NotificationService struct {
	db      *gorm.DB
	senders map[string]Sender
	now     func() time.Time
}

// NewNotificationService builds a service delivering through senders keyed
// by channel. The log channel is always available.
func NewNotificationService(db *gorm.DB, senders map[string]Sender, now func() time.Time) *NotificationService {
	if now == nil {
		now = time.Now
	}
	all := map[string]Sender{model.ChannelLog: LogSender{}}
	for ch, s := range senders {
		all[ch] = s
	}
	return &NotificationService{db: db, senders: all, now: now}
}

// SendResult counts the outcome of a SendPending run.
type SendResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

type reminderRow struct {
	ID                 uint
	CompanyID          uint
	AISystemID         uint  `gorm:"column:ai_system_id"`
	OwnerUserID        *uint `gorm:"column:owner_user_id"`
	Title              string
	DueDate            *time.Time
	ReminderDaysBefore *int
}

func renderTaskDueSoon(title, systemName, due string) (string, string) {
	subject := fmt.Sprintf("[Action needed] '%s' is due soon", title)
	body := fmt.Sprintf("Task '%s' for system '%s' is due on %s.\nPlease review and complete it to stay compliant.", title, systemName, due)
	return subject, body
}

// GenerateDueTaskReminders queues a task_due_soon notification for every
// unfinished task whose due date is at most reminder_days_before days away,
// overdue tasks included. A task already reminded to the same user within
// the last day is skipped. companyID nil means every company.
func (s *NotificationService) GenerateDueTaskReminders(ctx context.Context, companyID *uint) (int, error) {
	tx := s.db.WithContext(ctx).
		Model(&model.ComplianceTask{}).
		Select("id, company_id, ai_system_id, owner_user_id, title, due_date, reminder_days_before").
		Where("status <> ? AND due_date IS NOT NULL AND reminder_days_before IS NOT NULL", model.TaskDone)
	if companyID != nil {
		tx = tx.Where("company_id = ?", *companyID)
	}
	var rows []reminderRow
	if err := tx.Order("id").Find(&rows).Error; err != nil {
		return 0, translateError("load tasks for reminders", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	names, err := s.systemNames(ctx, rows)
	if err != nil {
		return 0, err
	}

	now := s.now().UTC()
	today := Day(now)
	created := 0
	for _, r := range rows {
		daysToDue := int(Day(*r.DueDate).Sub(today).Hours() / 24)
		if daysToDue > *r.ReminderDaysBefore {
			continue
		}

		dup, err := s.recentlyReminded(ctx, r.ID, r.OwnerUserID, now)
		if err != nil {
			return created, err
		}
		if dup {
			continue
		}

		due := Day(*r.DueDate).Format("2006-01-02")
		payload, _ := json.Marshal(map[string]interface{}{
			"ai_system_id":   r.AISystemID,
			"ai_system_name": names[r.AISystemID],
			"task_id":        r.ID,
			"title":          r.Title,
			"due_date":       due,
			"days_to_due":    daysToDue,
		})
		subject, body := renderTaskDueSoon(r.Title, names[r.AISystemID], due)

		taskID, systemID := r.ID, r.AISystemID
		n := &model.Notification{
			CompanyID:  r.CompanyID,
			AISystemID: &systemID,
			TaskID:     &taskID,
			UserID:     r.OwnerUserID,
			Type:       model.NotificationTaskDueSoon,
			Channel:    model.ChannelLog,
			Subject:    subject,
			Body:       body,
			Payload:    datatypes.JSON(payload),
			Status:     model.NotificationQueued,
			CreatedAt:  now,
		}
		if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
			return created, translateError("queue reminder", err)
		}
		created++
	}

	log.Printf("[GenerateDueTaskReminders] queued %d reminders", created)
	return created, nil
}

func (s *NotificationService) systemNames(ctx context.Context, rows []reminderRow) (map[uint]string, error) {
	ids := make([]uint, 0, len(rows))
	seen := make(map[uint]bool)
	for _, r := range rows {
		if !seen[r.AISystemID] {
			seen[r.AISystemID] = true
			ids = append(ids, r.AISystemID)
		}
	}
	var systems []model.AISystem
	if err := s.db.WithContext(ctx).Select("id, name").Where("id IN ?", ids).Find(&systems).Error; err != nil {
		return nil, translateError("load ai system names", err)
	}
	names := make(map[uint]string, len(systems))
	for _, sys := range systems {
		names[sys.ID] = sys.Name
	}
	return names, nil
}

func (s *NotificationService) recentlyReminded(ctx context.Context, taskID uint, userID *uint, now time.Time) (bool, error) {
	tx := s.db.WithContext(ctx).
		Select("id, created_at").
		Where("task_id = ? AND type = ?", taskID, model.NotificationTaskDueSoon)
	if userID == nil {
		tx = tx.Where("user_id IS NULL")
	} else {
		tx = tx.Where("user_id = ?", *userID)
	}
	var existing []model.Notification
	if err := tx.Find(&existing).Error; err != nil {
		return false, translateError("check recent reminders", err)
	}
	since := now.Add(-reminderGuardWindow)
	for _, n := range existing {
		if !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// SendPending delivers queued notifications that are due, oldest first.
// Each one ends up sent (with sent_at) or failed (with error_text); every
// successful delivery is audited.
func (s *NotificationService) SendPending(ctx context.Context, companyID *uint) (SendResult, error) {
	var res SendResult

	now := s.now().UTC()
	tx := s.db.WithContext(ctx).
		Where("status = ?", model.NotificationQueued).
		Where("scheduled_for IS NULL OR scheduled_for <= ?", now)
	if companyID != nil {
		tx = tx.Where("company_id = ?", *companyID)
	}
	var pending []model.Notification
	if err := tx.Order("id").Limit(sendBatchSize).Find(&pending).Error; err != nil {
		return res, translateError("load queued notifications", err)
	}

	for i := range pending {
		n := &pending[i]
		sendErr := s.deliver(ctx, n)
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if sendErr != nil {
				msg := sendErr.Error()
				return tx.Model(n).Updates(map[string]interface{}{
					"status":     model.NotificationFailed,
					"error_text": msg,
				}).Error
			}
			if err := tx.Model(n).Updates(map[string]interface{}{
				"status":  model.NotificationSent,
				"sent_at": now,
			}).Error; err != nil {
				return err
			}
			_, err := writeAudit(tx, AuditEntry{
				CompanyID:  n.CompanyID,
				UserID:     n.UserID,
				Action:     ActionNotificationSent,
				EntityType: "notification",
				EntityID:   &n.ID,
				Meta: map[string]interface{}{
					"type":    n.Type,
					"channel": n.Channel,
					"subject": n.Subject,
				},
			})
			return err
		})
		if err != nil {
			return res, translateError("mark notification", err)
		}

		if sendErr != nil {
			log.Printf("[SendPending] notification %d failed: %v", n.ID, sendErr)
			res.Failed++
		} else {
			res.Sent++
		}
	}
	return res, nil
}

func (s *NotificationService) deliver(ctx context.Context, n *model.Notification) error {
	channel := n.Channel
	if channel == "" {
		channel = model.ChannelLog
	}
	sender, ok := s.senders[channel]
	if !ok {
		return fmt.Errorf("no sender for channel %q", channel)
	}
	return sender.Send(ctx, n)
}

// List returns a company's notifications, newest first, optionally by status.
func (s *NotificationService) List(ctx context.Context, companyID uint, status model.NotificationStatus) ([]model.Notification, error) {
	tx := s.db.WithContext(ctx).Where("company_id = ?", companyID)
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	var out []model.Notification
	if err := tx.Order("id DESC").Find(&out).Error; err != nil {
		return nil, translateError("list notifications", err)
	}
	return out, nil
}
