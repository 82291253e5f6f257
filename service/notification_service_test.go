package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	model "github.com/Itish41/complytrack/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func reminderTask(t *testing.T, svc *TaskService, sysID uint, title string, status model.TaskStatus, due *time.Time, owner *uint) *model.ComplianceTask {
	t.Helper()
	task, err := svc.Create(bg, TaskCreate{AISystemID: sysID, Title: title, Status: status, DueDate: due, OwnerUserID: owner}, Actor{})
	require.NoError(t, err)
	return task
}

func TestNotificationService_GenerateDueTaskReminders(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "Acme")
	other := seedCompany(t, db, "Other")
	owner := seedUser(t, db, company.ID, "o@acme.test")
	sys := seedSystem(t, db, company.ID, "Scorer")
	otherSys := seedSystem(t, db, other.ID, "Elsewhere")

	tasks := NewTaskService(db, nil, nil, fixedClock)
	soon := reminderTask(t, tasks, sys.ID, "Soon", model.TaskOpen, daysFromFixed(3), &owner.ID)
	late := reminderTask(t, tasks, sys.ID, "Late", model.TaskBlocked, daysFromFixed(-2), nil)
	reminderTask(t, tasks, sys.ID, "Far", model.TaskOpen, daysFromFixed(10), nil)
	reminderTask(t, tasks, sys.ID, "Finished", model.TaskDone, daysFromFixed(1), nil)
	reminderTask(t, tasks, sys.ID, "Undated", model.TaskOpen, nil, nil)
	reminderTask(t, tasks, otherSys.ID, "Other company", model.TaskOpen, daysFromFixed(1), nil)

	svc := NewNotificationService(db, nil, fixedClock)

	n, err := svc.GenerateDueTaskReminders(bg, &company.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	queued, err := svc.List(bg, company.ID, model.NotificationQueued)
	require.NoError(t, err)
	require.Len(t, queued, 2)

	byTask := map[uint]model.Notification{}
	for _, q := range queued {
		byTask[*q.TaskID] = q
	}
	s := byTask[soon.ID]
	assert.Equal(t, model.NotificationTaskDueSoon, s.Type)
	assert.Equal(t, model.ChannelLog, s.Channel)
	assert.Equal(t, owner.ID, *s.UserID)
	assert.Equal(t, "[Action needed] 'Soon' is due soon", s.Subject)
	assert.Contains(t, s.Body, "system 'Scorer'")

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(s.Payload, &payload))
	assert.Equal(t, "2025-03-08", payload["due_date"])
	assert.Equal(t, float64(3), payload["days_to_due"])
	assert.Nil(t, byTask[late.ID].UserID)

	// Same day again: the duplicate guard holds.
	n, err = svc.GenerateDueTaskReminders(bg, &company.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Two days later the guard has expired and "Far" is still outside its window.
	later := NewNotificationService(db, nil, func() time.Time { return FixedTime.AddDate(0, 0, 2) })
	n, err = later.GenerateDueTaskReminders(bg, &company.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// All companies.
	n, err = svc.GenerateDueTaskReminders(bg, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNotificationService_SendPending(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "Acme")

	mk := func(channel string, scheduled *time.Time) *model.Notification {
		n := &model.Notification{
			CompanyID:    company.ID,
			Type:         model.NotificationTaskDueSoon,
			Channel:      channel,
			Subject:      "subject " + channel,
			Body:         "body",
			Status:       model.NotificationQueued,
			ScheduledFor: scheduled,
		}
		require.NoError(t, db.Create(n).Error)
		return n
	}
	viaLog := mk(model.ChannelLog, nil)
	viaEmail := mk("email", daysFromFixed(-1))
	future := mk(model.ChannelLog, daysFromFixed(1))
	unknown := mk("pager", nil)

	email := new(MockSender)
	email.On("Send", mock.Anything, mock.MatchedBy(func(n *model.Notification) bool { return n.ID == viaEmail.ID })).
		Return(errors.New("smtp unreachable")).Once()

	svc := NewNotificationService(db, map[string]Sender{"email": email}, fixedClock)
	res, err := svc.SendPending(bg, &company.ID)
	require.NoError(t, err)
	assert.Equal(t, SendResult{Sent: 1, Failed: 2}, res)
	email.AssertExpectations(t)

	load := func(id uint) model.Notification {
		var n model.Notification
		require.NoError(t, db.First(&n, id).Error)
		return n
	}

	sent := load(viaLog.ID)
	assert.Equal(t, model.NotificationSent, sent.Status)
	require.NotNil(t, sent.SentAt)
	assert.True(t, sent.SentAt.Equal(FixedTime))

	failed := load(viaEmail.ID)
	assert.Equal(t, model.NotificationFailed, failed.Status)
	require.NotNil(t, failed.ErrorText)
	assert.Equal(t, "smtp unreachable", *failed.ErrorText)
	assert.Nil(t, failed.SentAt)

	assert.Equal(t, model.NotificationQueued, load(future.ID).Status)
	assert.Contains(t, *load(unknown.ID).ErrorText, "no sender")

	logs, err := NewAuditService(db).List(bg, company.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, ActionNotificationSent, logs[0].Action)
	assert.Equal(t, viaLog.ID, *logs[0].EntityID)

	// Nothing left that is due.
	res, err = svc.SendPending(bg, nil)
	require.NoError(t, err)
	assert.Equal(t, SendResult{}, res)
}

func TestNotificationService_SendPendingSkipsFutureBacklog(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "Acme")

	backlog := make([]model.Notification, sendBatchSize+1)
	for i := range backlog {
		backlog[i] = model.Notification{
			CompanyID:    company.ID,
			Type:         model.NotificationTaskDueSoon,
			Channel:      model.ChannelLog,
			Subject:      "later",
			Body:         "body",
			Status:       model.NotificationQueued,
			ScheduledFor: daysFromFixed(7),
		}
	}
	require.NoError(t, db.CreateInBatches(backlog, 50).Error)

	due := &model.Notification{
		CompanyID: company.ID,
		Type:      model.NotificationTaskDueSoon,
		Channel:   model.ChannelLog,
		Subject:   "now",
		Body:      "body",
		Status:    model.NotificationQueued,
	}
	require.NoError(t, db.Create(due).Error)

	svc := NewNotificationService(db, nil, fixedClock)
	res, err := svc.SendPending(bg, &company.ID)
	require.NoError(t, err)
	assert.Equal(t, SendResult{Sent: 1}, res)

	var reloaded model.Notification
	require.NoError(t, db.First(&reloaded, due.ID).Error)
	assert.Equal(t, model.NotificationSent, reloaded.Status)

	queued, err := svc.List(bg, company.ID, model.NotificationQueued)
	require.NoError(t, err)
	assert.Len(t, queued, sendBatchSize+1)
}

func TestNotification_ScheduledForStoredAsUTC(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "Acme")

	// 09:00 in UTC+2 is 07:00 UTC, before FixedTime.
	local := time.Date(2025, time.March, 5, 9, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	n := &model.Notification{
		CompanyID:    company.ID,
		Type:         model.NotificationTaskDueSoon,
		Subject:      "s",
		Body:         "b",
		Status:       model.NotificationQueued,
		ScheduledFor: &local,
	}
	require.NoError(t, db.Create(n).Error)
	assert.Equal(t, time.UTC, n.ScheduledFor.Location())

	res, err := NewNotificationService(db, nil, fixedClock).SendPending(bg, nil)
	require.NoError(t, err)
	assert.Equal(t, SendResult{Sent: 1}, res)
}
