package services

import (
	"testing"

	model "github.com/Itish41/complytrack/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_EntriesAreImmutable(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "Acme")
	svc := NewAuditService(db)

	entityID := uint(42)
	entry, err := svc.Record(bg, AuditEntry{
		CompanyID:  company.ID,
		Action:     "TASK_UPDATED",
		EntityType: "compliance_task",
		EntityID:   &entityID,
		Meta:       map[string]interface{}{"field": "status"},
	})
	require.NoError(t, err)

	err = db.Model(entry).Update("action", "TAMPERED").Error
	assert.ErrorIs(t, err, model.ErrAuditLogImmutable)

	err = db.Delete(entry).Error
	assert.ErrorIs(t, err, model.ErrAuditLogImmutable)

	err = db.Exec("UPDATE audit_logs SET action = 'TAMPERED' WHERE id = ?", entry.ID).Error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "immutable")

	logs, err := svc.List(bg, company.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "TASK_UPDATED", logs[0].Action)
	assert.Equal(t, "compliance_task", *logs[0].EntityType)
}

func TestAuditService_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db)

	_, err := svc.Record(bg, AuditEntry{CompanyID: 1})
	assert.True(t, IsValidation(err))

	_, err = svc.Record(bg, AuditEntry{CompanyID: 999, Action: "X"})
	assert.True(t, IsValidation(err), "unknown company should be a constraint violation, got %v", err)
}

func TestAuditService_ListNewestFirstWithLimit(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "Acme")
	svc := NewAuditService(db)
	for _, a := range []string{"A", "B", "C"} {
		_, err := svc.Record(bg, AuditEntry{CompanyID: company.ID, Action: a})
		require.NoError(t, err)
	}

	logs, err := svc.List(bg, company.ID, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "C", logs[0].Action)
	assert.Equal(t, "B", logs[1].Action)
}
