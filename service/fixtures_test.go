package services

import (
	"context"
	"testing"
	"time"

	"github.com/Itish41/complytrack/initializers"
	model "github.com/Itish41/complytrack/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// FixedTime is the "now" every clock-dependent test runs at.
var FixedTime = time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return FixedTime }

func daysFromFixed(n int) *time.Time {
	t := FixedTime.AddDate(0, 0, n)
	return &t
}

func strPtr(s string) *string { return &s }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := initializers.OpenSQLite("file::memory:", nil)
	require.NoError(t, err)
	require.NoError(t, initializers.ApplySQLiteSchema(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedCompany(t *testing.T, db *gorm.DB, name string) *model.Company {
	t.Helper()
	c := &model.Company{Name: name}
	require.NoError(t, db.Create(c).Error)
	return c
}

func seedUser(t *testing.T, db *gorm.DB, companyID uint, email string) *model.User {
	t.Helper()
	u := &model.User{CompanyID: &companyID, Email: email, Role: "member", IsActive: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedSystem(t *testing.T, db *gorm.DB, companyID uint, name string) *model.AISystem {
	t.Helper()
	s := &model.AISystem{CompanyID: companyID, Name: name}
	require.NoError(t, db.Create(s).Error)
	return s
}

type taskSeed struct {
	status    model.TaskStatus
	due       *time.Time
	reference *string
	owner     *uint
}

func seedTask(t *testing.T, db *gorm.DB, sys *model.AISystem, ts taskSeed) *model.ComplianceTask {
	t.Helper()
	task := &model.ComplianceTask{
		CompanyID:   sys.CompanyID,
		AISystemID:  sys.ID,
		Title:       "task",
		Status:      ts.status,
		Severity:    model.SeverityMandatory,
		Mandatory:   true,
		DueDate:     ts.due,
		Reference:   ts.reference,
		OwnerUserID: ts.owner,
	}
	if task.Status == "" {
		task.Status = model.TaskOpen
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

func countRows(t *testing.T, db *gorm.DB, table string, companyID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Where("company_id = ?", companyID).Count(&n).Error)
	return n
}

var bg = context.Background()
