package services

import (
	"testing"
	"time"

	model "github.com/Itish41/complytrack/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportingService_EndToEndCompanyAverage(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "Acme")
	sysA := seedSystem(t, db, company.ID, "A")
	sysB := seedSystem(t, db, company.ID, "B")
	for i := 0; i < 3; i++ {
		seedTask(t, db, sysA, taskSeed{status: model.TaskDone})
	}
	seedTask(t, db, sysA, taskSeed{status: model.TaskOpen, due: daysFromFixed(10)})

	svc := NewReportingService(db, fixedClock)

	a, err := svc.SystemCompliance(bg, sysA.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, a.CompliancePct)
	assert.Equal(t, 0, a.OverdueCnt)
	assert.Equal(t, 4, a.Total)
	assert.Equal(t, 3, a.Done)
	assert.Equal(t, StatusAtRisk, a.Status)

	b, err := svc.SystemCompliance(bg, sysB.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, b.CompliancePct)
	assert.Equal(t, StatusCompliant, b.Status)

	c, err := svc.CompanyCompliance(bg, company.ID)
	require.NoError(t, err)
	assert.Equal(t, 87.5, c.AvgCompliancePct)
	assert.Equal(t, 0, c.OverdueCnt)
	assert.Equal(t, 2, c.SystemsCnt)

	rows, err := svc.CompanySystemCompliance(bg, company.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Name)
	assert.Equal(t, "B", rows[1].Name)
}

func TestReportingService_CompanyWithoutSystems(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "Empty")

	c, err := NewReportingService(db, fixedClock).CompanyCompliance(bg, company.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, c.AvgCompliancePct)
	assert.Equal(t, 0, c.OverdueCnt)
	assert.Equal(t, 0, c.SystemsCnt)
}

func TestReportingService_OverdueCounting(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "Acme")
	sys := seedSystem(t, db, company.ID, "S")
	seedTask(t, db, sys, taskSeed{status: model.TaskOpen, due: daysFromFixed(-1)})
	seedTask(t, db, sys, taskSeed{status: model.TaskDone, due: daysFromFixed(-1)})
	seedTask(t, db, sys, taskSeed{status: model.TaskBlocked, due: daysFromFixed(-30)})
	seedTask(t, db, sys, taskSeed{status: model.TaskPostponed, due: daysFromFixed(-30)})
	seedTask(t, db, sys, taskSeed{status: model.TaskOpen})

	got, err := NewReportingService(db, fixedClock).SystemCompliance(bg, sys.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.OverdueCnt)
	assert.Equal(t, 20.0, got.CompliancePct)
	assert.Equal(t, StatusNonCompliant, got.Status)
	assert.Equal(t, RiskCritical, got.EffectiveRisk)
}

func TestReportingService_TodayComesFromClock(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "Acme")
	sys := seedSystem(t, db, company.ID, "S")
	seedTask(t, db, sys, taskSeed{status: model.TaskOpen, due: daysFromFixed(2)})

	before, err := NewReportingService(db, fixedClock).SystemCompliance(bg, sys.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, before.OverdueCnt)

	later := func() time.Time { return FixedTime.AddDate(0, 0, 3) }
	after, err := NewReportingService(db, later).SystemCompliance(bg, sys.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.OverdueCnt)
}

func TestReportingService_TaskStatusCounts(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "Acme")
	sys := seedSystem(t, db, company.ID, "S")
	other := seedSystem(t, db, company.ID, "Other")
	for _, st := range []model.TaskStatus{model.TaskOpen, model.TaskOpen, model.TaskInProgress, model.TaskDone} {
		seedTask(t, db, sys, taskSeed{status: st})
	}
	seedTask(t, db, other, taskSeed{status: model.TaskBlocked})

	svc := NewReportingService(db, fixedClock)
	got, err := svc.TaskStatusCounts(bg, sys.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCounts{CompanyID: company.ID, AISystemID: sys.ID, Open: 2, InProgress: 1, Done: 1}, got)

	all, err := svc.CompanyTaskStatusCounts(bg, company.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[1].Blocked)
}

func TestReportingService_ReferenceBreakdownMergesNullAndEmpty(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "Acme")
	sys := seedSystem(t, db, company.ID, "S")
	seedTask(t, db, sys, taskSeed{status: model.TaskOpen})
	seedTask(t, db, sys, taskSeed{status: model.TaskDone, reference: strPtr("")})
	seedTask(t, db, sys, taskSeed{status: model.TaskOpen, reference: strPtr("Art. 9")})

	rows, err := NewReportingService(db, fixedClock).ReferenceBreakdown(bg, company.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ReferenceRow{Reference: "", Total: 2, Done: 1}, rows[0])
	assert.Equal(t, ReferenceRow{Reference: "Art. 9", Total: 1}, rows[1])
}

func TestReportingService_NotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewReportingService(db, fixedClock)

	_, err := svc.SystemCompliance(bg, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.TaskStatusCounts(bg, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CompanyCompliance(bg, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ReferenceBreakdown(bg, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReportingService_Dashboard(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "Acme")
	owner := seedUser(t, db, company.ID, "owner@acme.test")
	sys := seedSystem(t, db, company.ID, "S")
	seedTask(t, db, sys, taskSeed{status: model.TaskOpen, due: daysFromFixed(-2), owner: &owner.ID})
	seedTask(t, db, sys, taskSeed{status: model.TaskOpen, due: daysFromFixed(5)})
	seedTask(t, db, sys, taskSeed{status: model.TaskInProgress, due: daysFromFixed(1)})
	seedTask(t, db, sys, taskSeed{status: model.TaskDone, due: daysFromFixed(2)})
	seedTask(t, db, sys, taskSeed{status: model.TaskOpen, due: daysFromFixed(30)})

	d, err := NewReportingService(db, fixedClock).CompanyDashboard(bg, company.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, d.Company.OverdueCnt)
	assert.Equal(t, 20.0, d.Company.AvgCompliancePct)
	require.Len(t, d.Systems, 1)
	require.Len(t, d.OverdueByOwner, 1)
	assert.Equal(t, owner.ID, *d.OverdueByOwner[0].OwnerUserID)

	require.Len(t, d.UpcomingDeadlines, 2)
	assert.Equal(t, model.TaskInProgress, d.UpcomingDeadlines[0].Status)
	assert.Equal(t, model.TaskOpen, d.UpcomingDeadlines[1].Status)
	assert.Equal(t, FixedTime, d.GeneratedAt)

	assert.Equal(t, TaskKPIs{SystemsCnt: 1, OpenTasks: 4, OverdueTasks: 1}, d.KPIs)
	require.Len(t, d.Alerts, 1)
	assert.Equal(t, AlertTasksOverdue, d.Alerts[0].Type)
	assert.Equal(t, AlertSeverityMedium, d.Alerts[0].Severity)
	assert.Equal(t, "1 task(s) overdue", d.Alerts[0].Message)
}

func TestReportingViews(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "Acme")
	empty := seedCompany(t, db, "Empty")
	sysA := seedSystem(t, db, company.ID, "A")
	seedSystem(t, db, company.ID, "B")
	for i := 0; i < 3; i++ {
		seedTask(t, db, sysA, taskSeed{status: model.TaskDone})
	}
	seedTask(t, db, sysA, taskSeed{status: model.TaskOpen})

	var systemPct float64
	require.NoError(t, db.Raw("SELECT compliance_pct FROM vw_system_compliance WHERE ai_system_id = ?", sysA.ID).Scan(&systemPct).Error)
	assert.Equal(t, 75.0, systemPct)

	var avg float64
	require.NoError(t, db.Raw("SELECT avg_compliance_pct FROM vw_company_compliance WHERE company_id = ?", company.ID).Scan(&avg).Error)
	assert.Equal(t, 87.5, avg)

	require.NoError(t, db.Raw("SELECT avg_compliance_pct FROM vw_company_compliance WHERE company_id = ?", empty.ID).Scan(&avg).Error)
	assert.Equal(t, 100.0, avg)
}
