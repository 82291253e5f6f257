package services

import (
	"context"
	"log"
	"time"

	model "github.com/Itish41/complytrack/models"
	"gorm.io/gorm"
)

const upcomingDeadlinesLimit = 100

// ReportingService computes compliance aggregates from live task rows.
// Nothing is cached; "today" comes from the injected clock.
type ReportingService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewReportingService builds a ReportingService. A nil clock means time.Now.
func NewReportingService(db *gorm.DB, now func() time.Time) *ReportingService {
	if now == nil {
		now = time.Now
	}
	return &ReportingService{db: db, now: now}
}

func (s *ReportingService) today() time.Time { return Day(s.now()) }

// UpcomingTask is a task with a deadline inside the requested window.
type UpcomingTask struct {
	ID          uint               `json:"id"`
	AISystemID  uint               `json:"ai_system_id"`
	Title       string             `json:"title"`
	DueDate     *time.Time         `json:"due_date"`
	Severity    model.TaskSeverity `json:"severity"`
	OwnerUserID *uint              `json:"owner_user_id"`
	Status      model.TaskStatus   `json:"status"`
}

// Dashboard bundles the company-level reports.
type Dashboard struct {
	Company            CompanyCompliance  `json:"company"`
	Systems            []SystemCompliance `json:"systems"`
	ReferenceBreakdown []ReferenceRow     `json:"reference_breakdown"`
	OverdueByOwner     []OwnerOverdue     `json:"overdue_by_owner"`
	UpcomingDeadlines  []UpcomingTask     `json:"upcoming_deadlines"`
	KPIs               TaskKPIs           `json:"kpis"`
	Alerts             []Alert            `json:"alerts"`
	GeneratedAt        time.Time          `json:"generated_at"`
}

func (s *ReportingService) loadFacts(ctx context.Context, column string, id uint) ([]TaskFact, error) {
	var facts []TaskFact
	err := s.db.WithContext(ctx).
		Model(&model.ComplianceTask{}).
		Select(taskFactColumns).
		Where(column+" = ?", id).
		Order("id").
		Find(&facts).Error
	if err != nil {
		return nil, translateError("load tasks", err)
	}
	return facts, nil
}

func (s *ReportingService) getSystem(ctx context.Context, systemID uint) (model.AISystem, error) {
	var sys model.AISystem
	if err := s.db.WithContext(ctx).First(&sys, systemID).Error; err != nil {
		return sys, translateError("get ai system", err)
	}
	return sys, nil
}

func (s *ReportingService) ensureCompany(ctx context.Context, companyID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Company{}).Where("id = ?", companyID).Count(&count).Error; err != nil {
		return translateError("get company", err)
	}
	if count == 0 {
		return translateError("get company", gorm.ErrRecordNotFound)
	}
	return nil
}

func (s *ReportingService) companySystems(ctx context.Context, companyID uint) ([]model.AISystem, error) {
	var systems []model.AISystem
	if err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("id").Find(&systems).Error; err != nil {
		return nil, translateError("list ai systems", err)
	}
	return systems, nil
}

func systemRow(sys model.AISystem, facts []TaskFact, today time.Time) SystemCompliance {
	sum := Summarize(facts, today)
	status := ComplianceStatus(sum.CompliancePct, sum.OverdueCnt)
	return SystemCompliance{
		AISystemID:    sys.ID,
		CompanyID:     sys.CompanyID,
		Name:          sys.Name,
		RiskTier:      sys.RiskTier,
		SystemSummary: sum,
		Status:        status,
		EffectiveRisk: EffectiveRisk(sys.RiskTier, status),
	}
}

// TaskStatusCounts returns the per-status task counts of one AI system.
func (s *ReportingService) TaskStatusCounts(ctx context.Context, systemID uint) (StatusCounts, error) {
	sys, err := s.getSystem(ctx, systemID)
	if err != nil {
		return StatusCounts{}, err
	}
	facts, err := s.loadFacts(ctx, "ai_system_id", systemID)
	if err != nil {
		return StatusCounts{}, err
	}
	return CountStatuses(sys.CompanyID, sys.ID, facts), nil
}

// CompanyTaskStatusCounts returns status counts for every system of a company.
func (s *ReportingService) CompanyTaskStatusCounts(ctx context.Context, companyID uint) ([]StatusCounts, error) {
	if err := s.ensureCompany(ctx, companyID); err != nil {
		return nil, err
	}
	systems, err := s.companySystems(ctx, companyID)
	if err != nil {
		return nil, err
	}
	facts, err := s.loadFacts(ctx, "company_id", companyID)
	if err != nil {
		return nil, err
	}
	bySystem := groupBySystem(facts)
	out := make([]StatusCounts, 0, len(systems))
	for _, sys := range systems {
		out = append(out, CountStatuses(companyID, sys.ID, bySystem[sys.ID]))
	}
	return out, nil
}

// ReferenceBreakdown groups a company's tasks by regulatory reference.
func (s *ReportingService) ReferenceBreakdown(ctx context.Context, companyID uint) ([]ReferenceRow, error) {
	if err := s.ensureCompany(ctx, companyID); err != nil {
		return nil, err
	}
	facts, err := s.loadFacts(ctx, "company_id", companyID)
	if err != nil {
		return nil, err
	}
	return BreakdownByReference(facts, s.today()), nil
}

// SystemCompliance returns the compliance percentage and overdue count of one system.
func (s *ReportingService) SystemCompliance(ctx context.Context, systemID uint) (SystemCompliance, error) {
	sys, err := s.getSystem(ctx, systemID)
	if err != nil {
		return SystemCompliance{}, err
	}
	facts, err := s.loadFacts(ctx, "ai_system_id", systemID)
	if err != nil {
		return SystemCompliance{}, err
	}
	return systemRow(sys, facts, s.today()), nil
}

// CompanySystemCompliance returns one compliance row per AI system of a company.
func (s *ReportingService) CompanySystemCompliance(ctx context.Context, companyID uint) ([]SystemCompliance, error) {
	if err := s.ensureCompany(ctx, companyID); err != nil {
		return nil, err
	}
	return s.companySystemRows(ctx, companyID, s.today())
}

func (s *ReportingService) companySystemRows(ctx context.Context, companyID uint, today time.Time) ([]SystemCompliance, error) {
	systems, err := s.companySystems(ctx, companyID)
	if err != nil {
		return nil, err
	}
	facts, err := s.loadFacts(ctx, "company_id", companyID)
	if err != nil {
		return nil, err
	}
	bySystem := groupBySystem(facts)
	rows := make([]SystemCompliance, 0, len(systems))
	for _, sys := range systems {
		rows = append(rows, systemRow(sys, bySystem[sys.ID], today))
	}
	return rows, nil
}

// CompanyCompliance averages the compliance of a company's systems.
func (s *ReportingService) CompanyCompliance(ctx context.Context, companyID uint) (CompanyCompliance, error) {
	if err := s.ensureCompany(ctx, companyID); err != nil {
		return CompanyCompliance{}, err
	}
	rows, err := s.companySystemRows(ctx, companyID, s.today())
	if err != nil {
		return CompanyCompliance{}, err
	}
	return companyFromRows(companyID, rows), nil
}

func companyFromRows(companyID uint, rows []SystemCompliance) CompanyCompliance {
	sums := make([]SystemSummary, len(rows))
	for i, r := range rows {
		sums[i] = r.SystemSummary
	}
	return AverageCompliance(companyID, sums)
}

// OverdueByOwner counts overdue tasks per owner. limit <= 0 means 5.
func (s *ReportingService) OverdueByOwner(ctx context.Context, companyID uint, limit int) ([]OwnerOverdue, error) {
	if limit <= 0 {
		limit = 5
	}
	if err := s.ensureCompany(ctx, companyID); err != nil {
		return nil, err
	}
	facts, err := s.loadFacts(ctx, "company_id", companyID)
	if err != nil {
		return nil, err
	}
	return OverdueOwners(facts, s.today(), limit), nil
}

// UpcomingDeadlines lists unfinished tasks due between today and today+inDays,
// earliest first. inDays <= 0 means 14.
func (s *ReportingService) UpcomingDeadlines(ctx context.Context, companyID uint, inDays int) ([]UpcomingTask, error) {
	if inDays <= 0 {
		inDays = 14
	}
	if err := s.ensureCompany(ctx, companyID); err != nil {
		return nil, err
	}

	var tasks []model.ComplianceTask
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND status <> ? AND due_date IS NOT NULL", companyID, model.TaskDone).
		Find(&tasks).Error
	if err != nil {
		return nil, translateError("list upcoming tasks", err)
	}

	today := s.today()
	out := []UpcomingTask{}
	for _, t := range tasks {
		if !DueWithin(t.DueDate, today, inDays) {
			continue
		}
		out = append(out, UpcomingTask{
			ID:          t.ID,
			AISystemID:  t.AISystemID,
			Title:       t.Title,
			DueDate:     t.DueDate,
			Severity:    t.Severity,
			OwnerUserID: t.OwnerUserID,
			Status:      t.Status,
		})
	}
	sortUpcoming(out)
	if len(out) > upcomingDeadlinesLimit {
		out = out[:upcomingDeadlinesLimit]
	}
	return out, nil
}

// CompanyDashboard collects every company-level report in one call.
func (s *ReportingService) CompanyDashboard(ctx context.Context, companyID uint) (Dashboard, error) {
	if err := s.ensureCompany(ctx, companyID); err != nil {
		return Dashboard{}, err
	}
	today := s.today()

	rows, err := s.companySystemRows(ctx, companyID, today)
	if err != nil {
		return Dashboard{}, err
	}
	refs, err := s.ReferenceBreakdown(ctx, companyID)
	if err != nil {
		return Dashboard{}, err
	}
	owners, err := s.OverdueByOwner(ctx, companyID, 5)
	if err != nil {
		return Dashboard{}, err
	}
	upcoming, err := s.UpcomingDeadlines(ctx, companyID, 14)
	if err != nil {
		return Dashboard{}, err
	}
	facts, err := s.loadFacts(ctx, "company_id", companyID)
	if err != nil {
		return Dashboard{}, err
	}
	kpis := CompanyKPIs(len(rows), facts, today)

	log.Printf("[CompanyDashboard] company=%d systems=%d", companyID, len(rows))
	return Dashboard{
		Company:            companyFromRows(companyID, rows),
		Systems:            rows,
		ReferenceBreakdown: refs,
		OverdueByOwner:     owners,
		UpcomingDeadlines:  upcoming,
		KPIs:               kpis,
		Alerts:             OverdueAlerts(kpis.OverdueTasks),
		GeneratedAt:        s.now().UTC(),
	}, nil
}
