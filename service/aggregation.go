package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	model "github.com/Itish41/complytrack/models"
)

// TaskFact is the slice of a compliance task the aggregations need.
type TaskFact struct {
	ID          uint             `json:"id"`
	CompanyID   uint             `json:"company_id"`
	AISystemID  uint             `gorm:"column:ai_system_id" json:"ai_system_id"`
	Status      model.TaskStatus `json:"status"`
	DueDate     *time.Time       `json:"due_date"`
	Reference   *string          `json:"reference"`
	OwnerUserID *uint            `gorm:"column:owner_user_id" json:"owner_user_id"`
}

const taskFactColumns = "id, company_id, ai_system_id, status, due_date, reference, owner_user_id"

// Compliance badges.
const (
	StatusCompliant    = "compliant"
	StatusAtRisk       = "at_risk"
	StatusNonCompliant = "non_compliant"
	StatusUnknown      = "unknown"
)

// Effective risk levels.
const (
	RiskOK       = "ok"
	RiskWarning  = "warning"
	RiskCritical = "critical"
)

type StatusCounts struct {
	CompanyID  uint `json:"company_id"`
	AISystemID uint `json:"ai_system_id"`
	Open       int  `json:"open_cnt"`
	InProgress int  `json:"in_progress_cnt"`
	Blocked    int  `json:"blocked_cnt"`
	Postponed  int  `json:"postponed_cnt"`
	Done       int  `json:"done_cnt"`
}

type ReferenceRow struct {
	Reference string `json:"reference"`
	Total     int    `json:"total"`
	Done      int    `json:"done_cnt"`
	Overdue   int    `json:"overdue_cnt"`
}

// SystemSummary is the compliance arithmetic for one AI system.
type SystemSummary struct {
	Total         int     `json:"total_cnt"`
	Done          int     `json:"done_cnt"`
	CompliancePct float64 `json:"compliance_pct"`
	OverdueCnt    int     `json:"overdue_cnt"`
}

type SystemCompliance struct {
	AISystemID uint    `json:"ai_system_id"`
	CompanyID  uint    `json:"company_id"`
	Name       string  `json:"name"`
	RiskTier   *string `json:"risk_tier,omitempty"`
	SystemSummary
	Status        string `json:"compliance_status"`
	EffectiveRisk string `json:"effective_risk"`
}

type CompanyCompliance struct {
	CompanyID        uint    `json:"company_id"`
	SystemsCnt       int     `json:"systems_cnt"`
	AvgCompliancePct float64 `json:"avg_compliance_pct"`
	OverdueCnt       int     `json:"overdue_cnt"`
}

type OwnerOverdue struct {
	OwnerUserID *uint `json:"owner_user_id"`
	OverdueCnt  int   `json:"overdue_cnt"`
}

// TaskKPIs are the headline task numbers of a company.
type TaskKPIs struct {
	SystemsCnt   int `json:"systems_cnt"`
	OpenTasks    int `json:"open_tasks"`
	OverdueTasks int `json:"overdue_tasks"`
}

// Alert flags something on the dashboard that needs attention.
type Alert struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

const (
	AlertTasksOverdue = "tasks_overdue"

	AlertSeverityMedium = "medium"
	AlertSeverityHigh   = "high"

	// More overdue tasks than this raise the alert to high.
	overdueAlertHighAbove = 5
)

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsOverdue reports whether an open or blocked task was due on a day
// strictly before today.
func IsOverdue(status model.TaskStatus, due *time.Time, today time.Time) bool {
	if due == nil || !status.CountsTowardOverdue() {
		return false
	}
	return Day(*due).Before(Day(today))
}

// CountStatuses tallies facts by status for one system.
func CountStatuses(companyID, systemID uint, facts []TaskFact) StatusCounts {
	c := StatusCounts{CompanyID: companyID, AISystemID: systemID}
	for _, f := range facts {
		switch f.Status {
		case model.TaskOpen:
			c.Open++
		case model.TaskInProgress:
			c.InProgress++
		case model.TaskBlocked:
			c.Blocked++
		case model.TaskPostponed:
			c.Postponed++
		case model.TaskDone:
			c.Done++
		}
	}
	return c
}

// BreakdownByReference groups facts by reference. NULL and empty references
// share the "" row. Rows are ordered by total descending, then reference.
func BreakdownByReference(facts []TaskFact, today time.Time) []ReferenceRow {
	idx := make(map[string]int)
	rows := []ReferenceRow{}
	for _, f := range facts {
		ref := ""
		if f.Reference != nil {
			ref = *f.Reference
		}
		i, ok := idx[ref]
		if !ok {
			i = len(rows)
			idx[ref] = i
			rows = append(rows, ReferenceRow{Reference: ref})
		}
		rows[i].Total++
		if f.Status == model.TaskDone {
			rows[i].Done++
		}
		if IsOverdue(f.Status, f.DueDate, today) {
			rows[i].Overdue++
		}
	}
	sort.Slice(rows, func(a, b int) bool {
		if rows[a].Total != rows[b].Total {
			return rows[a].Total > rows[b].Total
		}
		return rows[a].Reference < rows[b].Reference
	})
	return rows
}

// Summarize computes the compliance percentage and overdue count for the
// tasks of one system. A system without tasks is 100% compliant.
func Summarize(facts []TaskFact, today time.Time) SystemSummary {
	s := SystemSummary{Total: len(facts), CompliancePct: 100}
	for _, f := range facts {
		if f.Status == model.TaskDone {
			s.Done++
		}
		if IsOverdue(f.Status, f.DueDate, today) {
			s.OverdueCnt++
		}
	}
	if s.Total > 0 {
		s.CompliancePct = 100 * float64(s.Done) / float64(s.Total)
	}
	return s
}

// AverageCompliance averages system percentages with equal weight per
// system and sums overdue counts. No systems means 100%.
func AverageCompliance(companyID uint, systems []SystemSummary) CompanyCompliance {
	c := CompanyCompliance{CompanyID: companyID, SystemsCnt: len(systems), AvgCompliancePct: 100}
	if len(systems) == 0 {
		return c
	}
	var sum float64
	for _, s := range systems {
		sum += s.CompliancePct
		c.OverdueCnt += s.OverdueCnt
	}
	c.AvgCompliancePct = sum / float64(len(systems))
	return c
}

// OverdueOwners counts overdue tasks per owner, highest first. Unowned
// tasks are reported with a nil owner and sort after owned ones on ties.
// limit <= 0 returns every owner.
func OverdueOwners(facts []TaskFact, today time.Time, limit int) []OwnerOverdue {
	counts := make(map[uint]int)
	unowned := 0
	for _, f := range facts {
		if !IsOverdue(f.Status, f.DueDate, today) {
			continue
		}
		if f.OwnerUserID == nil {
			unowned++
			continue
		}
		counts[*f.OwnerUserID]++
	}

	out := make([]OwnerOverdue, 0, len(counts)+1)
	for id, n := range counts {
		id := id
		out = append(out, OwnerOverdue{OwnerUserID: &id, OverdueCnt: n})
	}
	if unowned > 0 {
		out = append(out, OwnerOverdue{OverdueCnt: unowned})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].OverdueCnt != out[b].OverdueCnt {
			return out[a].OverdueCnt > out[b].OverdueCnt
		}
		if out[a].OwnerUserID == nil || out[b].OwnerUserID == nil {
			return out[b].OwnerUserID == nil && out[a].OwnerUserID != nil
		}
		return *out[a].OwnerUserID < *out[b].OwnerUserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DueWithin reports whether due falls on a day in [today, today+days].
func DueWithin(due *time.Time, today time.Time, days int) bool {
	if due == nil {
		return false
	}
	d := Day(*due)
	start := Day(today)
	return !d.Before(start) && !d.After(start.AddDate(0, 0, days))
}

// ComplianceStatus turns a percentage and overdue count into a badge.
// Any overdue task makes the system non-compliant.
func ComplianceStatus(pct float64, overdue int) string {
	switch {
	case overdue > 0:
		return StatusNonCompliant
	case pct >= 99.999:
		return StatusCompliant
	default:
		return StatusAtRisk
	}
}

// EffectiveRisk combines the inherent risk tier with the compliance badge.
func EffectiveRisk(riskTier *string, status string) string {
	tier := ""
	if riskTier != nil {
		tier = strings.ToLower(strings.TrimSpace(*riskTier))
	}
	status = strings.ToLower(strings.TrimSpace(status))

	if status == StatusNonCompliant {
		return RiskCritical
	}
	weak := status == StatusAtRisk || status == StatusUnknown || status == ""
	switch tier {
	case "high", "high_risk", "high-risk":
		if weak {
			return RiskCritical
		}
		return RiskWarning
	}
	if weak {
		return RiskWarning
	}
	return RiskOK
}

// CompanyKPIs counts unfinished and overdue tasks. Anything not done is
// open; overdue follows IsOverdue.
func CompanyKPIs(systemsCnt int, facts []TaskFact, today time.Time) TaskKPIs {
	k := TaskKPIs{SystemsCnt: systemsCnt}
	for _, f := range facts {
		if f.Status != model.TaskDone {
			k.OpenTasks++
		}
		if IsOverdue(f.Status, f.DueDate, today) {
			k.OverdueTasks++
		}
	}
	return k
}

// OverdueAlerts returns a tasks_overdue alert when anything is overdue, high
// severity above five tasks. Never nil.
func OverdueAlerts(overdue int) []Alert {
	if overdue <= 0 {
		return []Alert{}
	}
	severity := AlertSeverityMedium
	if overdue > overdueAlertHighAbove {
		severity = AlertSeverityHigh
	}
	return []Alert{{
		Type:     AlertTasksOverdue,
		Severity: severity,
		Message:  fmt.Sprintf("%d task(s) overdue", overdue),
	}}
}

// groupBySystem buckets facts by AI system id.
func groupBySystem(facts []TaskFact) map[uint][]TaskFact {
	out := make(map[uint][]TaskFact)
	for _, f := range facts {
		out[f.AISystemID] = append(out[f.AISystemID], f)
	}
	return out
}

func sortUpcoming(tasks []UpcomingTask) {
	sort.SliceStable(tasks, func(a, b int) bool {
		da, db := *tasks[a].DueDate, *tasks[b].DueDate
		if !da.Equal(db) {
			return da.Before(db)
		}
		return tasks[a].ID < tasks[b].ID
	})
}
