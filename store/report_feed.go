package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"checkops/dto"
)

// ReportFeed aggregates persisted instance history for the report endpoints.
// It is a pure read surface over checklist_instances.
type ReportFeed struct {
	db *gorm.DB
}

func NewReportFeed(db *gorm.DB) *ReportFeed {
	return &ReportFeed{db: db}
}

func (s *ReportFeed) DailyScores(ctx context.Context, orgID string, teamID *string, date time.Time) ([]dto.DailyTeamScore, error) {
	sql := `
		SELECT
			ci.team_id AS team_id,
			COALESCE(t.name, 'Unassigned') AS team_name,
			DATE_FORMAT(ci.execution_date, '%Y-%m-%d') AS date,
			COUNT(*) AS total_instances,
			SUM(CASE WHEN ci.status IN ('completed', 'verified') THEN 1 ELSE 0 END) AS executed_instances,
			SUM(CASE WHEN ci.status = 'verified' THEN 1 ELSE 0 END) AS verified_instances,
			COALESCE(AVG(ci.execution_score), 0) AS avg_execution_score,
			COALESCE(AVG(ci.verification_score), 0) AS avg_verification_score,
			ROUND(SUM(CASE WHEN ci.status IN ('completed', 'verified') THEN 1 ELSE 0 END) * 100 / COUNT(*), 1) AS execution_pct,
			ROUND(SUM(CASE WHEN ci.status = 'verified' THEN 1 ELSE 0 END) * 100 / COUNT(*), 1) AS verification_pct
		FROM checklist_instances ci
		LEFT JOIN teams t ON t.team_id = ci.team_id
		WHERE ci.org_id = ? AND ci.execution_date = ?`
	args := []interface{}{orgID, date}
	if teamID != nil {
		sql += ` AND ci.team_id = ?`
		args = append(args, *teamID)
	}
	sql += `
		GROUP BY ci.team_id, t.name, ci.execution_date
		ORDER BY team_name ASC`

	var rows []dto.DailyTeamScore
	err := s.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error
	return rows, err
}

func (s *ReportFeed) WeeklySummary(ctx context.Context, orgID string, teamID *string, weekStart time.Time) ([]dto.WeeklyTeamSummary, error) {
	weekEnd := weekStart.AddDate(0, 0, 7)
	sql := `
		SELECT
			ci.team_id AS team_id,
			COALESCE(t.name, 'Unassigned') AS team_name,
			DATE_FORMAT(?, '%Y-%m-%d') AS week_start,
			COUNT(*) AS total_checklists,
			SUM(CASE WHEN ci.status = 'verified' THEN 1 ELSE 0 END) AS approved_checklists,
			COALESCE(AVG(ci.execution_score), 0) AS avg_execution_score,
			COALESCE(AVG(ci.verification_score), 0) AS avg_verification_score,
			COALESCE(AVG(ci.total_score), 0) AS avg_total_score,
			ROUND(AVG(CASE
				WHEN ci.completed_at IS NULL THEN 0
				WHEN tpl.end_time IS NULL THEN 1
				WHEN TIME(ci.completed_at) <= CONCAT(tpl.end_time, ':00') THEN 1
				ELSE 0
			END) * 100, 1) AS on_time_rate
		FROM checklist_instances ci
		LEFT JOIN teams t ON t.team_id = ci.team_id
		JOIN checklist_templates tpl ON tpl.template_id = ci.template_id
		WHERE ci.org_id = ? AND ci.execution_date >= ? AND ci.execution_date < ?`
	args := []interface{}{weekStart, orgID, weekStart, weekEnd}
	if teamID != nil {
		sql += ` AND ci.team_id = ?`
		args = append(args, *teamID)
	}
	sql += `
		GROUP BY ci.team_id, t.name
		ORDER BY team_name ASC`

	var rows []dto.WeeklyTeamSummary
	err := s.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error
	return rows, err
}

func (s *ReportFeed) TeamComparison(ctx context.Context, orgID string, weekStart time.Time) ([]dto.TeamComparisonRow, error) {
	weekEnd := weekStart.AddDate(0, 0, 7)
	sql := `
		SELECT
			ci.team_id AS team_id,
			COALESCE(t.name, 'Unassigned') AS team_name,
			COUNT(*) AS total_checklists,
			SUM(CASE WHEN ci.status = 'verified' THEN 1 ELSE 0 END) AS verified_count,
			COALESCE(AVG(ci.total_score), 0) AS avg_total_score,
			ROUND(SUM(CASE WHEN ci.status IN ('completed', 'verified') THEN 1 ELSE 0 END) * 100 / COUNT(*), 1) AS completion_pct,
			RANK() OVER (ORDER BY COALESCE(AVG(ci.total_score), 0) DESC) AS ` + "`rank`" + `
		FROM checklist_instances ci
		LEFT JOIN teams t ON t.team_id = ci.team_id
		WHERE ci.org_id = ? AND ci.execution_date >= ? AND ci.execution_date < ?
		GROUP BY ci.team_id, t.name
		ORDER BY ` + "`rank`" + ` ASC, team_name ASC`

	var rows []dto.TeamComparisonRow
	err := s.db.WithContext(ctx).Raw(sql, orgID, weekStart, weekEnd).Scan(&rows).Error
	return rows, err
}
