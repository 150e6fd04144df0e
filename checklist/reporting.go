package checklist

import (
	"context"
	"time"

	"checkops/dto"
)

// ReportingFeed is the read-only aggregation surface consumed by the report
// endpoints. It only reads persisted instance history — statuses, scores and
// timestamps — and never mutates workflow state.
type ReportingFeed interface {
	// DailyScores aggregates one calendar date per team.
	DailyScores(ctx context.Context, orgID string, teamID *string, date time.Time) ([]dto.DailyTeamScore, error)
	// WeeklySummary aggregates the seven days starting at weekStart per team.
	WeeklySummary(ctx context.Context, orgID string, teamID *string, weekStart time.Time) ([]dto.WeeklyTeamSummary, error)
	// TeamComparison ranks an org's teams over the week starting at weekStart.
	TeamComparison(ctx context.Context, orgID string, weekStart time.Time) ([]dto.TeamComparisonRow, error)
}
