package dto

// DailyTeamScore is one team's aggregate for one calendar date.
type DailyTeamScore struct {
	TeamID               *string `json:"team_id" gorm:"column:team_id"`
	TeamName             string  `json:"team_name" gorm:"column:team_name"`
	Date                 string  `json:"date" gorm:"column:date"`
	TotalInstances       int     `json:"total_instances" gorm:"column:total_instances"`
	ExecutedInstances    int     `json:"executed_instances" gorm:"column:executed_instances"`
	VerifiedInstances    int     `json:"verified_instances" gorm:"column:verified_instances"`
	AvgExecutionScore    float64 `json:"avg_execution_score" gorm:"column:avg_execution_score"`
	AvgVerificationScore float64 `json:"avg_verification_score" gorm:"column:avg_verification_score"`
	ExecutionPct         float64 `json:"execution_pct" gorm:"column:execution_pct"`
	VerificationPct      float64 `json:"verification_pct" gorm:"column:verification_pct"`
}

// WeeklyTeamSummary is one team's aggregate for a seven-day span.
type WeeklyTeamSummary struct {
	TeamID               *string `json:"team_id" gorm:"column:team_id"`
	TeamName             string  `json:"team_name" gorm:"column:team_name"`
	WeekStart            string  `json:"week_start" gorm:"column:week_start"`
	TotalChecklists      int     `json:"total_checklists" gorm:"column:total_checklists"`
	ApprovedChecklists   int     `json:"approved_checklists" gorm:"column:approved_checklists"`
	AvgExecutionScore    float64 `json:"avg_execution_score" gorm:"column:avg_execution_score"`
	AvgVerificationScore float64 `json:"avg_verification_score" gorm:"column:avg_verification_score"`
	AvgTotalScore        float64 `json:"avg_total_score" gorm:"column:avg_total_score"`
	OnTimeRate           float64 `json:"on_time_rate" gorm:"column:on_time_rate"`
}

// TeamComparisonRow ranks teams against each other for one week.
type TeamComparisonRow struct {
	TeamID          *string `json:"team_id" gorm:"column:team_id"`
	TeamName        string  `json:"team_name" gorm:"column:team_name"`
	TotalChecklists int     `json:"total_checklists" gorm:"column:total_checklists"`
	VerifiedCount   int     `json:"verified_count" gorm:"column:verified_count"`
	AvgTotalScore   float64 `json:"avg_total_score" gorm:"column:avg_total_score"`
	CompletionPct   float64 `json:"completion_pct" gorm:"column:completion_pct"`
	Rank            int     `json:"rank" gorm:"column:rank"`
}
