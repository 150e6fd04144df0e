package report

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"checkops/checklist"
	"checkops/middleware"
)

// Deps bundles what the report routes need.
type Deps struct {
	Feed      checklist.ReportingFeed
	Location  *time.Location
	JWTSecret string
}

func ReportController(router *gin.Engine, deps Deps) {
	routes := router.Group("/report", middleware.AccessTokenMiddleware(deps.JWTSecret), middleware.ManagerMiddleware())
	{
		routes.GET("/checklist/daily", func(c *gin.Context) {
			DailyChecklistReport(c, deps)
		})
		routes.GET("/checklist/weekly", func(c *gin.Context) {
			WeeklyChecklistReport(c, deps)
		})
		routes.GET("/checklist/teams", func(c *gin.Context) {
			TeamComparisonReport(c, deps)
		})
	}
}

// parseDate reads ?date= as YYYY-MM-DD, defaulting to today.
func parseDate(c *gin.Context, loc *time.Location) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return d, true
}

// weekStartOf snaps a date back to its Monday.
func weekStartOf(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func teamFilter(c *gin.Context) *string {
	if v := c.Query("team_id"); v != "" {
		return &v
	}
	return nil
}

// DailyChecklistReport aggregates one calendar date per team.
func DailyChecklistReport(c *gin.Context, deps Deps) {
	orgID := c.MustGet("orgId").(string)

	date, ok := parseDate(c, deps.Location)
	if !ok {
		return
	}

	rows, err := deps.Feed.DailyScores(c, orgID, teamFilter(c), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"date": date.Format("2006-01-02"), "teams": rows})
}

// WeeklyChecklistReport aggregates the week containing ?date= per team.
func WeeklyChecklistReport(c *gin.Context, deps Deps) {
	orgID := c.MustGet("orgId").(string)

	date, ok := parseDate(c, deps.Location)
	if !ok {
		return
	}
	weekStart := weekStartOf(date)

	rows, err := deps.Feed.WeeklySummary(c, orgID, teamFilter(c), weekStart)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"week_start": weekStart.Format("2006-01-02"), "teams": rows})
}

// TeamComparisonReport ranks the org's teams for the week containing ?date=.
func TeamComparisonReport(c *gin.Context, deps Deps) {
	orgID := c.MustGet("orgId").(string)

	date, ok := parseDate(c, deps.Location)
	if !ok {
		return
	}
	weekStart := weekStartOf(date)

	rows, err := deps.Feed.TeamComparison(c, orgID, weekStart)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"week_start": weekStart.Format("2006-01-02"), "ranking": rows})
}
