package checklist

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"checkops/checklist"
	"checkops/dto"
)

// TodayChecklists materializes and returns the caller's checklists for today.
// Missing instances for scheduled templates are created on the fly, so the
// listing is complete even before the daily sweep has run.
func TodayChecklists(c *gin.Context, deps Deps) {
	orgID := c.MustGet("orgId").(string)

	instances, err := deps.Instances.MaterializeForAssignees(
		c, orgID, callerAssignees(c), time.Now(), deps.Location)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"checklists": instances})
}

// CreateTodayChecklist materializes today's instance for one template and
// assignee on demand.
func CreateTodayChecklist(c *gin.Context, deps Deps) {
	orgID := c.MustGet("orgId").(string)

	var req dto.GetOrCreateTodayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	assignee := checklist.Assignee{Type: req.AssigneeType, ID: req.AssigneeID}
	inst, err := deps.Instances.GetOrCreateForToday(
		c, orgID, req.TemplateID, assignee, time.Now(), deps.Location)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"checklist": inst})
}

// ChecklistsByDate is the org-wide listing for one calendar date, optionally
// filtered by team via ?team_id=.
func ChecklistsByDate(c *gin.Context, deps Deps) {
	orgID := c.MustGet("orgId").(string)

	date, err := time.ParseInLocation("2006-01-02", c.Param("date"), deps.Location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	var teamID *string
	if v := c.Query("team_id"); v != "" {
		teamID = &v
	}

	instances, err := deps.Instances.ListForDate(c, orgID, teamID, date, deps.Location)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"checklists": instances})
}

// ChecklistHistory lists the caller's recent instances, newest first. The
// assignee defaults to the caller but managers may pass ?assignee_type= and
// ?assignee_id= to inspect someone else's history.
func ChecklistHistory(c *gin.Context, deps Deps) {
	orgID := c.MustGet("orgId").(string)
	userID := c.MustGet("userId").(string)

	assignee := checklist.UserAssignee(userID)
	if at, aid := c.Query("assignee_type"), c.Query("assignee_id"); at != "" && aid != "" {
		role, _ := c.Get("role")
		if role != "manager" && role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		assignee = checklist.Assignee{Type: at, ID: aid}
	}

	instances, err := deps.Instances.ListHistory(c, orgID, assignee, deps.HistoryLimit)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"checklists": instances})
}
