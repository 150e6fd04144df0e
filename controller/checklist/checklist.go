package checklist

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"checkops/checklist"
	"checkops/middleware"
	"checkops/model"
)

// Deps bundles what the checklist routes need.
type Deps struct {
	Instances    *checklist.InstanceService
	Execution    *checklist.ExecutionService
	Verification *checklist.VerificationService
	Location     *time.Location
	JWTSecret    string
	HistoryLimit int
}

func ChecklistController(router *gin.Engine, deps Deps) {
	routes := router.Group("/checklist", middleware.AccessTokenMiddleware(deps.JWTSecret))
	{
		routes.GET("/today", func(c *gin.Context) {
			TodayChecklists(c, deps)
		})
		routes.POST("/today", func(c *gin.Context) {
			CreateTodayChecklist(c, deps)
		})
		routes.GET("/date/:date", func(c *gin.Context) {
			ChecklistsByDate(c, deps)
		})
		routes.GET("/history", func(c *gin.Context) {
			ChecklistHistory(c, deps)
		})
		routes.GET("/instance/:instanceid", func(c *gin.Context) {
			GetChecklistInstance(c, deps)
		})
		routes.GET("/instance/:instanceid/progress", func(c *gin.Context) {
			ChecklistProgress(c, deps)
		})
		routes.GET("/instance/:instanceid/window", func(c *gin.Context) {
			ChecklistWindow(c, deps)
		})
		routes.PUT("/instance/:instanceid/execute", func(c *gin.Context) {
			ExecuteChecklist(c, deps)
		})
		routes.PUT("/instance/:instanceid/verify", middleware.ManagerMiddleware(), func(c *gin.Context) {
			VerifyChecklist(c, deps)
		})
		routes.PUT("/instance/:instanceid/completeverify", middleware.ManagerMiddleware(), func(c *gin.Context) {
			CompleteAndVerifyChecklist(c, deps)
		})
		routes.GET("/verifications/pending", middleware.ManagerMiddleware(), func(c *gin.Context) {
			PendingVerifications(c, deps)
		})
	}
}

// respondDomainError maps workflow errors onto HTTP statuses. Unmapped errors
// are internal.
func respondDomainError(c *gin.Context, err error) {
	var incomplete *checklist.IncompleteRequiredItemsError
	switch {
	case errors.Is(err, checklist.ErrTemplateNotFound),
		errors.Is(err, checklist.ErrInstanceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, checklist.ErrInvalidState),
		errors.Is(err, checklist.ErrNotScheduledToday),
		errors.Is(err, checklist.ErrWindowClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, checklist.ErrSelfVerification):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &incomplete):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         err.Error(),
			"missing_items": incomplete.MissingItemIDs,
		})
	case errors.Is(err, checklist.ErrUnknownItem),
		errors.Is(err, checklist.ErrInvalidItemStatus),
		errors.Is(err, checklist.ErrInvalidDecision):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()})
	}
}

// callerAssignees builds the assignee identities the token covers: the user
// plus their team, when one is set.
func callerAssignees(c *gin.Context) []checklist.Assignee {
	userID := c.MustGet("userId").(string)
	assignees := []checklist.Assignee{checklist.UserAssignee(userID)}
	if teamID, ok := c.Get("teamId"); ok {
		assignees = append(assignees, checklist.Assignee{Type: model.AssigneeTeam, ID: teamID.(string)})
	}
	return assignees
}
