package checklist

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"checkops/checklist"
	"checkops/dto"
)

// ExecuteChecklist records item results on an instance. submit=false saves
// partial progress; submit=true finalizes the run.
func ExecuteChecklist(c *gin.Context, deps Deps) {
	actor := c.MustGet("actor").(checklist.Actor)

	var req dto.ExecuteChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	results := make([]checklist.ItemResult, 0, len(req.Items))
	for _, item := range req.Items {
		results = append(results, checklist.ItemResult{
			ItemID:    item.ItemID,
			Status:    item.Status,
			Note:      item.Note,
			PhotoURLs: item.PhotoURLs,
		})
	}

	inst, err := deps.Execution.Execute(c, c.Param("instanceid"), results, req.Submit, actor, deps.Location)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	message := "Checklist progress saved"
	if req.Submit {
		message = "Checklist submitted successfully"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "checklist": inst})
}
