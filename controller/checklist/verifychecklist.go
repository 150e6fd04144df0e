package checklist

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"checkops/checklist"
	"checkops/dto"
)

// VerifyChecklist records the verifier's per-item results and the
// approve/reject decision on a completed instance.
func VerifyChecklist(c *gin.Context, deps Deps) {
	actor := c.MustGet("actor").(checklist.Actor)

	var req dto.VerifyChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	results := make([]checklist.ItemVerification, 0, len(req.Items))
	for _, item := range req.Items {
		results = append(results, checklist.ItemVerification{
			ItemID: item.ItemID,
			Status: item.Status,
			Note:   item.Note,
		})
	}

	inst, err := deps.Verification.Verify(c, c.Param("instanceid"), results, req.Decision, req.ManagerNote, actor)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	message := "Checklist approved"
	if req.Decision == checklist.DecisionReject {
		message = "Checklist rejected and returned for rework"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "checklist": inst})
}

// CompleteAndVerifyChecklist is the manager one-shot: a final submit followed
// by an approving verification in one call, for checklists the manager
// executed themselves.
func CompleteAndVerifyChecklist(c *gin.Context, deps Deps) {
	actor := c.MustGet("actor").(checklist.Actor)

	var req dto.CompleteAndVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	results := make([]checklist.ItemResult, 0, len(req.Items))
	verifications := make([]checklist.ItemVerification, 0, len(req.Items))
	for _, item := range req.Items {
		results = append(results, checklist.ItemResult{
			ItemID:    item.ItemID,
			Status:    item.Status,
			Note:      item.Note,
			PhotoURLs: item.PhotoURLs,
		})
		verifications = append(verifications, checklist.ItemVerification{
			ItemID: item.ItemID,
			Status: item.Status,
		})
	}

	instanceID := c.Param("instanceid")
	if _, err := deps.Execution.Execute(c, instanceID, results, true, actor, deps.Location); err != nil {
		respondDomainError(c, err)
		return
	}

	inst, err := deps.Verification.Verify(c, instanceID, verifications, checklist.DecisionApprove, req.ManagerNote, actor)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Checklist completed and verified", "checklist": inst})
}

// PendingVerifications lists the org's completed instances awaiting a
// verifier.
func PendingVerifications(c *gin.Context, deps Deps) {
	orgID := c.MustGet("orgId").(string)

	instances, err := deps.Instances.ListPendingVerification(c, orgID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"checklists": instances})
}
