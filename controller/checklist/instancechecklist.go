package checklist

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"checkops/checklist"
)

// GetChecklistInstance returns one instance with its template and entries.
func GetChecklistInstance(c *gin.Context, deps Deps) {
	orgID := c.MustGet("orgId").(string)

	inst, err := deps.Instances.GetByID(c, c.Param("instanceid"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if inst.OrgID != orgID {
		c.JSON(http.StatusNotFound, gin.H{"error": checklist.ErrInstanceNotFound.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"checklist": inst})
}

// ChecklistProgress returns the derived completion counters of an instance.
func ChecklistProgress(c *gin.Context, deps Deps) {
	orgID := c.MustGet("orgId").(string)

	inst, err := deps.Instances.GetByID(c, c.Param("instanceid"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if inst.OrgID != orgID {
		c.JSON(http.StatusNotFound, gin.H{"error": checklist.ErrInstanceNotFound.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": checklist.CalculateProgress(inst)})
}

// ChecklistWindow evaluates the instance's time window right now.
func ChecklistWindow(c *gin.Context, deps Deps) {
	orgID := c.MustGet("orgId").(string)

	inst, err := deps.Instances.GetByID(c, c.Param("instanceid"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if inst.OrgID != orgID {
		c.JSON(http.StatusNotFound, gin.H{"error": checklist.ErrInstanceNotFound.Error()})
		return
	}

	ws := checklist.IsWithinTimeWindow(inst, time.Now(), deps.Location)
	c.JSON(http.StatusOK, gin.H{"window": ws})
}
