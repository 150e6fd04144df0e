package dto

// ItemResultRequest is one item outcome inside an execute call.
type ItemResultRequest struct {
	ItemID    string   `json:"item_id" binding:"required"`
	Status    string   `json:"status" binding:"required,oneof=pass fail na"`
	Note      *string  `json:"note"`
	PhotoURLs []string `json:"photo_urls"`
}

// ExecuteChecklistRequest carries a partial save (submit=false) or the final
// submission (submit=true) of a checklist run.
type ExecuteChecklistRequest struct {
	Items  []ItemResultRequest `json:"items" binding:"required"`
	Submit bool                `json:"submit"`
}

// ItemVerificationRequest is one item re-check inside a verify call.
type ItemVerificationRequest struct {
	ItemID string  `json:"item_id" binding:"required"`
	Status string  `json:"status" binding:"required,oneof=pass fail na"`
	Note   *string `json:"note"`
}

// VerifyChecklistRequest carries the verifier's per-item results and the
// approve/reject decision.
type VerifyChecklistRequest struct {
	Items       []ItemVerificationRequest `json:"items"`
	Decision    string                    `json:"decision" binding:"required,oneof=approve reject"`
	ManagerNote *string                   `json:"manager_note"`
}

// CompleteAndVerifyRequest is the manager one-shot: execute with submit
// semantics, then an approve verification, in one call.
type CompleteAndVerifyRequest struct {
	Items       []ItemResultRequest `json:"items" binding:"required"`
	ManagerNote *string             `json:"manager_note"`
}

// GetOrCreateTodayRequest materializes today's instance for one template and
// assignee on demand, e.g. when a manager opens a checklist early.
type GetOrCreateTodayRequest struct {
	TemplateID   string `json:"template_id" binding:"required"`
	AssigneeType string `json:"assignee_type" binding:"required,oneof=user team"`
	AssigneeID   string `json:"assignee_id" binding:"required"`
}
