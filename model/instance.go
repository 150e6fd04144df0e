package model

import "time"

// Instance lifecycle. Rejection sends the instance back to pending so the
// assignee can redo the disputed items.
const (
	InstancePending    = "pending"
	InstanceInProgress = "in_progress"
	InstanceCompleted  = "completed"
	InstanceVerified   = "verified"
)

// Per-item result values, used for both executed_status and verified_status.
const (
	ItemUnchecked = "unchecked"
	ItemPass      = "pass"
	ItemFail      = "fail"
	ItemNA        = "na"
)

// ValidItemStatus reports whether s is a submittable item result.
func ValidItemStatus(s string) bool {
	return s == ItemPass || s == ItemFail || s == ItemNA
}

// ChecklistInstance is one dated occurrence of a template for one assignee.
// The composite unique index guarantees at most one instance per
// (template, assignee, date); concurrent creation converges on one row.
type ChecklistInstance struct {
	InstanceID   string    `gorm:"column:instance_id;type:varchar(36);primaryKey" json:"instance_id"`
	TemplateID   string    `gorm:"column:template_id;type:varchar(36);not null;uniqueIndex:idx_instance_key" json:"template_id"`
	OrgID        string    `gorm:"column:org_id;type:varchar(36);not null;index" json:"org_id"`
	TeamID       *string   `gorm:"column:team_id;type:varchar(36);index" json:"team_id,omitempty"`
	AssigneeType string    `gorm:"column:assignee_type;type:varchar(8);not null;uniqueIndex:idx_instance_key" json:"assignee_type"`
	AssigneeID   string    `gorm:"column:assignee_id;type:varchar(36);not null;uniqueIndex:idx_instance_key" json:"assignee_id"`
	Date         time.Time `gorm:"column:execution_date;type:date;not null;uniqueIndex:idx_instance_key" json:"execution_date"`

	Status      string  `gorm:"column:status;type:varchar(16);not null;default:'pending'" json:"status"`
	ManagerNote *string `gorm:"column:manager_note;type:text" json:"manager_note,omitempty"`

	StartedAt   *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	VerifiedAt  *time.Time `gorm:"column:verified_at" json:"verified_at,omitempty"`
	RejectedAt  *time.Time `gorm:"column:rejected_at" json:"rejected_at,omitempty"`
	VerifiedBy  *string    `gorm:"column:verified_by;type:varchar(36)" json:"verified_by,omitempty"`

	ExecutionScore    *int `gorm:"column:execution_score" json:"execution_score,omitempty"`
	VerificationScore *int `gorm:"column:verification_score" json:"verification_score,omitempty"`
	TotalScore        *int `gorm:"column:total_score" json:"total_score,omitempty"`

	// Stamped by the scheduler once the upcoming-window reminder has been
	// pushed, so the every-minute scan stays idempotent.
	UpcomingNotifiedAt *time.Time `gorm:"column:upcoming_notified_at" json:"upcoming_notified_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`

	Template *ChecklistTemplate       `gorm:"foreignKey:TemplateID;references:TemplateID" json:"template,omitempty"`
	Entries  []ChecklistExecutionItem `gorm:"foreignKey:InstanceID;references:InstanceID" json:"entries,omitempty"`
}

func (ChecklistInstance) TableName() string {
	return "checklist_instances"
}

// ChecklistExecutionItem is one item's result within one instance. The entry
// set is frozen to the template's items when the instance is created.
type ChecklistExecutionItem struct {
	EntryID    string `gorm:"column:entry_id;type:varchar(36);primaryKey" json:"entry_id"`
	InstanceID string `gorm:"column:instance_id;type:varchar(36);not null;uniqueIndex:idx_entry_key" json:"instance_id"`
	ItemID     string `gorm:"column:item_id;type:varchar(36);not null;uniqueIndex:idx_entry_key" json:"item_id"`
	Position   int    `gorm:"column:position;not null" json:"position"`

	ExecutedStatus string      `gorm:"column:executed_status;type:varchar(16);not null;default:'unchecked'" json:"executed_status"`
	Note           *string     `gorm:"column:note;type:text" json:"note,omitempty"`
	PhotoURLs      StringArray `gorm:"column:photo_urls;type:text" json:"photo_urls,omitempty"`
	ExecutedAt     *time.Time  `gorm:"column:executed_at" json:"executed_at,omitempty"`

	IsVerified     bool       `gorm:"column:is_verified;not null;default:false" json:"is_verified"`
	VerifiedStatus string     `gorm:"column:verified_status;type:varchar(16);not null;default:'unchecked'" json:"verified_status"`
	VerifiedAt     *time.Time `gorm:"column:verified_at" json:"verified_at,omitempty"`
	VerifiedBy     *string    `gorm:"column:verified_by;type:varchar(36)" json:"verified_by,omitempty"`
}

func (ChecklistExecutionItem) TableName() string {
	return "checklist_execution_items"
}
