package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringArray is stored as a JSON array in a TEXT column.
type StringArray []string

func (a *StringArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("StringArray.Scan: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*a = StringArray{}
		return nil
	}
	return json.Unmarshal(raw, a)
}

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Contains reports whether s is one of the array's elements.
func (a StringArray) Contains(s string) bool {
	for _, v := range a {
		if v == s {
			return true
		}
	}
	return false
}

// ChecklistTemplate is the reusable definition of a recurring checklist.
// Templates are administered elsewhere; this service only reads them and
// freezes their item set onto instances at creation time.
type ChecklistTemplate struct {
	TemplateID    string  `gorm:"column:template_id;type:varchar(36);primaryKey" json:"template_id"`
	OrgID         string  `gorm:"column:org_id;type:varchar(36);not null;index" json:"org_id"`
	TeamID        *string `gorm:"column:team_id;type:varchar(36)" json:"team_id,omitempty"`
	Name          string  `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Description   *string `gorm:"column:description;type:text" json:"description,omitempty"`
	Priority      string  `gorm:"column:priority;type:varchar(16);not null;default:'medium'" json:"priority"` // low | medium | high | critical
	StartTime     *string `gorm:"column:start_time;type:varchar(5)" json:"start_time,omitempty"`              // "HH:MM"
	EndTime       *string `gorm:"column:end_time;type:varchar(5)" json:"end_time,omitempty"`
	CutoffTime    *string `gorm:"column:cutoff_time;type:varchar(5)" json:"cutoff_time,omitempty"`
	EnforceCutoff bool    `gorm:"column:enforce_cutoff;not null;default:false" json:"enforce_cutoff"`

	// Empty ScheduledDays means the checklist runs every day.
	ScheduledDays           StringArray `gorm:"column:scheduled_days;type:text" json:"scheduled_days"`
	RequireVerification     bool        `gorm:"column:require_verification;not null;default:false" json:"require_verification"`
	RequireDistinctVerifier bool        `gorm:"column:require_distinct_verifier;not null;default:true" json:"require_distinct_verifier"`
	ScoringEnabled          bool        `gorm:"column:scoring_enabled;not null;default:true" json:"scoring_enabled"`

	// Weight of the verification score in the total, 0..1. 0.5 means
	// execution and verification count equally.
	VerificationWeight float64 `gorm:"column:verification_weight;not null;default:0.5" json:"verification_weight"`

	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedBy string    `gorm:"column:created_by;type:varchar(36);not null" json:"created_by"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`

	Items       []ChecklistItem       `gorm:"foreignKey:TemplateID;references:TemplateID" json:"items,omitempty"`
	Assignments []ChecklistAssignment `gorm:"foreignKey:TemplateID;references:TemplateID" json:"assignments,omitempty"`
}

func (ChecklistTemplate) TableName() string {
	return "checklist_templates"
}

// ChecklistItem is one checkable unit inside a template.
type ChecklistItem struct {
	ItemID               string  `gorm:"column:item_id;type:varchar(36);primaryKey" json:"item_id"`
	TemplateID           string  `gorm:"column:template_id;type:varchar(36);not null;index" json:"template_id"`
	OrgID                string  `gorm:"column:org_id;type:varchar(36);not null" json:"org_id"`
	Title                string  `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Description          *string `gorm:"column:description;type:text" json:"description,omitempty"`
	Position             int     `gorm:"column:position;not null" json:"position"`
	IsRequired           bool    `gorm:"column:is_required;not null;default:true" json:"is_required"`
	VerificationRequired bool    `gorm:"column:verification_required;not null;default:false" json:"verification_required"`
}

func (ChecklistItem) TableName() string {
	return "checklist_items"
}

// Assignee types for ChecklistAssignment and ChecklistInstance.
const (
	AssigneeUser = "user"
	AssigneeTeam = "team"
)

// ChecklistAssignment binds a template to a user or a team. The scheduler
// materializes one instance per assignment per scheduled day.
type ChecklistAssignment struct {
	AssignmentID string    `gorm:"column:assignment_id;type:varchar(36);primaryKey" json:"assignment_id"`
	TemplateID   string    `gorm:"column:template_id;type:varchar(36);not null;index" json:"template_id"`
	OrgID        string    `gorm:"column:org_id;type:varchar(36);not null" json:"org_id"`
	AssigneeType string    `gorm:"column:assignee_type;type:varchar(8);not null" json:"assignee_type"` // user | team
	AssigneeID   string    `gorm:"column:assignee_id;type:varchar(36);not null" json:"assignee_id"`
	CreatedBy    string    `gorm:"column:created_by;type:varchar(36);not null" json:"created_by"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (ChecklistAssignment) TableName() string {
	return "checklist_assignments"
}
