package model

// Team is read for report labels and notification routing; team
// administration lives in another service.
type Team struct {
	TeamID    string  `gorm:"column:team_id;type:varchar(36);primaryKey" json:"team_id"`
	OrgID     string  `gorm:"column:org_id;type:varchar(36);not null;index" json:"org_id"`
	Name      string  `gorm:"column:name;type:varchar(255);not null" json:"name"`
	ManagerID *string `gorm:"column:manager_id;type:varchar(36)" json:"manager_id,omitempty"`
}

func (Team) TableName() string {
	return "teams"
}
