package model

import "time"

// User is the slice of the identity table this service reads: report joins
// need names, push dispatch needs emails for FCM token lookup. Account
// administration lives in another service.
type User struct {
	UserID   string  `gorm:"column:user_id;type:varchar(36);primaryKey" json:"user_id"`
	OrgID    string  `gorm:"column:org_id;type:varchar(36);not null;index" json:"org_id"`
	TeamID   *string `gorm:"column:team_id;type:varchar(36)" json:"team_id,omitempty"`
	Name     string  `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Email    string  `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`
	Role     string  `gorm:"column:role;type:varchar(16);not null;default:'member'" json:"role"` // member | manager | admin
	CreateAt time.Time `gorm:"column:create_at;not null" json:"create_at"`
}

func (User) TableName() string {
	return "user"
}
