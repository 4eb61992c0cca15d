package entities

import (
	"time"
)

// Kid is a child attached to a parent account on providers that expose a
// family view.
type Kid struct {
	ID         string    `gorm:"primaryKey;size:16" json:"id"`
	FirstName  string    `gorm:"size:100" json:"first_name"`
	LastName   string    `gorm:"size:100" json:"last_name"`
	ClassName  string    `gorm:"size:100" json:"class_name,omitempty"`
	SchoolName string    `gorm:"size:256" json:"school_name,omitempty"`
	BirthDate  time.Time `json:"birth_date,omitempty"`

	CreatedByAccount string    `gorm:"index;size:36" json:"created_by_account"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Kid) TableName() string {
	return "kids"
}
