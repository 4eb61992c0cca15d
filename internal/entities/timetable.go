package entities

import (
	"time"
)

type CourseStatus string

const (
	CourseStatusRegular  CourseStatus = "regular"
	CourseStatusCanceled CourseStatus = "canceled"
	CourseStatusModified CourseStatus = "modified"
	CourseStatusTest     CourseStatus = "test"
)

// CourseDay is one day of the timetable. Courses are replace-on-sync
// children, like attendance details.
type CourseDay struct {
	ID   string    `gorm:"primaryKey;size:16" json:"id"`
	Date time.Time `gorm:"index" json:"date"`

	Courses []Course `gorm:"foreignKey:CourseDayID" json:"courses,omitempty"`

	CreatedByAccount string    `gorm:"index;size:36" json:"created_by_account"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Course struct {
	ID          string       `gorm:"primaryKey;size:16" json:"id"`
	CourseDayID string       `gorm:"index;size:16" json:"course_day_id"`
	Subject     string       `gorm:"size:128" json:"subject"`
	Teacher     string       `gorm:"size:128" json:"teacher,omitempty"`
	Room        string       `gorm:"size:64" json:"room,omitempty"`
	StartsAt    time.Time    `json:"starts_at"`
	EndsAt      time.Time    `json:"ends_at"`
	Status      CourseStatus `gorm:"size:20;default:'regular'" json:"status"`
	StatusText  string       `gorm:"size:128" json:"status_text,omitempty"`
	Color       string       `gorm:"size:10" json:"color,omitempty"`

	CreatedByAccount string `gorm:"index;size:36" json:"created_by_account"`
}

func (CourseDay) TableName() string {
	return "course_days"
}

func (Course) TableName() string {
	return "courses"
}
