package entities

import (
	"time"
)

// GradeScore is the tri-state score used everywhere a numeric mark may be
// absent or replaced by a status ("Abs", "Disp", "N.Not"). A disabled score
// must be skipped by any aggregate computation.
type GradeScore struct {
	Value    *float64 `json:"value,omitempty"`
	Status   string   `gorm:"size:32" json:"status,omitempty"`
	Disabled bool     `json:"disabled"`
}

// Usable reports whether the score carries a number that may enter an
// average.
func (s GradeScore) Usable() bool {
	return !s.Disabled && s.Value != nil
}

// Period is a grading period (trimester, semester) as declared by the
// provider.
type Period struct {
	ID        string    `gorm:"primaryKey;size:16" json:"id"`
	Name      string    `gorm:"index;size:100" json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	CreatedByAccount string    `gorm:"index;size:36" json:"created_by_account"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Subject is a per-period subject line with its averages. The dedup natural
// key is name + period.
type Subject struct {
	ID       string `gorm:"primaryKey;size:16" json:"id"`
	PeriodID string `gorm:"index;size:16" json:"period_id"`
	Name     string `gorm:"index;size:128" json:"name"`

	Average      GradeScore `gorm:"embedded;embeddedPrefix:average_" json:"average"`
	ClassAverage GradeScore `gorm:"embedded;embeddedPrefix:class_average_" json:"class_average"`
	Maximum      GradeScore `gorm:"embedded;embeddedPrefix:maximum_" json:"maximum"`
	Minimum      GradeScore `gorm:"embedded;embeddedPrefix:minimum_" json:"minimum"`
	OutOf        GradeScore `gorm:"embedded;embeddedPrefix:out_of_" json:"out_of"`

	CreatedByAccount string    `gorm:"index;size:36" json:"created_by_account"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Grade is a single mark.
type Grade struct {
	ID          string    `gorm:"primaryKey;size:16" json:"id"`
	PeriodID    string    `gorm:"index;size:16" json:"period_id"`
	SubjectID   string    `gorm:"index;size:16" json:"subject_id"`
	SubjectName string    `gorm:"size:128" json:"subject_name"`
	Description string    `gorm:"size:512" json:"description"`
	GivenAt     time.Time `gorm:"index" json:"given_at"`
	Coefficient float64   `gorm:"default:1" json:"coefficient"`

	Student GradeScore `gorm:"embedded;embeddedPrefix:student_" json:"student"`
	OutOf   GradeScore `gorm:"embedded;embeddedPrefix:out_of_" json:"out_of"`
	Average GradeScore `gorm:"embedded;embeddedPrefix:average_" json:"average"`
	Maximum GradeScore `gorm:"embedded;embeddedPrefix:maximum_" json:"maximum"`
	Minimum GradeScore `gorm:"embedded;embeddedPrefix:minimum_" json:"minimum"`

	Bonus    bool `gorm:"default:false" json:"bonus"`
	Optional bool `gorm:"default:false" json:"optional"`

	CreatedByAccount string    `gorm:"index;size:36" json:"created_by_account"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PeriodGrades is the in-memory composite a plugin returns for one period.
// It is not a table; its parts are reconciled into their own tables.
type PeriodGrades struct {
	Period   Period    `json:"period"`
	Subjects []Subject `json:"subjects"`
	Grades   []Grade   `json:"grades"`

	OverallAverage      GradeScore `json:"overall_average"`
	ClassOverallAverage GradeScore `json:"class_overall_average"`
}

func (Period) TableName() string {
	return "periods"
}

func (Subject) TableName() string {
	return "subjects"
}

func (Grade) TableName() string {
	return "grades"
}
