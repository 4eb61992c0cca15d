package entities

import (
	"time"
)

// Attendance groups everything a provider reports about presence for one
// grading period. Its children have no stable provider-side identity, so a
// re-sync fully replaces them (see the attendance reconciler).
type Attendance struct {
	ID         string `gorm:"primaryKey;size:16" json:"id"`
	PeriodName string `gorm:"index;size:100" json:"period_name"`

	Delays       []Delay       `gorm:"foreignKey:AttendanceID" json:"delays,omitempty"`
	Absences     []Absence     `gorm:"foreignKey:AttendanceID" json:"absences,omitempty"`
	Observations []Observation `gorm:"foreignKey:AttendanceID" json:"observations,omitempty"`
	Punishments  []Punishment  `gorm:"foreignKey:AttendanceID" json:"punishments,omitempty"`

	CreatedByAccount string    `gorm:"index;size:36" json:"created_by_account"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Delay struct {
	ID            string    `gorm:"primaryKey;size:16" json:"id"`
	AttendanceID  string    `gorm:"index;size:16" json:"attendance_id"`
	Timestamp     time.Time `json:"timestamp"`
	Minutes       int       `json:"minutes"`
	Justified     bool      `json:"justified"`
	Justification string    `gorm:"size:256" json:"justification,omitempty"`

	CreatedByAccount string `gorm:"index;size:36" json:"created_by_account"`
}

type Absence struct {
	ID            string    `gorm:"primaryKey;size:16" json:"id"`
	AttendanceID  string    `gorm:"index;size:16" json:"attendance_id"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	Hours         float64   `json:"hours"`
	Justified     bool      `json:"justified"`
	Justification string    `gorm:"size:256" json:"justification,omitempty"`

	CreatedByAccount string `gorm:"index;size:36" json:"created_by_account"`
}

type Observation struct {
	ID           string    `gorm:"primaryKey;size:16" json:"id"`
	AttendanceID string    `gorm:"index;size:16" json:"attendance_id"`
	Date         time.Time `json:"date"`
	SectionName  string    `gorm:"size:128" json:"section_name,omitempty"`
	SubjectName  string    `gorm:"size:128" json:"subject_name,omitempty"`
	Reason       string    `gorm:"size:512" json:"reason"`
	ShouldNotify bool      `json:"should_notify"`

	CreatedByAccount string `gorm:"index;size:36" json:"created_by_account"`
}

type Punishment struct {
	ID           string    `gorm:"primaryKey;size:16" json:"id"`
	AttendanceID string    `gorm:"index;size:16" json:"attendance_id"`
	GivenAt      time.Time `json:"given_at"`
	GivenBy      string    `gorm:"size:128" json:"given_by,omitempty"`
	Nature       string    `gorm:"size:128" json:"nature"`
	Reason       string    `gorm:"size:512" json:"reason,omitempty"`
	Minutes      int       `json:"minutes"`

	CreatedByAccount string `gorm:"index;size:36" json:"created_by_account"`
}

func (Attendance) TableName() string {
	return "attendances"
}

func (Delay) TableName() string {
	return "delays"
}

func (Absence) TableName() string {
	return "absences"
}

func (Observation) TableName() string {
	return "observations"
}

func (Punishment) TableName() string {
	return "punishments"
}
