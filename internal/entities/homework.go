package entities

import (
	"time"
)

type ReturnFormat string

const (
	ReturnFormatNone       ReturnFormat = "none"
	ReturnFormatPaper      ReturnFormat = "paper"
	ReturnFormatFileUpload ReturnFormat = "file_upload"
)

// Homework is a single assignment fetched from a provider.
//
// The identity key hashes subject + content + account + due date, so a
// re-fetch of the same assignment lands on the same row. Done is locally
// owned: syncs update the content fields in place and never touch it.
type Homework struct {
	ID         string `gorm:"primaryKey;size:16" json:"id"`
	HomeworkID string `gorm:"index;size:128" json:"homework_id,omitempty"` // provider-side id, dedup natural key

	Subject      string         `gorm:"index;size:128" json:"subject"`
	Content      string         `gorm:"type:text" json:"content"` // HTML as delivered by the provider
	DueDate      time.Time      `gorm:"index" json:"due_date"`
	Done         bool           `gorm:"default:false" json:"done"`
	ReturnFormat ReturnFormat   `gorm:"size:20;default:'none'" json:"return_format"`
	Attachments  AttachmentList `gorm:"type:text" json:"attachments,omitempty"`
	Exam         bool           `gorm:"default:false" json:"exam"`
	Custom       bool           `gorm:"default:false" json:"custom"` // user-created, never synced from a provider

	CreatedByAccount string    `gorm:"index;size:36" json:"created_by_account"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Homework) TableName() string {
	return "homeworks"
}
