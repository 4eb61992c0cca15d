package entities

import (
	"time"
)

// News is an announcement published by the school. Read is locally owned,
// like Homework.Done: syncs never reset it.
type News struct {
	ID          string         `gorm:"primaryKey;size:16" json:"id"`
	Title       string         `gorm:"size:256" json:"title"`
	Content     string         `gorm:"type:text" json:"content"` // HTML
	Author      string         `gorm:"size:128" json:"author,omitempty"`
	Category    string         `gorm:"size:128" json:"category,omitempty"`
	PublishedAt time.Time      `gorm:"index" json:"published_at"`
	Important   bool           `gorm:"default:false" json:"important"`
	Read        bool           `gorm:"default:false" json:"read"`
	Attachments AttachmentList `gorm:"type:text" json:"attachments,omitempty"`

	CreatedByAccount string    `gorm:"index;size:36" json:"created_by_account"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (News) TableName() string {
	return "news"
}
