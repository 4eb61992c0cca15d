package entities

import (
	"time"
)

// Chat is a discussion thread with school staff.
type Chat struct {
	ID            string    `gorm:"primaryKey;size:16" json:"id"`
	Subject       string    `gorm:"size:256" json:"subject"`
	Creator       string    `gorm:"size:128" json:"creator,omitempty"`
	LastMessageAt time.Time `gorm:"index" json:"last_message_at"`

	Messages   []Message   `gorm:"foreignKey:ChatID" json:"messages,omitempty"`
	Recipients []Recipient `gorm:"foreignKey:ChatID" json:"recipients,omitempty"`

	CreatedByAccount string    `gorm:"index;size:36" json:"created_by_account"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Message struct {
	ID          string         `gorm:"primaryKey;size:16" json:"id"`
	ChatID      string         `gorm:"index;size:16" json:"chat_id"`
	Author      string         `gorm:"size:128" json:"author"`
	Content     string         `gorm:"type:text" json:"content"`
	SentAt      time.Time      `gorm:"index" json:"sent_at"`
	Attachments AttachmentList `gorm:"type:text" json:"attachments,omitempty"`

	CreatedByAccount string `gorm:"index;size:36" json:"created_by_account"`
}

type Recipient struct {
	ID     string `gorm:"primaryKey;size:16" json:"id"`
	ChatID string `gorm:"index;size:16" json:"chat_id"`
	Name   string `gorm:"size:128" json:"name"`

	CreatedByAccount string `gorm:"index;size:36" json:"created_by_account"`
}

func (Chat) TableName() string {
	return "chats"
}

func (Message) TableName() string {
	return "messages"
}

func (Recipient) TableName() string {
	return "recipients"
}
