// Package chat reconciles discussion threads, their messages and recipients.
// Unlike attendance children, messages are stable remote objects, so they are
// upserted flat by identity key instead of being replaced.
package chat

import (
	"context"

	"gorm.io/gorm"

	"github.com/cartable-app/cartable/internal/database"
	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/ident"
)

// Key computes the identity key for a chat thread.
func Key(c entities.Chat) string {
	return ident.Hash(c.Subject, c.Creator, c.CreatedByAccount)
}

// MessageKey computes the identity key for one message.
func MessageKey(m entities.Message) string {
	return ident.Hash(m.ChatID, m.Author, ident.Instant(m.SentAt), m.Content, m.CreatedByAccount)
}

// RecipientKey computes the identity key for one recipient entry.
func RecipientKey(rc entities.Recipient) string {
	return ident.Hash(rc.ChatID, rc.Name, rc.CreatedByAccount)
}

var tables = []string{"chats", "messages", "recipients"}

type Repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// AddToDatabase upserts threads with their messages and recipients in one
// serialized transaction.
func (r *Repository) AddToDatabase(ctx context.Context, chats []entities.Chat, accountID string) error {
	if len(chats) == 0 {
		return nil
	}
	return r.db.Write(ctx, database.WriteOp{
		Name:   "chat.upsert",
		Tables: tables,
		Fn: func(tx *gorm.DB) error {
			for i := range chats {
				c := chats[i]
				c.CreatedByAccount = accountID
				c.ID = Key(c)

				var existing entities.Chat
				result := tx.Where("id = ?", c.ID).First(&existing)
				if result.Error == gorm.ErrRecordNotFound {
					thread := c
					thread.Messages, thread.Recipients = nil, nil
					if err := tx.Create(&thread).Error; err != nil {
						return err
					}
				} else if result.Error != nil {
					return result.Error
				} else {
					updates := map[string]any{"last_message_at": c.LastMessageAt}
					if err := tx.Model(&entities.Chat{}).Where("id = ?", c.ID).Updates(updates).Error; err != nil {
						return err
					}
				}

				for j := range c.Messages {
					m := c.Messages[j]
					m.ChatID = c.ID
					m.CreatedByAccount = accountID
					m.ID = MessageKey(m)
					var prior entities.Message
					res := tx.Where("id = ?", m.ID).First(&prior)
					if res.Error == gorm.ErrRecordNotFound {
						if err := tx.Create(&m).Error; err != nil {
							return err
						}
					} else if res.Error != nil {
						return res.Error
					}
				}

				for j := range c.Recipients {
					rc := c.Recipients[j]
					rc.ChatID = c.ID
					rc.CreatedByAccount = accountID
					rc.ID = RecipientKey(rc)
					var prior entities.Recipient
					res := tx.Where("id = ?", rc.ID).First(&prior)
					if res.Error == gorm.ErrRecordNotFound {
						if err := tx.Create(&rc).Error; err != nil {
							return err
						}
					} else if res.Error != nil {
						return res.Error
					}
				}
			}
			return nil
		},
	})
}

// ForAccount returns threads with messages and recipients, most recent
// activity first.
func (r *Repository) ForAccount(accountID string) ([]entities.Chat, error) {
	var chats []entities.Chat
	err := r.db.DB.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("sent_at ASC")
		}).
		Preload("Recipients").
		Where("created_by_account = ?", accountID).
		Order("last_message_at DESC").Find(&chats).Error
	return chats, err
}

// Observe emits the account's threads on every commit touching the chat
// tables.
func (r *Repository) Observe(accountID string) *database.Subscription[entities.Chat] {
	return database.Observe(r.db, tables, func(db *gorm.DB) ([]entities.Chat, error) {
		var chats []entities.Chat
		err := db.
			Preload("Messages", func(db *gorm.DB) *gorm.DB {
				return db.Order("sent_at ASC")
			}).
			Preload("Recipients").
			Where("created_by_account = ?", accountID).
			Order("last_message_at DESC").Find(&chats).Error
		return chats, err
	})
}
