// Package news reconciles school announcements. The Read flag is locally
// owned, mirroring homework completion.
package news

import (
	"context"

	"gorm.io/gorm"

	"github.com/cartable-app/cartable/internal/database"
	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/ident"
)

// Key computes the identity key for a news item.
func Key(n entities.News) string {
	return ident.Hash(n.Title, ident.Instant(n.PublishedAt), n.CreatedByAccount)
}

type Repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// AddToDatabase upserts incoming items; syncs never reset the Read flag.
func (r *Repository) AddToDatabase(ctx context.Context, items []entities.News, accountID string) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Write(ctx, database.WriteOp{
		Name:   "news.upsert",
		Tables: []string{"news"},
		Fn: func(tx *gorm.DB) error {
			for i := range items {
				item := items[i]
				item.CreatedByAccount = accountID
				item.ID = Key(item)

				var existing entities.News
				result := tx.Where("id = ?", item.ID).First(&existing)
				if result.Error == gorm.ErrRecordNotFound {
					if err := tx.Create(&item).Error; err != nil {
						return err
					}
					continue
				}
				if result.Error != nil {
					return result.Error
				}

				updates := map[string]any{
					"content":     item.Content,
					"author":      item.Author,
					"category":    item.Category,
					"important":   item.Important,
					"attachments": item.Attachments,
				}
				if err := tx.Model(&entities.News{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
					return err
				}
			}
			return nil
		},
	})
}

// SetRead flips the locally-owned read flag.
func (r *Repository) SetRead(ctx context.Context, id string, read bool) error {
	return r.db.Write(ctx, database.WriteOp{
		Name:   "news.set_read",
		Tables: []string{"news"},
		Fn: func(tx *gorm.DB) error {
			return tx.Model(&entities.News{}).Where("id = ?", id).Update("read", read).Error
		},
	})
}

// ForAccount returns the account's news, newest first.
func (r *Repository) ForAccount(accountID string) ([]entities.News, error) {
	var items []entities.News
	err := r.db.DB.Where("created_by_account = ?", accountID).
		Order("published_at DESC").Find(&items).Error
	return items, err
}

// Observe emits the account's news list on every commit touching the table.
func (r *Repository) Observe(accountID string) *database.Subscription[entities.News] {
	return database.Observe(r.db, []string{"news"}, func(db *gorm.DB) ([]entities.News, error) {
		var items []entities.News
		err := db.Where("created_by_account = ?", accountID).
			Order("published_at DESC").Find(&items).Error
		return items, err
	})
}
