// Package homework reconciles provider homework lists into the local cache.
package homework

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cartable-app/cartable/internal/database"
	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/ident"
)

// Key computes the identity key for a homework item. The tuple matches what
// providers keep stable across fetches: subject, content, owning account and
// due day.
func Key(h entities.Homework) string {
	return ident.Hash(h.Subject, h.Content, h.CreatedByAccount, ident.Day(h.DueDate))
}

type Repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// AddToDatabase upserts incoming items by identity key inside one serialized
// transaction. Existing rows have their content fields updated in place; the
// Done flag is locally owned and a sync never touches it.
func (r *Repository) AddToDatabase(ctx context.Context, items []entities.Homework, accountID string) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Write(ctx, database.WriteOp{
		Name:   "homework.upsert",
		Tables: []string{"homeworks"},
		Fn: func(tx *gorm.DB) error {
			for i := range items {
				item := items[i]
				item.CreatedByAccount = accountID
				item.ID = Key(item)

				var existing entities.Homework
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
					"homework_id":   item.HomeworkID,
					"subject":       item.Subject,
					"content":       item.Content,
					"due_date":      item.DueDate,
					"return_format": item.ReturnFormat,
					"attachments":   item.Attachments,
					"exam":          item.Exam,
				}
				if err := tx.Model(&entities.Homework{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
					return err
				}
			}
			return nil
		},
	})
}

// SetDone flips the locally-owned completion flag.
func (r *Repository) SetDone(ctx context.Context, id string, done bool) error {
	return r.db.Write(ctx, database.WriteOp{
		Name:   "homework.set_done",
		Tables: []string{"homeworks"},
		Fn: func(tx *gorm.DB) error {
			return tx.Model(&entities.Homework{}).Where("id = ?", id).Update("done", done).Error
		},
	})
}

// ForAccount returns every cached item for the account, soonest due first.
func (r *Repository) ForAccount(accountID string) ([]entities.Homework, error) {
	var items []entities.Homework
	err := r.db.DB.Where("created_by_account = ?", accountID).
		Order("due_date ASC, subject ASC").Find(&items).Error
	return items, err
}

// Between returns cached items due in [from, to).
func (r *Repository) Between(accountID string, from, to time.Time) ([]entities.Homework, error) {
	var items []entities.Homework
	err := r.db.DB.Where("created_by_account = ? AND due_date >= ? AND due_date < ?", accountID, from, to).
		Order("due_date ASC, subject ASC").Find(&items).Error
	return items, err
}

// Get returns one row by identity key.
func (r *Repository) Get(id string) (*entities.Homework, error) {
	var item entities.Homework
	if err := r.db.DB.Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Observe emits the account's homework list on every commit touching the
// table.
func (r *Repository) Observe(accountID string) *database.Subscription[entities.Homework] {
	return database.Observe(r.db, []string{"homeworks"}, func(db *gorm.DB) ([]entities.Homework, error) {
		var items []entities.Homework
		err := db.Where("created_by_account = ?", accountID).
			Order("due_date ASC, subject ASC").Find(&items).Error
		return items, err
	})
}
