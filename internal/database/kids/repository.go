// Package kids reconciles children attached to parent accounts.
package kids

import (
	"context"

	"gorm.io/gorm"

	"github.com/cartable-app/cartable/internal/database"
	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/ident"
)

// Key computes the identity key for a kid. First + last name is also the
// dedup natural key.
func Key(k entities.Kid) string {
	return ident.Hash(k.FirstName, k.LastName, k.CreatedByAccount)
}

type Repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// AddToDatabase upserts the provider's kid list.
func (r *Repository) AddToDatabase(ctx context.Context, items []entities.Kid, accountID string) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Write(ctx, database.WriteOp{
		Name:   "kids.upsert",
		Tables: []string{"kids"},
		Fn: func(tx *gorm.DB) error {
			for i := range items {
				kid := items[i]
				kid.CreatedByAccount = accountID
				kid.ID = Key(kid)

				var existing entities.Kid
				result := tx.Where("id = ?", kid.ID).First(&existing)
				if result.Error == gorm.ErrRecordNotFound {
					if err := tx.Create(&kid).Error; err != nil {
						return err
					}
					continue
				}
				if result.Error != nil {
					return result.Error
				}
				updates := map[string]any{
					"class_name":  kid.ClassName,
					"school_name": kid.SchoolName,
					"birth_date":  kid.BirthDate,
				}
				if err := tx.Model(&entities.Kid{}).Where("id = ?", kid.ID).Updates(updates).Error; err != nil {
					return err
				}
			}
			return nil
		},
	})
}

// ForAccount returns the account's kids.
func (r *Repository) ForAccount(accountID string) ([]entities.Kid, error) {
	var items []entities.Kid
	err := r.db.DB.Where("created_by_account = ?", accountID).
		Order("last_name ASC, first_name ASC").Find(&items).Error
	return items, err
}
