// Package accounts persists the local account registry and its service
// bindings. Accounts are device-local, so they use random UUIDs, not content
// hashes.
package accounts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cartable-app/cartable/internal/database"
	"github.com/cartable-app/cartable/internal/entities"
)

type Repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// Create persists a new account with its services, minting UUIDs where
// absent.
func (r *Repository) Create(ctx context.Context, account *entities.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	for i := range account.Services {
		if account.Services[i].ID == "" {
			account.Services[i].ID = uuid.NewString()
		}
		account.Services[i].AccountID = account.ID
	}
	return r.db.Write(ctx, database.WriteOp{
		Name:   "accounts.create",
		Tables: []string{"accounts", "service_accounts"},
		Fn: func(tx *gorm.DB) error {
			return tx.Create(account).Error
		},
	})
}

// Get loads one account with its services.
func (r *Repository) Get(id string) (*entities.Account, error) {
	var account entities.Account
	err := r.db.DB.Preload("Services").Where("id = ?", id).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// List returns every configured account with services.
func (r *Repository) List() ([]entities.Account, error) {
	var accounts []entities.Account
	err := r.db.DB.Preload("Services").Order("created_at ASC").Find(&accounts).Error
	return accounts, err
}

// SaveServiceCipher stores a service's rotated, already-encrypted credential
// blob.
func (r *Repository) SaveServiceCipher(ctx context.Context, serviceID, cipher string) error {
	return r.db.Write(ctx, database.WriteOp{
		Name:   "accounts.save_auth",
		Tables: []string{"service_accounts"},
		Fn: func(tx *gorm.DB) error {
			return tx.Model(&entities.ServiceAccount{}).Where("id = ?", serviceID).
				Update("auth_cipher", cipher).Error
		},
	})
}

// GetServiceCipher reads a service's encrypted credential blob.
func (r *Repository) GetServiceCipher(serviceID string) (string, error) {
	var svc entities.ServiceAccount
	if err := r.db.DB.Select("auth_cipher").Where("id = ?", serviceID).First(&svc).Error; err != nil {
		return "", err
	}
	return svc.AuthCipher, nil
}

// Delete removes the account and cascades across every entity table.
func (r *Repository) Delete(ctx context.Context, accountID string) error {
	return r.db.ClearAccount(ctx, accountID)
}
