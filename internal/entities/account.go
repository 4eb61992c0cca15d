package entities

import (
	"time"
)

// Account is a local, device-scoped identity. Unlike the synced entities it is
// created on the device (onboarding), so its id is a random UUID rather than a
// content-addressed hash.
type Account struct {
	ID         string           `gorm:"primaryKey;size:36" json:"id"`
	FirstName  string           `gorm:"size:100" json:"first_name"`
	LastName   string           `gorm:"size:100" json:"last_name"`
	SchoolName string           `gorm:"size:256" json:"school_name,omitempty"`
	ClassName  string           `gorm:"size:100" json:"class_name,omitempty"`
	Services   []ServiceAccount `gorm:"foreignKey:AccountID" json:"services,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// ServiceAccount binds an Account to one remote provider. The credential blob
// is opaque to the engine and persisted encrypted (see credstore); only the
// ciphertext lives in this table.
type ServiceAccount struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	AccountID  string    `gorm:"index;size:36" json:"account_id"`
	Provider   string    `gorm:"index;size:50" json:"provider"` // e.g. "pronote", "ecoledirecte", "turboself"
	AuthCipher string    `gorm:"type:text" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Auth is the decrypted credential blob, populated by the credential
	// store on load. Never persisted in clear.
	Auth Auth `gorm:"-" json:"-"`
}

// Auth is the opaque credential blob passed through to plugins. Providers
// rotate tokens on refresh, so the whole blob is replaced after every
// successful RefreshAccount.
type Auth struct {
	AccessToken    string            `json:"access_token,omitempty"`
	RefreshToken   string            `json:"refresh_token,omitempty"`
	Username       string            `json:"username,omitempty"`
	Password       string            `json:"password,omitempty"`
	DeviceID       string            `json:"device_id,omitempty"`
	AdditionalData map[string]string `json:"additional_data,omitempty"`
}

func (Account) TableName() string {
	return "accounts"
}

func (ServiceAccount) TableName() string {
	return "service_accounts"
}
