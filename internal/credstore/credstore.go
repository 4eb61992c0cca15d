// Package credstore persists ServiceAccount credential blobs encrypted with
// AES-256-GCM. The blob is opaque to the engine; plugins receive it decrypted
// and return a rotated blob after every successful refresh.
package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cartable-app/cartable/internal/entities"
)

const (
	// EnvEncryptionKey overrides key resolution with an explicit base64 key.
	EnvEncryptionKey = "CARTABLE_CREDENTIAL_KEY"

	// DefaultKeyFileName is used when no key file path is configured.
	DefaultKeyFileName = ".cartable-credential-key"
)

// Persistence is where ciphertexts live; implemented by the service-account
// repository.
type Persistence interface {
	SaveServiceCipher(ctx context.Context, serviceID, cipher string) error
	GetServiceCipher(serviceID string) (string, error)
}

// Config holds credential store configuration.
type Config struct {
	// Passphrase, when set, derives the key via PBKDF2 and wins over every
	// other source.
	Passphrase string

	// KeyFilePath is the encryption key file; defaults to
	// ~/.cartable-credential-key. Generated with 0600 permissions on first
	// use.
	KeyFilePath string
}

// Store encrypts and persists per-service credential blobs.
type Store struct {
	enc *encryptor
	db  Persistence
}

func New(cfg Config, db Persistence) (*Store, error) {
	enc, err := resolveEncryptor(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve encryption key: %w", err)
	}
	return &Store{enc: enc, db: db}, nil
}

func resolveEncryptor(cfg Config) (*encryptor, error) {
	if cfg.Passphrase != "" {
		return newEncryptorFromPassphrase(cfg.Passphrase)
	}

	if envKey := os.Getenv(EnvEncryptionKey); envKey != "" {
		return newEncryptorFromBase64(envKey)
	}

	keyFilePath := cfg.KeyFilePath
	if keyFilePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		keyFilePath = filepath.Join(homeDir, DefaultKeyFileName)
	}

	if data, err := os.ReadFile(keyFilePath); err == nil {
		return newEncryptorFromBase64(string(data))
	}

	newKey, err := generateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate encryption key: %w", err)
	}
	if err := os.WriteFile(keyFilePath, []byte(newKey), 0600); err != nil {
		return nil, fmt.Errorf("failed to save encryption key to %s: %w", keyFilePath, err)
	}
	return newEncryptorFromBase64(newKey)
}

// Save encrypts and persists a service's credential blob.
func (s *Store) Save(ctx context.Context, serviceID string, auth entities.Auth) error {
	plaintext, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	cipher, err := s.enc.encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}
	return s.db.SaveServiceCipher(ctx, serviceID, cipher)
}

// Load decrypts a service's credential blob. A service with no stored
// credentials yields a zero blob, not an error.
func (s *Store) Load(serviceID string) (entities.Auth, error) {
	cipher, err := s.db.GetServiceCipher(serviceID)
	if err != nil {
		return entities.Auth{}, err
	}
	if cipher == "" {
		return entities.Auth{}, nil
	}
	plaintext, err := s.enc.decrypt(cipher)
	if err != nil {
		return entities.Auth{}, fmt.Errorf("failed to decrypt credentials: %w", err)
	}
	var auth entities.Auth
	if err := json.Unmarshal(plaintext, &auth); err != nil {
		return entities.Auth{}, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return auth, nil
}
