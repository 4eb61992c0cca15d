package credstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartable-app/cartable/internal/entities"
)

type memPersistence struct {
	ciphers map[string]string
}

func newMemPersistence() *memPersistence {
	return &memPersistence{ciphers: map[string]string{}}
}

func (m *memPersistence) SaveServiceCipher(ctx context.Context, serviceID, cipher string) error {
	m.ciphers[serviceID] = cipher
	return nil
}

func (m *memPersistence) GetServiceCipher(serviceID string) (string, error) {
	return m.ciphers[serviceID], nil
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := newMemPersistence()
	store, err := New(Config{Passphrase: "correct horse battery staple"}, db)
	require.NoError(t, err)

	auth := entities.Auth{
		Username:       "jeanne.martin",
		Password:       "s3cret",
		AccessToken:    "tok-123",
		AdditionalData: map[string]string{"ent_url": "https://ent.example.org"},
	}
	require.NoError(t, store.Save(context.Background(), "svc1", auth))

	got, err := store.Load("svc1")
	require.NoError(t, err)
	assert.Equal(t, auth, got)
}

func TestCiphertextIsOpaque(t *testing.T) {
	db := newMemPersistence()
	store, err := New(Config{Passphrase: "pass"}, db)
	require.NoError(t, err)

	auth := entities.Auth{Password: "s3cret"}
	require.NoError(t, store.Save(context.Background(), "svc1", auth))

	cipher := db.ciphers["svc1"]
	assert.NotEmpty(t, cipher)
	assert.NotContains(t, cipher, "s3cret", "plaintext must never reach persistence")
}

func TestLoadMissingCredentialsYieldsZeroBlob(t *testing.T) {
	store, err := New(Config{Passphrase: "pass"}, newMemPersistence())
	require.NoError(t, err)

	got, err := store.Load("never-saved")
	require.NoError(t, err)
	assert.Equal(t, entities.Auth{}, got)
}

func TestWrongPassphraseFailsAuthentication(t *testing.T) {
	db := newMemPersistence()

	writer, err := New(Config{Passphrase: "right"}, db)
	require.NoError(t, err)
	require.NoError(t, writer.Save(context.Background(), "svc1", entities.Auth{Password: "x"}))

	reader, err := New(Config{Passphrase: "wrong"}, db)
	require.NoError(t, err)

	_, err = reader.Load("svc1")
	assert.Error(t, err)
}

func TestPassphraseDerivationIsDeterministic(t *testing.T) {
	a, err := newEncryptorFromPassphrase("phrase")
	require.NoError(t, err)
	b, err := newEncryptorFromPassphrase("phrase")
	require.NoError(t, err)
	assert.Equal(t, a.key, b.key)

	c, err := newEncryptorFromPassphrase("other phrase")
	require.NoError(t, err)
	assert.NotEqual(t, a.key, c.key)
}

func TestEncryptorRejectsShortKey(t *testing.T) {
	_, err := newEncryptor([]byte("too short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestGeneratedKeyRoundTrips(t *testing.T) {
	key, err := generateKey()
	require.NoError(t, err)

	enc, err := newEncryptorFromBase64(key)
	require.NoError(t, err)

	cipher, err := enc.encrypt([]byte("payload"))
	require.NoError(t, err)
	plain, err := enc.decrypt(cipher)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), plain)
}

func TestTamperedCiphertextFails(t *testing.T) {
	enc, err := newEncryptorFromPassphrase("pass")
	require.NoError(t, err)

	cipher, err := enc.encrypt([]byte("payload"))
	require.NoError(t, err)

	tampered := "A" + cipher[1:]
	if tampered == cipher {
		tampered = "B" + cipher[1:]
	}
	_, err = enc.decrypt(tampered)
	assert.Error(t, err)
}
