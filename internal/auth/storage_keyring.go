package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "workdesk"

// KeyringStorage persists credentials in the operating system keychain via
// the platform secret service (Keychain, wincred, or the D-Bus Secret
// Service on Linux).
type KeyringStorage struct {
	service string
	user    string
}

// NewKeyringStorage returns keychain-backed storage for the named account.
func NewKeyringStorage(account string) *KeyringStorage {
	if account == "" {
		account = "default"
	}
	return &KeyringStorage{
		service: keyringService,
		user:    "tokens-" + account,
	}
}

// SaveTokens stores the credentials in the keychain.
func (s *KeyringStorage) SaveTokens(_ context.Context, creds *StoredCredentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := keyring.Set(s.service, s.user, string(data)); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

// GetTokens loads credentials from the keychain, returning (nil, nil) when
// no entry exists.
func (s *KeyringStorage) GetTokens(_ context.Context) (*StoredCredentials, error) {
	data, err := keyring.Get(s.service, s.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credentials from keyring: %w", err)
	}

	var creds StoredCredentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("failed to decode keyring credentials: %w", err)
	}
	return &creds, nil
}

// DeleteTokens removes the keychain entry. Deleting absent credentials is
// not an error.
func (s *KeyringStorage) DeleteTokens(_ context.Context) error {
	if err := keyring.Delete(s.service, s.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// HasTokens reports whether a keychain entry exists.
func (s *KeyringStorage) HasTokens(_ context.Context) (bool, error) {
	if _, err := keyring.Get(s.service, s.user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to probe keyring: %w", err)
	}
	return true, nil
}
