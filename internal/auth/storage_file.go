package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStorage persists credentials as a JSON file under the user cache
// directory, one file per account. Files are written with 0600 permissions
// via a temp-file rename so a crash never leaves a partial token file.
type FileStorage struct {
	path string
}

// NewFileStorage returns storage for the named account, rooted at
// DefaultStorageDir.
func NewFileStorage(account string) (*FileStorage, error) {
	dir, err := DefaultStorageDir()
	if err != nil {
		return nil, err
	}
	return NewFileStorageAt(dir, account), nil
}

// DefaultStorageDir is where file storage keeps token files when no explicit
// directory is given: os.UserCacheDir()/workdesk.
func DefaultStorageDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user cache directory: %w", err)
	}
	return filepath.Join(cacheDir, "workdesk"), nil
}

// NewFileStorageAt returns storage rooted at an explicit directory.
func NewFileStorageAt(dir, account string) *FileStorage {
	name := fmt.Sprintf("tokens-%s.json", sanitizeAccount(account))
	return &FileStorage{path: filepath.Join(dir, name)}
}

// Path returns the token file location.
func (s *FileStorage) Path() string {
	return s.path
}

// SaveTokens writes the credentials to disk.
func (s *FileStorage) SaveTokens(_ context.Context, creds *StoredCredentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set token file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

// GetTokens reads the credentials from disk, returning (nil, nil) when no
// token file exists.
func (s *FileStorage) GetTokens(_ context.Context) (*StoredCredentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var creds StoredCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return &creds, nil
}

// DeleteTokens removes the token file. Deleting absent credentials is not
// an error.
func (s *FileStorage) DeleteTokens(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// HasTokens reports whether a token file exists.
func (s *FileStorage) HasTokens(_ context.Context) (bool, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat token file: %w", err)
	}
	return true, nil
}

// ListFileAccounts returns the account names that have a token file under
// dir, sorted. Names come back as stored, so characters the file name
// mapping rewrote stay rewritten.
func ListFileAccounts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token directory: %w", err)
	}

	var accounts []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "tokens-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		account := strings.TrimSuffix(strings.TrimPrefix(name, "tokens-"), ".json")
		if account == "" {
			continue
		}
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts, nil
}

// sanitizeAccount maps an account name onto a safe file name component.
func sanitizeAccount(account string) string {
	if account == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_', r == '@':
			return r
		default:
			return '_'
		}
	}, account)
}
