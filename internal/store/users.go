package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const rememberTokenDays = 30

// UserStore persists one directory per user under <dataDir>/users.
type UserStore struct {
	dir string
}

// NewUserStore creates the store rooted at dataDir, creating the users
// directory on first use.
func NewUserStore(dataDir string) (*UserStore, error) {
	dir := filepath.Join(dataDir, "users")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create users dir: %w", err)
	}
	return &UserStore{dir: dir}, nil
}

// credentials is the private auth record kept next to preferences.
type credentials struct {
	PasswordHash         string     `json:"passwordHash"`
	RememberToken        string     `json:"rememberToken,omitempty"`
	RememberTokenExpires *time.Time `json:"rememberTokenExpires,omitempty"`
}

func (s *UserStore) userDir(userID string) string {
	return filepath.Join(s.dir, userID)
}

// Get loads one user's preference record. A missing record is absent
// (nil, nil), not an error; a corrupt record is an error.
func (s *UserStore) Get(userID string) (*Preferences, error) {
	data, err := os.ReadFile(filepath.Join(s.userDir(userID), "preferences.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences for %s: %w", userID, err)
	}
	var p Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode preferences for %s: %w", userID, err)
	}
	return &p, nil
}

// GetByEmail scans all users for a matching email. Absent → (nil, nil).
func (s *UserStore) GetByEmail(email string) (*Preferences, error) {
	ids, err := s.ListIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		p, err := s.Get(id)
		if err != nil || p == nil {
			continue
		}
		if p.Email == email {
			return p, nil
		}
	}
	return nil, nil
}

// ListIDs enumerates every known user id. A missing users directory yields
// an empty list.
func (s *UserStore) ListIDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// Save overwrites the whole preference record. Merging partial updates is
// the caller's job; the storage layer never merges.
func (s *UserStore) Save(p *Preferences) error {
	if p.UserID == "" {
		return fmt.Errorf("save preferences: empty user id")
	}
	p.normalize()

	dir := s.userDir(p.UserID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create user dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "preferences.json"), data, 0o600); err != nil {
		return fmt.Errorf("write preferences for %s: %w", p.UserID, err)
	}
	return nil
}

// CreateDefaults writes and returns the default record for a new user.
func (s *UserStore) CreateDefaults(userID, username string) (*Preferences, error) {
	p := DefaultPreferences(userID, username)
	if err := s.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// --------------------------------------------------------------------------
// Credentials
// --------------------------------------------------------------------------

func (s *UserStore) getCredentials(userID string) (*credentials, error) {
	data, err := os.ReadFile(filepath.Join(s.userDir(userID), "credentials.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials for %s: %w", userID, err)
	}
	var c credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode credentials for %s: %w", userID, err)
	}
	return &c, nil
}

func (s *UserStore) saveCredentials(userID string, c *credentials) error {
	dir := s.userDir(userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create user dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "credentials.json"), data, 0o600); err != nil {
		return fmt.Errorf("write credentials for %s: %w", userID, err)
	}
	return nil
}

// SetPassword hashes and stores a password, then flips HasPassword on the
// preference record.
func (s *UserStore) SetPassword(userID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	creds, err := s.getCredentials(userID)
	if err != nil {
		return err
	}
	if creds == nil {
		creds = &credentials{}
	}
	creds.PasswordHash = string(hash)
	if err := s.saveCredentials(userID, creds); err != nil {
		return err
	}

	prefs, err := s.Get(userID)
	if err != nil {
		return err
	}
	if prefs != nil && !prefs.HasPassword {
		prefs.HasPassword = true
		return s.Save(prefs)
	}
	return nil
}

// VerifyPassword checks a password against the stored hash. A user with no
// credentials record simply fails verification.
func (s *UserStore) VerifyPassword(userID, password string) (bool, error) {
	creds, err := s.getCredentials(userID)
	if err != nil {
		return false, err
	}
	if creds == nil || creds.PasswordHash == "" {
		return false, nil
	}
	err = bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("compare password: %w", err)
	}
	return true, nil
}

// SetRememberToken issues a 30-day remember-me token for a user.
func (s *UserStore) SetRememberToken(userID string) (string, error) {
	token := uuid.NewString()
	expires := time.Now().AddDate(0, 0, rememberTokenDays)

	creds, err := s.getCredentials(userID)
	if err != nil {
		return "", err
	}
	if creds == nil {
		creds = &credentials{}
	}
	creds.RememberToken = token
	creds.RememberTokenExpires = &expires
	if err := s.saveCredentials(userID, creds); err != nil {
		return "", err
	}
	return token, nil
}

// VerifyRememberToken checks a remember-me token and its expiry.
func (s *UserStore) VerifyRememberToken(userID, token string) (bool, error) {
	creds, err := s.getCredentials(userID)
	if err != nil {
		return false, err
	}
	if creds == nil || creds.RememberToken == "" || creds.RememberTokenExpires == nil {
		return false, nil
	}
	if time.Now().After(*creds.RememberTokenExpires) {
		return false, nil
	}
	return creds.RememberToken == token, nil
}
