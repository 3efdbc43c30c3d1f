package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/catht823/journal-club-calendar-bot/config"
	jcerrors "github.com/catht823/journal-club-calendar-bot/pkg/errors"
)

// credentialsFile is the file name inside the config directory.
const credentialsFile = "credentials.enc"

// Credentials holds the API tokens the bot uses to read mail and write
// calendar events.
type Credentials struct {
	MailToken     string    `yaml:"mail_token,omitempty"`
	CalendarToken string    `yaml:"calendar_token,omitempty"`
	RefreshToken  string    `yaml:"refresh_token,omitempty"`
	ExpiresAt     time.Time `yaml:"expires_at,omitempty"`
	UpdatedAt     time.Time `yaml:"updated_at"`
}

// Store reads and writes the encrypted credentials file.
type Store struct {
	path        string
	keyProvider KeyProvider
}

// NewStore creates a Store using the default config directory and the best
// available key provider.
func NewStore() (*Store, error) {
	provider, err := GetDefaultKeyProvider()
	if err != nil {
		return nil, err
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	return NewStoreWithOptions(dir, provider)
}

// NewStoreWithOptions creates a Store rooted at dir with an explicit key
// provider. Used directly by tests.
func NewStoreWithOptions(dir string, provider KeyProvider) (*Store, error) {
	if provider == nil {
		return nil, errors.New("key provider is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating credentials directory: %w", err)
	}
	return &Store{path: filepath.Join(dir, credentialsFile), keyProvider: provider}, nil
}

// Path returns the location of the encrypted credentials file.
func (s *Store) Path() string { return s.path }

// KeySource describes where the encryption key comes from.
func (s *Store) KeySource() string { return s.keyProvider.Description() }

// Save encrypts and writes the credentials, stamping UpdatedAt.
func (s *Store) Save(creds *Credentials) error {
	creds.UpdatedAt = time.Now().UTC()

	plaintext, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	key, err := s.keyProvider.GetKey()
	if err != nil {
		return fmt.Errorf("obtaining encryption key: %w", err)
	}

	ciphertext, err := encrypt(key, plaintext)
	if err != nil {
		return fmt.Errorf("encrypting credentials: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, ciphertext, 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Load decrypts and returns the stored credentials. Returns ErrNotFound
// when no credentials have been saved.
func (s *Store) Load() (*Credentials, error) {
	ciphertext, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("credentials at %s: %w", s.path, jcerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	key, err := s.keyProvider.GetKey()
	if err != nil {
		return nil, fmt.Errorf("obtaining encryption key: %w", err)
	}

	plaintext, err := decrypt(key, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypting credentials (wrong key?): %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return &creds, nil
}

// Exists reports whether a credentials file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Delete removes the credentials file. Deleting absent credentials is not
// an error.
func (s *Store) Delete() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// encrypt seals plaintext with AES-256-GCM, prepending the random nonce.
func encrypt(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
