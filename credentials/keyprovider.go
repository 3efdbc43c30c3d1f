// Package credentials provides encrypted at-rest storage for the mail and
// calendar API tokens the bot authenticates with.
package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/argon2"
	"golang.org/x/term"
)

const (
	// keyringService is the service name used in the system keyring.
	keyringService = "jcbot"
	// keyringUser is the account name used in the system keyring.
	keyringUser = "encryption-key"
	// keyLength is the encryption key length (256 bits for AES-256).
	keyLength = 32
)

// Argon2 parameters for passphrase-based key derivation.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
)

// argon2Salt is fixed: the passphrase provider must derive the same key on
// every run, and the encrypted file it protects is per-user local state.
var argon2Salt = []byte("jcbot-credentials-v1")

// ErrKeyringUnavailable indicates the system keyring is not available.
var ErrKeyringUnavailable = errors.New("system keyring unavailable")

// KeyProvider is an interface for obtaining the encryption key.
type KeyProvider interface {
	// GetKey returns the 32-byte encryption key, generating and storing a
	// new one if none exists.
	GetKey() ([]byte, error)

	// Description returns a human-readable description of the key storage
	// mechanism.
	Description() string
}

// EnvKeyProvider reads the key from JCBOT_ENCRYPTION_KEY, a 64-character
// hex string. Intended for CI and headless deployments.
type EnvKeyProvider struct{}

// EnvKeyName is the environment variable holding the hex-encoded key.
const EnvKeyName = "JCBOT_ENCRYPTION_KEY"

func (EnvKeyProvider) GetKey() ([]byte, error) {
	v := os.Getenv(EnvKeyName)
	if v == "" {
		return nil, fmt.Errorf("%s is not set", EnvKeyName)
	}
	key, err := hex.DecodeString(v)
	if err != nil || len(key) != keyLength {
		return nil, fmt.Errorf("%s must be %d hex-encoded bytes", EnvKeyName, keyLength)
	}
	return key, nil
}

func (EnvKeyProvider) Description() string {
	return "environment variable " + EnvKeyName
}

// KeyringKeyProvider stores the encryption key in the system keyring
// (macOS Keychain, Windows Credential Manager, Linux Secret Service).
type KeyringKeyProvider struct {
	mu sync.Mutex
}

// NewKeyringKeyProvider creates a new KeyringKeyProvider.
func NewKeyringKeyProvider() *KeyringKeyProvider {
	return &KeyringKeyProvider{}
}

// GetKey retrieves the encryption key from the system keyring, generating
// and storing a new cryptographically random key if none exists.
func (p *KeyringKeyProvider) GetKey() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	keyHex, err := keyring.Get(keyringService, keyringUser)
	if err == nil {
		key, decErr := hex.DecodeString(keyHex)
		if decErr == nil && len(key) == keyLength {
			return key, nil
		}
		// Invalid key format, regenerate.
	}

	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}

	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating random key: %w", err)
	}
	if err := keyring.Set(keyringService, keyringUser, hex.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("%w: storing key: %v", ErrKeyringUnavailable, err)
	}
	return key, nil
}

// Description returns a description of this key provider.
func (p *KeyringKeyProvider) Description() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	default:
		return "System Keyring (Secret Service)"
	}
}

// PassphraseKeyProvider derives the key from a passphrase prompted on the
// terminal. Used as the fallback when no keyring is available.
type PassphraseKeyProvider struct {
	// prompt is swappable for tests; defaults to a hidden terminal read.
	prompt func() ([]byte, error)
}

// NewPassphraseKeyProvider creates a provider that prompts on stdin.
func NewPassphraseKeyProvider() *PassphraseKeyProvider {
	return &PassphraseKeyProvider{prompt: promptPassphrase}
}

func (p *PassphraseKeyProvider) GetKey() ([]byte, error) {
	passphrase, err := p.prompt()
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	if len(passphrase) == 0 {
		return nil, errors.New("empty passphrase")
	}
	return argon2.IDKey(passphrase, argon2Salt, argon2Time, argon2Memory, argon2Threads, keyLength), nil
}

func (p *PassphraseKeyProvider) Description() string {
	return "passphrase-derived key"
}

func promptPassphrase() ([]byte, error) {
	fmt.Fprint(os.Stderr, "Credentials passphrase: ")
	defer fmt.Fprintln(os.Stderr)
	return term.ReadPassword(int(os.Stdin.Fd()))
}

// GetDefaultKeyProvider picks the best available key source: the
// environment variable first, then the system keyring, then a passphrase
// prompt when the process has a terminal.
func GetDefaultKeyProvider() (KeyProvider, error) {
	if os.Getenv(EnvKeyName) != "" {
		return EnvKeyProvider{}, nil
	}

	kp := NewKeyringKeyProvider()
	if _, err := kp.GetKey(); err == nil {
		return kp, nil
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		return NewPassphraseKeyProvider(), nil
	}
	return nil, ErrKeyringUnavailable
}
