package credentials

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	jcerrors "github.com/catht823/journal-club-calendar-bot/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv(EnvKeyName, testEncryptionKey)

	store, err := NewStoreWithOptions(t.TempDir(), EnvKeyProvider{})
	if err != nil {
		t.Fatalf("NewStoreWithOptions() error = %v", err)
	}
	return store
}

func TestStoreSaveAndLoad(t *testing.T) {
	store := newTestStore(t)

	saved := &Credentials{
		MailToken:     "mail-token-123",
		CalendarToken: "cal-token-456",
		RefreshToken:  "refresh-789",
	}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.UpdatedAt.IsZero() {
		t.Error("Save() did not stamp UpdatedAt")
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.MailToken != saved.MailToken {
		t.Errorf("MailToken = %q, want %q", loaded.MailToken, saved.MailToken)
	}
	if loaded.CalendarToken != saved.CalendarToken {
		t.Errorf("CalendarToken = %q, want %q", loaded.CalendarToken, saved.CalendarToken)
	}
	if loaded.RefreshToken != saved.RefreshToken {
		t.Errorf("RefreshToken = %q, want %q", loaded.RefreshToken, saved.RefreshToken)
	}
}

func TestStoreFileIsEncrypted(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(&Credentials{MailToken: "super-secret-token"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("reading credentials file: %v", err)
	}
	if strings.Contains(string(raw), "super-secret-token") {
		t.Error("credentials file contains the token in plaintext")
	}
}

func TestStoreLoadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load()
	if !jcerrors.IsNotFound(err) {
		t.Errorf("Load() error = %v, want not-found", err)
	}
}

func TestStoreLoadWrongKey(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvKeyName, testEncryptionKey)

	store, err := NewStoreWithOptions(dir, EnvKeyProvider{})
	if err != nil {
		t.Fatalf("NewStoreWithOptions() error = %v", err)
	}
	if err := store.Save(&Credentials{MailToken: "tok"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	t.Setenv(EnvKeyName, strings.Repeat("ff", 32))
	if _, err := store.Load(); err == nil {
		t.Error("Load() expected error with wrong key")
	}
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)

	// Deleting when nothing is stored is fine.
	if err := store.Delete(); err != nil {
		t.Fatalf("Delete() on empty store error = %v", err)
	}

	if err := store.Save(&Credentials{MailToken: "tok"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !store.Exists() {
		t.Fatal("Exists() = false after Save()")
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.Exists() {
		t.Error("Exists() = true after Delete()")
	}
}

func TestStoreFilePermissions(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(&Credentials{MailToken: "tok"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("credentials file mode = %o, want 0600", perm)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, keyLength)
	for i := range key {
		key[i] = byte(i)
	}

	plaintext := []byte("some sensitive payload")
	ciphertext, err := encrypt(key, plaintext)
	if err != nil {
		t.Fatalf("encrypt() error = %v", err)
	}

	got, err := decrypt(key, ciphertext)
	if err != nil {
		t.Fatalf("decrypt() error = %v", err)
	}
	if string(got) != string(plaintext) {
		t.Errorf("decrypt() = %q, want %q", got, plaintext)
	}

	if _, err := decrypt(key, []byte("short")); err == nil {
		t.Error("decrypt() expected error for truncated ciphertext")
	}
}

func TestNewStoreUsesConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("JCBOT_CONFIG_DIR", dir)
	t.Setenv(EnvKeyName, testEncryptionKey)

	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if got := filepath.Dir(store.Path()); got != dir {
		t.Errorf("store directory = %q, want %q", got, dir)
	}
}
