package encryption_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"lth-go/internal/config"
	"lth-go/internal/encryption"
)

func TestAgeEncryptor(t *testing.T) {
	newConfigured := func(t *testing.T, passphrase string) *encryption.AgeEncryptor {
		t.Helper()
		dir := t.TempDir()
		e := encryption.NewAgeEncryptor(config.EncryptionConfig{
			PublicKeyPath:  filepath.Join(dir, "keys", "lth.pub"),
			PrivateKeyPath: filepath.Join(dir, "keys", "lth.key"),
		})
		if err := e.Setup(passphrase); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		return e
	}

	t.Run("is not configured before setup", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		e := encryption.NewAgeEncryptor(config.EncryptionConfig{
			PublicKeyPath:  filepath.Join(dir, "lth.pub"),
			PrivateKeyPath: filepath.Join(dir, "lth.key"),
		})
		if e.IsConfigured() {
			t.Error("IsConfigured() = true before Setup")
		}
	})

	t.Run("setup writes both key files", func(t *testing.T) {
		t.Parallel()
		e := newConfigured(t, "pw")
		if !e.IsConfigured() {
			t.Error("IsConfigured() = false after Setup")
		}
	})

	t.Run("encrypt decrypt roundtrip", func(t *testing.T) {
		t.Parallel()
		e := newConfigured(t, "pw")

		plaintext := "line one\nline two\n"
		var ciphertext bytes.Buffer
		if err := e.Encrypt(strings.NewReader(plaintext), &ciphertext); err != nil {
			t.Fatalf("Encrypt() error = %v", err)
		}
		if strings.Contains(ciphertext.String(), "line one") {
			t.Error("ciphertext contains plaintext")
		}

		dec, err := e.Unlock("pw")
		if err != nil {
			t.Fatalf("Unlock() error = %v", err)
		}

		var decrypted bytes.Buffer
		if err := dec.Decrypt(bytes.NewReader(ciphertext.Bytes()), &decrypted); err != nil {
			t.Fatalf("Decrypt() error = %v", err)
		}
		if decrypted.String() != plaintext {
			t.Errorf("got %q, want %q", decrypted.String(), plaintext)
		}
	})

	t.Run("wrong passphrase fails to unlock", func(t *testing.T) {
		t.Parallel()
		e := newConfigured(t, "correct")

		if _, err := e.Unlock("wrong"); err == nil {
			t.Error("Unlock() should error with the wrong passphrase")
		}
	})
}

func TestTestEncryptor(t *testing.T) {
	t.Parallel()

	e := encryption.NewTestEncryptor()
	if !e.IsConfigured() {
		t.Fatal("IsConfigured() = false, want true")
	}

	plaintext := "payload"
	var ciphertext bytes.Buffer
	if err := e.Encrypt(strings.NewReader(plaintext), &ciphertext); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if ciphertext.String() == plaintext {
		t.Error("encrypted output equals plaintext")
	}

	dec, err := e.Unlock("any")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	var decrypted bytes.Buffer
	if err := dec.Decrypt(bytes.NewReader(ciphertext.Bytes()), &decrypted); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if decrypted.String() != plaintext {
		t.Errorf("got %q, want %q", decrypted.String(), plaintext)
	}

	var out bytes.Buffer
	if err := dec.Decrypt(strings.NewReader("no header here"), &out); err == nil {
		t.Error("Decrypt() should reject data without the test header")
	}
}
