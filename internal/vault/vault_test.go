package vault_test

import (
	"bytes"
	"strings"
	"testing"

	"lth-go/internal/config"
	"lth-go/internal/hist"
	"lth-go/internal/vault"
)

func newVaults(t *testing.T) map[string]hist.Vault {
	t.Helper()

	fs, err := vault.NewFileSystemVault("fs", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	return map[string]hist.Vault{
		"memory":     vault.NewMemoryVault("mem"),
		"filesystem": fs,
	}
}

func TestVault_PutGet(t *testing.T) {
	for name, v := range newVaults(t) {
		name, v := name, v
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			content := "hello\nworld\n"
			err := v.PutContent("abc123", strings.NewReader(content), int64(len(content)))
			if err != nil {
				t.Fatalf("PutContent() error = %v", err)
			}

			var buf bytes.Buffer
			if err := v.GetContent("abc123", &buf); err != nil {
				t.Fatalf("GetContent() error = %v", err)
			}
			if buf.String() != content {
				t.Errorf("got %q, want %q", buf.String(), content)
			}
		})
	}
}

func TestVault_PutIsIdempotent(t *testing.T) {
	for name, v := range newVaults(t) {
		name, v := name, v
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			content := "same bytes"
			for i := 0; i < 2; i++ {
				err := v.PutContent("dup", strings.NewReader(content), int64(len(content)))
				if err != nil {
					t.Fatalf("PutContent() error = %v", err)
				}
			}

			var buf bytes.Buffer
			if err := v.GetContent("dup", &buf); err != nil {
				t.Fatalf("GetContent() error = %v", err)
			}
			if buf.String() != content {
				t.Errorf("got %q, want %q", buf.String(), content)
			}
		})
	}
}

func TestVault_SizeMismatch(t *testing.T) {
	for name, v := range newVaults(t) {
		name, v := name, v
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := v.PutContent("bad", strings.NewReader("short"), 999)
			if err == nil {
				t.Error("PutContent() should error on size mismatch")
			}
		})
	}
}

func TestVault_GetMissing(t *testing.T) {
	for name, v := range newVaults(t) {
		name, v := name, v
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			if err := v.GetContent("nope", &buf); err == nil {
				t.Error("GetContent() should error for unknown checksum")
			}
		})
	}
}

func TestVault_ValidateSetup(t *testing.T) {
	for name, v := range newVaults(t) {
		name, v := name, v
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if err := v.ValidateSetup(); err != nil {
				t.Errorf("ValidateSetup() error = %v", err)
			}
		})
	}
}

func TestNewVaultFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("filesystem", func(t *testing.T) {
		t.Parallel()
		v, err := vault.NewVaultFromConfig(config.VaultConfig{
			Type:        "filesystem",
			Name:        "local",
			FSVaultRoot: t.TempDir(),
		})
		if err != nil {
			t.Fatalf("NewVaultFromConfig() error = %v", err)
		}
		if _, ok := v.(*vault.FileSystemVault); !ok {
			t.Errorf("got %T, want *vault.FileSystemVault", v)
		}
	})

	t.Run("filesystem requires a root", func(t *testing.T) {
		t.Parallel()
		if _, err := vault.NewVaultFromConfig(config.VaultConfig{Type: "filesystem"}); err == nil {
			t.Error("NewVaultFromConfig() should error without fs_vault_root")
		}
	})

	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		v, err := vault.NewVaultFromConfig(config.VaultConfig{Type: "memory", Name: "m"})
		if err != nil {
			t.Fatalf("NewVaultFromConfig() error = %v", err)
		}
		if _, ok := v.(*vault.MemoryVault); !ok {
			t.Errorf("got %T, want *vault.MemoryVault", v)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()
		if _, err := vault.NewVaultFromConfig(config.VaultConfig{Type: "ftp"}); err == nil {
			t.Error("NewVaultFromConfig() should error for unknown type")
		}
	})
}
