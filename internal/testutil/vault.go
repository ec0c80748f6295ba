package testutil

import (
	"lth-go/internal/hist"
	"lth-go/internal/vault"
)

// NewTestVault returns an in-memory vault for tests.
func NewTestVault() hist.Vault {
	return vault.NewMemoryVault("test")
}
