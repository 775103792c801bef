package storage

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Entry is one imported raindrop as recorded in the ledger.
type Entry struct {
	RaindropID int64
	Title      string
	Path       string // note path relative to the vault
	LastUpdate string // the raindrop's lastUpdate at import time
	Outcome    string // created or updated
	RunID      string
	ImportedAt time.Time
}

// Ledger remembers which raindrops have been imported.
type Ledger interface {
	Has(ctx context.Context, raindropID int64) (bool, error)
	Record(ctx context.Context, e Entry) error
	// List returns the most recent entries first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// DefaultLedgerPath returns the default ledger path: ~/.config/rainmd/imports.db
func DefaultLedgerPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "rainmd", "imports.db"), nil
}
