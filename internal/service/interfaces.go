package service

import (
	"context"

	"github.com/rryowa/newsapp/internal/models"
)

// IPChangeNotifier is told when a refresh arrives from a different address
// than the one the session was opened from.
type IPChangeNotifier interface {
	NotifyIPChange(ctx context.Context, event models.IPChangeEvent)
}

// PasswordHasher is a one-way hash with an opaque comparison.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
