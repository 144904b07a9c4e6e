// Package storage persists whole collections as single JSON values under
// well-known keys, the way the browser client kept them in local storage.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// ErrCorrupt marks a stored value that could not be decoded.
var ErrCorrupt = errors.New("storage: corrupt value")

type Store interface {
	// Load decodes the value under key into dst. found is false when the key
	// has never been written.
	Load(ctx context.Context, key string, dst any) (found bool, err error)
	Save(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

const (
	KeyEvents = "events"
)

func TicketsKey(userID string) string       { return fmt.Sprintf("bookedTickets:%s", userID) }
func FavoritesKey(userID string) string     { return fmt.Sprintf("favorites:%s", userID) }
func NotificationsKey(userID string) string { return fmt.Sprintf("notifications:%s", userID) }
func ProfileKey(userID string) string       { return fmt.Sprintf("userProfile:%s", userID) }
func SessionKey(sessionID string) string    { return fmt.Sprintf("session:%s", sessionID) }
func AccountKey(email string) string        { return fmt.Sprintf("account:%s", email) }
func ReviewsKey(eventID string) string      { return fmt.Sprintf("reviews:%s", eventID) }

// LoadOr loads key into dst and reports whether a stored value was used.
// On false the caller falls back to its default; dst may hold a partial
// decode. Corrupt values and backend failures are logged, never returned,
// so LoadOr is only for reads; writes go through LoadForUpdate.
func LoadOr(ctx context.Context, s Store, key string, dst any) bool {
	found, err := s.Load(ctx, key, dst)
	if err != nil {
		slog.Error("Failed to load stored value, using default", "key", key, "error", err)
		return false
	}
	return found
}

// LoadForUpdate loads key ahead of a read-modify-write. A corrupt value is
// logged and reported as not found so the write replaces it. Backend
// failures are returned; the caller must not save over data it could not
// read.
func LoadForUpdate(ctx context.Context, s Store, key string, dst any) (bool, error) {
	found, err := s.Load(ctx, key, dst)
	if errors.Is(err, ErrCorrupt) {
		slog.Error("Replacing corrupt stored value", "key", key, "error", err)
		return false, nil
	}
	return found, err
}

func decode(key string, data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: key %s: %v", ErrCorrupt, key, err)
	}
	return nil
}
