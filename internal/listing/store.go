// Package listing is the read side of the model listing record store.
package listing

import (
	"context"
	"errors"

	"modelfolio/pkg/types"
)

// ErrNotFound is returned when a listing id does not exist.
var ErrNotFound = errors.New("listing not found")

// IsNotFound reports whether err indicates a missing listing.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Store exposes listings by id, by owner, and the public catalog.
type Store interface {
	Get(ctx context.Context, id string) (types.Listing, error)
	ByOwner(ctx context.Context, userID string) ([]types.Listing, error)
	Public(ctx context.Context) ([]types.Listing, error)
	Ping(ctx context.Context) error
}
