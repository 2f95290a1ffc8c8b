// Package store defines the client's local persisted state. The only state
// the app persists between runs is the opaque bearer token, held in a single
// key-value slot.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// TokenKey is the fixed slot name the bearer token is stored under.
const TokenKey = "token"

type Store interface {
	SaveToken(ctx context.Context, token string) error
	LoadToken(ctx context.Context) (string, error)
	DeleteToken(ctx context.Context) error
	Close() error
}
