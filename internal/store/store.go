// Package store adapts a path-addressed hierarchical document store. Values
// are addressed by "/"-delimited paths, each path holds one JSON document,
// and writes are atomic per path only: there is no multi-path transaction,
// so every read-modify-write sequence layered on top can lose updates to a
// concurrent writer of the same path.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrNotFound is returned when no value exists at the requested path.
	ErrNotFound = errors.New("store: path absent")
	// ErrFetchFailed is returned when a value exists but does not match the
	// expected shape.
	ErrFetchFailed = errors.New("store: fetch failed")
)

// Subscription is a live feed of the full current value at a path. A new
// value is delivered after every write to the path or any of its
// descendants. The feed does not terminate until Close is called.
type Subscription interface {
	// Updates yields the full JSON document at the subscribed path. The
	// channel is closed after Close.
	Updates() <-chan json.RawMessage
	Close() error
}

// Store is the remote document store consumed by the managers.
type Store interface {
	// Read unmarshals the value at path into dest. Returns ErrNotFound when
	// the path is absent and wraps ErrFetchFailed when the stored value does
	// not decode into dest.
	Read(ctx context.Context, path string, dest any) error
	// Write replaces the whole value at path. Last write wins.
	Write(ctx context.Context, path string, value any) error
	// Subscribe opens a live feed for path. The current value (if any) is
	// delivered first, then every subsequent change.
	Subscribe(ctx context.Context, path string) (Subscription, error)
}
