package storage

import (
	"context"
	"errors"
)

// SlotStore is a single durable key->blob slot. The cart store owns the
// slot exclusively: it is read once at initialization and rewritten
// after every mutation.
type SlotStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, blob []byte) error
	Clear(ctx context.Context) error
}

var ErrNotFound = errors.New("no persisted session")
