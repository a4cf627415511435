// Package storage persists the workout list to a durable key-value slot.
package storage

import (
	"context"
	"errors"
)

// ErrSlotEmpty is returned by Slot.Get when nothing is stored under the key.
var ErrSlotEmpty = errors.New("slot is empty")

// Slot is a durable key-value cell. Each Put replaces the previous value.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Compile-time checks.
var (
	_ Slot = (*SQLiteSlot)(nil)
	_ Slot = (*DB)(nil)
	_ Slot = (*MemorySlot)(nil)
)
