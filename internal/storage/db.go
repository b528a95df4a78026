// Package storage provides the key-value stores the UTXO set is kept in.
package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("key not found")

// DB is the interface for key-value storage.
type DB interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	// ForEach iterates over all keys with the given prefix in key order.
	// The callback receives a copy of the key and value.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

// Batch collects writes that Commit applies together.
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Commit() error
}

// Batcher is implemented by stores that commit a Batch atomically.
type Batcher interface {
	NewBatch() Batch
}

// Backend names accepted by Open.
const (
	BackendBadger = "badger"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Open opens the named backend at path. path is ignored for memory.
func Open(backend, path string) (DB, error) {
	switch backend {
	case BackendBadger, "":
		return NewBadger(path)
	case BackendBolt:
		return NewBolt(path)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// NewBatch returns an atomic batch when db supports one and a buffered,
// non-atomic batch otherwise.
func NewBatch(db DB) Batch {
	if b, ok := db.(Batcher); ok {
		return b.NewBatch()
	}
	return &opBuffer{apply: func(ops []op) error {
		for _, o := range ops {
			var err error
			if o.del {
				err = db.Delete(o.key)
			} else {
				err = db.Put(o.key, o.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}}
}

// op is one buffered write.
type op struct {
	key   []byte
	value []byte
	del   bool
}

// opBuffer copies writes until Commit hands them to apply.
type opBuffer struct {
	ops   []op
	apply func([]op) error
}

func (b *opBuffer) Put(key, value []byte) error {
	b.ops = append(b.ops, op{key: cloneBytes(key), value: cloneBytes(value)})
	return nil
}

func (b *opBuffer) Delete(key []byte) error {
	b.ops = append(b.ops, op{key: cloneBytes(key), del: true})
	return nil
}

func (b *opBuffer) Commit() error {
	ops := b.ops
	b.ops = nil
	if len(ops) == 0 {
		return nil
	}
	return b.apply(ops)
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
