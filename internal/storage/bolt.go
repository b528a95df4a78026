package storage

import (
	"bytes"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("kv")

// BoltDB implements DB using a single bbolt bucket.
type BoltDB struct {
	db *bolt.DB
}

// NewBolt opens a bbolt file at path, creating it if needed.
func NewBolt(path string) (*BoltDB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt at %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltDB{db: db}, nil
}

// Get retrieves a value by key.
func (b *BoltDB) Get(key []byte) ([]byte, error) {
	var val []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		k, v := tx.Bucket(boltBucket).Cursor().Seek(key)
		if k == nil || !bytes.Equal(k, key) {
			return ErrNotFound
		}
		val = cloneBytes(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Put stores a key-value pair. bbolt rejects empty keys.
func (b *BoltDB) Put(key, value []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put(key, value)
	})
	if err != nil {
		return fmt.Errorf("bbolt put: %w", err)
	}
	return nil
}

// Delete removes a key.
func (b *BoltDB) Delete(key []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete(key)
	})
	if err != nil {
		return fmt.Errorf("bbolt delete: %w", err)
	}
	return nil
}

// Has checks if a key exists.
func (b *BoltDB) Has(key []byte) (bool, error) {
	var exists bool
	err := b.db.View(func(tx *bolt.Tx) error {
		k, _ := tx.Bucket(boltBucket).Cursor().Seek(key)
		exists = k != nil && bytes.Equal(k, key)
		return nil
	})
	return exists, err
}

// ForEach iterates over all keys with the given prefix. Values passed to fn
// are copies, but fn must not write to b: bbolt holds a read transaction
// for the whole iteration.
func (b *BoltDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if err := fn(cloneBytes(k), cloneBytes(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

// NewBatch returns a batch committed in one bbolt transaction.
func (b *BoltDB) NewBatch() Batch {
	return &opBuffer{apply: func(ops []op) error {
		err := b.db.Update(func(tx *bolt.Tx) error {
			bkt := tx.Bucket(boltBucket)
			for _, o := range ops {
				var err error
				if o.del {
					err = bkt.Delete(o.key)
				} else {
					err = bkt.Put(o.key, o.value)
				}
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("bbolt batch: %w", err)
		}
		return nil
	}}
}

// Close closes the database.
func (b *BoltDB) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
