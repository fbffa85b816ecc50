package storage

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v3"
	log "github.com/sirupsen/logrus"
)

// BadgerStore is a Store backed by an embedded badger database. The daemon
// uses it where state must survive restarts without depending on a single
// JSON file growing unbounded.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a badger database at dbDir.
func NewBadgerStore(dbDir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dbDir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbDir, err)
	}

	log.WithField("dir", dbDir).Debug("opened badger store")
	return &BadgerStore{db: db}, nil
}

// Get returns the value for key.
func (b *BadgerStore) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("badger read failed: %w", err)
	}
	return value, true, nil
}

// Set stores value under key.
func (b *BadgerStore) Set(key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("badger write failed: %w", err)
	}
	return nil
}

// Delete removes key.
func (b *BadgerStore) Delete(key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger delete failed: %w", err)
	}
	return nil
}

// Reset removes all keys.
func (b *BadgerStore) Reset() error {
	if err := b.db.DropAll(); err != nil {
		return fmt.Errorf("badger reset failed: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}
