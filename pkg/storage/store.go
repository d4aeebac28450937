/*
Package storage provides a simple key-value Store with in-memory, LevelDB and
BoltDB backends.
*/
package storage

import (
	"errors"
	"fmt"

	"github.com/assetkit/assetkit/pkg/storage/dbconfig"
)

// KeyPrefix constants.
const (
	// RegulationMiCA is used for MiCA registry entries identified by asset
	// address.
	RegulationMiCA KeyPrefix = 0x10
	// SYSVersion stores the DB schema version.
	SYSVersion KeyPrefix = 0xf0
)

// ErrKeyNotFound is an error returned by Store implementations
// when a certain key is not found.
var ErrKeyNotFound = errors.New("key not found")

type (
	// Store is the underlying KV backend. Implementations are safe for
	// concurrent use.
	Store interface {
		Get([]byte) ([]byte, error)
		Put(k, v []byte) error
		Delete(k []byte) error
		// Seek iterates over all key-value pairs with the given prefix in
		// ascending key order until f returns false. Key and value slices
		// are valid only until the next call to f and should not be
		// modified.
		Seek(prefix []byte, f func(k, v []byte) bool) error
		Close() error
	}

	// KeyPrefix is a constant byte added as a prefix for each key
	// stored.
	KeyPrefix uint8
)

// Bytes returns the bytes representation of KeyPrefix.
func (k KeyPrefix) Bytes() []byte {
	return []byte{byte(k)}
}

// Key returns a key made of the prefix and the given suffix.
func (k KeyPrefix) Key(suffix []byte) []byte {
	key := make([]byte, 1+len(suffix))
	key[0] = byte(k)
	copy(key[1:], suffix)
	return key
}

// NewStore creates storage with preselected in configuration database type.
func NewStore(cfg dbconfig.DBConfiguration) (Store, error) {
	var store Store
	var err error
	switch cfg.Type {
	case dbconfig.LevelDB:
		store, err = NewLevelDBStore(cfg.LevelDBOptions)
	case dbconfig.InMemoryDB:
		store = NewMemoryStore()
	case dbconfig.BoltDB:
		store, err = NewBoltDBStore(cfg.BoltDBOptions)
	default:
		return nil, fmt.Errorf("unknown storage: %s", cfg.Type)
	}
	return store, err
}
