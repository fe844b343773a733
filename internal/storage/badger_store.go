// internal/storage/badger_store.go
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

var ErrNotFound = errors.New("entity not found")

// Entity represents any storable entity with an ID
type Entity interface {
	GetID() string
}

// Codec turns entities into stored bytes and back
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

type jsonCodec struct{}

func (jsonCodec) Encode(v any) ([]byte, error)    { return json.Marshal(v) }
func (jsonCodec) Decode(data []byte, v any) error { return json.Unmarshal(data, v) }

// JSONCodec stores entities as plain JSON
var JSONCodec Codec = jsonCodec{}

// BadgerStore provides generic prefix-scoped storage operations
type BadgerStore struct {
	db     *badger.DB
	prefix string
	codec  Codec
}

func NewBadgerStore(db *badger.DB, prefix string, codec Codec) *BadgerStore {
	if codec == nil {
		codec = JSONCodec
	}
	return &BadgerStore{
		db:     db,
		prefix: prefix,
		codec:  codec,
	}
}

func (s *BadgerStore) makeKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", s.prefix, id))
}

func (s *BadgerStore) stripPrefix(key []byte) string {
	return strings.TrimPrefix(string(key), s.prefix+":")
}

func (s *BadgerStore) Create(entity Entity) error {
	if entity.GetID() == "" {
		return fmt.Errorf("entity ID cannot be empty")
	}

	data, err := s.codec.Encode(entity)
	if err != nil {
		return fmt.Errorf("encoding entity: %w", err)
	}

	key := s.makeKey(entity.GetID())
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return fmt.Errorf("entity already exists: %s", entity.GetID())
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		return txn.Set(key, data)
	})
}

func (s *BadgerStore) Get(id string, entity Entity) error {
	key := s.makeKey(id)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return s.codec.Decode(val, entity)
		})
	})

	if err == badger.ErrKeyNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

func (s *BadgerStore) Delete(id string) error {
	key := s.makeKey(id)

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		} else if err != nil {
			return err
		}

		return txn.Delete(key)
	})
}

// Scan visits stored values in key order, or reverse key order, until visit
// returns false or limit values have been seen. limit <= 0 means no limit.
func (s *BadgerStore) Scan(reverse bool, limit int, visit func(id string, val []byte) (bool, error)) error {
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = reverse
		opts.Prefix = []byte(s.prefix + ":")
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(s.prefix + ":")
		seek := prefix
		if reverse {
			// one past every key under the prefix
			seek = append([]byte(s.prefix+":"), 0xFF)
		}

		seen := 0
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id := s.stripPrefix(item.Key())

			var more bool
			err := item.Value(func(val []byte) error {
				var err error
				more, err = visit(id, val)
				return err
			})
			if err != nil {
				return err
			}

			seen++
			if !more || (limit > 0 && seen >= limit) {
				return nil
			}
		}
		return nil
	})

	if err != nil {
		return fmt.Errorf("scanning entities: %w", err)
	}
	return nil
}

// Decode exposes the store codec to Scan callers
func (s *BadgerStore) Decode(val []byte, v any) error {
	return s.codec.Decode(val, v)
}
