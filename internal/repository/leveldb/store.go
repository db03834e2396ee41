// Package leveldb keeps the durable store in a LevelDB directory on local disk.
package leveldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"

	"gomate/internal/repository"
)

// Store is a repository.Store backed by LevelDB.
type Store struct {
	db *leveldb.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, &ldb_opt.Options{ErrorIfMissing: false})
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database files.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetItem returns the value stored under key.
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	data, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: get %s: %v", repository.ErrStorageIO, key, err)
	}
	return string(data), true, nil
}

// SetItem stores value under key.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	if err := s.db.Put([]byte(key), []byte(value), &ldb_opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("%w: put %s: %v", repository.ErrStorageIO, key, err)
	}
	return nil
}

// RemoveItem deletes key.
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if err := s.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("%w: delete %s: %v", repository.ErrStorageIO, key, err)
	}
	return nil
}

// GetAllKeys lists every stored key in byte order.
func (s *Store) GetAllKeys(ctx context.Context) ([]string, error) {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("%w: iterate: %v", repository.ErrStorageIO, err)
	}
	return keys, nil
}

// Clear removes every key in a single batch.
func (s *Store) Clear(ctx context.Context) error {
	iter := s.db.NewIterator(nil, nil)
	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return fmt.Errorf("%w: iterate: %v", repository.ErrStorageIO, err)
	}

	if err := s.db.Write(batch, &ldb_opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("%w: clear: %v", repository.ErrStorageIO, err)
	}
	return nil
}

// Ensure Store implements repository.Store.
var _ repository.Store = (*Store)(nil)
