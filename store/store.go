// Package store persists ledger blocks in LevelDB so a chain can be reloaded
// and audited after the process that built it has exited.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/luca-patrignani/pharma-ledger/ledger"
)

var (
	// ErrConflict is returned when a different block is already stored at an index.
	ErrConflict = errors.New("a different block is already stored at this index")
	// ErrNotFound is returned by OpenExisting when there is no store at the path.
	ErrNotFound = errors.New("store does not exist")
)

const blockPrefix = "block:"

// Store is an append-only archive of blocks keyed by index.
type Store struct {
	db *leveldb.DB
}

// Open opens (or creates) a store in the directory at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenExisting opens the store at path without creating it.
func OpenExisting(path string) (*Store, error) {
	// leveldb creates the directory before it checks ErrorIfMissing.
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("open store %s: %w", path, ErrNotFound)
	}
	db, err := leveldb.OpenFile(path, &opt.Options{ErrorIfMissing: true})
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("open store %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenMemory opens a store that lives only in memory.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// blockKey zero-pads the index so that key order is index order.
func blockKey(index int) []byte {
	return []byte(fmt.Sprintf("%s%020d", blockPrefix, index))
}

// SaveBlock stores a single block. Saving the same block twice is a no-op;
// saving a different block at an occupied index fails with ErrConflict.
func (s *Store) SaveBlock(b ledger.Block) error {
	return s.SaveBlocks([]ledger.Block{b})
}

// SaveBlocks stores blocks in one atomic batch, skipping those already stored.
func (s *Store) SaveBlocks(blocks []ledger.Block) error {
	batch := new(leveldb.Batch)
	for _, b := range blocks {
		value, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode block %d: %w", b.Index(), err)
		}
		key := blockKey(b.Index())
		existing, err := s.db.Get(key, nil)
		switch {
		case errors.Is(err, leveldb.ErrNotFound):
			batch.Put(key, value)
		case err != nil:
			return fmt.Errorf("read block %d: %w", b.Index(), err)
		case !bytes.Equal(existing, value):
			return fmt.Errorf("save block %d: %w", b.Index(), ErrConflict)
		}
	}
	if batch.Len() == 0 {
		return nil
	}
	return s.db.Write(batch, nil)
}

// LoadBlocks returns every stored block in index order.
func (s *Store) LoadBlocks() ([]ledger.Block, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(blockPrefix)), nil)
	defer iter.Release()

	var blocks []ledger.Block
	for iter.Next() {
		var b ledger.Block
		if err := json.Unmarshal(iter.Value(), &b); err != nil {
			return nil, fmt.Errorf("decode %s: %w", iter.Key(), err)
		}
		blocks = append(blocks, b)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate blocks: %w", err)
	}
	return blocks, nil
}

// Len returns the number of stored blocks.
func (s *Store) Len() (int, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(blockPrefix)), nil)
	defer iter.Release()

	n := 0
	for iter.Next() {
		n++
	}
	return n, iter.Error()
}

// LoadChain rebuilds a blockchain from the stored blocks. The chain is not
// validated; an empty store yields ledger.ErrEmptyChain.
func (s *Store) LoadChain(opts ...ledger.Option) (*ledger.Blockchain, error) {
	blocks, err := s.LoadBlocks()
	if err != nil {
		return nil, err
	}
	return ledger.FromBlocks(blocks, opts...)
}
