package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/pharma-ledger/ledger"
)

func testChain(t *testing.T, n int) *ledger.Blockchain {
	t.Helper()
	bc, err := ledger.NewBlockchain(ledger.WithClock(func() time.Time { return time.Unix(1700000000, 0) }))
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, bc.Append(ledger.Payload{"event": "Shipped", "step": i}))
	}
	return bc
}

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadBlocks(t *testing.T) {
	s := openMemory(t)
	bc := testChain(t, 12)

	require.NoError(t, s.SaveBlocks(bc.Blocks()))

	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 13, n)

	loaded, err := s.LoadBlocks()
	require.NoError(t, err)
	require.Len(t, loaded, 13)
	for i, b := range bc.Blocks() {
		assert.Equal(t, i, loaded[i].Index(), "blocks must come back in index order")
		assert.Equal(t, b.Hash(), loaded[i].Hash())
		assert.Equal(t, b.PrevHash(), loaded[i].PrevHash())
	}
}

func TestLoadChainValidates(t *testing.T) {
	s := openMemory(t)
	bc := testChain(t, 3)
	require.NoError(t, s.SaveBlocks(bc.Blocks()))

	restored, err := s.LoadChain()
	require.NoError(t, err)

	ok, idx, err := restored.Validate()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, -1, idx)
}

func TestLoadChainEmptyStore(t *testing.T) {
	s := openMemory(t)

	_, err := s.LoadChain()
	assert.True(t, errors.Is(err, ledger.ErrEmptyChain))
}

func TestSaveBlockIdempotent(t *testing.T) {
	s := openMemory(t)
	bc := testChain(t, 1)
	latest, err := bc.GetLatest()
	require.NoError(t, err)

	require.NoError(t, s.SaveBlock(latest))
	require.NoError(t, s.SaveBlock(latest))

	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSaveBlockConflict(t *testing.T) {
	s := openMemory(t)
	bc := testChain(t, 1)
	latest, err := bc.GetLatest()
	require.NoError(t, err)
	require.NoError(t, s.SaveBlock(latest))

	other, err := ledger.NewBlock(latest.Index(), latest.Timestamp(), ledger.Payload{"event": "Other"}, latest.PrevHash())
	require.NoError(t, err)

	err = s.SaveBlock(other)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	bc := testChain(t, 2)

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveBlocks(bc.Blocks()))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	restored, err := s.LoadChain()
	require.NoError(t, err)
	assert.Equal(t, 3, restored.Len())
	assert.NoError(t, restored.Verify())
}

func TestOpenExistingMissingStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	_, err := OpenExisting(path)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "store directory must not be created")
}

func TestOpenExistingAfterOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveBlocks(testChain(t, 2).Blocks()))
	require.NoError(t, s.Close())

	s, err = OpenExisting(path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
