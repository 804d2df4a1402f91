package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/pharma-ledger/ledger"
)

func testBlocks(t *testing.T) []ledger.Block {
	t.Helper()
	bc, err := ledger.NewBlockchain(ledger.WithClock(func() time.Time { return time.Unix(1700000000, 0) }))
	require.NoError(t, err)
	require.NoError(t, bc.Append(ledger.Payload{"event": "Manufactured", "batch_id": "B1", "location": "Factory A"}))
	require.NoError(t, bc.Append(ledger.Payload{"event": "Shipped", "batch_id": "B1"}))
	return bc.Blocks()
}

func readRecords(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteCSVCreatesFileWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	blocks := testBlocks(t)

	require.NoError(t, WriteCSV(path, blocks))

	records := readRecords(t, path)
	require.Len(t, records, 1+len(blocks))
	assert.Equal(t, Header, records[0])
	for i, b := range blocks {
		row := records[i+1]
		assert.Equal(t, b.Time().Format(TimeLayout), row[0])
		assert.Equal(t, b.Hash(), row[2])
	}
}

func TestWriteCSVAppendsWithoutDuplicateHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	blocks := testBlocks(t)

	require.NoError(t, WriteCSV(path, blocks))
	require.NoError(t, WriteCSV(path, blocks))

	records := readRecords(t, path)
	require.Len(t, records, 1+2*len(blocks))
	headers := 0
	for _, rec := range records {
		if rec[0] == "Timestamp" {
			headers++
		}
	}
	assert.Equal(t, 1, headers)
}

func TestWriteCSVEmptyFileGetsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	need, err := HeaderNeeded(path)
	require.NoError(t, err)
	assert.True(t, need)

	require.NoError(t, WriteCSV(path, testBlocks(t)))
	assert.Equal(t, Header, readRecords(t, path)[0])
}

func TestWriteCSVHeaderlessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, os.WriteFile(path, []byte("legacy,row"), 0o644))

	need, err := HeaderNeeded(path)
	require.NoError(t, err)
	assert.True(t, need)

	blocks := testBlocks(t)
	require.NoError(t, WriteCSV(path, blocks))

	records := readRecords(t, path)
	require.Len(t, records, 2+len(blocks))
	assert.Equal(t, []string{"legacy", "row"}, records[0])
	assert.Equal(t, Header, records[1])

	need, err = HeaderNeeded(path)
	require.NoError(t, err)
	assert.True(t, need, "first line is still not a header")
}

func TestWriteRowsCanonicalData(t *testing.T) {
	var buf bytes.Buffer
	blocks := testBlocks(t)

	require.NoError(t, WriteRows(&buf, blocks[1:2], false))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, `{"batch_id":"B1","event":"Manufactured","location":"Factory A"}`, records[0][1])
}

func TestWriteCSVFailureLeavesChainIntact(t *testing.T) {
	bc, err := ledger.NewBlockchain()
	require.NoError(t, err)
	require.NoError(t, bc.Append(ledger.Payload{"event": "Sold"}))

	dir := t.TempDir()
	err = WriteCSV(dir, bc.Blocks())
	require.Error(t, err)

	assert.Equal(t, 2, bc.Len())
	assert.NoError(t, bc.Verify())
}
