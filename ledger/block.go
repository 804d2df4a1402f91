package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// GenesisPrevHash is the sentinel previous hash of the genesis block.
// It is not a valid digest.
const GenesisPrevHash = "0"

// Block is one immutable ledger entry. Its hash is computed once, from the
// other four fields, when the block is built.
type Block struct {
	index     int
	timestamp int64
	data      Payload
	prevHash  string
	hash      string
}

// NewBlock builds a block and computes its digest over the canonical encoding
// of its content. The payload is copied; later changes by the caller do not
// reach the block. Returns an error wrapping ErrSerialization if the payload
// cannot be encoded.
func NewBlock(index int, timestamp int64, data Payload, prevHash string) (Block, error) {
	normalized, err := normalizePayload(data)
	if err != nil {
		return Block{}, err
	}
	hash, err := calculateHash(index, timestamp, normalized, prevHash)
	if err != nil {
		return Block{}, err
	}
	return Block{
		index:     index,
		timestamp: timestamp,
		data:      normalized,
		prevHash:  prevHash,
		hash:      hash,
	}, nil
}

func (b Block) Index() int { return b.index }

// Timestamp is the capture time in Unix seconds.
func (b Block) Timestamp() int64 { return b.timestamp }

// Time returns the capture time in the local zone.
func (b Block) Time() time.Time { return time.Unix(b.timestamp, 0) }

// Data returns a copy of the payload.
func (b Block) Data() Payload { return b.data.Clone() }

func (b Block) PrevHash() string { return b.prevHash }

func (b Block) Hash() string { return b.hash }

// Recompute derives the digest from the block's content again. For an
// untouched block the result equals Hash.
func (b Block) Recompute() (string, error) {
	return calculateHash(b.index, b.timestamp, b.data, b.prevHash)
}

type blockJSON struct {
	Index     int     `json:"index"`
	Timestamp int64   `json:"timestamp"`
	Data      Payload `json:"data"`
	PrevHash  string  `json:"prev_hash"`
	Hash      string  `json:"hash"`
}

func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(blockJSON{
		Index:     b.index,
		Timestamp: b.timestamp,
		Data:      b.data,
		PrevHash:  b.prevHash,
		Hash:      b.hash,
	})
}

// UnmarshalJSON restores a block as it was stored. The stored hash is kept
// verbatim so that validation can catch content that no longer matches it.
func (b *Block) UnmarshalJSON(raw []byte) error {
	var bj blockJSON
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&bj); err != nil {
		return fmt.Errorf("decode block: %w", err)
	}
	data, err := normalizePayload(bj.Data)
	if err != nil {
		return fmt.Errorf("decode block %d: %w", bj.Index, err)
	}
	*b = Block{
		index:     bj.Index,
		timestamp: bj.Timestamp,
		data:      data,
		prevHash:  bj.PrevHash,
		hash:      bj.Hash,
	}
	return nil
}
