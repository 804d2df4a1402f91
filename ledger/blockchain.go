package ledger

import (
	"fmt"
	"sync"
	"time"
)

// Blockchain maintains an append-only log of supply-chain events.
// It provides cryptographic verification of the entire history through
// hash chaining.
type Blockchain struct {
	mu     sync.RWMutex     // Protects concurrent access to blocks
	blocks []Block          // The chain, in index order
	now    func() time.Time // Clock used to stamp new blocks
}

// Option configures a Blockchain.
type Option func(*Blockchain)

// WithClock replaces the clock used to timestamp new blocks.
func WithClock(now func() time.Time) Option {
	return func(bc *Blockchain) {
		bc.now = now
	}
}

// NewBlockchain creates a new blockchain initialized with a genesis block.
//
// The genesis block:
//   - Has index 0 and previous hash "0"
//   - Carries the payload {"event": "Genesis Block"}
//   - Is timestamped with the creation time of the chain
//
// Returns an error only if the genesis hash cannot be calculated.
func NewBlockchain(opts ...Option) (*Blockchain, error) {
	bc := newBlockchain(opts)

	genesis, err := NewBlock(0, bc.now().Unix(), genesisPayload(), GenesisPrevHash)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate genesis block hash: %w", err)
	}
	bc.blocks = append(bc.blocks, genesis)

	return bc, nil
}

// FromBlocks rebuilds a blockchain from previously recorded blocks, e.g. the
// content of a store. The blocks are taken as they are: call Validate to
// find out whether they still form an intact chain.
func FromBlocks(blocks []Block, opts ...Option) (*Blockchain, error) {
	if len(blocks) == 0 {
		return nil, ErrEmptyChain
	}
	bc := newBlockchain(opts)
	bc.blocks = append(bc.blocks, blocks...)
	return bc, nil
}

func newBlockchain(opts []Option) *Blockchain {
	bc := &Blockchain{
		blocks: make([]Block, 0),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(bc)
	}
	return bc
}

// Append records a new event. The tail is read, the new block is linked to
// it and pushed under a single lock, so concurrent callers never fork the
// chain. Returns an error wrapping ErrSerialization if the payload cannot be
// encoded, in which case the chain is left unchanged.
func (bc *Blockchain) Append(data Payload) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	latest, err := bc.latest()
	if err != nil {
		return err
	}

	newBlock, err := NewBlock(latest.index+1, bc.now().Unix(), data, latest.hash)
	if err != nil {
		return fmt.Errorf("failed to create block %d: %w", latest.index+1, err)
	}

	bc.blocks = append(bc.blocks, newBlock)

	return nil
}

// ForceAppend pushes a block without linking or checking it. It exists to
// model an injected, malformed block; regular events go through Append.
func (bc *Blockchain) ForceAppend(b Block) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	bc.blocks = append(bc.blocks, b)
}

// GetLatest returns the most recently added block in the blockchain.
// Returns ErrEmptyChain if the blockchain is empty.
func (bc *Blockchain) GetLatest() (Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	return bc.latest()
}

func (bc *Blockchain) latest() (Block, error) {
	if len(bc.blocks) == 0 {
		return Block{}, ErrEmptyChain
	}
	return bc.blocks[len(bc.blocks)-1], nil
}

// GetByIndex retrieves a block by its position in the chain.
func (bc *Blockchain) GetByIndex(index int) (Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if index < 0 || index >= len(bc.blocks) {
		return Block{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	return bc.blocks[index], nil
}

// Len returns the number of blocks, genesis included.
func (bc *Blockchain) Len() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	return len(bc.blocks)
}

// Blocks returns a point-in-time copy of the chain in index order. This is
// the read view used by exporters and renderers.
func (bc *Blockchain) Blocks() []Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	out := make([]Block, len(bc.blocks))
	copy(out, bc.blocks)
	return out
}

// Validate walks the chain and reports whether it is intact.
//
// Checks:
//   - Genesis block has index 0 and previous hash "0"
//   - Each block's previous hash matches the previous block's hash
//   - Each block's index follows the previous one
//   - Each block's stored hash matches the digest of its content
//
// On the first failure Validate returns false and the index of the offending
// block; a valid chain yields true and -1. An invalid chain is a normal
// outcome, not an error: the only error is ErrEmptyChain.
//
// Thread-safety: This method is safe for concurrent access.
func (bc *Blockchain) Validate() (bool, int, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if len(bc.blocks) == 0 {
		return false, -1, ErrEmptyChain
	}
	if v := bc.firstViolation(); v != nil {
		return false, v.Index, nil
	}
	return true, -1, nil
}

// Verify is Validate in error form. It returns nil for an intact chain,
// ErrEmptyChain, or an *IntegrityViolation describing the first broken block.
func (bc *Blockchain) Verify() error {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if len(bc.blocks) == 0 {
		return ErrEmptyChain
	}
	if v := bc.firstViolation(); v != nil {
		return v
	}
	return nil
}

// firstViolation must be called with the lock held on a non-empty chain.
func (bc *Blockchain) firstViolation() *IntegrityViolation {
	genesis := bc.blocks[0]
	if genesis.index != 0 || genesis.prevHash != GenesisPrevHash {
		return &IntegrityViolation{Index: 0, Reason: "invalid genesis block"}
	}
	if reason := checkDigest(genesis); reason != "" {
		return &IntegrityViolation{Index: 0, Reason: reason}
	}

	for i := 1; i < len(bc.blocks); i++ {
		if reason := validateBlock(bc.blocks[i], bc.blocks[i-1]); reason != "" {
			return &IntegrityViolation{Index: i, Reason: reason}
		}
	}
	return nil
}

// validateBlock verifies that a block is valid relative to the previous block.
// It returns the reason for the first failed check, or "" if none failed.
func validateBlock(current, previous Block) string {
	if current.prevHash != previous.hash {
		return fmt.Sprintf("invalid prev hash: expected %s, got %s", previous.hash, current.prevHash)
	}
	if current.index != previous.index+1 {
		return fmt.Sprintf("invalid index: expected %d, got %d", previous.index+1, current.index)
	}
	return checkDigest(current)
}

func checkDigest(b Block) string {
	expected, err := b.Recompute()
	if err != nil {
		return fmt.Sprintf("failed to calculate hash: %v", err)
	}
	if b.hash != expected {
		return fmt.Sprintf("invalid hash: expected %s, got %s", expected, b.hash)
	}
	return ""
}
