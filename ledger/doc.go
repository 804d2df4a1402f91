// Package ledger implements an append-only, tamper-evident event ledger for
// recording the journey of a pharmaceutical batch through the supply chain.
//
// # Core Components
//
// Blockchain: An ordered log of supply-chain events with cryptographic
// hash chaining for tamper detection.
//
// Block: A single event containing its position, capture time, payload
// and the digest of the block before it.
//
// # Security Properties
//
// The blockchain provides:
//   - Immutability: blocks expose no setters and hand out copies of their payload
//   - Verifiability: every link and every digest can be re-checked at any time
//   - Tamper detection: a broken link or a stale digest is reported with its index
//
// # Usage
//
// Create a blockchain (the genesis block is created for you), append payloads
// as events happen, and call Validate whenever the chain must be audited.
// Formatting and export live outside this package and consume Blocks.
package ledger
