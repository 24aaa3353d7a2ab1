// Package ledger keeps the service's hash-linked block chain. Each block
// commits to its predecessor through a SHA-256 hash of its header.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// GenesisPreviousHash links the first block.
var GenesisPreviousHash = strings.Repeat("0", 64)

// ConsensusThreshold is the number of valid votes a block needs.
const ConsensusThreshold = 2

var (
	ErrBrokenLink   = errors.New("block does not link to its predecessor")
	ErrHashMismatch = errors.New("block hash does not match its header")
	ErrNoConsensus  = errors.New("block did not reach consensus")
)

// Vote is one validator's verdict on a block.
type Vote struct {
	Backend string `json:"backend"`
	Vote    string `json:"vote"`
	JobID   string `json:"jobId"`
}

// Consensus is the tally of validator votes.
type Consensus struct {
	Total      int    `json:"total"`
	Valid      int    `json:"valid"`
	Validators []Vote `json:"validators"`
}

// Reached reports whether enough validators accepted the block.
func (c Consensus) Reached() bool {
	return c.Valid >= ConsensusThreshold
}

// Block is one entry of the chain.
type Block struct {
	Number       uint64    `json:"number"`
	Timestamp    time.Time `json:"timestamp"`
	Transactions int       `json:"transactions"`
	PreviousHash string    `json:"previous_hash"`
	Miner        string    `json:"miner"`
	QuantumNonce uint8     `json:"quantum_nonce"`
	Hash         string    `json:"hash"`
	Consensus    Consensus `json:"consensusVotes"`
}

// header is the hashed part of a block. Fields are in lexical key order so
// the JSON encoding is canonical.
type header struct {
	Miner        string `json:"miner"`
	Number       uint64 `json:"number"`
	PreviousHash string `json:"previous_hash"`
	QuantumNonce uint8  `json:"quantum_nonce"`
	Timestamp    string `json:"timestamp"`
	Transactions int    `json:"transactions"`
}

// ComputeHash returns the hex SHA-256 of the block header.
func (b *Block) ComputeHash() string {
	h := header{
		Miner:        b.Miner,
		Number:       b.Number,
		PreviousHash: b.PreviousHash,
		QuantumNonce: b.QuantumNonce,
		Timestamp:    b.Timestamp.UTC().Format(time.RFC3339Nano),
		Transactions: b.Transactions,
	}
	data, _ := json.Marshal(h)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Validator votes on a freshly hashed block.
type Validator func(b *Block) Consensus

// Chain is an append-only block list with pending transaction accounting.
// It is safe for concurrent use.
type Chain struct {
	mu      sync.RWMutex
	blocks  []*Block
	pending int
	now     func() time.Time
}

// NewChain returns an empty chain.
func NewChain() *Chain {
	return &Chain{now: time.Now}
}

// Restore replaces the chain contents with previously persisted blocks.
// The blocks are verified before they are accepted.
func (c *Chain) Restore(blocks []*Block) error {
	if err := verify(blocks); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks = blocks
	return nil
}

// AddTransactions queues n transactions for the next block.
func (c *Chain) AddTransactions(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	c.pending += n
	c.mu.Unlock()
}

// Pending returns the number of queued transactions.
func (c *Chain) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pending
}

// Append mines the next block: it links and hashes the header, collects
// votes, and appends the block if consensus is reached. Pending
// transactions are folded into the block.
func (c *Chain) Append(miner string, nonce uint8, validate Validator) (*Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := GenesisPreviousHash
	if n := len(c.blocks); n > 0 {
		prev = c.blocks[n-1].Hash
	}

	b := &Block{
		Number:       uint64(len(c.blocks)) + 1,
		Timestamp:    c.now().UTC(),
		Transactions: c.pending,
		PreviousHash: prev,
		Miner:        miner,
		QuantumNonce: nonce,
	}
	b.Hash = b.ComputeHash()

	if validate != nil {
		b.Consensus = validate(b)
		if !b.Consensus.Reached() {
			return nil, fmt.Errorf("block %d: %w (%d/%d)", b.Number, ErrNoConsensus, b.Consensus.Valid, b.Consensus.Total)
		}
	}

	c.blocks = append(c.blocks, b)
	c.pending = 0
	return b, nil
}

// Len returns the number of blocks.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// Latest returns the most recent block, or nil for an empty chain.
func (c *Chain) Latest() *Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.blocks) == 0 {
		return nil
	}
	b := *c.blocks[len(c.blocks)-1]
	return &b
}

// Blocks returns up to limit of the most recent blocks, newest first.
// A non-positive limit returns all blocks.
func (c *Chain) Blocks(limit int) []Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := len(c.blocks)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Block, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, *c.blocks[i])
	}
	return out
}

// TotalTransactions sums the transactions of all blocks.
func (c *Chain) TotalTransactions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0
	for _, b := range c.blocks {
		total += b.Transactions
	}
	return total
}

// Verify checks every link and hash in the chain.
func (c *Chain) Verify() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return verify(c.blocks)
}

func verify(blocks []*Block) error {
	prev := GenesisPreviousHash
	for i, b := range blocks {
		if b.Number != uint64(i)+1 {
			return fmt.Errorf("block at height %d numbered %d: %w", i+1, b.Number, ErrBrokenLink)
		}
		if b.PreviousHash != prev {
			return fmt.Errorf("block %d: %w", b.Number, ErrBrokenLink)
		}
		if b.ComputeHash() != b.Hash {
			return fmt.Errorf("block %d: %w", b.Number, ErrHashMismatch)
		}
		prev = b.Hash
	}
	return nil
}
