package network

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/nicheai/luxbin/internal/entropy"
	"github.com/nicheai/luxbin/internal/ledger"
)

// FallbackMiner mines when no node is active.
const FallbackMiner = "ibm_fez"

const (
	maxArrivals = 2    // simulated jobs per node per tick
	maxQueue    = 50   // simulated queue ceiling
	loadScale   = 0.05 // noise step per tick
)

// Options configures a Service.
type Options struct {
	Roster []*Node // defaults to DefaultRoster
	Prober Prober  // defaults to a CredentialProber with no credentials
	Source entropy.Source
	Seed   int64 // simulated load noise
}

// Service owns the roster and the chain and advances both.
type Service struct {
	mu       sync.RWMutex
	nodes    []*Node
	index    map[string]*Node
	lastVote map[string]time.Time
	live     bool
	started  bool

	chain  *ledger.Chain
	prober Prober
	src    entropy.Source
	load   opensimplex.Noise
	now    func() time.Time
}

// NewService creates a service over a chain.
func NewService(chain *ledger.Chain, opts Options) *Service {
	if opts.Roster == nil {
		opts.Roster = DefaultRoster()
	}
	if opts.Prober == nil {
		opts.Prober = CredentialProber{}
	}
	if opts.Source == nil {
		opts.Source = (*entropy.Client)(nil)
	}

	index := make(map[string]*Node, len(opts.Roster))
	for _, n := range opts.Roster {
		index[n.Name] = n
	}

	return &Service{
		nodes:    opts.Roster,
		index:    index,
		lastVote: make(map[string]time.Time),
		chain:    chain,
		prober:   opts.Prober,
		src:      opts.Source,
		load:     opensimplex.NewNormalized(opts.Seed),
		now:      time.Now,
	}
}

// Chain returns the underlying chain.
func (s *Service) Chain() *ledger.Chain {
	return s.chain
}

// Live reports whether any remote provider connected during Initialize.
func (s *Service) Live() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

// Initialize probes every provider and applies the results to the roster.
// It returns true if at least one node came up active.
func (s *Service) Initialize(ctx context.Context) (bool, error) {
	results, err := probeAll(ctx, s.prober, Providers)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active := 0
	for _, n := range s.nodes {
		st, ok := results[n.Provider]
		if !ok {
			continue
		}
		n.Status = st
		n.Simulated = n.Provider == ProviderCirq
		if st == StatusActive {
			active++
			if n.Provider != ProviderCirq {
				s.live = true
			}
		}
	}

	if active > 0 {
		slog.Info("quantum network initialized", "active_nodes", active, "live", s.live)
	} else {
		slog.Warn("no quantum backends available, running in simulation mode")
	}
	return active > 0, nil
}

// Start initializes providers, promotes the remaining initializing nodes
// to simulated active nodes, entangles every pair of nodes, and mines the
// genesis block when the chain is empty.
func (s *Service) Start(ctx context.Context) error {
	if _, err := s.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	s.mu.Lock()
	for _, n := range s.nodes {
		if n.Status == StatusInitializing {
			n.Status = StatusActive
			n.Simulated = true
		}
	}
	s.entangle()
	s.started = true
	s.mu.Unlock()

	if s.chain.Len() == 0 {
		b, err := s.MineBlock()
		if err != nil {
			return fmt.Errorf("mine genesis: %w", err)
		}
		slog.Info("genesis block mined", "hash", b.Hash[:16], "miner", b.Miner)
	}
	return nil
}

// entangle links every pair of nodes. Caller holds s.mu.
func (s *Service) entangle() {
	for _, n := range s.nodes {
		n.EntangledWith = n.EntangledWith[:0]
	}
	for i, a := range s.nodes {
		for _, b := range s.nodes[i+1:] {
			a.EntangledWith = append(a.EntangledWith, b.Name)
			b.EntangledWith = append(b.EntangledWith, a.Name)
		}
	}
	slog.Debug("entanglement network established", "nodes", len(s.nodes), "pairs", len(s.nodes)*(len(s.nodes)-1)/2)
}

// MineBlock appends a block mined by a random active node. Every node
// validates the block hash.
func (s *Service) MineBlock() (*ledger.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []*Node
	for _, n := range s.nodes {
		if n.Status == StatusActive {
			active = append(active, n)
		}
	}
	miner := FallbackMiner
	if len(active) > 0 {
		miner = active[entropy.Intn(s.src, len(active))].Name
	}
	nonce := entropy.Byte(s.src)

	b, err := s.chain.Append(miner, nonce, s.validate)
	if err != nil {
		return nil, err
	}
	slog.Info("block mined",
		"number", b.Number,
		"miner", b.Miner,
		"hash", b.Hash[:16],
		"consensus", fmt.Sprintf("%d/%d", b.Consensus.Valid, b.Consensus.Total),
	)
	return b, nil
}

// validate collects one vote per node. Caller holds s.mu.
func (s *Service) validate(b *ledger.Block) ledger.Consensus {
	c := ledger.Consensus{Total: len(s.nodes)}
	now := s.now().UTC()
	want := b.ComputeHash()
	for _, n := range s.nodes {
		vote := "invalid"
		if want == b.Hash {
			vote = "valid"
			c.Valid++
		}
		c.Validators = append(c.Validators, ledger.Vote{
			Backend: n.Name,
			Vote:    vote,
			JobID:   uuid.New().String(),
		})
		s.lastVote[n.Name] = now
	}
	return c
}

// Tick advances queues by one step. Simulated nodes receive new jobs
// following the load noise; each new job is a pending transaction. Every
// active node then completes one queued job.
func (s *Service) Tick(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	arrived := 0
	for i, n := range s.nodes {
		if n.Status != StatusActive {
			continue
		}
		if n.Simulated {
			k := s.arrivals(i, tick)
			if n.Queue+k > maxQueue {
				k = maxQueue - n.Queue
			}
			n.Queue += k
			arrived += k
		}
		if n.Queue > 0 {
			n.Queue--
			n.CompletedJobs++
		}
	}
	s.chain.AddTransactions(arrived)
}

func (s *Service) arrivals(i int, tick uint64) int {
	v := s.load.Eval2(float64(i)*7.3, float64(tick)*loadScale)
	k := int(math.Floor(v * float64(maxArrivals+1)))
	if k > maxArrivals {
		k = maxArrivals
	}
	if k < 0 {
		k = 0
	}
	return k
}

// Nodes returns a copy of the roster.
func (s *Service) Nodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Node, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = *n
		out[i].EntangledWith = append([]string(nil), n.EntangledWith...)
	}
	return out
}

// Node returns a copy of the named node.
func (s *Service) Node(name string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.index[name]
	if !ok {
		return Node{}, false
	}
	out := *n
	out.EntangledWith = append([]string(nil), n.EntangledWith...)
	return out, true
}
