package network

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nicheai/luxbin/internal/ledger"
)

// Status is the dashboard snapshot of the network and chain.
type Status struct {
	Network    NetworkStatus    `json:"network"`
	Blockchain BlockchainStatus `json:"blockchain"`
	Quantum    QuantumStatus    `json:"quantum"`
	Timestamp  time.Time        `json:"timestamp"`
	Mock       bool             `json:"_mock"`
}

// NetworkStatus summarises the validator set and its consensus threshold.
type NetworkStatus struct {
	Status             string            `json:"status"`
	Validators         []ValidatorStatus `json:"validators"`
	TotalValidators    int               `json:"totalValidators"`
	ConsensusThreshold int               `json:"consensusThreshold"`
}

// ValidatorStatus is one backend as shown in the validator list.
type ValidatorStatus struct {
	Name           string     `json:"name"`
	Location       string     `json:"location"`
	Qubits         int        `json:"qubits"`
	Queue          int        `json:"queue"`
	Status         NodeStatus `json:"status"`
	LastValidation *time.Time `json:"lastValidation"`
	EntangledWith  []string   `json:"entangledWith"`
}

// BlockchainStatus reports chain size and the newest block.
type BlockchainStatus struct {
	LatestBlock         *LatestBlock `json:"latestBlock"`
	TotalBlocks         int          `json:"totalBlocks"`
	TotalTransactions   int          `json:"totalTransactions"`
	PendingTransactions int          `json:"pendingTransactions"`
}

// LatestBlock is the dashboard view of the chain head.
type LatestBlock struct {
	Number         uint64           `json:"number"`
	Hash           string           `json:"hash"`
	QuantumNonce   uint8            `json:"quantumNonce"`
	Timestamp      time.Time        `json:"timestamp"`
	Transactions   int              `json:"transactions"`
	MiningBackend  string           `json:"miningBackend"`
	JobID          string           `json:"jobId"`
	ConsensusVotes ledger.Consensus `json:"consensusVotes"`
}

// QuantumStatus totals qubits and job counts across all backends.
type QuantumStatus struct {
	ActiveJobs            int    `json:"activeJobs"`
	CompletedJobs         int    `json:"completedJobs"`
	TotalQubitsAvailable  int    `json:"totalQubitsAvailable"`
	LuxbinEncoding        bool   `json:"luxbinEncoding"`
	PhotonicCommunication string `json:"photomicCommunication"` // dashboard key, spelled as consumed
}

// Status builds a snapshot. The network reports "online" once Start has run.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Network: NetworkStatus{
			Status:             "starting",
			TotalValidators:    len(s.nodes),
			ConsensusThreshold: ledger.ConsensusThreshold,
		},
		Quantum: QuantumStatus{
			LuxbinEncoding:        true,
			PhotonicCommunication: "active",
		},
		Timestamp: s.now().UTC(),
		Mock:      !s.live,
	}
	if s.started {
		st.Network.Status = "online"
	}

	for _, n := range s.nodes {
		v := ValidatorStatus{
			Name:          n.Name,
			Location:      n.Location,
			Qubits:        n.Qubits,
			Queue:         n.Queue,
			Status:        n.Status,
			EntangledWith: append([]string{}, n.EntangledWith...),
		}
		if t, ok := s.lastVote[n.Name]; ok {
			v.LastValidation = &t
		}
		st.Network.Validators = append(st.Network.Validators, v)

		st.Quantum.TotalQubitsAvailable += n.Qubits
		st.Quantum.CompletedJobs += n.CompletedJobs
		if n.Status == StatusActive {
			st.Quantum.ActiveJobs++
		}
	}

	st.Blockchain = BlockchainStatus{
		TotalBlocks:         s.chain.Len(),
		TotalTransactions:   s.chain.TotalTransactions(),
		PendingTransactions: s.chain.Pending(),
	}
	if b := s.chain.Latest(); b != nil {
		st.Blockchain.LatestBlock = &LatestBlock{
			Number:         b.Number,
			Hash:           b.Hash,
			QuantumNonce:   b.QuantumNonce,
			Timestamp:      b.Timestamp,
			Transactions:   b.Transactions,
			MiningBackend:  b.Miner,
			JobID:          minerJob(b),
			ConsensusVotes: b.Consensus,
		}
	}
	return st
}

// minerJob returns the job ID of the miner's own validation vote.
func minerJob(b *ledger.Block) string {
	for _, v := range b.Consensus.Validators {
		if v.Backend == b.Miner {
			return v.JobID
		}
	}
	return ""
}

// WriteStatusFile writes the snapshot as indented JSON. The file is
// replaced atomically so readers never see a partial document.
func (s *Service) WriteStatusFile(path string) error {
	data, err := json.MarshalIndent(s.Status(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".status-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod status: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write status: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close status: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename status: %w", err)
	}
	return nil
}
