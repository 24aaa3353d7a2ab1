// Package network models the quantum node roster and runs the block
// service on top of it.
package network

// Provider identifies a quantum computing vendor.
type Provider string

const (
	ProviderIBM     Provider = "ibm"
	ProviderIonQ    Provider = "ionq"
	ProviderRigetti Provider = "rigetti"
	ProviderCirq    Provider = "cirq"
	ProviderBraket  Provider = "braket"
	ProviderAzure   Provider = "azure"
)

// Providers lists every vendor in roster order.
var Providers = []Provider{ProviderIBM, ProviderIonQ, ProviderRigetti, ProviderCirq, ProviderBraket, ProviderAzure}

// NodeStatus is the connection state of a node.
type NodeStatus string

const (
	StatusInitializing NodeStatus = "initializing"
	StatusActive       NodeStatus = "active"
	StatusOffline      NodeStatus = "offline"
	StatusPending      NodeStatus = "pending" // needs a provider workspace
)

// Node is one quantum computer on the network.
type Node struct {
	Name          string     `json:"name"`
	Backend       string     `json:"backend"`
	Provider      Provider   `json:"provider"`
	Qubits        int        `json:"qubits"`
	Location      string     `json:"location"`
	Status        NodeStatus `json:"status"`
	Queue         int        `json:"queue"`
	CompletedJobs int        `json:"completed_jobs"`
	EntangledWith []string   `json:"entangled_with"`
	Simulated     bool       `json:"simulated"`
}

// DefaultRoster returns the fourteen nodes the network starts with.
func DefaultRoster() []*Node {
	return []*Node{
		node("ibm_fez", "ibm_fez", ProviderIBM, 156, "Yorktown Heights, NY"),
		node("ibm_torino", "ibm_torino", ProviderIBM, 133, "Yorktown Heights, NY"),
		node("ibm_marrakesh", "ibm_marrakesh", ProviderIBM, 156, "Yorktown Heights, NY"),
		node("ionq_harmony", "ionq_harmony", ProviderIonQ, 11, "College Park, MD"),
		node("ionq_aria", "ionq_aria", ProviderIonQ, 25, "College Park, MD"),
		node("ionq_forte", "ionq_forte", ProviderIonQ, 32, "College Park, MD"),
		node("rigetti_aspen", "rigetti_aspen", ProviderRigetti, 80, "Berkeley, CA"),
		node("cirq_photonic", "cirq_photonic", ProviderCirq, 12, "local"),
		node("cirq_simulator", "cirq_simulator", ProviderCirq, 32, "local"),
		node("braket_ionq", "arn:aws:braket:us-east-1::device/qpu/ionq/Aria-1", ProviderBraket, 25, "us-east-1"),
		node("braket_rigetti", "arn:aws:braket:us-west-1::device/qpu/rigetti/Ankaa-2", ProviderBraket, 84, "us-west-1"),
		node("braket_oqc", "arn:aws:braket:eu-west-2::device/qpu/oqc/Lucy", ProviderBraket, 8, "eu-west-2"),
		node("azure_quantinuum", "quantinuum.sim.h1-1sc", ProviderAzure, 20, "Azure Quantum"),
		node("azure_ionq", "ionq.simulator", ProviderAzure, 29, "Azure Quantum"),
	}
}

func node(name, backend string, p Provider, qubits int, location string) *Node {
	return &Node{
		Name:     name,
		Backend:  backend,
		Provider: p,
		Qubits:   qubits,
		Location: location,
		Status:   StatusInitializing,
	}
}
