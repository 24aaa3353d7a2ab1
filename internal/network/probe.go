package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ErrNoCredentials means a provider has nothing configured to connect with.
var ErrNoCredentials = errors.New("no credentials configured")

// Credentials holds what each provider needs to connect.
type Credentials struct {
	IBMToken           string `yaml:"ibm_token"`
	IonQAPIKey         string `yaml:"ionq_api_key"`
	RigettiAPIKey      string `yaml:"rigetti_api_key"`
	AWSAccessKeyID     string `yaml:"aws_access_key_id"`
	AWSSecretAccessKey string `yaml:"aws_secret_access_key"`
	AWSRegion          string `yaml:"aws_region"`
	AzureSubscription  string `yaml:"azure_subscription_id"`
	AzureResourceGroup string `yaml:"azure_resource_group"`
	AzureWorkspace     string `yaml:"azure_workspace"`
}

// Prober checks whether a provider can be reached and reports the status
// its nodes should take.
type Prober interface {
	Probe(ctx context.Context, p Provider) (NodeStatus, error)
}

// CredentialProber decides provider reachability from configured
// credentials alone. Cirq is a local simulator and is always reachable.
// Azure nodes stay pending until a workspace is deployed.
type CredentialProber struct {
	Creds Credentials
}

// Probe implements Prober.
func (c CredentialProber) Probe(ctx context.Context, p Provider) (NodeStatus, error) {
	if err := ctx.Err(); err != nil {
		return StatusOffline, err
	}
	switch p {
	case ProviderCirq:
		return StatusActive, nil
	case ProviderIBM:
		if c.Creds.IBMToken != "" {
			return StatusActive, nil
		}
	case ProviderIonQ:
		if c.Creds.IonQAPIKey != "" {
			return StatusActive, nil
		}
	case ProviderRigetti:
		if c.Creds.RigettiAPIKey != "" {
			return StatusActive, nil
		}
	case ProviderBraket:
		if c.Creds.AWSAccessKeyID != "" && c.Creds.AWSSecretAccessKey != "" {
			return StatusActive, nil
		}
	case ProviderAzure:
		if c.Creds.AzureSubscription != "" {
			return StatusPending, nil
		}
	default:
		return StatusOffline, fmt.Errorf("unknown provider %q", p)
	}
	return StatusInitializing, ErrNoCredentials
}

// probeAll runs one probe per provider concurrently. A failed probe marks
// that provider offline; a missing credential leaves its nodes
// initializing. Only context cancellation aborts the whole round.
func probeAll(ctx context.Context, prober Prober, providers []Provider) (map[Provider]NodeStatus, error) {
	results := make([]NodeStatus, len(providers))
	g, gctx := errgroup.WithContext(ctx)

	for i, p := range providers {
		i, p := i, p
		g.Go(func() error {
			st, err := prober.Probe(gctx, p)
			switch {
			case err == nil:
				results[i] = st
			case errors.Is(err, ErrNoCredentials):
				slog.Info("provider credentials not set", "provider", p)
				results[i] = StatusInitializing
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				slog.Warn("provider probe failed", "provider", p, "error", err)
				results[i] = StatusOffline
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("probe providers: %w", err)
	}

	out := make(map[Provider]NodeStatus, len(providers))
	for i, p := range providers {
		out[p] = results[i]
	}
	return out, nil
}
