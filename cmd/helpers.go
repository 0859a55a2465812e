package cmd

import (
	"fmt"
	"time"

	"github.com/anhp95/lang/internal/cluster"
	"github.com/anhp95/lang/internal/config"
	"github.com/anhp95/lang/internal/llm"
	"github.com/anhp95/lang/internal/orchestrator"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `lang init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createProviderFromConfig creates the LLM provider, wrapped with the
// configured rate limit.
func createProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	return llm.NewRateLimitedProvider(provider, cfg.RateLimitRPM), nil
}

// orchestratorOptions maps config settings onto orchestrator options.
func orchestratorOptions(cfg *config.Config) orchestrator.Options {
	return orchestrator.Options{
		Cluster: cluster.Params{
			MinClusterSize: cfg.Cluster.MinClusterSize,
			MinSamples:     cfg.Cluster.MinSamples,
			Metric:         cfg.Cluster.Metric,
		},
		MapIncludeNoise: cfg.Map.IncludeNoise,
	}
}

// sessionTTL converts the configured TTL to a duration. Zero disables
// idle expiry.
func sessionTTL(cfg *config.Config) time.Duration {
	return time.Duration(cfg.SessionTTLMinutes) * time.Minute
}
