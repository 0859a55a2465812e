package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .lang.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to lang! Let's configure the pipeline.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"anthropic", "openai", "google", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	// 2. Quality tier.
	qualityPrompt := promptui.Select{
		Label: "Select quality tier",
		Items: []string{
			"lite   — fast & cheap (haiku / gpt-4o-mini)",
			"normal — balanced (sonnet / gpt-4o)",
			"max    — highest quality (opus / gpt-4)",
		},
	}
	qualityIdx, _, err := qualityPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("quality selection: %w", err)
	}
	tiers := []QualityTier{QualityLite, QualityNormal, QualityMax}
	quality := tiers[qualityIdx]

	// 3. Server port.
	portPrompt := promptui.Prompt{
		Label:   "Server port",
		Default: "8080",
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p < 1 || p > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	port, _ := strconv.Atoi(portStr)

	// 4. Data directory for session history.
	dataDirPrompt := promptui.Prompt{
		Label:   "Data directory for conversation history",
		Default: ".lang",
	}
	dataDir, err := dataDirPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 5. Map noise handling.
	noisePrompt := promptui.Prompt{
		Label:     "Include unclustered (noise) languages on maps",
		IsConfirm: true,
	}
	_, err = noisePrompt.Run()
	includeNoise := err == nil

	// Build the config.
	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = GetPreset(provider, quality)
	cfg.Quality = quality
	cfg.Port = port
	cfg.DataDir = dataDir
	cfg.Map.IncludeNoise = includeNoise

	// Check for API key.
	envVar := APIKeyEnvVar(provider)
	if envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running lang server.\n", envVar)
		}
	}

	// Save to .lang.yml.
	configPath := ".lang.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}
