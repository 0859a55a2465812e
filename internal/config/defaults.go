package config

// qualityPresets maps each provider+quality combination to a chat model.
var qualityPresets = map[ProviderType]map[QualityTier]string{
	ProviderAnthropic: {
		QualityLite:   "claude-haiku-4-5-20251001",
		QualityNormal: "claude-sonnet-4-5-20250929",
		QualityMax:    "claude-opus-4-6",
	},
	ProviderOpenAI: {
		QualityLite:   "gpt-4o-mini",
		QualityNormal: "gpt-4o",
		QualityMax:    "gpt-4",
	},
	ProviderGoogle: {
		QualityLite:   "gemini-3-flash-preview",
		QualityNormal: "gemini-3-pro-preview",
		QualityMax:    "gemini-3-pro-preview",
	},
	ProviderOllama: {
		QualityLite:   "llama3",
		QualityNormal: "llama3",
		QualityMax:    "llama3:70b",
	},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderAnthropic,
		Model:             "claude-sonnet-4-5-20250929",
		Quality:           QualityNormal,
		Port:              8080,
		DataDir:           ".lang",
		SessionTTLMinutes: 120,
		RateLimitRPM:      0,
		AllowAllOrigins:   false,
		Cluster: ClusterConfig{
			Metric: "jaccard",
		},
	}
}

// GetPreset returns the chat model for the given provider and tier.
// Returns the Normal Anthropic model if the combination is not found.
func GetPreset(provider ProviderType, tier QualityTier) string {
	if tiers, ok := qualityPresets[provider]; ok {
		if model, ok := tiers[tier]; ok {
			return model
		}
	}
	return qualityPresets[ProviderAnthropic][QualityNormal]
}
