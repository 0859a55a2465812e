package config

// QualityTier controls the model selection trade-off between speed/cost
// and quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGoogle    ProviderType = "google"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level configuration, corresponding to .lang.yml.
type Config struct {
	Provider          ProviderType  `yaml:"provider" koanf:"provider"`
	Model             string        `yaml:"model" koanf:"model"`
	Quality           QualityTier   `yaml:"quality" koanf:"quality"`
	Port              int           `yaml:"port" koanf:"port"`
	DataDir           string        `yaml:"data_dir" koanf:"data_dir"`
	SessionTTLMinutes int           `yaml:"session_ttl_minutes" koanf:"session_ttl_minutes"`
	RateLimitRPM      int           `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	AllowAllOrigins   bool          `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	Map               MapConfig     `yaml:"map" koanf:"map"`
	Cluster           ClusterConfig `yaml:"cluster" koanf:"cluster"`
}

// MapConfig holds map layer settings.
type MapConfig struct {
	IncludeNoise bool `yaml:"include_noise" koanf:"include_noise"`
}

// ClusterConfig holds density clustering defaults. Zero values fall back
// to the clustering package's own defaults.
type ClusterConfig struct {
	MinClusterSize int    `yaml:"min_cluster_size" koanf:"min_cluster_size"`
	MinSamples     int    `yaml:"min_samples" koanf:"min_samples"`
	Metric         string `yaml:"metric" koanf:"metric"`
}
