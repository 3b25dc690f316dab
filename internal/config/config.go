package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SCOUT_JUDGE_LIMIT.
const EnvPrefix = "SCOUT"

type Config struct {
	Search    SearchConfig    `mapstructure:"search"`
	AI        AIConfig        `mapstructure:"ai"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Judge     JudgeConfig     `mapstructure:"judge"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

type SearchConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	EngineID    string        `mapstructure:"engine_id"`
	BaseURL     string        `mapstructure:"base_url"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	TLSProfile  string        `mapstructure:"tls_profile"`
	UserAgent   string        `mapstructure:"user_agent"`
}

type AIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	// QueryEnabled adds the ai-generated variant to every plan.
	QueryEnabled   bool          `mapstructure:"query_enabled"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
	MaxQueryLength int           `mapstructure:"max_query_length"`
}

type RetrievalConfig struct {
	DateWindow    string        `mapstructure:"date_window"`
	MaxCandidates int           `mapstructure:"max_candidates"`
	MaxPages      int           `mapstructure:"max_pages"`
	PageDelay     time.Duration `mapstructure:"page_delay"`
}

type JudgeConfig struct {
	Strategy         string        `mapstructure:"strategy"`
	Limit            int           `mapstructure:"limit"`
	MinScore         float64       `mapstructure:"min_score"`
	MinSnippetLength int           `mapstructure:"min_snippet_length"`
	QualityDomains   []string      `mapstructure:"quality_domains"`
	PreferredDomains []string      `mapstructure:"preferred_domains"`
	ExcludedDomains  []string      `mapstructure:"excluded_domains"`
	Timeout          time.Duration `mapstructure:"timeout"`
	// Template overrides the AI judge instruction.
	Template string `mapstructure:"template"`
}

type PipelineConfig struct {
	Topics      []string      `mapstructure:"topics"`
	TopicBudget time.Duration `mapstructure:"topic_budget"`
	Concurrency int           `mapstructure:"concurrency"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type MetricsConfig struct {
	// Port for the /metrics endpoint. Zero disables it.
	Port int `mapstructure:"port"`
}

type StorageConfig struct {
	// Backend is one of none, json, csv, sqlite or postgres.
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	DSN     string `mapstructure:"dsn"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.engine_id", "")
	v.SetDefault("search.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("search.call_timeout", 10*time.Second)
	v.SetDefault("search.max_attempts", 3)
	v.SetDefault("search.tls_profile", "go")
	v.SetDefault("search.user_agent", "")

	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.query_enabled", false)
	v.SetDefault("ai.query_timeout", 15*time.Second)
	v.SetDefault("ai.max_query_length", 150)

	v.SetDefault("retrieval.date_window", "d3")
	v.SetDefault("retrieval.max_candidates", 30)
	v.SetDefault("retrieval.max_pages", 3)
	v.SetDefault("retrieval.page_delay", 500*time.Millisecond)

	v.SetDefault("judge.strategy", "heuristic")
	v.SetDefault("judge.limit", 5)
	v.SetDefault("judge.min_score", 5.0)
	v.SetDefault("judge.min_snippet_length", 60)
	v.SetDefault("judge.quality_domains", []string{})
	v.SetDefault("judge.preferred_domains", []string{})
	v.SetDefault("judge.excluded_domains", []string{})
	v.SetDefault("judge.timeout", 30*time.Second)
	v.SetDefault("judge.template", "")

	v.SetDefault("pipeline.topics", []string{})
	v.SetDefault("pipeline.topic_budget", 90*time.Second)
	v.SetDefault("pipeline.concurrency", 2)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("metrics.port", 0)

	v.SetDefault("storage.backend", "none")
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.dsn", "")
}

// Load reads configuration from defaults, an optional file, a .env file in
// the working directory and SCOUT_* environment variables, in increasing
// order of precedence.
func Load(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Conventional names used by other tools.
	_ = v.BindEnv("ai.api_key", EnvPrefix+"_AI_API_KEY", "OPENAI_API_KEY")

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

var (
	strategies = map[string]bool{"heuristic": true, "ai": true}
	backends   = map[string]bool{"none": true, "json": true, "csv": true, "sqlite": true, "postgres": true}
)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Search.APIKey == "" || c.Search.EngineID == "":
		return errors.New("config: search.api_key and search.engine_id are required")
	case !strategies[c.Judge.Strategy]:
		return fmt.Errorf("config: unknown judge.strategy %q", c.Judge.Strategy)
	case c.Judge.Strategy == "ai" && c.AI.APIKey == "":
		return errors.New("config: judge.strategy ai requires ai.api_key")
	case c.AI.QueryEnabled && c.AI.APIKey == "":
		return errors.New("config: ai.query_enabled requires ai.api_key")
	case c.Judge.Limit <= 0:
		return fmt.Errorf("config: judge.limit must be positive, got %d", c.Judge.Limit)
	case c.Retrieval.MaxCandidates <= 0:
		return fmt.Errorf("config: retrieval.max_candidates must be positive, got %d", c.Retrieval.MaxCandidates)
	case c.Pipeline.Concurrency <= 0:
		return fmt.Errorf("config: pipeline.concurrency must be positive, got %d", c.Pipeline.Concurrency)
	case !backends[c.Storage.Backend]:
		return fmt.Errorf("config: unknown storage.backend %q", c.Storage.Backend)
	case (c.Storage.Backend == "json" || c.Storage.Backend == "csv" || c.Storage.Backend == "sqlite") && c.Storage.Path == "":
		return fmt.Errorf("config: storage.path is required for %s", c.Storage.Backend)
	case c.Storage.Backend == "postgres" && c.Storage.DSN == "":
		return errors.New("config: storage.dsn is required for postgres")
	}
	return nil
}
