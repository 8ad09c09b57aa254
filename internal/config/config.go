package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/askdoc/internal/domain"
)

// Collection drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config holds the askdoc configuration.
type Config struct {
	Document   DocumentConfig   `yaml:"document"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Collection CollectionConfig `yaml:"collection"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Voice      VoiceConfig      `yaml:"voice"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DocumentConfig describes the source document and how it is chunked.
type DocumentConfig struct {
	Path      string `yaml:"path"`
	ChunkSize int    `yaml:"chunk_size"` // characters per chunk (default: 300)
}

// RetrievalConfig holds retrieval settings.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"` // default: 4
}

// CollectionConfig holds vector collection settings.
type CollectionConfig struct {
	Driver           string   `yaml:"driver"` // memory, redis (default: memory)
	Name             string   `yaml:"name"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	Dimensions        int     `yaml:"dimensions"`
	BatchSize         int     `yaml:"batch_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	Cache             bool    `yaml:"cache"`               // needs the redis driver
}

// GenerationConfig holds chat completion settings.
type GenerationConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSec     int    `yaml:"timeout_sec"`
	MaxToolRounds  int    `yaml:"max_tool_rounds"`
	PersonaFile    string `yaml:"persona_file"` // empty = built-in persona
	PromptTemplate string `yaml:"prompt_template"`
}

// VoiceConfig holds microphone capture and transcription settings.
type VoiceConfig struct {
	Recorder           string   `yaml:"recorder"`
	RecorderArgs       []string `yaml:"recorder_args"` // overrides the built-in arecord arguments
	Device             string   `yaml:"device"`
	SampleRate         int      `yaml:"sample_rate"`
	CalibrationMs      int      `yaml:"calibration_ms"`
	TimeoutSec         int      `yaml:"timeout_sec"`
	PhraseLimitSec     int      `yaml:"phrase_limit_sec"`
	PauseMs            int      `yaml:"pause_ms"`
	EnergyRatio        float64  `yaml:"energy_ratio"`
	MinEnergy          float64  `yaml:"min_energy"`
	TranscriptionModel string   `yaml:"transcription_model"`
	Language           string   `yaml:"language"`
}

// MetricsConfig holds the optional metrics endpoint settings.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty = disabled
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// DefaultPromptTemplate wraps the user question. %s is replaced with the question.
const DefaultPromptTemplate = "Use the retrieve_context tool to look up the documentation " +
	"before you answer. Answer only from what it returns.\n\nQuestion: %s"

// Load reads configuration from config/<env>.yaml.
// A missing file is not an error: defaults and environment variables apply.
func Load(env string) (Config, error) {
	cfg, err := LoadFile(findConfigPath(env))
	if errors.Is(err, fs.ErrNotExist) {
		return fromDefaults()
	}
	return cfg, err
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return finish(cfg)
}

func fromDefaults() (Config, error) {
	return finish(Config{})
}

func finish(cfg Config) (Config, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
// API keys fall back to OPENAI_API_KEY, and the embedding key to the generation key.
func (c *Config) ApplyDefaults() {
	if c.Document.Path == "" {
		c.Document.Path = "documentation.txt"
	}
	if c.Document.ChunkSize == 0 {
		c.Document.ChunkSize = 300
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 4
	}

	if c.Collection.Driver == "" {
		c.Collection.Driver = DriverMemory
	}
	if c.Collection.Name == "" {
		c.Collection.Name = "docs"
	}
	if c.Collection.KeyPrefix == "" {
		c.Collection.KeyPrefix = domain.KeyPrefix
	}
	if c.Collection.ReadinessTimeout <= 0 {
		c.Collection.ReadinessTimeout = 10
	}
	if c.Collection.HNSWM <= 0 {
		c.Collection.HNSWM = 16
	}
	if c.Collection.HNSWEFConstruct <= 0 {
		c.Collection.HNSWEFConstruct = 200
	}

	if c.Generation.APIKey == "" {
		c.Generation.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "gpt-4o-mini"
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 60
	}
	if c.Generation.MaxToolRounds <= 0 {
		c.Generation.MaxToolRounds = 5
	}
	if c.Generation.PromptTemplate == "" {
		c.Generation.PromptTemplate = DefaultPromptTemplate
	}

	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = c.Generation.APIKey
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = c.Generation.BaseURL
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 64
	}

	if c.Voice.Recorder == "" {
		c.Voice.Recorder = "arecord"
	}
	if c.Voice.SampleRate <= 0 {
		c.Voice.SampleRate = 16000
	}
	if c.Voice.CalibrationMs <= 0 {
		c.Voice.CalibrationMs = 1000
	}
	if c.Voice.TimeoutSec <= 0 {
		c.Voice.TimeoutSec = 10
	}
	if c.Voice.PhraseLimitSec <= 0 {
		c.Voice.PhraseLimitSec = 10
	}
	if c.Voice.PauseMs <= 0 {
		c.Voice.PauseMs = 800
	}
	if c.Voice.EnergyRatio <= 0 {
		c.Voice.EnergyRatio = 1.5
	}
	if c.Voice.MinEnergy <= 0 {
		c.Voice.MinEnergy = 300
	}
	if c.Voice.TranscriptionModel == "" {
		c.Voice.TranscriptionModel = "whisper-1"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Document.ChunkSize <= 0 {
		return fmt.Errorf("document.chunk_size: %w, got %d", domain.ErrInvalidChunkSize, c.Document.ChunkSize)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k: %w, got %d", domain.ErrInvalidTopK, c.Retrieval.TopK)
	}
	switch c.Collection.Driver {
	case DriverMemory:
	case DriverRedis:
		if len(c.Collection.Addrs) == 0 {
			return fmt.Errorf("collection.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("collection.driver must be %q or %q, got %q", DriverMemory, DriverRedis, c.Collection.Driver)
	}
	if c.Embedding.Cache && c.Collection.Driver != DriverRedis {
		return fmt.Errorf("embedding.cache requires collection.driver %q", DriverRedis)
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("embedding.requests_per_second must not be negative, got %g", c.Embedding.RequestsPerSecond)
	}
	if strings.Count(c.Generation.PromptTemplate, "%s") != 1 {
		return fmt.Errorf("generation.prompt_template must contain exactly one %%s")
	}
	if c.Generation.APIKey == "" {
		return fmt.Errorf("generation.api_key (or OPENAI_API_KEY): %w", domain.ErrMissingCredential)
	}
	return nil
}

// Timeout bounds a single answer.
func (c GenerationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Calibration returns the ambient noise sampling window.
func (c VoiceConfig) Calibration() time.Duration {
	return time.Duration(c.CalibrationMs) * time.Millisecond
}

// Timeout returns how long to wait for speech to start.
func (c VoiceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// PhraseLimit returns the hard bound on a single utterance.
func (c VoiceConfig) PhraseLimit() time.Duration {
	return time.Duration(c.PhraseLimitSec) * time.Second
}

// Pause returns the silence that ends an utterance.
func (c VoiceConfig) Pause() time.Duration {
	return time.Duration(c.PauseMs) * time.Millisecond
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
