package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/CTAG07/Mimic/pkg/markov"
	"github.com/CTAG07/Mimic/pkg/stopwords"
	"github.com/joho/godotenv"
	"github.com/natefinch/atomic"
)

// ServerConfig holds the configuration for the HTTP server and storage.
type ServerConfig struct {
	ApiAddr      string `json:"api_addr"`
	LogLevel     string `json:"log_level"`
	DataDir      string `json:"data_dir"`
	DatabasePath string `json:"database_path"`
}

// GenerationConfig holds the per-request settings used around the markov core.
type GenerationConfig struct {
	// StopwordLanguages are embedded lists merged into the model's stopwords.
	StopwordLanguages []string `json:"stopword_languages"`
	// StopwordFile is an optional YAML list merged on top.
	StopwordFile string `json:"stopword_file"`
	// MessageLimit caps the samples used per request after shuffling. 0 = no cap.
	MessageLimit int `json:"message_limit"`
	// MaxSteps caps a single walk.
	MaxSteps int `json:"max_steps"`
	// TimeoutMs bounds index build plus generation for one request.
	TimeoutMs int                  `json:"timeout_ms"`
	Stop      markov.StopCondition `json:"stop_condition"`
	// StatsTop is the number of rows the stats endpoint returns.
	StatsTop int `json:"stats_top"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server     *ServerConfig     `json:"server_config"`
	Markov     *markov.Config    `json:"markov_config"`
	Generation *GenerationConfig `json:"generation_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ApiAddr:      ":7280",
		LogLevel:     "info",
		DataDir:      "./data",
		DatabasePath: "./data/mimic.db?_journal_mode=WAL&_busy_timeout=5000",
	}
}

// DefaultGenerationConfig creates a generation configuration with default values.
func DefaultGenerationConfig() *GenerationConfig {
	return &GenerationConfig{
		StopwordLanguages: []string{"eng"},
		StopwordFile:      "",
		MessageLimit:      0,
		MaxSteps:          markov.DefaultMaxSteps,
		TimeoutMs:         10000,
		Stop:              markov.DefaultStopCondition(),
		StatsTop:          10,
	}
}

// DefaultConfig returns the full default configuration.
func DefaultConfig() *Config {
	mc := markov.DefaultConfig()
	return &Config{
		Server:     DefaultServerConfig(),
		Markov:     &mc,
		Generation: DefaultGenerationConfig(),
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values. Environment
// variables (and a .env file, when present) override the file; see applyEnv.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		var data []byte
		data, err = json.MarshalIndent(config, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal default config: %w", err)
		}
		if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
			// The server can still run with defaults.
			fmt.Printf("warning: failed to write default config file: %v\n", err)
		}
	} else if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Sections missing from an older file fall back to defaults.
	defaults := DefaultConfig()
	if config.Server == nil {
		config.Server = defaults.Server
	}
	if config.Markov == nil {
		config.Markov = defaults.Markov
	}
	if config.Generation == nil {
		config.Generation = defaults.Generation
	}

	_ = godotenv.Load()
	applyEnv(config)

	return config, nil
}

// applyEnv overrides config values from the environment.
//
//	TOKENIZER_LANGUAGE   comma-separated stopword languages, e.g. "eng,deu"
//	TOKENIZER_PATTERN    tokenizer regex
//	MIMIC_LOG_LEVEL      debug, info, warn or error
//	MIMIC_API_ADDR       listen address
//	MIMIC_DATABASE_PATH  SQLite data source
//	MIMIC_MESSAGE_LIMIT  sample cap per request
func applyEnv(config *Config) {
	if langs := getEnv("TOKENIZER_LANGUAGE", ""); langs != "" {
		config.Generation.StopwordLanguages = strings.Split(langs, ",")
	}
	config.Markov.Pattern = getEnv("TOKENIZER_PATTERN", config.Markov.Pattern)
	config.Server.LogLevel = getEnv("MIMIC_LOG_LEVEL", config.Server.LogLevel)
	config.Server.ApiAddr = getEnv("MIMIC_API_ADDR", config.Server.ApiAddr)
	config.Server.DatabasePath = getEnv("MIMIC_DATABASE_PATH", config.Server.DatabasePath)
	config.Generation.MessageLimit = getEnvInt("MIMIC_MESSAGE_LIMIT", config.Generation.MessageLimit)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// newModel resolves the stopword lists named by config and compiles the
// markov model. Any configuration error surfaces here.
func newModel(config *Config) (*markov.Model, error) {
	words, err := stopwords.Load(config.Generation.StopwordLanguages...)
	if err != nil {
		return nil, err
	}
	if config.Generation.StopwordFile != "" {
		extra, err := stopwords.LoadFile(config.Generation.StopwordFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load stopword file: %w", err)
		}
		words = append(words, extra...)
	}

	mc := *config.Markov
	mc.Stopwords = append(words, config.Markov.Stopwords...)
	return markov.NewModel(mc)
}

// ConfigManager handles thread-safe access to configuration and the markov
// model derived from it.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	model      *markov.Model
	configPath string
	logger     *slog.Logger
}

// NewConfigManager loads the config and compiles the model.
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	model, err := newModel(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid markov configuration: %w", err)
	}

	return &ConfigManager{
		config:     cfg,
		model:      model,
		configPath: path,
		// Log to stdout before the application-specific logger is set.
		logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})),
	}, nil
}

// SetLogger sets the logger and passes it on to the model.
func (cm *ConfigManager) SetLogger(logger *slog.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.logger = logger
	cm.model.SetLogger(logger)
}

// Get returns a copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return *cm.config
}

// Model returns the markov model compiled from the current configuration.
func (cm *ConfigManager) Model() *markov.Model {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.model
}

// Update validates the new configuration by compiling its model, then swaps
// it in and saves it to disk. A rejected configuration leaves everything as
// it was.
func (cm *ConfigManager) Update(newConfig Config) error {
	defaults := DefaultConfig()
	if newConfig.Server == nil {
		newConfig.Server = defaults.Server
	}
	if newConfig.Markov == nil {
		newConfig.Markov = defaults.Markov
	}
	if newConfig.Generation == nil {
		newConfig.Generation = defaults.Generation
	}

	model, err := newModel(&newConfig)
	if err != nil {
		return fmt.Errorf("markov configuration rejected: %w", err)
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	model.SetLogger(cm.logger)
	cm.model = model
	*cm.config = newConfig

	data, err := json.MarshalIndent(cm.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := atomic.WriteFile(cm.configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
