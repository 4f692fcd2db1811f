package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Input      InputConfig      `toml:"input"`      // Input directory settings
	Output     OutputConfig     `toml:"output"`     // Output directory settings
	Engine     EngineConfig     `toml:"engine"`     // Speech recognition engine settings
	Filter     FilterConfig     `toml:"filter"`     // Segment confidence filter settings
	Normalizer NormalizerConfig `toml:"normalizer"` // Transcript text normalization settings
	Logging    LoggingConfig    `toml:"logging"`    // Application logging settings
	Storage    StorageConfig    `toml:"storage"`    // Run history persistence settings
	Server     ServerConfig     `toml:"server"`     // HTTP server settings for the run history API
}

// InputConfig contains settings for audio file discovery
type InputConfig struct {
	Dir string `toml:"dir"` // Directory scanned (flat, non-recursive) for audio files
}

// OutputConfig contains settings for the generated artifacts
type OutputConfig struct {
	Dir string `toml:"dir"` // Directory for .txt/.srt artifacts; fully reset at the start of every run
}

// EngineConfig contains settings for the speech recognition engine
type EngineConfig struct {
	Backend       string `toml:"backend"`        // Engine backend: "fasterwhisper", "gemini", or "stub"
	Model         string `toml:"model"`          // Primary model identifier (e.g., "large-v3")
	FallbackModel string `toml:"fallback_model"` // Model tried once if the primary fails to load ("" = no fallback)
	Device        string `toml:"device"`         // Compute device: "auto", "cpu", or "cuda"
	ComputeType   string `toml:"compute_type"`   // Numeric precision: "auto" picks float16 on cuda, int8 on cpu

	// Decoding options passed to every transcribe call
	Language                  string  `toml:"language"`                    // Target language code (e.g., "es")
	BeamSize                  int     `toml:"beam_size"`                   // Decoder search breadth
	VADFilter                 bool    `toml:"vad_filter"`                  // Enable voice-activity gating of silence/music
	VADMinSilenceMs           int     `toml:"vad_min_silence_ms"`          // Minimum silence gap for VAD splitting
	ConditionOnPreviousText   bool    `toml:"condition_on_previous_text"`  // Allow prior text as decoding context (kept off for independence)
	Temperature               float64 `toml:"temperature"`                 // Decoding randomness (0 for determinism)
	NoSpeechThreshold         float64 `toml:"no_speech_threshold"`         // Probability above which a segment is treated as non-speech
	CompressionRatioThreshold float64 `toml:"compression_ratio_threshold"` // Threshold above which a segment is treated as repetitive/anomalous

	// Process control
	TimeoutSeconds int    `toml:"timeout_seconds"` // Per-file transcription timeout (0 = no timeout)
	PythonPath     string `toml:"python_path"`     // Python interpreter used by the fasterwhisper backend
	GeminiAPIKey   string `toml:"gemini_api_key"`  // API key for the gemini backend (or GEMINI_API_KEY env)
}

// FilterConfig contains settings for per-segment confidence filtering
type FilterConfig struct {
	MinAvgLogProb float64 `toml:"min_avg_logprob"` // Segments with avg_logprob below this are dropped; absent confidence always passes
}

// NormalizerConfig contains settings for transcript text normalization
type NormalizerConfig struct {
	MaxLineRuns int `toml:"max_line_runs"` // Maximum occurrences kept in a run of identical lines
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// StorageConfig contains run history persistence configuration
type StorageConfig struct {
	Enabled        bool   `toml:"enabled"`          // Record batch runs in a SQLite database
	SQLiteBasePath string `toml:"sqlite_base_path"` // Directory for the batchscribe.db file
}

// ServerConfig contains HTTP server configuration for -serve mode
type ServerConfig struct {
	Host             string `toml:"host"`                  // Host address to bind to
	Port             int    `toml:"port"`                  // HTTP port for the run history API
	ReadTimeoutSecs  int    `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request
	WriteTimeoutSecs int    `toml:"write_timeout_seconds"` // Maximum duration for writing the response
}

// Default returns the configuration used when no config file is present
func Default() *Config {
	return &Config{
		Input:  InputConfig{Dir: "audios"},
		Output: OutputConfig{Dir: "transcripts"},
		Engine: EngineConfig{
			Backend:                   "fasterwhisper",
			Model:                     "large-v3",
			FallbackModel:             "large-v2",
			Device:                    "auto",
			ComputeType:               "auto",
			Language:                  "es",
			BeamSize:                  5,
			VADFilter:                 true,
			VADMinSilenceMs:           500,
			ConditionOnPreviousText:   false,
			Temperature:               0.0,
			NoSpeechThreshold:         0.6,
			CompressionRatioThreshold: 2.4,
			TimeoutSeconds:            0,
			PythonPath:                "python3",
		},
		Filter:     FilterConfig{MinAvgLogProb: -1.0},
		Normalizer: NormalizerConfig{MaxLineRuns: 1},
		Logging:    LoggingConfig{Level: "info", Format: "console"},
		Storage:    StorageConfig{Enabled: true, SQLiteBasePath: "data"},
		Server: ServerConfig{
			Host:             "127.0.0.1",
			Port:             8080,
			ReadTimeoutSecs:  15,
			WriteTimeoutSecs: 15,
		},
	}
}

// Load reads the configuration from the given TOML file, layered over the
// defaults so omitted keys keep their default values.
func Load(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in
// order of preference. If no config file exists anywhere, the defaults are
// returned so the tool works out of the box.
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	for _, path := range searchPaths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
			return config, nil
		}
	}

	if preferredPath != "" {
		return nil, fmt.Errorf("config file not found: %s", preferredPath)
	}
	return Default(), nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Input.Dir == "" {
		return fmt.Errorf("input dir is required")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output dir is required")
	}
	if c.Input.Dir == c.Output.Dir {
		return fmt.Errorf("output dir must differ from input dir (output is destructively reset each run)")
	}

	switch c.Engine.Backend {
	case "fasterwhisper", "gemini", "stub":
	default:
		return fmt.Errorf("unknown engine backend: %s", c.Engine.Backend)
	}
	if c.Engine.Model == "" {
		return fmt.Errorf("engine model is required")
	}
	switch c.Engine.Device {
	case "auto", "cpu", "cuda":
	default:
		return fmt.Errorf("invalid device: %s", c.Engine.Device)
	}
	if c.Engine.BeamSize <= 0 {
		return fmt.Errorf("beam_size must be positive: %d", c.Engine.BeamSize)
	}
	if c.Engine.Temperature < 0 {
		return fmt.Errorf("temperature must be non-negative: %f", c.Engine.Temperature)
	}
	if c.Engine.VADMinSilenceMs < 0 {
		return fmt.Errorf("vad_min_silence_ms must be non-negative: %d", c.Engine.VADMinSilenceMs)
	}
	if c.Engine.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must be non-negative: %d", c.Engine.TimeoutSeconds)
	}

	if c.Normalizer.MaxLineRuns < 1 {
		return fmt.Errorf("max_line_runs must be at least 1: %d", c.Normalizer.MaxLineRuns)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Storage.Enabled && c.Storage.SQLiteBasePath == "" {
		return fmt.Errorf("sqlite_base_path is required when storage is enabled")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}
