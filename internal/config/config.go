// Package config holds all roadNERD engine configuration.
// Config is loaded from a YAML file with environment variable overrides;
// every knob has a default so the engine runs with no config file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all roadNERD configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Gap analysis configuration
	Analysis AnalysisConfig `yaml:"analysis"`

	// Feature brainstorming configuration
	Brainstorm BrainstormConfig `yaml:"brainstorm"`

	// Scoring weights
	Scoring ScoringConfig `yaml:"scoring"`

	// Roadmap generation configuration
	Roadmap RoadmapConfig `yaml:"roadmap"`

	// Execution limits
	Execution ExecutionConfig `yaml:"execution"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// AnalysisConfig configures spec and feature gap analysis.
type AnalysisConfig struct {
	// Gaps below this confidence are flagged excluded (still reported).
	ConfidenceThreshold int `yaml:"confidence_threshold"`

	// Accuracy thresholds for feature claims.
	AccurateThreshold   int `yaml:"accurate_threshold"`   // >= accurate
	MisleadingThreshold int `yaml:"misleading_threshold"` // >= misleading, below -> false

	// Stub detection predicates, ordered. Each is a named heuristic
	// applied to a symbol body; matching any marks the symbol a stub.
	StubPredicates []StubPredicateConfig `yaml:"stub_predicates"`

	// File extensions recognized as specification documents.
	SpecExtensions []string `yaml:"spec_extensions"`
}

// StubPredicateConfig describes one stub-signature heuristic as data.
type StubPredicateConfig struct {
	Name string `yaml:"name"` // short_body, guidance_return, no_branching
	// MaxBodyLines applies to short_body.
	MaxBodyLines int `yaml:"max_body_lines,omitempty"`
	// Markers apply to guidance_return (substrings that indicate a placeholder).
	Markers []string `yaml:"markers,omitempty"`
}

// BrainstormConfig configures the suggestion provider calls.
type BrainstormConfig struct {
	Provider string `yaml:"provider"` // gemini, none
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`

	// Concurrency cap for per-category provider calls.
	MaxConcurrentCalls int `yaml:"max_concurrent_calls"`

	// Per-category timeout.
	CategoryTimeout string `yaml:"category_timeout"`

	// Name-similarity threshold above which two features are merged.
	DedupThreshold float64 `yaml:"dedup_threshold"`
}

// ScoringConfig holds the priority score weights.
type ScoringConfig struct {
	ImpactWeight    float64 `yaml:"impact_weight"`
	ROIWeight       float64 `yaml:"roi_weight"`
	StrategicWeight float64 `yaml:"strategic_weight"`
	RiskWeight      float64 `yaml:"risk_weight"`
}

// RoadmapConfig configures phase generation and timeline estimation.
type RoadmapConfig struct {
	// Target number of phases; relaxed (never ordering) when effort
	// balancing would violate dependency order.
	MaxPhases int `yaml:"max_phases"`

	// Allowed effort overflow per phase, as a fraction of the ideal share.
	PhaseOverflowTolerance float64 `yaml:"phase_overflow_tolerance"`

	// Team sizes for timeline estimation.
	TeamSizes []int `yaml:"team_sizes"`
}

// ExecutionConfig bounds a single engine run.
type ExecutionConfig struct {
	// Worker pool size for file discovery and AST verification.
	MaxConcurrentFiles int `yaml:"max_concurrent_files"`

	// Soft deadline for the whole run; exceeding yields a partial result.
	RunDeadline string `yaml:"run_deadline"`

	// Parse cache entry cap (entries keyed by path+mtime).
	ParseCacheSize int `yaml:"parse_cache_size"`
}

// LoggingConfig configures the category logger; it is handed to
// logging.Configure at startup.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "roadNERD",
		Version: "0.3.0",

		Analysis: AnalysisConfig{
			ConfidenceThreshold: 50,
			AccurateThreshold:   90,
			MisleadingThreshold: 40,
			StubPredicates: []StubPredicateConfig{
				{Name: "short_body", MaxBodyLines: 3},
				{Name: "guidance_return", Markers: []string{
					"not implemented", "not yet implemented", "todo", "fixme",
					"coming soon", "placeholder", "unimplemented",
				}},
				{Name: "no_branching"},
			},
			SpecExtensions: []string{".md", ".markdown", ".txt"},
		},

		Brainstorm: BrainstormConfig{
			Provider:           "gemini",
			Model:              "gemini-2.0-flash",
			MaxConcurrentCalls: 3,
			CategoryTimeout:    "30s",
			DedupThreshold:     0.85,
		},

		Scoring: ScoringConfig{
			ImpactWeight:    0.4,
			ROIWeight:       0.3,
			StrategicWeight: 0.2,
			RiskWeight:      0.1,
		},

		Roadmap: RoadmapConfig{
			MaxPhases:              4,
			PhaseOverflowTolerance: 0.25,
			TeamSizes:              []int{1, 2, 3},
		},

		Execution: ExecutionConfig{
			MaxConcurrentFiles: 10,
			RunDeadline:        "5m",
			ParseCacheSize:     4096,
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
// Missing file returns defaults; environment overrides always apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Brainstorm.APIKey = key
		if c.Brainstorm.Provider == "" {
			c.Brainstorm.Provider = "gemini"
		}
	}
	if model := os.Getenv("ROADNERD_MODEL"); model != "" {
		c.Brainstorm.Model = model
	}
	if v := os.Getenv("ROADNERD_CONFIDENCE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.ConfidenceThreshold = n
		}
	}
	if v := os.Getenv("ROADNERD_MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Execution.MaxConcurrentFiles = n
		}
	}
	if v := os.Getenv("ROADNERD_TEAM_SIZES"); v != "" {
		var sizes []int
		for _, part := range strings.Split(v, ",") {
			if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && n > 0 {
				sizes = append(sizes, n)
			}
		}
		if len(sizes) > 0 {
			c.Roadmap.TeamSizes = sizes
		}
	}
}

// GetCategoryTimeout returns the per-category brainstorm timeout as a duration.
func (c *Config) GetCategoryTimeout() time.Duration {
	d, err := time.ParseDuration(c.Brainstorm.CategoryTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetRunDeadline returns the soft run deadline as a duration.
func (c *Config) GetRunDeadline() time.Duration {
	d, err := time.ParseDuration(c.Execution.RunDeadline)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Analysis.ConfidenceThreshold < 0 || c.Analysis.ConfidenceThreshold > 100 {
		return fmt.Errorf("confidence_threshold must be in [0,100]")
	}
	if c.Analysis.AccurateThreshold <= c.Analysis.MisleadingThreshold {
		return fmt.Errorf("accurate_threshold must exceed misleading_threshold")
	}
	if c.Roadmap.MaxPhases < 1 {
		return fmt.Errorf("max_phases must be >= 1")
	}
	if c.Roadmap.PhaseOverflowTolerance < 0 {
		return fmt.Errorf("phase_overflow_tolerance must be >= 0")
	}
	if len(c.Roadmap.TeamSizes) == 0 {
		return fmt.Errorf("at least one team size required")
	}
	if c.Execution.MaxConcurrentFiles < 1 {
		return fmt.Errorf("max_concurrent_files must be >= 1")
	}
	if c.Brainstorm.MaxConcurrentCalls < 1 {
		return fmt.Errorf("max_concurrent_calls must be >= 1")
	}
	w := c.Scoring
	if w.ImpactWeight < 0 || w.ROIWeight < 0 || w.StrategicWeight < 0 || w.RiskWeight < 0 {
		return fmt.Errorf("scoring weights must be non-negative")
	}
	return nil
}
