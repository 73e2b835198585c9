package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/panbanda/metriculator/pkg/metrics"
	"github.com/panbanda/metriculator/pkg/model"
)

// Config holds all configuration options for metriculator.
type Config struct {
	// Traversal settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis" yaml:"analysis"`

	// Thresholds for metric violations
	Thresholds ThresholdConfig `koanf:"thresholds" toml:"thresholds" yaml:"thresholds"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude" yaml:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache" yaml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output" yaml:"output"`
}

// AnalysisConfig controls how scope trees are built.
type AnalysisConfig struct {
	// Builder is "structural" (merge re-opened scopes) or "append".
	Builder   string `koanf:"builder" toml:"builder" yaml:"builder"`
	Headers   bool   `koanf:"headers" toml:"headers" yaml:"headers"`
	Members   bool   `koanf:"members" toml:"members" yaml:"members"`
	Workspace bool   `koanf:"workspace" toml:"workspace" yaml:"workspace"`

	// Workers defaults to 2x GOMAXPROCS when zero.
	Workers int `koanf:"workers" toml:"workers" yaml:"workers"`

	// MaxFileSize in bytes, 0 = no limit.
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size" yaml:"max_file_size"`
}

// ThresholdConfig defines metric thresholds. Zero disables a rule.
type ThresholdConfig struct {
	Cyclomatic     int `koanf:"cyclomatic" toml:"cyclomatic" yaml:"cyclomatic"`
	Cognitive      int `koanf:"cognitive" toml:"cognitive" yaml:"cognitive"`
	Nesting        int `koanf:"nesting" toml:"nesting" yaml:"nesting"`
	Parameters     int `koanf:"parameters" toml:"parameters" yaml:"parameters"`
	MembersPerType int `koanf:"members_per_type" toml:"members_per_type" yaml:"members_per_type"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns" toml:"patterns" yaml:"patterns"`
	Extensions []string `koanf:"extensions" toml:"extensions" yaml:"extensions"`
	Dirs       []string `koanf:"dirs" toml:"dirs" yaml:"dirs"`
	Gitignore  bool     `koanf:"gitignore" toml:"gitignore" yaml:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled" yaml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir" yaml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl" yaml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format" yaml:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color" toml:"color" yaml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose" yaml:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	th := metrics.DefaultThresholds()
	return &Config{
		Analysis: AnalysisConfig{
			Builder: "structural",
			Headers: true,
			Members: true,
		},
		Thresholds: ThresholdConfig{
			Cyclomatic:     int(th.Cyclomatic),
			Cognitive:      int(th.Cognitive),
			Nesting:        th.Nesting,
			Parameters:     th.Parameters,
			MembersPerType: th.MembersPerType,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.pb.h",
				"*.pb.cc",
				"*_generated.h",
				"moc_*.cpp",
			},
			Extensions: []string{
				".o",
				".a",
				".so",
			},
			Dirs: []string{
				".git",
				".metriculator",
				"build",
				"out",
				"third_party",
				"external",
				"node_modules",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".metriculator/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	default:
		return toml.Parser()
	}
}

// Load loads configuration from a file over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if _, ok := model.BuilderFor(cfg.Analysis.Builder); !ok {
		return nil, fmt.Errorf("%s: unknown builder %q", path, cfg.Analysis.Builder)
	}

	return cfg, nil
}

// configNames are searched in order by Find.
var configNames = []string{
	"metriculator.toml",
	"metriculator.yaml",
	"metriculator.yml",
	"metriculator.json",
	".metriculator.toml",
	".metriculator.yaml",
	".metriculator.yml",
	".metriculator.json",
}

// Find returns the first config file in the standard locations, or "".
func Find() string {
	for _, dir := range []string{".", ".metriculator"} {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	if path := Find(); path != "" {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}

// MetricThresholds converts the threshold section for pkg/metrics.
func (c *Config) MetricThresholds() metrics.Thresholds {
	return metrics.Thresholds{
		Cyclomatic:     uint32(max(c.Thresholds.Cyclomatic, 0)),
		Cognitive:      uint32(max(c.Thresholds.Cognitive, 0)),
		Nesting:        c.Thresholds.Nesting,
		Parameters:     c.Thresholds.Parameters,
		MembersPerType: c.Thresholds.MembersPerType,
	}
}

// Fingerprint identifies the settings that change analysis results. Cached
// results are only valid for the same fingerprint.
func (c *Config) Fingerprint() string {
	return fmt.Sprintf("%+v|%+v", c.Analysis, c.Thresholds)
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	// Check directory exclusions
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
