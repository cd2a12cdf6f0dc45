/*
Package config manages the TOML config for mentionserve.

The file holds a few behaviour switches plus the trigger table:

	[typeahead]
	stop_at_mention = true
	max_visible = 8

	[[trigger]]
	prefix = "@"
	kind = "person"
	mutability = "segmented"
	file = "people.txt"
	values = ["alice", "albert"]

A broken file never stops the program: LoadConfig falls back to recovering the
sections it can still read, and everything else keeps its default.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/bastiangx/mentionserve/pkg/candidates"
	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Typeahead TypeaheadConfig `toml:"typeahead"`
	Server    ServerConfig    `toml:"server"`
	CLI       CliConfig       `toml:"cli"`
	Triggers  []TriggerConfig `toml:"trigger"`
}

// TypeaheadConfig holds controller and dropdown options.
type TypeaheadConfig struct {
	StopAtMention bool `toml:"stop_at_mention"`
	MaxVisible    int  `toml:"max_visible"`
	CacheSize     int  `toml:"cache_size"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	RefreshOnQuery bool `toml:"refresh_on_query"`
	MaxRetries     int  `toml:"max_retries"`
	RetryDelayMs   int  `toml:"retry_delay_ms"`
}

// CliConfig holds cli and tui options.
type CliConfig struct {
	ShowOffsets bool `toml:"show_offsets"`
}

// TriggerConfig is one [[trigger]] table.
type TriggerConfig struct {
	Prefix     string   `toml:"prefix"`
	Kind       string   `toml:"kind"`
	Mutability string   `toml:"mutability"`
	File       string   `toml:"file,omitempty"`
	Values     []string `toml:"values"`
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	pr, err := utils.NewPathResolver()
	if err != nil {
		return "", err
	}
	return pr.GetConfigPath("config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from -config flag
// 2. Default path: [UserConfigDir]/mentionserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values and the demo trigger table.
func DefaultConfig() *Config {
	return &Config{
		Typeahead: TypeaheadConfig{
			StopAtMention: true,
			MaxVisible:    8,
			CacheSize:     64,
		},
		Server: ServerConfig{
			RefreshOnQuery: true,
			MaxRetries:     3,
			RetryDelayMs:   200,
		},
		CLI: CliConfig{
			ShowOffsets: false,
		},
		Triggers: defaultTriggers(),
	}
}

func defaultTriggers() []TriggerConfig {
	return []TriggerConfig{
		{
			Prefix:     "@",
			Kind:       "person",
			Mutability: trigger.Segmented.String(),
			Values: []string{
				"alice", "albert", "alina", "bob", "bobby", "carol", "charlie",
				"dave", "eve", "frank", "grace", "heidi", "ivan", "judy", "mallory",
			},
		},
		{
			Prefix:     "#",
			Kind:       "hashtag",
			Mutability: trigger.Segmented.String(),
			Values: []string{
				"golang", "gophers", "typeahead", "terminal", "editor", "release",
				"bug", "feature", "help", "random",
			},
		},
		{
			Prefix:     "<>",
			Kind:       "relation",
			Mutability: trigger.Immutable.String(),
			Values: []string{
				"friend", "family", "colleague", "classmate", "neighbour", "partner",
			},
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file. A file without any [[trigger]] table keeps the demo triggers.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	config.Triggers = nil

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	if len(config.Triggers) == 0 {
		config.Triggers = defaultTriggers()
	}
	return config, nil
}

// tryPartialParse attempts to parse a TOML file
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "typeahead"); ok {
		extractTypeaheadConfig(section, &config.Typeahead)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	if tables, ok := utils.ExtractTables(tempConfig, "trigger"); ok {
		if triggers := extractTriggers(tables); len(triggers) > 0 {
			config.Triggers = triggers
		}
	}
	return config, nil
}

func extractTypeaheadConfig(data map[string]any, t *TypeaheadConfig) {
	if val, ok := utils.ExtractBool(data, "stop_at_mention"); ok {
		t.StopAtMention = val
	}
	if val, ok := utils.ExtractInt64(data, "max_visible"); ok {
		t.MaxVisible = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		t.CacheSize = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractBool(data, "refresh_on_query"); ok {
		server.RefreshOnQuery = val
	}
	if val, ok := utils.ExtractInt64(data, "max_retries"); ok {
		server.MaxRetries = val
	}
	if val, ok := utils.ExtractInt64(data, "retry_delay_ms"); ok {
		server.RetryDelayMs = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractBool(data, "show_offsets"); ok {
		cli.ShowOffsets = val
	}
}

// extractTriggers keeps every table that at least names a prefix.
func extractTriggers(tables []map[string]any) []TriggerConfig {
	var out []TriggerConfig
	for _, table := range tables {
		prefix, ok := utils.ExtractString(table, "prefix")
		if !ok {
			log.Warnf("Skipping [[trigger]] table without a prefix")
			continue
		}
		tc := TriggerConfig{Prefix: prefix}
		tc.Kind, _ = utils.ExtractString(table, "kind")
		tc.Mutability, _ = utils.ExtractString(table, "mutability")
		tc.File, _ = utils.ExtractString(table, "file")
		tc.Values, _ = utils.ExtractStrings(table, "values")
		out = append(out, tc)
	}
	return out
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// BuildRegistry turns the trigger table into a registry. Candidates from a trigger's
// file come first, followed by its inline values. A file that cannot be read is
// logged and skipped; an invalid mutability or prefix is an error.
func BuildRegistry(cfg *Config, loader *candidates.Loader) (*trigger.Registry, error) {
	specs := make([]trigger.Spec, 0, len(cfg.Triggers))
	var errs []error

	for _, tc := range cfg.Triggers {
		mutability, err := trigger.ParseMutability(tc.Mutability)
		if err != nil {
			errs = append(errs, fmt.Errorf("trigger %q: %w", tc.Prefix, err))
			continue
		}

		var fromFile []trigger.Candidate
		if tc.File != "" && loader != nil {
			fromFile, err = loader.Load(tc.File)
			if err != nil {
				log.Warnf("Trigger %q: %v. Using inline values only.", tc.Prefix, err)
			}
		}

		specs = append(specs, trigger.Spec{
			Prefix:     tc.Prefix,
			Kind:       tc.Kind,
			Mutability: mutability,
			Candidates: candidates.Merge(fromFile, tc.Inline()),
		})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return trigger.NewRegistry(specs...)
}

// Trigger returns the table configured for prefix.
func (c *Config) Trigger(prefix string) (TriggerConfig, bool) {
	for _, tc := range c.Triggers {
		if tc.Prefix == prefix {
			return tc, true
		}
	}
	return TriggerConfig{}, false
}

// Inline returns the trigger's inline values as candidates.
func (tc TriggerConfig) Inline() []trigger.Candidate {
	out := make([]trigger.Candidate, len(tc.Values))
	for i, v := range tc.Values {
		out[i] = trigger.Candidate{Value: v}
	}
	return out
}
