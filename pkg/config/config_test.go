package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/mentionserve/pkg/candidates"
	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, DefaultConfig(), cfg)

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[typeahead]
stop_at_mention = false

[[trigger]]
prefix = "!"
kind = "command"
mutability = "immutable"
values = ["deploy", "rollback"]
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.Typeahead.StopAtMention)
	assert.Equal(t, 8, cfg.Typeahead.MaxVisible, "unset keys keep defaults")
	require.Len(t, cfg.Triggers, 1)
	assert.Equal(t, TriggerConfig{Prefix: "!", Kind: "command", Mutability: "immutable", Values: []string{"deploy", "rollback"}}, cfg.Triggers[0])
}

func TestLoadConfigWithoutTriggersKeepsDemo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[cli]\nshow_offsets = true\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.CLI.ShowOffsets)
	assert.Len(t, cfg.Triggers, 3)
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	// max_visible has the wrong type, so strict decoding fails
	require.NoError(t, os.WriteFile(path, []byte(`
[typeahead]
max_visible = "lots"
stop_at_mention = false

[[trigger]]
prefix = "$"
values = ["usd", "eur"]

[[trigger]]
kind = "nameless"
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.Typeahead.StopAtMention)
	assert.Equal(t, 8, cfg.Typeahead.MaxVisible)
	require.Len(t, cfg.Triggers, 1)
	assert.Equal(t, "$", cfg.Triggers[0].Prefix)
	assert.Equal(t, []string{"usd", "eur"}, cfg.Triggers[0].Values)
}

func TestLoadConfigGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[[ not toml"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigWithPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, SaveConfig(DefaultConfig(), path))

	cfg, used, err := LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestBuildRegistry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "people.txt"), []byte("zoe\nalice\n"), 0644))

	cfg := DefaultConfig()
	cfg.Triggers[0].File = "people.txt"
	reg, err := BuildRegistry(cfg, candidates.NewLoader(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{"<>", "@", "#"}, reg.Prefixes())

	person, ok := reg.Lookup("@")
	require.True(t, ok)
	assert.Equal(t, "zoe", person.Candidates[0].Value, "file values come first")
	assert.Equal(t, "alice", person.Candidates[1].Value)
	assert.Equal(t, "albert", person.Candidates[2].Value, "duplicate alice dropped")
	assert.Equal(t, "person", person.Tag.Kind)

	rel, _ := reg.Lookup("<>")
	assert.Equal(t, trigger.Immutable, rel.Tag.Mutability)
	tc, ok := cfg.Trigger("@")
	require.True(t, ok)
	assert.Equal(t, "people.txt", tc.File)
	_, ok = cfg.Trigger("!")
	assert.False(t, ok)
}

func TestBuildRegistryMissingFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Triggers[1].File = "nope.txt"
	reg, err := BuildRegistry(cfg, candidates.NewLoader(t.TempDir()))
	require.NoError(t, err)
	tags, _ := reg.Lookup("#")
	assert.Len(t, tags.Candidates, 10)
}

func TestBuildRegistryErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Triggers[0].Mutability = "sticky"
	_, err := BuildRegistry(cfg, nil)
	assert.ErrorContains(t, err, "sticky")

	cfg = DefaultConfig()
	cfg.Triggers[1].Prefix = "@"
	_, err = BuildRegistry(cfg, nil)
	assert.ErrorIs(t, err, trigger.ErrDuplicatePrefix)
}
