package di

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
llm:
  provider: openai
openai:
  api_key: test-key
mailbox:
  host: imap.example.com
  username: me@example.com
  password: secret
stats:
  type: memory
notify:
  type: none
export:
  enabled: false
filter:
  ignored_domains:
    - newsletter.example.com
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0644))
	return path
}

func TestBuildContainer_ResolvesDigestService(t *testing.T) {
	container, err := BuildContainer(writeConfig(t), false)
	require.NoError(t, err)

	err = container.Invoke(func(service *core.DigestService, s *scheduler.Scheduler, filter core.SenderFilter, notifier core.Notifier) {
		assert.NotNil(t, service)
		assert.NotNil(t, s)
		assert.Nil(t, notifier)
		assert.True(t, filter.IsIgnored("news@newsletter.example.com"))
		assert.Equal(t, 0, service.Stats().TotalRuns)
	})
	require.NoError(t, err)
}

func TestBuildContainer_VerboseForcesDebug(t *testing.T) {
	container, err := BuildContainer(writeConfig(t), true)
	require.NoError(t, err)

	require.NoError(t, container.Invoke(func(cfg *config.Config) {
		assert.Equal(t, "debug", cfg.GetLogging().Level)
	}))
}

func TestBuildContainer_MissingConfigFile(t *testing.T) {
	container, err := BuildContainer(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)

	err = container.Invoke(func(*config.Config) {})
	assert.Error(t, err)
}

func TestParseFlagSet(t *testing.T) {
	fs := flag.NewFlagSet("mail-score", flag.ContinueOnError)

	flags, err := ParseFlagSet(fs, []string{"-provider", "gemini", "-api-key", "g-key", "-model", "gemini-1.5-flash", "-file", "msg.eml"})

	require.NoError(t, err)
	assert.Equal(t, "gemini", flags.Provider)
	assert.Equal(t, "msg.eml", flags.InputFile)
	assert.Equal(t, 1000, flags.BodyLimit)

	cfg := CreateConfigFromFlags(flags)
	assert.Equal(t, "gemini", cfg.GetLLM().Provider)
	assert.Equal(t, "g-key", cfg.GetGemini().APIKey)
	assert.Equal(t, "gemini-1.5-flash", cfg.GetGemini().ModelName)
}

func TestBuildCLIContainer_ResolvesScoringClient(t *testing.T) {
	fs := flag.NewFlagSet("mail-score", flag.ContinueOnError)
	flags, err := ParseFlagSet(fs, []string{"-api-key", "test-key", "-body-limit", "200"})
	require.NoError(t, err)

	container, err := BuildCLIContainer(flags)
	require.NoError(t, err)

	require.NoError(t, container.Invoke(func(client *core.ScoringClient) {
		assert.NotNil(t, client)
	}))
}

func TestBuildContainer_UnreadableStatsFailsConstruction(t *testing.T) {
	dir := t.TempDir()
	statsPath := filepath.Join(dir, "stats.json")
	corrupt := []byte(`{"total_runs": 42, "runs_history": [`)
	require.NoError(t, os.WriteFile(statsPath, corrupt, 0644))
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := strings.Replace(testConfig, "  type: memory", "  type: json\n  json_path: "+statsPath, 1)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	container, err := BuildContainer(cfgPath, false)
	require.NoError(t, err)

	err = container.Invoke(func(*core.DigestService) {})
	assert.ErrorContains(t, err, "failed to load stats")

	data, err := os.ReadFile(statsPath)
	require.NoError(t, err)
	assert.Equal(t, corrupt, data)
}
