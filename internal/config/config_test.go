package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg := LoadFrom("")

	assert.Equal(t, "bbc", cfg.Site)
	assert.Equal(t, 5, cfg.Harvester.LimitPerSeed)
	assert.Equal(t, 4, cfg.Harvester.DiscoveryWorkers)
	assert.Equal(t, 3, cfg.Harvester.ExtractWorkers)
	assert.Equal(t, 2, cfg.Harvester.AnnotateWorkers)
	assert.Equal(t, 3000, cfg.Harvester.MaxContentLen)
	assert.Equal(t, 0.1, cfg.Annotator.Temperature)
	assert.Equal(t, 150, cfg.Annotator.MaxTokens)
	assert.Equal(t, 280, cfg.Composer.CharLimit)
	assert.Equal(t, "gemini", cfg.Composer.Hashtagger.Provider)
	assert.Equal(t, 10*time.Second, cfg.Publisher.Interval)
	assert.Equal(t, "sqlite3", cfg.Ledger.Driver)
}

func TestLoadFromFileMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
logging:
  level: debug
harvester:
  output: out/store.json
  limitPerSeed: 2
  respectRobots: true
  categories:
    - name: tech
      pages: ["https://www.bbc.com/news/technology"]
      feeds: ["https://feeds.bbci.co.uk/news/technology/rss.xml"]
composer:
  maxArticles: 4
  drafter:
    provider: chatgpt
publisher:
  interval: 2s
  maxPosts: 3
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg := LoadFrom(path)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "out/store.json", cfg.Harvester.Output)
	assert.Equal(t, 2, cfg.Harvester.LimitPerSeed)
	assert.True(t, cfg.Harvester.RespectRobots)
	require.Len(t, cfg.Harvester.Categories, 1)
	assert.Equal(t, "tech", cfg.Harvester.Categories[0].Name)
	assert.Len(t, cfg.Harvester.Categories[0].Feeds, 1)
	assert.Equal(t, 3, cfg.Harvester.ExtractWorkers)
	assert.Equal(t, 4, cfg.Composer.MaxArticles)
	assert.Equal(t, "chatgpt", cfg.Composer.Drafter.Provider)
	assert.Equal(t, 0.7, cfg.Composer.Drafter.Temperature)
	assert.Equal(t, 2*time.Second, cfg.Publisher.Interval)
	assert.Equal(t, 3, cfg.Publisher.MaxPosts)
}

func TestLoadFromFileKeepsExplicitZeros(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
annotator:
  temperature: 0
composer:
  delay: 0s
publisher:
  interval: 0s
  maxPosts: 0
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg := LoadFrom(path)

	assert.Zero(t, cfg.Annotator.Temperature)
	assert.Equal(t, 150, cfg.Annotator.MaxTokens)
	assert.Zero(t, cfg.Composer.Delay)
	assert.Zero(t, cfg.Publisher.Interval)
	assert.Equal(t, 280, cfg.Publisher.CharLimit)
}

func TestLoadFromBadFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("harvester: [unterminated"), 0o600))

	cfg := LoadFrom(path)
	assert.Equal(t, 5, cfg.Harvester.LimitPerSeed)

	cfg = LoadFrom(filepath.Join(dir, "missing.yaml"))
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(ollamaHostEnv, "http://ollama:11434")
	t.Setenv(geminiAPIKeyEnv, "gemini-key")
	t.Setenv(publisherUserEnv, "newsbot")
	t.Setenv(publisherPassEnv, "secret")
	t.Setenv(ledgerDSNEnv, "file:ledger.db")
	t.Setenv(telegramChatIDEnv, "42")

	cfg := LoadFrom("")

	assert.Equal(t, "http://ollama:11434", cfg.Providers.Ollama.BaseURL)
	assert.Equal(t, "gemini-key", cfg.Providers.Gemini.APIKey)
	assert.Equal(t, "newsbot", cfg.Publisher.Username)
	assert.Equal(t, "secret", cfg.Publisher.Password)
	assert.Equal(t, "file:ledger.db", cfg.Ledger.DSN)
	assert.Equal(t, "42", cfg.Notifications.Telegram.ChatID)
}
