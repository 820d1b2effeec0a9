package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "NEWSRELAY_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	ollamaHostEnv     = "OLLAMA_HOST"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	geminiAPIKeyEnv   = "GEMINI_API_KEY"
	publisherUserEnv  = "PUBLISHER_USERNAME"
	publisherPassEnv  = "PUBLISHER_PASSWORD"
	ledgerDSNEnv      = "LEDGER_DSN"
	archiveMongoEnv   = "ARCHIVE_MONGO_URI"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Site          string             `yaml:"site"`
	Harvester     HarvesterConfig    `yaml:"harvester"`
	Annotator     ModelConfig        `yaml:"annotator"`
	Composer      ComposerConfig     `yaml:"composer"`
	Publisher     PublisherConfig    `yaml:"publisher"`
	Providers     ProvidersConfig    `yaml:"providers"`
	Ledger        LedgerConfig       `yaml:"ledger"`
	Archive       ArchiveConfig      `yaml:"archive"`
	Notifications NotificationConfig `yaml:"notifications"`
	Schedule      ScheduleConfig     `yaml:"schedule"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CategoryConfig lists the seeds crawled for one harvest category.
type CategoryConfig struct {
	Name  string   `yaml:"name"`
	Pages []string `yaml:"pages"`
	Feeds []string `yaml:"feeds"`
}

// HarvesterConfig drives discovery, extraction and annotation.
type HarvesterConfig struct {
	Output           string           `yaml:"output"`
	Categories       []CategoryConfig `yaml:"categories"`
	LimitPerSeed     int              `yaml:"limitPerSeed"`
	DiscoveryWorkers int              `yaml:"discoveryWorkers"`
	ExtractWorkers   int              `yaml:"extractWorkers"`
	AnnotateWorkers  int              `yaml:"annotateWorkers"`
	RequestTimeout   time.Duration    `yaml:"requestTimeout"`
	UserAgent        string           `yaml:"userAgent"`
	RespectRobots    bool             `yaml:"respectRobots"`
	MinParagraphs    int              `yaml:"minParagraphs"`
	MinParagraphLen  int              `yaml:"minParagraphLen"`
	MinContentLen    int              `yaml:"minContentLen"`
	MaxContentLen    int              `yaml:"maxContentLen"`
	ExcerptLen       int              `yaml:"excerptLen"`
	Readability      bool             `yaml:"readability"`
}

// ModelConfig binds one pipeline role to a provider and sampling options.
type ModelConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
	TopK        int     `yaml:"topK"`
	TopP        float64 `yaml:"topP"`
}

// ComposerConfig drives post drafting.
type ComposerConfig struct {
	Input        string        `yaml:"input"`
	Output       string        `yaml:"output"`
	MaxArticles  int           `yaml:"maxArticles"`
	Delay        time.Duration `yaml:"delay"`
	CharLimit    int           `yaml:"charLimit"`
	TargetLength int           `yaml:"targetLength"`
	MaxHashtags  int           `yaml:"maxHashtags"`
	Drafter      ModelConfig   `yaml:"drafter"`
	Hashtagger   ModelConfig   `yaml:"hashtagger"`
}

// PublisherConfig drives the browser session and posting loop.
type PublisherConfig struct {
	Input          string        `yaml:"input"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	LoginURL       string        `yaml:"loginUrl"`
	HomeURL        string        `yaml:"homeUrl"`
	Headless       bool          `yaml:"headless"`
	UserAgent      string        `yaml:"userAgent"`
	Interval       time.Duration `yaml:"interval"`
	MaxPosts       int           `yaml:"maxPosts"`
	CharLimit      int           `yaml:"charLimit"`
	LoginTimeout   time.Duration `yaml:"loginTimeout"`
	ElementTimeout time.Duration `yaml:"elementTimeout"`
	StepPause      time.Duration `yaml:"stepPause"`
	SettlePause    time.Duration `yaml:"settlePause"`
	HoldOpen       time.Duration `yaml:"holdOpen"`
}

// ProvidersConfig describes how to reach every LLM backend.
type ProvidersConfig struct {
	Ollama  OllamaConfig  `yaml:"ollama"`
	ChatGPT ChatGPTConfig `yaml:"chatgpt"`
	Gemini  GeminiConfig  `yaml:"gemini"`
}

// OllamaConfig points at a local Ollama server.
type OllamaConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LedgerConfig selects the SQL database that remembers published posts.
type LedgerConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// ArchiveConfig describes the optional Mongo article archive.
type ArchiveConfig struct {
	MongoURI   string `yaml:"mongoUri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	BaseURL  string `yaml:"baseUrl"`
}

// ScheduleConfig repeats the full pipeline when Interval is positive.
type ScheduleConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Load reads YAML configuration from the NEWSRELAY_CONFIG path (if present)
// and applies .env and environment overrides.
func Load() Config {
	return LoadFrom(os.Getenv(configPathEnv))
}

// LoadFrom is Load with an explicit config path; an empty path keeps defaults.
func LoadFrom(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			// Keys present in the file replace defaults, explicit zeros included.
			fileCfg := defaultConfig()
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = fileCfg
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(ollamaHostEnv); v != "" {
		c.Providers.Ollama.BaseURL = v
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.Providers.ChatGPT.APIKey = v
	}

	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.Providers.ChatGPT.Model = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Providers.Gemini.APIKey = v
	}

	if v := os.Getenv(publisherUserEnv); v != "" {
		c.Publisher.Username = v
	}

	if v := os.Getenv(publisherPassEnv); v != "" {
		c.Publisher.Password = v
	}

	if v := os.Getenv(ledgerDSNEnv); v != "" {
		c.Ledger.DSN = v
	}

	if v := os.Getenv(archiveMongoEnv); v != "" {
		c.Archive.MongoURI = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Site:    "bbc",
		Harvester: HarvesterConfig{
			Output:           "bbc_improved_data.json",
			LimitPerSeed:     5,
			DiscoveryWorkers: 4,
			ExtractWorkers:   3,
			AnnotateWorkers:  2,
			RequestTimeout:   20 * time.Second,
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			MinParagraphs:    5,
			MinParagraphLen:  20,
			MinContentLen:    100,
			MaxContentLen:    3000,
			ExcerptLen:       800,
		},
		Annotator: ModelConfig{
			Provider:    "ollama",
			Model:       "llama3.2:latest",
			Temperature: 0.1,
			MaxTokens:   150,
			TopK:        10,
			TopP:        0.9,
		},
		Composer: ComposerConfig{
			Input:        "bbc_improved_data.json",
			Output:       "generated_tweets.json",
			MaxArticles:  10,
			Delay:        time.Second,
			CharLimit:    280,
			TargetLength: 150,
			MaxHashtags:  5,
			Drafter: ModelConfig{
				Provider:    "ollama-generate",
				Model:       "llama3.2:latest",
				Temperature: 0.7,
				MaxTokens:   100,
				TopP:        0.9,
			},
			Hashtagger: ModelConfig{
				Provider: "gemini",
				Model:    "gemini-1.5-flash",
			},
		},
		Publisher: PublisherConfig{
			Input:          "generated_tweets.json",
			LoginURL:       "https://twitter.com/i/flow/login",
			HomeURL:        "https://twitter.com/home",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Interval:       10 * time.Second,
			CharLimit:      280,
			LoginTimeout:   30 * time.Second,
			ElementTimeout: 10 * time.Second,
			StepPause:      time.Second,
			SettlePause:    3 * time.Second,
		},
		Providers: ProvidersConfig{
			Ollama: OllamaConfig{
				BaseURL: "http://localhost:11434",
				Model:   "llama3.2:latest",
				Timeout: 30 * time.Second,
			},
			ChatGPT: ChatGPTConfig{
				Endpoint:     "https://api.openai.com/v1/chat/completions",
				Model:        "gpt-4o-mini",
				SystemPrompt: "You write short, engaging social media posts about news articles.",
				Timeout:      20 * time.Second,
			},
			Gemini: GeminiConfig{
				Endpoint: "https://generativelanguage.googleapis.com/v1beta",
				Model:    "gemini-1.5-flash",
				Timeout:  20 * time.Second,
			},
		},
		Ledger: LedgerConfig{Driver: "sqlite3"},
		Archive: ArchiveConfig{
			Database:   "newsrelay",
			Collection: "articles",
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BaseURL: "https://api.telegram.org"},
		},
	}
}
