package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "Asia/Shanghai"
	defaultConfigFile = "config.yaml"
	configPathEnv     = "SIGNAL_DIGEST_CONFIG"
	dataDirEnv        = "SIGNAL_DIGEST_DATA_DIR"
	logLevelEnv       = "LOG_LEVEL"
	reportAPIKeyEnv   = "REPORT_API_KEY"
	reportModelEnv    = "REPORT_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// providerKeyEnv maps report providers to the environment variable holding their API key.
var providerKeyEnv = map[string]string{
	"moonshot":  "MOONSHOT_API_KEY",
	"dashscope": "DASHSCOPE_API_KEY",
	"deepseek":  "DEEPSEEK_API_KEY",
	"qianfan":   "QIANFAN_API_KEY",
	"openai":    "OPENAI_API_KEY",
}

// providerAPIBase holds the OpenAI-compatible base URL of each known provider.
var providerAPIBase = map[string]string{
	"moonshot":  "https://api.moonshot.cn/v1",
	"dashscope": "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"deepseek":  "https://api.deepseek.com/v1",
	"qianfan":   "https://qianfan.baidubce.com/v2",
	"openai":    "https://api.openai.com/v1",
}

// Config holds high-level settings required across the application.
type Config struct {
	System        SystemConfig        `yaml:"system"`
	Storage       StorageConfig       `yaml:"storage"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Collectors    CollectorsConfig    `yaml:"collectors"`
	Processors    []string            `yaml:"processors" validate:"dive,required"`
	Generators    []string            `yaml:"generators" validate:"dive,required"`
	Scoring       ScoringConfig       `yaml:"scoring"`
	Limits        LimitsConfig        `yaml:"limits"`
	HTTP          HTTPConfig          `yaml:"http"`
	GitHub        GitHubConfig        `yaml:"github"`
	Arxiv         ArxivConfig         `yaml:"arxiv"`
	ResearchFeeds ResearchFeedsConfig `yaml:"research_feeds"`
	Bloggers      BloggersConfig      `yaml:"bloggers"`
	Discovery     DiscoveryConfig     `yaml:"discovery"`
	Report        ReportConfig        `yaml:"report"`
	Notifications NotificationConfig  `yaml:"notifications"`
}

// SystemConfig covers timezone and logging.
type SystemConfig struct {
	Timezone  string         `yaml:"timezone" validate:"required"`
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format" validate:"oneof=text json"`
	LogFile   string         `yaml:"log_file"`
	location  *time.Location `yaml:"-"`
}

// Location resolves the configured timezone to a time.Location.
func (s SystemConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StorageConfig describes where artifacts and reports live.
type StorageConfig struct {
	DataDir       string `yaml:"data_dir" validate:"required"`
	ReportBackend string `yaml:"report_backend" validate:"oneof=json sqlite"`
	ArchivePath   string `yaml:"archive_path" validate:"required_if=ReportBackend sqlite"`
}

// SchedulerConfig controls daemon mode.
type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval" validate:"gte=0"`
}

// CollectorsConfig lists contributors by role, in execution order.
type CollectorsConfig struct {
	Signal  []string `yaml:"signal" validate:"dive,required"`
	Content []string `yaml:"content" validate:"dive,required"`
}

// ScoringConfig holds keyword list and the weights of each score component.
type ScoringConfig struct {
	Keywords       []string `yaml:"keywords"`
	KeywordWeight  float64  `yaml:"keyword_weight" validate:"gte=0"`
	TrendingWeight float64  `yaml:"trending_weight" validate:"gte=0"`
	RecencyWeight  float64  `yaml:"recency_weight" validate:"gte=0"`
}

// LimitsConfig drives selection. Quota mode is enabled only when both quotas are present.
type LimitsConfig struct {
	TopN          int  `yaml:"top_n" validate:"gte=1"`
	DaysWindow    int  `yaml:"days_window" validate:"gte=0"`
	ResearchQuota *int `yaml:"research_quota" validate:"omitempty,gte=0"`
	CodeQuota     *int `yaml:"code_quota" validate:"omitempty,gte=0"`
}

// QuotaMode reports whether per-bucket quotas replace the plain top-N cut.
func (l LimitsConfig) QuotaMode() bool {
	return l.ResearchQuota != nil && l.CodeQuota != nil
}

// HTTPConfig is shared by every outbound fetch of the collectors.
type HTTPConfig struct {
	UserAgent         string        `yaml:"user_agent" validate:"required"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"gte=0"`
}

// GitHubConfig describes the trending source.
type GitHubConfig struct {
	TrendingURL string `yaml:"trending_url" validate:"required,url"`
	HistoryDays int    `yaml:"history_days" validate:"gte=1"`
}

// ArxivConfig describes the arXiv listing source.
type ArxivConfig struct {
	ListURL               string   `yaml:"list_url" validate:"required,url"`
	Categories            []string `yaml:"categories" validate:"dive,required"`
	MaxEntriesPerCategory int      `yaml:"max_entries_per_category" validate:"gte=1"`
	DaysWindow            int      `yaml:"days_window" validate:"gte=0"`
	PageSize              int      `yaml:"page_size" validate:"gte=1"`
}

// FeedConfig is one RSS/Atom research blog.
type FeedConfig struct {
	Name string   `yaml:"name" validate:"required"`
	URL  string   `yaml:"url" validate:"required,url"`
	Tags []string `yaml:"tags"`
}

// ResearchFeedsConfig describes the research blog source.
type ResearchFeedsConfig struct {
	Feeds             []FeedConfig `yaml:"feeds" validate:"dive"`
	MaxEntriesPerFeed int          `yaml:"max_entries_per_feed" validate:"gte=1"`
	MaxTotalEntries   int          `yaml:"max_total_entries" validate:"gte=0"`
	DaysWindow        int          `yaml:"days_window" validate:"gte=0"`
	SummaryMaxLen     int          `yaml:"summary_max_len" validate:"gte=0"`
}

// BloggersConfig bounds the recommendation-list source.
type BloggersConfig struct {
	MaxCount          int `yaml:"max_count" validate:"gte=0"`
	MaxEntriesPerFeed int `yaml:"max_entries_per_feed" validate:"gte=1"`
}

// DiscoveryConfig drives the signal-only contributor that maintains the recommendation list.
type DiscoveryConfig struct {
	Pages       []string `yaml:"pages" validate:"dive,url"`
	RepoPattern string   `yaml:"repo_pattern" validate:"required"`
	MaxHistory  int      `yaml:"max_history" validate:"gte=1"`
}

// ReportConfig defines how to contact the report-generation API.
type ReportConfig struct {
	Provider       string        `yaml:"provider" validate:"required"`
	APIBase        string        `yaml:"api_base" validate:"omitempty,url"`
	Model          string        `yaml:"model" validate:"required"`
	APIKey         string        `yaml:"-"`
	Temperature    float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens      int           `yaml:"max_tokens" validate:"gte=1"`
	Timeout        time.Duration `yaml:"timeout" validate:"gt=0"`
	SystemPrompt   string        `yaml:"system_prompt"`
	AuxiliaryCount int           `yaml:"auxiliary_count" validate:"gte=0"`
	MaxRetries     int           `yaml:"max_retries" validate:"gte=0"`
	RetryBase      time.Duration `yaml:"retry_base" validate:"gte=0"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
	APIBase  string `yaml:"api_base" validate:"omitempty,url"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Load reads YAML configuration over the defaults and applies environment overrides.
// An empty path falls back to $SIGNAL_DIGEST_CONFIG and then ./config.yaml when present.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	cfg.resolveReportAPIBase()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// ArchivePath resolves the SQLite archive location relative to the data dir.
func (c Config) ArchivePath() string {
	if c.Storage.ArchivePath == "" || filepath.IsAbs(c.Storage.ArchivePath) {
		return c.Storage.ArchivePath
	}
	return filepath.Join(c.Storage.DataDir, c.Storage.ArchivePath)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(dataDirEnv); v != "" {
		c.Storage.DataDir = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.System.LogLevel = v
	}

	if v := os.Getenv(reportAPIKeyEnv); v != "" {
		c.Report.APIKey = v
	} else if name, ok := providerKeyEnv[strings.ToLower(c.Report.Provider)]; ok {
		c.Report.APIKey = os.Getenv(name)
	}

	if v := os.Getenv(reportModelEnv); v != "" {
		c.Report.Model = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.System.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		tz = defaultTimezone
		if loc, err = time.LoadLocation(defaultTimezone); err != nil {
			loc = time.UTC
		}
	}
	c.System.Timezone = tz
	c.System.location = loc
}

func (c *Config) resolveReportAPIBase() {
	if c.Report.APIBase != "" {
		return
	}
	c.Report.APIBase = providerAPIBase[strings.ToLower(c.Report.Provider)]
}

func defaultConfig() Config {
	return Config{
		System: SystemConfig{
			Timezone:  defaultTimezone,
			LogLevel:  "info",
			LogFormat: "text",
		},
		Storage: StorageConfig{
			DataDir:       "./data",
			ReportBackend: "json",
			ArchivePath:   "reports.db",
		},
		Scheduler: SchedulerConfig{Interval: time.Hour},
		Collectors: CollectorsConfig{
			Signal:  []string{"discovery"},
			Content: []string{"github_trending", "arxiv", "research_feeds", "bloggers"},
		},
		Processors: []string{"deduplicate", "scoring", "filtering", "signal_normalizer", "trend_analyzer"},
		Generators: []string{"daily_report"},
		Scoring: ScoringConfig{
			Keywords:       []string{"LLM", "Agent", "RAG", "Diffusion", "Transformer"},
			KeywordWeight:  1,
			TrendingWeight: 2,
			RecencyWeight:  1,
		},
		Limits: LimitsConfig{TopN: 5, DaysWindow: 7},
		HTTP: HTTPConfig{
			UserAgent:         "SignalDigest/1.0",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 2,
		},
		GitHub: GitHubConfig{
			TrendingURL: "https://github.com/trending",
			HistoryDays: 30,
		},
		Arxiv: ArxivConfig{
			ListURL:               "https://export.arxiv.org/list",
			Categories:            []string{"cs.AI", "cs.LG", "cs.CL"},
			MaxEntriesPerCategory: 12,
			DaysWindow:            1,
			PageSize:              200,
		},
		ResearchFeeds: ResearchFeedsConfig{
			MaxEntriesPerFeed: 10,
			MaxTotalEntries:   40,
			DaysWindow:        3,
			SummaryMaxLen:     800,
		},
		Bloggers: BloggersConfig{
			MaxCount:          100,
			MaxEntriesPerFeed: 10,
		},
		Discovery: DiscoveryConfig{
			RepoPattern: `https://github\.com/[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+`,
			MaxHistory:  50,
		},
		Report: ReportConfig{
			Provider:       "moonshot",
			Model:          "moonshot-v1-8k",
			Temperature:    0.7,
			MaxTokens:      800,
			Timeout:        60 * time.Second,
			SystemPrompt:   "You write concise daily technology intelligence briefings.",
			AuxiliaryCount: 5,
			MaxRetries:     3,
			RetryBase:      5 * time.Second,
		},
	}
}
