// Package config 负责加载和校验 newsrelay 的 YAML 配置。
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 是 newsrelay 的顶层配置结构。
type Config struct {
	// WebhookURL Discord Webhook 地址，必填。
	// 惯例写法是 ${DISCORD_WEBHOOK_URL}，从环境变量注入。
	WebhookURL string `yaml:"webhook_url"`

	// StateFile 已推送文章标识的持久化文件路径。
	StateFile string `yaml:"state_file"`

	// CheckInterval 两次检查之间的间隔（秒）。
	CheckInterval int `yaml:"check_interval"`

	// MaxArticles 每个周期推送的文章总数上限（所有源合计）。
	MaxArticles int `yaml:"max_articles"`

	// PerSourceLimit 每个源每个周期最多处理的条目数。
	PerSourceLimit int `yaml:"per_source_limit"`

	// DeliveryPauseMs 两次成功推送之间的停顿（毫秒），避免触发限流。
	DeliveryPauseMs int `yaml:"delivery_pause_ms"`

	// Feeds 订阅源列表。
	Feeds []FeedConfig `yaml:"feeds"`

	// HighlightKeywords 高亮关键词，命中即标记为重要。
	HighlightKeywords []string `yaml:"highlight_keywords"`

	// SourceEmojis 源名称到 emoji 的匹配规则。
	// 用有序列表而不是 map，保证「第一条命中的规则生效」是确定的。
	SourceEmojis []EmojiRule `yaml:"source_emojis"`

	Log LogConfig `yaml:"log"`
}

// FeedConfig 单个订阅源配置。
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// EmojiRule 源名称 emoji 匹配规则。Match 为源名称的子串（区分大小写）。
type EmojiRule struct {
	Match string `yaml:"match"`
	Emoji string `yaml:"emoji"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// Load 读取 YAML 配置文件并返回 Config。
// 支持 ${VAR_NAME} 形式的环境变量展开。
// 配置文件不存在时不报错，使用内置默认值（webhook 仍需通过环境变量提供）。
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
		}
	} else {
		// 展开环境变量，如 ${DISCORD_WEBHOOK_URL}
		expanded := os.Expand(string(data), func(key string) string {
			return os.Getenv(key)
		})
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
		}
	}

	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查必填项。
func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return fmt.Errorf("webhook_url 未配置（可通过环境变量 DISCORD_WEBHOOK_URL 提供）")
	}
	for i, f := range c.Feeds {
		if f.Name == "" || f.URL == "" {
			return fmt.Errorf("feeds[%d] 缺少 name 或 url", i)
		}
	}
	return nil
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.WebhookURL == "" {
		cfg.WebhookURL = os.Getenv("DISCORD_WEBHOOK_URL")
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "sent_articles.json"
	}
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 21600 // 6 小时
	}
	if cfg.MaxArticles == 0 {
		cfg.MaxArticles = 10
	}
	if cfg.PerSourceLimit == 0 {
		cfg.PerSourceLimit = 5
	}
	if cfg.DeliveryPauseMs == 0 {
		cfg.DeliveryPauseMs = 1500
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if len(cfg.Feeds) == 0 {
		cfg.Feeds = defaultFeeds()
	}
	if len(cfg.HighlightKeywords) == 0 {
		cfg.HighlightKeywords = defaultHighlightKeywords()
	}
	if len(cfg.SourceEmojis) == 0 {
		cfg.SourceEmojis = defaultEmojiRules()
	}
}

// defaultFeeds 内置的 AI 资讯订阅源。
func defaultFeeds() []FeedConfig {
	return []FeedConfig{
		// 公司博客
		{Name: "OpenAI", URL: "https://openai.com/blog/rss.xml"},
		{Name: "Google AI", URL: "https://blog.research.google/feeds/posts/default?alt=rss"},
		// 科技媒体
		{Name: "TechCrunch AI", URL: "https://techcrunch.com/category/artificial-intelligence/feed/"},
		{Name: "The Verge AI", URL: "https://www.theverge.com/rss/ai-artificial-intelligence/index.xml"},
		{Name: "Wired AI", URL: "https://www.wired.com/feed/tag/ai/latest/rss"},
		{Name: "MIT Tech Review", URL: "https://www.technologyreview.com/feed/"},
		// 社区
		{Name: "Hacker News AI", URL: "https://hnrss.org/newest?q=AI+OR+GPT+OR+LLM+OR+Claude"},
	}
}

// defaultHighlightKeywords 内置高亮关键词。
func defaultHighlightKeywords() []string {
	return []string{
		"Claude", "GPT-5", "GPT-4", "o1", "o3", "Gemini", "breakthrough",
		"AGI", "safety", "alignment", "reasoning", "benchmark",
	}
}

// defaultEmojiRules 内置的源名称 emoji 规则，按声明顺序匹配。
func defaultEmojiRules() []EmojiRule {
	return []EmojiRule{
		{Match: "Anthropic", Emoji: "🟠"},
		{Match: "OpenAI", Emoji: "🟢"},
		{Match: "Google AI", Emoji: "🔵"},
		{Match: "DeepMind", Emoji: "🧠"},
		{Match: "Meta AI", Emoji: "📘"},
		{Match: "arXiv", Emoji: "📄"},
		{Match: "Hacker News", Emoji: "🟧"},
		{Match: "Reddit", Emoji: "🔴"},
	}
}
