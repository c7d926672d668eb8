package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 流水线配置
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Vector      VectorConfig      `yaml:"vector"`
	RAG         RAGConfig         `yaml:"rag"`
	Crawler     CrawlerConfig     `yaml:"crawler"`
	Filter      FilterConfig      `yaml:"filter"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	DB          DBConfig          `yaml:"db"`
	Cache       CacheConfig       `yaml:"cache"`
	Snapshot    SnapshotConfig    `yaml:"snapshot"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// Model 用于 RAG 候选与综合分析
	Model string `yaml:"model"`
	// FastModel 用于新闻关联性过滤，为空时使用 Model
	FastModel string `yaml:"fast_model"`
}

// EmbeddingConfig 嵌入模型配置，BaseURL/APIKey 为空时沿用 LLM 配置
type EmbeddingConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// VectorConfig 向量索引配置
type VectorConfig struct {
	Provider string         `yaml:"provider"` // pinecone or sqlite
	Pinecone PineconeConfig `yaml:"pinecone"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

// PineconeConfig Pinecone 配置
type PineconeConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

// SQLiteConfig 本地索引配置
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RAGConfig RAG 分析配置
type RAGConfig struct {
	TopK               int    `yaml:"top_k"`
	TopN               int    `yaml:"top_n"`
	Workers            int    `yaml:"workers"`
	PromptCatalogLimit int    `yaml:"prompt_catalog_limit"`
	ConfidencePolicy   string `yaml:"confidence_policy"` // strict or fallback
}

// CrawlerConfig 爬虫配置
type CrawlerConfig struct {
	// Source bigkinds 或 file
	Source            string   `yaml:"source"`
	File              string   `yaml:"file"`
	Categories        []string `yaml:"categories"`
	IssuesPerCategory int      `yaml:"issues_per_category"`
	Headless          bool     `yaml:"headless"`
	Timeout           string   `yaml:"timeout"`
	MaxAttempts       int      `yaml:"max_attempts"`
}

// FilterConfig 关联性过滤配置
type FilterConfig struct {
	TargetCount int `yaml:"target_count"`
}

// CatalogConfig 目录 CSV 路径
type CatalogConfig struct {
	IndustriesCSV string `yaml:"industries_csv"`
	PastIssuesCSV string `yaml:"past_issues_csv"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// CacheConfig 最新议题缓存配置
type CacheConfig struct {
	Provider string `yaml:"provider"` // memory or redis
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
}

// SnapshotConfig 结果快照配置
type SnapshotConfig struct {
	Provider  string `yaml:"provider"` // dir or s3
	Dir       string `yaml:"dir"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// DefaultCategories BigKinds 议题类别
var DefaultCategories = []string{"정치", "경제", "사회", "문화", "국제", "지역", "IT과학"}

// ApplyDefaults 填充未配置的字段
func (c *Config) ApplyDefaults() {
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o"
	}
	if c.LLM.FastModel == "" {
		c.LLM.FastModel = "gpt-4o-mini"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = c.LLM.BaseURL
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = c.LLM.APIKey
	}
	if c.Vector.Provider == "" {
		c.Vector.Provider = "sqlite"
	}
	if c.Vector.SQLite.Path == "" {
		c.Vector.SQLite.Path = "data/vectors.db"
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = 10
	}
	if c.RAG.TopN <= 0 {
		c.RAG.TopN = 3
	}
	if c.RAG.Workers <= 0 {
		c.RAG.Workers = 4
	}
	if c.RAG.PromptCatalogLimit <= 0 {
		c.RAG.PromptCatalogLimit = 50
	}
	if c.Crawler.Source == "" {
		c.Crawler.Source = "bigkinds"
	}
	if len(c.Crawler.Categories) == 0 {
		c.Crawler.Categories = DefaultCategories
	}
	if c.Crawler.IssuesPerCategory <= 0 {
		c.Crawler.IssuesPerCategory = 10
	}
	if c.Crawler.MaxAttempts <= 0 {
		c.Crawler.MaxAttempts = 3
	}
	if c.Filter.TargetCount <= 0 {
		c.Filter.TargetCount = 5
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = 60
	}
	if c.Cache.Provider == "" {
		c.Cache.Provider = "memory"
	}
	if c.Snapshot.Provider == "" {
		c.Snapshot.Provider = "dir"
	}
	if c.Snapshot.Dir == "" {
		c.Snapshot.Dir = "data/snapshots"
	}
}

// Duration 解析时长配置，失败或为空时返回 def
func Duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}
