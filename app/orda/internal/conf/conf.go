package conf

type Bootstrap struct {
	Server     *Server     `json:"server"`
	Data       *Data       `json:"data"`
	Auth       *Auth       `json:"auth"`
	Pipeline   *Pipeline   `json:"pipeline"`
	Simulation *Simulation `json:"simulation"`
	Trace      *Trace      `json:"trace"`
}

type Auth struct {
	JwtKey string `json:"jwt_key"`
	// TokenTtl 签发管理员令牌的有效期
	TokenTtl string `json:"token_ttl"`
}

type Server struct {
	Http *HTTP `json:"http"`
}

type HTTP struct {
	Addr        string   `json:"addr"`
	Timeout     string   `json:"timeout"`
	CorsOrigins []string `json:"cors_origins"`
}

type Data struct {
	Database *Database `json:"database"`
	Redis    *Redis    `json:"redis"`
	Snapshot *Snapshot `json:"snapshot"`
}

type Database struct {
	Driver string `json:"driver"`
	Source string `json:"source"`
}

// Redis 为空或未配置地址时使用进程内缓存
type Redis struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	Db       int32  `json:"db"`
	Ttl      string `json:"ttl"`
}

type Snapshot struct {
	Provider  string `json:"provider"`
	Dir       string `json:"dir"`
	Bucket    string `json:"bucket"`
	Prefix    string `json:"prefix"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

type Pipeline struct {
	Llm         *LLM         `json:"llm"`
	Embedding   *Embedding   `json:"embedding"`
	Vector      *Vector      `json:"vector"`
	Rag         *RAG         `json:"rag"`
	Crawler     *Crawler     `json:"crawler"`
	Filter      *Filter      `json:"filter"`
	Catalog     *Catalog     `json:"catalog"`
	Log         *Log         `json:"log"`
	Concurrency *Concurrency `json:"concurrency"`
	// Interval 定时运行间隔，为空或 0 时不定时运行
	Interval string `json:"interval"`
}

type LLM struct {
	BaseUrl   string `json:"base_url"`
	ApiKey    string `json:"api_key"`
	Model     string `json:"model"`
	FastModel string `json:"fast_model"`
}

type Embedding struct {
	BaseUrl string `json:"base_url"`
	ApiKey  string `json:"api_key"`
	Model   string `json:"model"`
}

type Vector struct {
	Provider string    `json:"provider"`
	Pinecone *Pinecone `json:"pinecone"`
	Sqlite   *SQLite   `json:"sqlite"`
}

type Pinecone struct {
	Host   string `json:"host"`
	ApiKey string `json:"api_key"`
}

type SQLite struct {
	Path string `json:"path"`
}

type RAG struct {
	TopK               int32  `json:"top_k"`
	TopN               int32  `json:"top_n"`
	Workers            int32  `json:"workers"`
	PromptCatalogLimit int32  `json:"prompt_catalog_limit"`
	ConfidencePolicy   string `json:"confidence_policy"`
}

type Crawler struct {
	Source            string   `json:"source"`
	File              string   `json:"file"`
	Categories        []string `json:"categories"`
	IssuesPerCategory int32    `json:"issues_per_category"`
	Headless          bool     `json:"headless"`
	Timeout           string   `json:"timeout"`
	MaxAttempts       int32    `json:"max_attempts"`
}

type Filter struct {
	TargetCount int32 `json:"target_count"`
}

type Catalog struct {
	IndustriesCsv string `json:"industries_csv"`
	PastIssuesCsv string `json:"past_issues_csv"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Concurrency struct {
	Qps int32 `json:"qps"`
	Rpm int32 `json:"rpm"`
}

type Simulation struct {
	ScenariosFile string `json:"scenarios_file"`
	MarketBaseUrl string `json:"market_base_url"`
	MarketTimeout string `json:"market_timeout"`
}

type Trace struct {
	// Endpoint OTLP HTTP 地址，为空时不导出
	Endpoint string `json:"endpoint"`
	Insecure bool   `json:"insecure"`
}
