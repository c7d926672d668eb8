package model

import "time"

// EntityClass 候选实体类别
type EntityClass string

const (
	ClassIndustry  EntityClass = "industry"
	ClassPastIssue EntityClass = "past_issue"
)

// NoPeriod 过去事件没有时间范围时的占位值
const NoPeriod = "N/A"

// Issue 爬取到的新闻议题
type Issue struct {
	Number    int       `json:"이슈번호"`
	Category  string    `json:"카테고리"`
	Title     string    `json:"제목"`
	Content   string    `json:"내용"`
	CrawledAt time.Time `json:"추출시간"`
	Key       string    `json:"고유ID"`
}

// Relevance 股市关联性评估明细
type Relevance struct {
	Company   float64 `json:"직접적_기업영향"`
	Industry  float64 `json:"산업_전반영향"`
	Macro     float64 `json:"거시경제_영향"`
	Sentiment float64 `json:"투자심리_영향"`
	Total     float64 `json:"종합점수"`
	Reason    string  `json:"분석근거"`
}

// ScoredIssue 经过股市关联性过滤后的议题
type ScoredIssue struct {
	Issue
	RelevanceScore float64   `json:"주식시장_관련성_점수"`
	Relevance      Relevance `json:"관련성_분석"`
	Rank           int       `json:"순위"`
}

// Candidate 与查询相关的一个实体（产业或过去事件）
type Candidate struct {
	Name        string  `json:"name"`
	FinalScore  float64 `json:"final_score"`
	VectorScore float64 `json:"vector_score"`
	AIScore     float64 `json:"ai_score"`
	AIReason    string  `json:"ai_reason"`
	Description string  `json:"description"`
	Period      string  `json:"period,omitempty"`
}

// Analysis 单条新闻的 RAG 分析结果
type Analysis struct {
	Industries []Candidate `json:"관련산업"`
	PastIssues []Candidate `json:"관련과거이슈"`
	Confidence float64     `json:"RAG분석신뢰도"`
}

// EnrichedIssue 附带 RAG 分析结果的议题
type EnrichedIssue struct {
	ID int64 `json:"id,omitempty"`
	ScoredIssue
	Analysis
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Query 构造向量检索和 LLM 共用的查询文本
func (i Issue) Query() string {
	return i.Title + "\n" + i.Content
}

// RunStatus 流水线运行状态
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// RunResult 一次流水线运行的汇总
type RunResult struct {
	ID                string          `json:"pipeline_id"`
	StartedAt         time.Time       `json:"started_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	Status            RunStatus       `json:"final_status"`
	StepsCompleted    []string        `json:"steps_completed"`
	Errors            []string        `json:"errors"`
	TotalCrawled      int             `json:"total_crawled"`
	FilteredCount     int             `json:"filtered_count"`
	AnalyzedCount     int             `json:"analyzed_count"`
	AverageConfidence float64         `json:"average_confidence"`
	Categories        []string        `json:"categories_processed,omitempty"`
	Issues            []EnrichedIssue `json:"selected_issues,omitempty"`
}

// ExecutionTime 运行耗时，未结束时为 0
func (r *RunResult) ExecutionTime() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
