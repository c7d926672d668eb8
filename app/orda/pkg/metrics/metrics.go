// Package metrics 定义流水线、RAG 与模拟投资的 Prometheus 指标。
//
// 所有方法对 nil *Metrics 是安全的，未启用指标时可直接传 nil。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 指标名称
const (
	MetricPipelineRunsTotal     = "orda_pipeline_runs_total"
	MetricPipelineRunDuration   = "orda_pipeline_run_duration_seconds"
	MetricRAGSourceFailures     = "orda_rag_source_failures_total"
	MetricRAGConfidence         = "orda_rag_confidence"
	MetricSimulationRunsTotal   = "orda_simulation_runs_total"
	MetricCrawledIssuesTotal    = "orda_crawled_issues_total"
	MetricPipelineRunInProgress = "orda_pipeline_run_in_progress"
)

// 状态标签
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// 来源标签
const (
	SourceVector = "vector"
	SourceLLM    = "llm"
)

// Metrics 指标集合
type Metrics struct {
	runsTotal      *prometheus.CounterVec
	runDuration    prometheus.Histogram
	runInProgress  prometheus.Gauge
	sourceFailures *prometheus.CounterVec
	confidence     prometheus.Histogram
	simRunsTotal   *prometheus.CounterVec
	crawledTotal   *prometheus.CounterVec
}

// NewMetrics 创建指标，需调用 Register 注册
func NewMetrics() *Metrics {
	return &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPipelineRunsTotal,
				Help: "Total number of pipeline runs by final status",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricPipelineRunDuration,
				Help:    "Histogram of pipeline run duration in seconds",
				Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 1800},
			},
		),
		runInProgress: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: MetricPipelineRunInProgress,
				Help: "1 while a pipeline run is executing",
			},
		),
		sourceFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRAGSourceFailures,
				Help: "Total number of RAG candidate source failures by source and entity class",
			},
			[]string{"source", "class"},
		),
		confidence: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricRAGConfidence,
				Help:    "Distribution of per-issue RAG confidence scores",
				Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			},
		),
		simRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSimulationRunsTotal,
				Help: "Total number of investment simulations by status",
			},
			[]string{"status"},
		),
		crawledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCrawledIssuesTotal,
				Help: "Total number of crawled issues by category",
			},
			[]string{"category"},
		),
	}
}

// Register 将所有指标注册到 reg
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors 返回所有采集器
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.runsTotal,
		m.runDuration,
		m.runInProgress,
		m.sourceFailures,
		m.confidence,
		m.simRunsTotal,
		m.crawledTotal,
	}
}

// ObserveRun 记录一次流水线运行
func (m *Metrics) ObserveRun(status string, seconds float64) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(seconds)
}

// SetRunInProgress 标记运行中
func (m *Metrics) SetRunInProgress(running bool) {
	if m == nil {
		return
	}
	if running {
		m.runInProgress.Set(1)
	} else {
		m.runInProgress.Set(0)
	}
}

// IncSourceFailure 记录 RAG 来源失败
func (m *Metrics) IncSourceFailure(source, class string) {
	if m == nil {
		return
	}
	m.sourceFailures.WithLabelValues(source, class).Inc()
}

// ObserveConfidence 记录单条分析的置信度
func (m *Metrics) ObserveConfidence(v float64) {
	if m == nil {
		return
	}
	m.confidence.Observe(v)
}

// IncSimulation 记录一次模拟投资
func (m *Metrics) IncSimulation(status string) {
	if m == nil {
		return
	}
	m.simRunsTotal.WithLabelValues(status).Inc()
}

// AddCrawled 记录爬取数量
func (m *Metrics) AddCrawled(category string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.crawledTotal.WithLabelValues(category).Add(float64(n))
}
