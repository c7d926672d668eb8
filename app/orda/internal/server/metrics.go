package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iWorld-y/orda/app/orda/pkg/metrics"
)

// NewMetrics 创建独立的指标注册表，附带 Go 运行时指标
func NewMetrics() (*metrics.Metrics, prometheus.Gatherer, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics()
	if err := m.Register(reg); err != nil {
		return nil, nil, err
	}
	return m, reg, nil
}
