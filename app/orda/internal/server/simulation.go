package server

import (
	nethttp "net/http"
	"time"

	"github.com/iWorld-y/orda/app/orda/internal/conf"
	"github.com/iWorld-y/orda/app/orda/pkg/config"
	"github.com/iWorld-y/orda/app/orda/pkg/market"
	"github.com/iWorld-y/orda/app/orda/pkg/metrics"
	"github.com/iWorld-y/orda/app/orda/pkg/simulation"
)

// NewSimulator 加载情景文件并接入 Yahoo 行情
func NewSimulator(c *conf.Simulation, m *metrics.Metrics) (*simulation.Simulator, error) {
	book := simulation.DefaultBook()
	var baseURL string
	timeout := 30 * time.Second
	if c != nil {
		if c.ScenariosFile != "" {
			b, err := simulation.LoadBook(c.ScenariosFile)
			if err != nil {
				return nil, err
			}
			book = b
		}
		baseURL = c.MarketBaseUrl
		timeout = config.Duration(c.MarketTimeout, timeout)
	}
	provider := market.NewYahoo(baseURL, &nethttp.Client{Timeout: timeout})
	return simulation.New(book, provider, m), nil
}
