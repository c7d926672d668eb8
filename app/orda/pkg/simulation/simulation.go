// Package simulation 基于历史行情回放投资组合在历史情景中的表现。
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iWorld-y/orda/app/orda/pkg/market"
	"github.com/iWorld-y/orda/app/orda/pkg/metrics"
	"github.com/iWorld-y/orda/app/orda/pkg/scoring"
)

const (
	MinAmount = 10_000
	MaxAmount = 100_000_000
	MinPeriod = 1
	MaxPeriod = 24
	// 取数窗口两端各多取的天数
	fetchPadding = 5 * 24 * time.Hour
)

var (
	// ErrNoPrices 区间内没有行情
	ErrNoPrices = errors.New("선택된 기간에 대한 주가 데이터를 가져올 수 없습니다.")
	// ErrNoPortfolio 无法计算组合市值
	ErrNoPortfolio = errors.New("포트폴리오 가치를 계산할 수 없습니다.")
	// ErrUnknownScenario 情景不存在
	ErrUnknownScenario = errors.New("유효하지 않은 시나리오 ID입니다.")
)

// Selection 用户选择的股票与配置比例（百分比）
type Selection struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Allocation float64 `json:"allocation"`
}

// Request 模拟请求
type Request struct {
	ScenarioID string      `json:"scenario_id"`
	Amount     int64       `json:"investment_amount"`
	Period     int         `json:"investment_period"`
	Stocks     []Selection `json:"selected_stocks"`
}

// Validation 输入校验结果
type Validation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ScenarioView 情景列表项
type ScenarioView struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Period            string   `json:"period"`
	RelatedIndustries []string `json:"related_industries"`
}

// ScenarioInfo 结果中的情景信息
type ScenarioInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Summary 组合收益
type Summary struct {
	InitialAmount  int64   `json:"initial_amount"`
	FinalAmount    int64   `json:"final_amount"`
	TotalReturnPct float64 `json:"total_return_pct"`
}

// MarketComparison 同期市场收益
type MarketComparison struct {
	KOSPIReturnPct float64 `json:"KOSPI_return_pct"`
}

// StockReturn 单只股票收益
type StockReturn struct {
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	ReturnPct float64 `json:"return_pct"`
}

// Result 模拟结果
type Result struct {
	ScenarioInfo   ScenarioInfo     `json:"scenario_info"`
	Results        Summary          `json:"simulation_results"`
	Market         MarketComparison `json:"market_comparison"`
	StockAnalysis  []StockReturn    `json:"stock_analysis"`
	LearningPoints []string         `json:"learning_points"`
}

// Simulator 模拟投资引擎
type Simulator struct {
	book     *Book
	provider market.Provider
	metrics  *metrics.Metrics
}

// New 创建模拟引擎
func New(book *Book, provider market.Provider, m *metrics.Metrics) *Simulator {
	if book == nil {
		book = DefaultBook()
	}
	return &Simulator{book: book, provider: provider, metrics: m}
}

// Scenarios 可用情景列表
func (s *Simulator) Scenarios() []ScenarioView {
	out := make([]ScenarioView, 0, len(s.book.Scenarios))
	for _, sc := range s.book.Scenarios {
		out = append(out, ScenarioView{
			ID:                sc.ID,
			Name:              sc.Name,
			Description:       sc.Description,
			Period:            sc.StartDate + " ~ " + sc.EndDate,
			RelatedIndustries: sc.RelatedIndustries,
		})
	}
	return out
}

// Recommended 情景的推荐股票，按行业分组
func (s *Simulator) Recommended(scenarioID string) (map[string][]Stock, bool) {
	sc, ok := s.book.scenario(scenarioID)
	if !ok || len(sc.Recommended) == 0 {
		return nil, false
	}
	return sc.Recommended, true
}

// Companies 按行业与关键字过滤公司列表
func (s *Simulator) Companies(sector, query string) []Company {
	query = strings.ToLower(query)
	out := make([]Company, 0, len(s.book.Companies))
	for _, c := range s.book.Companies {
		if sector != "" && c.Sector != sector {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(c.Name), query) && !strings.Contains(c.Code, query) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Validate 校验请求，配置比例之和偏离 100% 只给出警告
func (s *Simulator) Validate(req Request) Validation {
	v := Validation{Errors: []string{}, Warnings: []string{}}
	if _, ok := s.book.scenario(req.ScenarioID); !ok {
		v.Errors = append(v.Errors, ErrUnknownScenario.Error())
	}
	if req.Amount < MinAmount || req.Amount > MaxAmount {
		v.Errors = append(v.Errors, "투자 금액은 1만원 이상 1억원 이하여야 합니다.")
	}
	if req.Period < MinPeriod || req.Period > MaxPeriod {
		v.Errors = append(v.Errors, "투자 기간은 1개월에서 24개월 사이여야 합니다.")
	}
	if len(req.Stocks) == 0 {
		v.Errors = append(v.Errors, "최소 1개 이상의 종목을 선택해야 합니다.")
	}

	var total float64
	for _, st := range req.Stocks {
		if st.Allocation <= 0 || st.Allocation > 100 {
			v.Errors = append(v.Errors, fmt.Sprintf("종목 비중은 0%% 초과 100%% 이하여야 합니다 (%s).", st.Code))
		}
		total += st.Allocation
	}
	if math.Abs(total-100) > 0.1 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("총 투자 비중이 100%%가 아닙니다 (현재: %.1f%%).", total))
	}

	v.Valid = len(v.Errors) == 0
	return v
}

// Run 执行模拟，调用方应先通过 Validate
func (s *Simulator) Run(ctx context.Context, req Request) (*Result, error) {
	res, err := s.run(ctx, req)
	if err != nil {
		s.metrics.IncSimulation(metrics.StatusFailure)
		return nil, err
	}
	s.metrics.IncSimulation(metrics.StatusSuccess)
	return res, nil
}

func (s *Simulator) run(ctx context.Context, req Request) (*Result, error) {
	sc, ok := s.book.scenario(req.ScenarioID)
	if !ok {
		return nil, ErrUnknownScenario
	}
	start, err := parseDate(sc.StartDate)
	if err != nil {
		return nil, err
	}
	end := start.AddDate(0, req.Period, 0)

	tickers := make([]string, 0, len(req.Stocks)+1)
	seen := make(map[string]bool)
	for _, st := range req.Stocks {
		if t, ok := s.book.Tickers[st.Code]; ok && !seen[t] {
			seen[t] = true
			tickers = append(tickers, t)
		}
	}
	if !seen[s.book.MarketIndex] {
		tickers = append(tickers, s.book.MarketIndex)
	}

	raw, err := s.provider.DailyCloses(ctx, tickers, start.Add(-fetchPadding), end.Add(fetchPadding))
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	prices := make(map[string]market.Series, len(raw))
	for t, series := range raw {
		if w := series.Between(start, end); len(w) > 0 {
			prices[t] = w
		}
	}
	if len(prices) == 0 {
		return nil, ErrNoPrices
	}

	totals, err := portfolioTotals(req, s.book.Tickers, prices)
	if err != nil {
		return nil, err
	}
	initial, final := totals[0], totals[len(totals)-1]
	totalReturn := (final/initial - 1) * 100

	var marketReturn float64
	if m := prices[s.book.MarketIndex]; len(m) > 0 && m[0].Close > 0 {
		marketReturn = (m[len(m)-1].Close/m[0].Close - 1) * 100
	}

	analysis := make([]StockReturn, 0, len(req.Stocks))
	for _, st := range req.Stocks {
		series := prices[s.book.Tickers[st.Code]]
		if len(series) == 0 {
			continue
		}
		var r float64
		if first := series[0].Close; first > 0 {
			r = (series[len(series)-1].Close/first - 1) * 100
		}
		analysis = append(analysis, StockReturn{Name: st.Name, Code: st.Code, ReturnPct: scoring.Round2(r)})
	}

	return &Result{
		ScenarioInfo: ScenarioInfo{ID: sc.ID, Name: sc.Name, Description: sc.Description},
		Results: Summary{
			InitialAmount:  int64(initial),
			FinalAmount:    int64(final),
			TotalReturnPct: scoring.Round2(totalReturn),
		},
		Market:         MarketComparison{KOSPIReturnPct: scoring.Round2(marketReturn)},
		StockAnalysis:  analysis,
		LearningPoints: learningPoints(totalReturn, marketReturn),
	}, nil
}

// portfolioTotals 返回每个交易日的组合总市值。
// 持仓数量按各股票首个价格买入，缺失价格沿用前值，任一持仓尚无价格的日期被丢弃。
func portfolioTotals(req Request, tickers map[string]string, prices map[string]market.Series) ([]float64, error) {
	type holding struct {
		series market.Series
		shares float64
	}
	var holdings []holding
	for _, st := range req.Stocks {
		series := prices[tickers[st.Code]]
		if len(series) == 0 || series[0].Close <= 0 {
			continue
		}
		shares := float64(req.Amount) * (st.Allocation / 100) / series[0].Close
		holdings = append(holdings, holding{series: series, shares: shares})
	}
	if len(holdings) == 0 {
		return nil, ErrNoPortfolio
	}

	dateSet := make(map[time.Time]struct{})
	for _, series := range prices {
		for _, p := range series {
			dateSet[p.Date] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	last := make([]float64, len(holdings))
	known := make([]bool, len(holdings))
	cursor := make([]int, len(holdings))
	var totals []float64
	for _, d := range dates {
		complete := true
		var sum float64
		for i, h := range holdings {
			for cursor[i] < len(h.series) && !h.series[cursor[i]].Date.After(d) {
				last[i] = h.series[cursor[i]].Close * h.shares
				known[i] = true
				cursor[i]++
			}
			if !known[i] {
				complete = false
				break
			}
			sum += last[i]
		}
		if complete {
			totals = append(totals, sum)
		}
	}
	if len(totals) == 0 || totals[0] <= 0 {
		return nil, ErrNoPortfolio
	}
	return totals, nil
}

func learningPoints(total, market float64) []string {
	diff := scoring.Round2(total - market)
	direction := "하회"
	if total > market {
		direction = "초과"
	}
	return []string{
		"시나리오에 맞는 종목 선택이 중요합니다.",
		fmt.Sprintf("시장 대비 %s%%p %s 수익을 기록했습니다.", formatPct(diff), direction),
	}
}

// formatPct 整数也保留一位小数，如 5.0
func formatPct(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
