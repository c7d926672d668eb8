package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/orda/app/orda/pkg/retry"
)

const (
	defaultYahooURL = "https://query1.finance.yahoo.com"
	userAgent       = "Mozilla/5.0 (compatible; orda/1.0)"
	fetchWorkers    = 4
)

// Yahoo Yahoo Finance chart API 客户端
type Yahoo struct {
	baseURL string
	client  *http.Client
	policy  retry.Policy
}

var _ Provider = (*Yahoo)(nil)

// NewYahoo 创建客户端，baseURL 为空时使用官方地址
func NewYahoo(baseURL string, client *http.Client) *Yahoo {
	if baseURL == "" {
		baseURL = defaultYahooURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Yahoo{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		policy: retry.Policy{
			MaxAttempts: 3,
			Backoff:     retry.Exponential(time.Second),
			Retryable:   retry.Transient,
		},
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote    []quoteSet    `json:"quote"`
				AdjClose []adjCloseSet `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyCloses 并发获取各 ticker 的日线，优先使用复权收盘价
func (y *Yahoo) DailyCloses(ctx context.Context, tickers []string, start, end time.Time) (map[string]Series, error) {
	var mu sync.Mutex
	out := make(map[string]Series, len(tickers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchWorkers)
	for _, ticker := range tickers {
		g.Go(func() error {
			s, err := retry.Value(ctx, y.policy, func(ctx context.Context) (Series, error) {
				return y.fetch(ctx, ticker, start, end)
			})
			if err != nil {
				return fmt.Errorf("fetch %s: %w", ticker, err)
			}
			if len(s) == 0 {
				return nil
			}
			mu.Lock()
			out[ticker] = s
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (y *Yahoo) fetch(ctx context.Context, ticker string, start, end time.Time) (Series, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "div,splits")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(ticker), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	// 未知 ticker 返回 404，视为无数据
	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.StatusCode != http.StatusOK {
		return nil, &retry.StatusError{Service: "yahoo", Code: res.StatusCode, Body: string(body)}
	}

	var cr chartResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, retry.Permanent(fmt.Errorf("unmarshal response failed: %w", err))
	}
	if cr.Chart.Error != nil {
		return nil, retry.Permanent(fmt.Errorf("yahoo: %s: %s", cr.Chart.Error.Code, cr.Chart.Error.Description))
	}
	if len(cr.Chart.Result) == 0 {
		return nil, nil
	}
	r := cr.Chart.Result[0]
	return toSeries(r.Timestamp, r.Meta.GMTOffset, closes(r.Indicators.AdjClose, r.Indicators.Quote)), nil
}

type quoteSet struct {
	Close []*float64 `json:"close"`
}

type adjCloseSet struct {
	AdjClose []*float64 `json:"adjclose"`
}

func closes(adj []adjCloseSet, quote []quoteSet) []*float64 {
	if len(adj) > 0 && len(adj[0].AdjClose) > 0 {
		return adj[0].AdjClose
	}
	if len(quote) > 0 {
		return quote[0].Close
	}
	return nil
}

func toSeries(ts []int64, gmtOffset int64, values []*float64) Series {
	s := make(Series, 0, len(ts))
	for i, t := range ts {
		if i >= len(values) || values[i] == nil {
			continue
		}
		day := Day(time.Unix(t+gmtOffset, 0).UTC())
		if n := len(s); n > 0 && s[n-1].Date.Equal(day) {
			s[n-1].Close = *values[i]
			continue
		}
		s = append(s, Point{Date: day, Close: *values[i]})
	}
	sort.SliceStable(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
	return s
}
