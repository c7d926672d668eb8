// Package market 获取历史日线行情。
package market

import (
	"context"
	"sort"
	"time"
)

// Point 单日收盘价，Date 为交易所当地日期（UTC 零点表示）
type Point struct {
	Date  time.Time
	Close float64
}

// Series 按日期升序排列的收盘价序列
type Series []Point

// Provider 行情数据源
type Provider interface {
	// DailyCloses 返回 [start, end] 区间内每个 ticker 的日线，没有数据的 ticker 不出现在结果中
	DailyCloses(ctx context.Context, tickers []string, start, end time.Time) (map[string]Series, error)
}

// Day 截断到日期
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Between 返回 [from, to] 区间内的点
func (s Series) Between(from, to time.Time) Series {
	from, to = Day(from), Day(to)
	lo := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(from) })
	hi := sort.Search(len(s), func(i int) bool { return s[i].Date.After(to) })
	if lo >= hi {
		return nil
	}
	return s[lo:hi]
}

// At 返回指定日期的收盘价
func (s Series) At(day time.Time) (float64, bool) {
	day = Day(day)
	i := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(day) })
	if i < len(s) && s[i].Date.Equal(day) {
		return s[i].Close, true
	}
	return 0, false
}
