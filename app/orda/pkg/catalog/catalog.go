// Package catalog holds the authoritative name lists (industries, past issues)
// that every RAG candidate is validated against.
package catalog

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/iWorld-y/orda/app/orda/pkg/model"
)

// Entry 目录条目
type Entry struct {
	ID                string
	Name              string
	Description       string
	Period            string
	StartDate         string
	EndDate           string
	RelatedIndustries string
	IndustryReason    string
	EvidenceSource    string
}

// Catalog 不可变的权威名称目录，加载后只读，可并发访问
type Catalog struct {
	class   model.EntityClass
	entries []Entry
	byName  map[string]int
}

// Normalize 统一名称写法（NFC + 去除首尾空白）
func Normalize(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// New 构建目录，重名时保留第一条，空名称忽略
func New(class model.EntityClass, entries []Entry) *Catalog {
	c := &Catalog{
		class:  class,
		byName: make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		e.Name = Normalize(e.Name)
		if e.Name == "" {
			continue
		}
		if _, ok := c.byName[e.Name]; ok {
			continue
		}
		c.byName[e.Name] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c
}

// Class 目录类别
func (c *Catalog) Class() model.EntityClass { return c.class }

// Len 条目数量
func (c *Catalog) Len() int { return len(c.entries) }

// Lookup 按名称查找
func (c *Catalog) Lookup(name string) (Entry, bool) {
	i, ok := c.byName[Normalize(name)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// IsValidName 名称是否在目录中
func (c *Catalog) IsValidName(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// DescriptionOf 名称对应的描述，不存在时返回空串
func (c *Catalog) DescriptionOf(name string) string {
	e, _ := c.Lookup(name)
	return e.Description
}

// PeriodOf 名称对应的时间范围，不存在时返回空串
func (c *Catalog) PeriodOf(name string) string {
	e, _ := c.Lookup(name)
	return e.Period
}

// Names 按目录顺序返回前 limit 个名称，limit <= 0 表示全部
func (c *Catalog) Names(limit int) []string {
	n := len(c.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = c.entries[i].Name
	}
	return names
}

// Entries 返回条目副本
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// FormatPeriod 由起止日期生成时间范围字符串
func FormatPeriod(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	switch {
	case start == "" && end == "":
		return model.NoPeriod
	case end == "":
		return start + " ~"
	case start == "":
		return "~ " + end
	default:
		return start + " ~ " + end
	}
}
