package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iWorld-y/orda/app/orda/pkg/model"
)

// 产业 CSV 列名
const (
	colIndustryName = "KRX 업종명"
	colIndustryDesc = "상세내용"
)

// 过去事件 CSV 列名
const (
	colPastID       = "ID"
	colPastName     = "Issue_name"
	colPastContents = "Contents"
	colPastIndustry = "관련 산업"
	colPastReason   = "산업 이유"
	colPastStart    = "Start_date"
	colPastEnd      = "Fin_date"
	colPastEvidence = "근거자료"
)

type csvTable struct {
	header map[string]int
	rows   [][]string
}

func (t *csvTable) get(row []string, col string) string {
	i, ok := t.header[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func readTable(r io.Reader, required ...string) (*csvTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	t := &csvTable{header: make(map[string]int, len(head))}
	for i, h := range head {
		// Excel 导出的 UTF-8 BOM
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		t.header[h] = i
	}
	for _, col := range required {
		if _, ok := t.header[col]; !ok {
			return nil, fmt.Errorf("csv missing column %q", col)
		}
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// ReadIndustries 读取产业 CSV，业种名为空的行被丢弃
func ReadIndustries(r io.Reader) ([]Entry, error) {
	t, err := readTable(r, colIndustryName)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, row := range t.rows {
		name := t.get(row, colIndustryName)
		if name == "" {
			continue
		}
		entries = append(entries, Entry{
			Name:        name,
			Description: t.get(row, colIndustryDesc),
		})
	}
	return entries, nil
}

// ReadPastIssues 读取过去事件 CSV，ID 为空的行被丢弃
func ReadPastIssues(r io.Reader) ([]Entry, error) {
	t, err := readTable(r, colPastID, colPastName)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, row := range t.rows {
		id := t.get(row, colPastID)
		if id == "" {
			continue
		}
		start, end := t.get(row, colPastStart), t.get(row, colPastEnd)
		entries = append(entries, Entry{
			ID:                id,
			Name:              t.get(row, colPastName),
			Description:       t.get(row, colPastContents),
			RelatedIndustries: t.get(row, colPastIndustry),
			IndustryReason:    t.get(row, colPastReason),
			StartDate:         start,
			EndDate:           end,
			Period:            FormatPeriod(start, end),
			EvidenceSource:    t.get(row, colPastEvidence),
		})
	}
	return entries, nil
}

// Load 按类别读取 CSV 并构建目录
func Load(class model.EntityClass, r io.Reader) (*Catalog, error) {
	var (
		entries []Entry
		err     error
	)
	switch class {
	case model.ClassIndustry:
		entries, err = ReadIndustries(r)
	case model.ClassPastIssue:
		entries, err = ReadPastIssues(r)
	default:
		return nil, fmt.Errorf("unknown catalog class: %s", class)
	}
	if err != nil {
		return nil, err
	}
	return New(class, entries), nil
}
