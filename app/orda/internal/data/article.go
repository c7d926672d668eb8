package data

import (
	"context"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/iWorld-y/orda/app/orda/internal/biz"
)

const articleTimeout = 30 * time.Second

type articleFetcher struct {
	timeout time.Duration
}

// NewArticleFetcher 基于 readability 的正文抽取
func NewArticleFetcher() biz.ArticleFetcher {
	return &articleFetcher{timeout: articleTimeout}
}

func (f *articleFetcher) Fetch(ctx context.Context, url string) (*biz.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	article, err := readability.FromURL(url, f.timeout)
	if err != nil {
		return nil, err
	}
	return &biz.Article{
		URL:   url,
		Title: strings.TrimSpace(article.Title),
		Text:  strings.TrimSpace(article.TextContent),
	}, nil
}
