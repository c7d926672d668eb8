// Package embedding 提供 OpenAI 兼容的 /embeddings 客户端。
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/iWorld-y/orda/app/orda/pkg/retry"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "text-embedding-3-small"
	// 单次请求的最大文本数
	defaultBatch = 100
)

// Config 客户端配置
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	BatchSize  int
	HTTPClient *http.Client
}

// Client OpenAI embeddings 客户端
type Client struct {
	baseURL string
	apiKey  string
	model   string
	batch   int
	client  *http.Client
	policy  retry.Policy
}

var _ embedding.Embedder = (*Client)(nil)

// NewClient 创建客户端
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		batch:   cfg.BatchSize,
		client:  cfg.HTTPClient,
		policy: retry.Policy{
			MaxAttempts: 3,
			Backoff:     retry.Exponential(time.Second),
			Retryable:   retry.Transient,
		},
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.batch <= 0 {
		c.batch = defaultBatch
	}
	if c.client == nil {
		c.client = http.DefaultClient
	}
	return c
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// EmbedStrings 返回与 texts 一一对应的向量
func (c *Client) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	model := c.model
	if o := embedding.GetCommonOptions(&embedding.Options{Model: &model}, opts...); o.Model != nil && *o.Model != "" {
		model = *o.Model
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += c.batch {
		end := min(start+c.batch, len(texts))
		batch := texts[start:end]
		vecs, err := retry.Value(ctx, c.policy, func(ctx context.Context) ([][]float64, error) {
			return c.embed(ctx, model, batch)
		})
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (c *Client) embed(ctx context.Context, model string, texts []string) ([][]float64, error) {
	payload, err := json.Marshal(embedRequest{Model: model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, &retry.StatusError{Service: "embeddings", Code: res.StatusCode, Body: string(body)}
	}

	var er embedResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return nil, retry.Permanent(fmt.Errorf("unmarshal response failed: %w", err))
	}
	if len(er.Data) != len(texts) {
		return nil, retry.Permanent(fmt.Errorf("embeddings: got %d vectors for %d inputs", len(er.Data), len(texts)))
	}

	vecs := make([][]float64, len(texts))
	for _, d := range er.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, retry.Permanent(fmt.Errorf("embeddings: index %d out of range", d.Index))
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}
