// Package pinecone 通过 REST 数据面接口访问 Pinecone 索引。
package pinecone

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
	"github.com/iWorld-y/orda/app/orda/pkg/vector"
)

// 文本存放在元数据的该字段中
const textKey = "text"

const upsertBatch = 100

// Client Pinecone 索引客户端
type Client struct {
	host     string
	apiKey   string
	embedder embedding.Embedder
	client   *http.Client
	policy   retry.Policy
}

// NewClient 创建客户端，host 为索引的数据面地址
func NewClient(host, apiKey string, embedder embedding.Embedder) *Client {
	host = strings.TrimRight(host, "/")
	if host != "" && !strings.HasPrefix(host, "http") {
		host = "https://" + host
	}
	return &Client{
		host:     host,
		apiKey:   apiKey,
		embedder: embedder,
		client:   &http.Client{Timeout: 30 * time.Second},
		policy: retry.Policy{
			MaxAttempts: 3,
			Backoff:     retry.Exponential(time.Second),
			Retryable:   retry.Transient,
		},
	}
}

var _ vector.Index = (*Client)(nil)

type queryRequest struct {
	Vector          []float64 `json:"vector"`
	TopK            int       `json:"topK"`
	Namespace       string    `json:"namespace,omitempty"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

type upsertVector struct {
	ID       string            `json:"id"`
	Values   []float64         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []upsertVector `json:"vectors"`
	Namespace string         `json:"namespace,omitempty"`
}

type statsResponse struct {
	Dimension        int `json:"dimension"`
	TotalVectorCount int `json:"totalVectorCount"`
	Namespaces       map[string]struct {
		VectorCount int `json:"vectorCount"`
	} `json:"namespaces"`
}

// Query 检索与 text 最相近的 k 个文档
func (c *Client) Query(ctx context.Context, text, namespace string, k int) ([]vector.Match, error) {
	vecs, err := c.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vecs))
	}

	var resp queryResponse
	req := queryRequest{Vector: vecs[0], TopK: k, Namespace: namespace, IncludeMetadata: true}
	if err := c.post(ctx, "/query", req, &resp); err != nil {
		return nil, err
	}

	matches := make([]vector.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		md := make(map[string]string, len(m.Metadata))
		for key, v := range m.Metadata {
			if s, ok := v.(string); ok {
				md[key] = s
			} else {
				md[key] = fmt.Sprint(v)
			}
		}
		text := md[textKey]
		delete(md, textKey)
		matches = append(matches, vector.Match{
			ID:       m.ID,
			Text:     text,
			Metadata: md,
			Distance: vector.DistanceFromCosine(m.Score),
		})
	}
	return matches, nil
}

// Upsert 计算嵌入并写入文档
func (c *Client) Upsert(ctx context.Context, namespace string, docs []vector.Document) error {
	for start := 0; start < len(docs); start += upsertBatch {
		batch := docs[start:min(start+upsertBatch, len(docs))]
		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.Text
		}
		vecs, err := c.embedder.EmbedStrings(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed documents: %w", err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("embed documents: got %d vectors for %d docs", len(vecs), len(batch))
		}

		req := upsertRequest{Namespace: namespace, Vectors: make([]upsertVector, len(batch))}
		for i, d := range batch {
			md := make(map[string]string, len(d.Metadata)+1)
			for k, v := range d.Metadata {
				md[k] = v
			}
			md[textKey] = d.Text
			req.Vectors[i] = upsertVector{ID: d.ID, Values: vecs[i], Metadata: md}
		}
		if err := c.post(ctx, "/vectors/upsert", req, nil); err != nil {
			return err
		}
	}
	return nil
}

// Stats 索引统计
func (c *Client) Stats(ctx context.Context) (vector.Stats, error) {
	var resp statsResponse
	if err := c.post(ctx, "/describe_index_stats", struct{}{}, &resp); err != nil {
		return vector.Stats{}, err
	}
	st := vector.Stats{
		Dimension:  resp.Dimension,
		Total:      resp.TotalVectorCount,
		Namespaces: make(map[string]int, len(resp.Namespaces)),
	}
	for ns, v := range resp.Namespaces {
		st.Namespaces[ns] = v.VectorCount
	}
	return st, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request failed: %w", err)
	}
	return retry.Do(ctx, c.policy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(payload))
		if err != nil {
			return retry.Permanent(fmt.Errorf("create request failed: %w", err))
		}
		req.Header.Set("Api-Key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		res, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer res.Body.Close()

		body, err := io.ReadAll(res.Body)
		if err != nil {
			return fmt.Errorf("read body failed: %w", err)
		}
		if res.StatusCode != http.StatusOK {
			return &retry.StatusError{Service: "pinecone", Code: res.StatusCode, Body: string(body)}
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return retry.Permanent(fmt.Errorf("unmarshal response failed: %w", err))
		}
		return nil
	})
}
