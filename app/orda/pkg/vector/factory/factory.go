package factory

import (
	"fmt"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/iWorld-y/orda/app/orda/pkg/config"
	"github.com/iWorld-y/orda/app/orda/pkg/vector"
	"github.com/iWorld-y/orda/app/orda/pkg/vector/pinecone"
	"github.com/iWorld-y/orda/app/orda/pkg/vector/sqlite"
)

// NewIndex 根据配置创建向量索引，返回的 cleanup 用于释放本地资源
func NewIndex(cfg config.VectorConfig, embedder embedding.Embedder) (vector.Index, func(), error) {
	if embedder == nil {
		return nil, nil, fmt.Errorf("embedder is required")
	}

	switch cfg.Provider {
	case "pinecone":
		if cfg.Pinecone.Host == "" {
			return nil, nil, fmt.Errorf("pinecone host is missing")
		}
		if cfg.Pinecone.APIKey == "" {
			return nil, nil, fmt.Errorf("pinecone api key is missing")
		}
		return pinecone.NewClient(cfg.Pinecone.Host, cfg.Pinecone.APIKey, embedder), func() {}, nil

	case "sqlite", "":
		path := cfg.SQLite.Path
		if path == "" {
			path = ":memory:"
		}
		idx, err := sqlite.Open(path, embedder)
		if err != nil {
			return nil, nil, err
		}
		return idx, func() { _ = idx.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown vector provider: %s", cfg.Provider)
	}
}
