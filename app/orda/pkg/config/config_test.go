package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
llm:
  base_url: http://llm.local/v1
  api_key: sk-test
rag:
  workers: 8
  confidence_policy: fallback
vector:
  provider: pinecone
  pinecone:
    host: orda-abc.svc.pinecone.io
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.RAG.Workers != 8 || cfg.RAG.TopK != 10 || cfg.RAG.TopN != 3 || cfg.RAG.PromptCatalogLimit != 50 {
		t.Errorf("rag = %+v", cfg.RAG)
	}
	if cfg.Embedding.APIKey != "sk-test" || cfg.Embedding.BaseURL != "http://llm.local/v1" {
		t.Errorf("embedding should inherit llm endpoint, got %+v", cfg.Embedding)
	}
	if cfg.Vector.Provider != "pinecone" || cfg.Filter.TargetCount != 5 {
		t.Errorf("unexpected cfg %+v", cfg)
	}
	if len(cfg.Crawler.Categories) != 7 {
		t.Errorf("categories = %v", cfg.Crawler.Categories)
	}
}

func TestDuration(t *testing.T) {
	if got := Duration("90s", time.Second); got != 90*time.Second {
		t.Errorf("Duration(90s) = %v", got)
	}
	if got := Duration("nope", time.Minute); got != time.Minute {
		t.Errorf("Duration(nope) = %v", got)
	}
	if got := Duration("", time.Minute); got != time.Minute {
		t.Errorf("Duration(\"\") = %v", got)
	}
}

func TestLoadBundledPipelineConfig(t *testing.T) {
	cfg, err := LoadConfig("../../configs/pipeline.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Crawler.Source != "file" || cfg.Cache.Provider != "memory" || cfg.Snapshot.Provider != "dir" {
		t.Errorf("unexpected providers: %+v %+v %+v", cfg.Crawler, cfg.Cache, cfg.Snapshot)
	}
	if len(cfg.Crawler.Categories) != len(DefaultCategories) {
		t.Errorf("categories = %v, want defaults", cfg.Crawler.Categories)
	}
	if cfg.DB.Host != "" {
		t.Errorf("db host = %q, want empty", cfg.DB.Host)
	}
}
