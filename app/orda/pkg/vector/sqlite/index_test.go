package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/iWorld-y/orda/app/orda/pkg/vector"
)

// keywordEmbedder 按关键词出现与否生成向量
type keywordEmbedder struct{ words []string }

func (e keywordEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v := make([]float64, len(e.words))
		for j, w := range e.words {
			if strings.Contains(t, w) {
				v[j] = 1
			}
		}
		out[i] = v
	}
	return out, nil
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "vectors.db"), keywordEmbedder{words: []string{"반도체", "화학", "금융"}})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestQueryOrdersByDistance(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	docs := []vector.Document{
		{ID: "1", Text: "산업명: 화학", Metadata: map[string]string{"name": "화학"}},
		{ID: "2", Text: "산업명: 반도체", Metadata: map[string]string{"name": "반도체"}},
		{ID: "3", Text: "산업명: 반도체 화학 소재"},
	}
	if err := idx.Upsert(ctx, vector.NamespaceIndustry, docs); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := idx.Upsert(ctx, vector.NamespacePastIssue, []vector.Document{{ID: "p", Text: "반도체 호황"}}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := idx.Query(ctx, "반도체 수출", vector.NamespaceIndustry, 2)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "2" || got[0].Distance > 1e-9 {
		t.Errorf("closest = %+v", got[0])
	}
	if got[0].Metadata["name"] != "반도체" {
		t.Errorf("metadata = %v", got[0].Metadata)
	}
	if got[1].ID != "3" {
		t.Errorf("second = %+v", got[1])
	}
}

func TestUpsertOverwritesAndStats(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	for _, text := range []string{"금융", "화학"} {
		if err := idx.Upsert(ctx, "industry", []vector.Document{{ID: "x", Text: text}}); err != nil {
			t.Fatal(err)
		}
	}
	st, err := idx.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.Total != 1 || st.Namespaces["industry"] != 1 || st.Dimension != 3 {
		t.Errorf("Stats() = %+v", st)
	}

	got, err := idx.Query(ctx, "화학", "industry", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Text != "화학" {
		t.Errorf("Query() = %+v", got)
	}
}
