package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/iWorld-y/orda/app/orda/pkg/vector"
)

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{1, 0}
	}
	return out, nil
}

func TestQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Api-Key") != "secret" {
			t.Errorf("missing api key header")
		}
		if r.URL.Path != "/query" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req queryRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Namespace != "industry" || req.TopK != 10 || !req.IncludeMetadata {
			t.Errorf("unexpected request %+v", req)
		}
		_, _ = w.Write([]byte(`{"matches":[
			{"id":"a","score":0.8,"metadata":{"text":"산업명: 반도체","name":"반도체"}},
			{"id":"b","score":1.2,"metadata":{"text":"산업명: 화학","rank":3}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", fakeEmbedder{})
	got, err := c.Query(context.Background(), "q", vector.NamespaceIndustry, 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Text != "산업명: 반도체" || got[0].Metadata["name"] != "반도체" {
		t.Errorf("match[0] = %+v", got[0])
	}
	if _, ok := got[0].Metadata["text"]; ok {
		t.Error("text should be moved out of metadata")
	}
	if d := got[0].Distance; d < 0.199 || d > 0.201 {
		t.Errorf("distance = %v, want 0.2", d)
	}
	if got[1].Distance != 0 || got[1].Metadata["rank"] != "3" {
		t.Errorf("match[1] = %+v", got[1])
	}
}

func TestUpsertAndStats(t *testing.T) {
	var upserted upsertRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/vectors/upsert":
			_ = json.NewDecoder(r.Body).Decode(&upserted)
			_, _ = w.Write([]byte(`{"upsertedCount":1}`))
		case "/describe_index_stats":
			_, _ = w.Write([]byte(`{"dimension":2,"totalVectorCount":5,"namespaces":{"industry":{"vectorCount":5}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", fakeEmbedder{})
	err := c.Upsert(context.Background(), "industry", []vector.Document{{ID: "1", Text: "t", Metadata: map[string]string{"name": "n"}}})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if upserted.Namespace != "industry" || len(upserted.Vectors) != 1 || upserted.Vectors[0].Metadata["text"] != "t" {
		t.Errorf("upserted = %+v", upserted)
	}

	st, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.Total != 5 || st.Namespaces["industry"] != 5 || st.Dimension != 2 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestQueryServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", fakeEmbedder{})
	if _, err := c.Query(context.Background(), "q", "industry", 3); err == nil {
		t.Fatal("expected error")
	}
}
