package server

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"github.com/iWorld-y/orda/app/orda/internal/biz"
	"github.com/iWorld-y/orda/app/orda/internal/conf"
)

func TestCORSFilter(t *testing.T) {
	h := corsFilter([]string{"https://orda.example"})(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusTeapot)
	}))

	req := httptest.NewRequest(nethttp.MethodOptions, "/api/news/latest", nil)
	req.Header.Set("Origin", "https://orda.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://orda.example" {
		t.Errorf("allow origin = %q", got)
	}

	req = httptest.NewRequest(nethttp.MethodGet, "/api/news/latest", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusTeapot || rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("foreign origin: status %d, headers %v", rec.Code, rec.Header())
	}

	if !originAllowed([]string{"*"}, "http://localhost:3000") {
		t.Error("wildcard should allow any origin")
	}
}

type pingReq struct {
	Id    int64  `json:"id"`
	Query string `json:"query"`
}

type pingReply struct {
	Id    int64  `json:"id"`
	Query string `json:"query"`
}

func ping(ctx context.Context, req *pingReq) (*pingReply, error) {
	return &pingReply{Id: req.Id, Query: req.Query}, nil
}

func TestAdminAuth(t *testing.T) {
	auth := &conf.Auth{JwtKey: "test-key"}
	srv := http.NewServer(http.Middleware(adminAuth(auth)))
	r := srv.Route("/")
	handle(r, "GET", "/items/{id}", OperationGetIssue, ping)
	handle(r, "POST", "/refresh", OperationRefreshPipeline, ping)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/items/42?query=abc", nil))
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("public route status = %d: %s", rec.Code, rec.Body)
	}
	var got pingReply
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Id != 42 || got.Query != "abc" {
		t.Errorf("bound request = %+v", got)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodPost, "/refresh", nil))
	if rec.Code != nethttp.StatusUnauthorized {
		t.Errorf("admin route without token status = %d, want 401", rec.Code)
	}

	token, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{"sub": "admin"}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(nethttp.MethodPost, "/refresh", strings.NewReader(`{"id":7}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusOK {
		t.Errorf("admin route with token status = %d: %s", rec.Code, rec.Body)
	}

	req = httptest.NewRequest(nethttp.MethodPost, "/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusOK {
		t.Errorf("bodyless admin request with token status = %d: %s", rec.Code, rec.Body)
	}

	req = httptest.NewRequest(nethttp.MethodPost, "/refresh", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusUnauthorized {
		t.Errorf("malformed body without token status = %d, want 401", rec.Code)
	}
}

func TestHasBody(t *testing.T) {
	tests := []struct {
		name string
		req  func() *nethttp.Request
		want bool
	}{
		{"get", func() *nethttp.Request {
			return httptest.NewRequest(nethttp.MethodGet, "/", strings.NewReader(`{}`))
		}, false},
		{"bodyless post", func() *nethttp.Request {
			return httptest.NewRequest(nethttp.MethodPost, "/", nil)
		}, false},
		{"json post", func() *nethttp.Request {
			r := httptest.NewRequest(nethttp.MethodPost, "/", strings.NewReader(`{"id":1}`))
			r.Header.Set("Content-Type", "application/json")
			return r
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasBody(tt.req()); got != tt.want {
				t.Errorf("hasBody() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgressHub(t *testing.T) {
	hub := NewProgressHub(nil, log.DefaultLogger)
	ts := httptest.NewServer(hub)
	defer ts.Close()

	hub.Publish(biz.ProgressEvent{Status: "crawling", Progress: 10, Time: time.Now()})

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ev biz.ProgressEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.Status != "crawling" || ev.Progress != 10 {
		t.Errorf("replayed event = %+v", ev)
	}

	hub.Publish(biz.ProgressEvent{Status: "completed", Progress: 100, Time: time.Now()})
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.Progress != 100 {
		t.Errorf("live event = %+v", ev)
	}
	if hub.Clients() != 1 {
		t.Errorf("clients = %d, want 1", hub.Clients())
	}
}

func TestPipelineConfigDefaults(t *testing.T) {
	cfg := PipelineConfig(&conf.Pipeline{
		Rag:     &conf.RAG{TopK: 20},
		Crawler: &conf.Crawler{Source: "file", File: "issues.json"},
	})
	if cfg.RAG.TopK != 20 || cfg.RAG.TopN != 3 || cfg.RAG.PromptCatalogLimit != 50 {
		t.Errorf("rag config = %+v", cfg.RAG)
	}
	if cfg.Crawler.Source != "file" || len(cfg.Crawler.Categories) == 0 {
		t.Errorf("crawler config = %+v", cfg.Crawler)
	}
	if nilCfg := PipelineConfig(nil); nilCfg.Vector.Provider != "sqlite" {
		t.Errorf("default vector provider = %q", nilCfg.Vector.Provider)
	}
}

func TestSchedulerDisabled(t *testing.T) {
	s := NewScheduler(&conf.Pipeline{}, nil, log.DefaultLogger)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
}
