package es

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bhalbert/rest-api/internal/domain"
	"github.com/bhalbert/rest-api/internal/domain/query"
	"github.com/bhalbert/rest-api/internal/metrics"
)

func TestSearch_Success(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{
			"took": 4,
			"timed_out": false,
			"hits": {"total": 2, "hits": [
				{"_id": "a", "_score": 1.5, "_source": {"id": "a"}},
				{"_id": "b", "_score": 1.0, "_source": {"id": "b"}}
			]}
		}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := c.Search(context.Background(), "associations", Request{
		Query: query.Terms{Field: "target.id", Values: []string{"ENSG1"}},
		Size:  Size(10),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/associations/_search" {
		t.Errorf("path = %q", gotPath)
	}
	if _, ok := gotBody["query"]; !ok {
		t.Error("request body missing query")
	}
	if resp.Hits.Total != 2 || len(resp.Hits.Hits) != 2 {
		t.Errorf("hits = %+v", resp.Hits)
	}
	if resp.Hits.Hits[0].ID != "a" {
		t.Errorf("first hit id = %q", resp.Hits.Hits[0].ID)
	}
}

func TestSearch_ZeroSizeSurvivesMarshaling(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"hits": {"total": 7, "hits": []}}`))
	}))
	defer srv.Close()

	c, _ := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.Search(context.Background(), "associations", Request{Size: Size(0)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	size, ok := gotBody["size"]
	if !ok {
		t.Fatal("size 0 dropped from request body")
	}
	if size.(float64) != 0 {
		t.Errorf("size = %v", size)
	}
}

func TestSearch_RecordsRequestMetrics(t *testing.T) {
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hits": {"total": 0, "hits": []}}`))
	}))
	defer okSrv.Close()
	failSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "shard failure", http.StatusInternalServerError)
	}))
	defer failSrv.Close()

	okBefore := testutil.ToFloat64(metrics.SearchRequestsTotal.WithLabelValues("metered", "ok"))
	errBefore := testutil.ToFloat64(metrics.SearchRequestsTotal.WithLabelValues("metered", "error"))

	c, _ := NewClient(Config{BaseURL: okSrv.URL})
	if _, err := c.Search(context.Background(), "metered", Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, _ = NewClient(Config{BaseURL: failSrv.URL})
	if _, err := c.Search(context.Background(), "metered", Request{}); err == nil {
		t.Fatal("expected error")
	}

	if v := testutil.ToFloat64(metrics.SearchRequestsTotal.WithLabelValues("metered", "ok")); v != okBefore+1 {
		t.Errorf("ok requests = %f, want %f", v, okBefore+1)
	}
	if v := testutil.ToFloat64(metrics.SearchRequestsTotal.WithLabelValues("metered", "error")); v != errBefore+1 {
		t.Errorf("error requests = %f, want %f", v, errBefore+1)
	}
	if n := testutil.CollectAndCount(metrics.SearchRequestDuration); n == 0 {
		t.Error("expected search_request_duration_seconds to have observations")
	}
}

func TestSearch_TimedOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"timed_out": true, "hits": {"total": 0, "hits": []}}`))
	}))
	defer srv.Close()

	c, _ := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Search(context.Background(), "associations", Request{})
	if !errors.Is(err, domain.ErrBackendTimeout) {
		t.Fatalf("expected ErrBackendTimeout, got %v", err)
	}
}

func TestSearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "shard failure", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.Search(context.Background(), "associations", Request{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSearch_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := NewClient(Config{BaseURL: srv.URL})
	for i := 0; i < 6; i++ {
		c.Search(context.Background(), "associations", Request{})
	}

	_, err := c.Search(context.Background(), "associations", Request{})
	if !errors.Is(err, domain.ErrBackendTimeout) {
		t.Fatalf("expected ErrBackendTimeout once circuit is open, got %v", err)
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error")
	}
}
