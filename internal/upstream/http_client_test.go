package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rangulvers/wikigraph/internal/apperr"
	"github.com/rangulvers/wikigraph/internal/title"
)

func TestHTTPClient_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]any{"einstein", []string{"Albert Einstein"}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, srv.Client(), 0)
	resolved, exists, err := c.Resolve(context.Background(), title.Title("einstein"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !exists || resolved != title.Title("Albert Einstein") {
		t.Fatalf("Resolve = (%q, %v), want (Albert Einstein, true)", resolved, exists)
	}
}

func TestHTTPClient_Resolve_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]any{"zzzznotreal", []string{}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, srv.Client(), 0)
	_, exists, err := c.Resolve(context.Background(), title.Title("zzzznotreal"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if exists {
		t.Fatal("expected exists = false for no match")
	}
}

func TestHTTPClient_Neighbors_Forward_Pagination(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte(`{
				"continue": {"plcontinue": "token1"},
				"query": {"pages": {"1": {"links": [{"title": "B"}]}}}
			}`))
			return
		}
		_, _ = w.Write([]byte(`{
			"query": {"pages": {"1": {"links": [{"title": "C"}]}}}
		}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, srv.Client(), 0)
	got, err := c.Neighbors(context.Background(), title.Title("A"), Forward, 10)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	want := []title.Title{"B", "C"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Neighbors = %v, want %v", got, want)
	}
	if calls != 2 {
		t.Fatalf("expected 2 paginated requests, got %d", calls)
	}
}

func TestHTTPClient_Neighbors_MissingTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query": {"pages": {"-1": {"missing": true}}}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, srv.Client(), 0)
	_, err := c.Neighbors(context.Background(), title.Title("Nonexistent"), Forward, 10)
	if err == nil {
		t.Fatal("expected an error for a missing title")
	}
	if apperr.KindOf(err) != apperr.TitleUnknown {
		t.Fatalf("KindOf(err) = %v, want TitleUnknown", apperr.KindOf(err))
	}
}

func TestHTTPClient_RetriesOn5xx(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode([]any{"x", []string{"X"}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, srv.Client(), 0)
	_, exists, err := c.Resolve(context.Background(), title.Title("x"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !exists {
		t.Fatal("expected eventual success after retries")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestHTTPClient_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, srv.Client(), 0)
	_, _, err := c.Resolve(context.Background(), title.Title("x"))
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if calls != backoffMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", backoffMaxAttempts, calls)
	}
}

func TestHTTPClient_ConcurrencyCap(t *testing.T) {
	const cap = 2
	inflight := make(chan struct{}, 100)
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inflight <- struct{}{}
		<-release
		_ = json.NewEncoder(w).Encode([]any{"x", []string{"X"}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, srv.Client(), cap)

	for i := 0; i < 5; i++ {
		go func() {
			_, _, _ = c.Resolve(context.Background(), title.Title("x"))
		}()
	}

	time.Sleep(200 * time.Millisecond)
	if len(inflight) > cap {
		t.Fatalf("observed %d concurrent in-flight requests, want <= %d", len(inflight), cap)
	}
	close(release)
}
