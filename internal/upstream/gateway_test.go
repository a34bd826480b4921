package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestGatewayFetchJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(`{"id": "42", "name": "Jane"}`))
		case "/list":
			w.Write([]byte(`[{"id": 1}, {"id": 2}]`))
		case "/bad-json":
			w.Write([]byte(`{not json`))
		case "/error":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, "", 5*time.Second, zap.NewNop())
	ctx := context.Background()

	doc, ok := gw.FetchJSON(ctx, "ok")
	if !ok {
		t.Fatal("expected ok fetch to succeed")
	}
	m, ok := doc.(map[string]any)
	if !ok || m["id"] != "42" {
		t.Errorf("unexpected document: %+v", doc)
	}

	doc, ok = gw.FetchJSON(ctx, "/list")
	if !ok {
		t.Fatal("expected list fetch to succeed")
	}
	if list, isList := doc.([]any); !isList || len(list) != 2 {
		t.Errorf("unexpected list: %+v", doc)
	}

	for _, path := range []string{"bad-json", "error", "missing"} {
		if _, ok := gw.FetchJSON(ctx, path); ok {
			t.Errorf("expected %q fetch to fail silently", path)
		}
	}
}

func TestGatewayNetworkFailure(t *testing.T) {
	// Closed server: connection refused must become an empty result, not a panic.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	gw := NewGateway(srv.URL, "", time.Second, zap.NewNop())
	if _, ok := gw.FetchJSON(context.Background(), "anything"); ok {
		t.Error("expected fetch against closed server to fail")
	}
}

func TestGatewayAPIToken(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-API-TOKEN")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, "secret", time.Second, zap.NewNop())
	if _, ok := gw.FetchJSON(context.Background(), "x"); !ok {
		t.Fatal("fetch failed")
	}
	if gotToken != "secret" {
		t.Errorf("expected api token header, got %q", gotToken)
	}
}
