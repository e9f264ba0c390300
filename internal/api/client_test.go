package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientDo_sendsBearerAndBody(t *testing.T) {
	var gotAuth, gotContentType, gotQuery string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotQuery = r.URL.RawQuery
		gotBody = readAll(t, r)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":42}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, TokenFunc(func() string { return "tok-123" }), time.Second)
	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/transactions",
		Body:   json.RawMessage(`{"amount":"50.00"}`),
		Params: map[string]string{"budget_period": "7"},
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotQuery != "budget_period=7" {
		t.Errorf("query = %q, want budget_period=7", gotQuery)
	}
	if string(gotBody) != `{"amount":"50.00"}` {
		t.Errorf("body = %s", gotBody)
	}
	if resp.StatusCode != http.StatusCreated || string(resp.Body) != `{"id":42}` {
		t.Errorf("resp = %d %s", resp.StatusCode, resp.Body)
	}
}

func TestClientDo_freshTokenPerCall(t *testing.T) {
	var auths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auths = append(auths, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	token := "first"
	c := NewClient(srv.URL, TokenFunc(func() string { return token }), time.Second)

	c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/categories"})
	token = "second"
	c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/categories"})

	if len(auths) != 2 || auths[0] != "Bearer first" || auths[1] != "Bearer second" {
		t.Errorf("auth headers = %v, want token read at call time", auths)
	}
}

func TestClientDo_statusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"invalid amount"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, time.Second)
	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/transactions"})

	if StatusCode(err) != http.StatusUnprocessableEntity {
		t.Fatalf("StatusCode(err) = %d, err = %v", StatusCode(err), err)
	}
	if IsNetworkError(err) {
		t.Error("a real HTTP response must not be a network error")
	}
}

func TestClientDo_networkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refused from here on

	c := NewClient(srv.URL, nil, time.Second)
	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/transactions"})

	if !IsNetworkError(err) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
	if StatusCode(err) != 0 {
		t.Errorf("StatusCode = %d for a transport failure, want 0", StatusCode(err))
	}
}

func TestClientProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("probe hit %s, want /health", r.URL.Path)
		}
		// Even an auth failure proves the server is reachable.
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, time.Second)
	if err := c.Probe(context.Background()); err != nil {
		t.Errorf("Probe = %v, want nil for any HTTP response", err)
	}

	srv.Close()
	if err := c.Probe(context.Background()); err == nil {
		t.Error("Probe = nil against a dead server, want error")
	}
}

func readAll(t *testing.T, r *http.Request) []byte {
	t.Helper()
	b, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("reading request body: %v", err)
	}
	return b
}
