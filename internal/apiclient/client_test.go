// ABOUTME: Tests for the e-invoicing API client
// ABOUTME: Uses httptest to mock backend responses

package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestGet_AttachesBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"ok":true}}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Tokens: TokenSourceFunc(func() string { return "tok-1" })})
	resp, err := c.Get(context.Background(), "/ping", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.Status)
	}
}

func TestGet_NoTokenNoHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("expected no Authorization header, got %q", got)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	if _, err := c.Get(context.Background(), "/ping", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTokenReadOnEveryRequest(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	token := "first"
	c := New(Config{BaseURL: server.URL, Tokens: TokenSourceFunc(func() string { return token })})

	c.Get(context.Background(), "/a", nil)
	token = "second"
	c.Get(context.Background(), "/b", nil)

	if len(seen) != 2 || seen[0] != "Bearer first" || seen[1] != "Bearer second" {
		t.Errorf("expected refreshed token on second call, got %v", seen)
	}
}

func TestSetTokenSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer late" {
			t.Errorf("expected token from late-bound source, got %q", got)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	c.SetTokenSource(TokenSourceFunc(func() string { return "late" }))
	c.Get(context.Background(), "/x", nil)
}

func TestPost_SendsJSONBodyAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/customers" {
			t.Errorf("expected path /api/customers, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("dryRun") != "true" {
			t.Errorf("expected dryRun query, got %s", r.URL.RawQuery)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %s", ct)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != "Acme" {
			t.Errorf("expected name Acme, got %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"customer":{"id":"c1","name":"Acme"}}}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL + "/api/"})
	resp, err := c.Post(context.Background(), "customers", map[string]string{"name": "Acme"},
		&RequestOptions{Query: url.Values{"dryRun": {"true"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var customer struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := resp.Decode("data.customer", &customer); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if customer.ID != "c1" {
		t.Errorf("expected id c1, got %s", customer.ID)
	}
}

func TestVerbs(t *testing.T) {
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	ctx := context.Background()
	c.Put(ctx, "/r", map[string]int{"a": 1}, nil)
	c.Patch(ctx, "/r", map[string]int{"a": 1}, nil)
	c.Delete(ctx, "/r", nil)

	want := []string{http.MethodPut, http.MethodPatch, http.MethodDelete}
	if len(methods) != len(want) {
		t.Fatalf("expected %d requests, got %d", len(want), len(methods))
	}
	for i := range want {
		if methods[i] != want[i] {
			t.Errorf("request %d: expected %s, got %s", i, want[i], methods[i])
		}
	}
}

func TestHTTPError_UsesServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid credentials"}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	_, err := c.Post(context.Background(), "/auth/login", map[string]string{}, nil)
	if err == nil {
		t.Fatal("expected error for 401")
	}

	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Kind != KindHTTP || apiErr.Status != http.StatusUnauthorized {
		t.Errorf("unexpected error kind/status: %v/%d", apiErr.Kind, apiErr.Status)
	}
	if apiErr.Message != "Invalid credentials" {
		t.Errorf("expected server message, got %q", apiErr.Message)
	}
	if !IsUnauthorized(err) {
		t.Error("expected IsUnauthorized")
	}
	if got := Message(err, "Login failed"); got != "Invalid credentials" {
		t.Errorf("expected server message from Message, got %q", got)
	}
}

func TestHTTPError_FallbackMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	_, err := c.Get(context.Background(), "/x", nil)

	if StatusCode(err) != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", StatusCode(err))
	}
	if got := Message(err, "Login failed"); got != "Login failed" {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestHTTPError_ErrorField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not here"}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	_, err := c.Get(context.Background(), "/x", nil)

	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	apiErr, _ := AsError(err)
	if apiErr.Message != "not here" {
		t.Errorf("expected error field as message, got %q", apiErr.Message)
	}
}

func TestConnectionError(t *testing.T) {
	c := New(Config{BaseURL: "http://localhost:99999"})
	_, err := c.Get(context.Background(), "/x", nil)
	if err == nil {
		t.Fatal("expected connection error, got nil")
	}
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindTransport {
		t.Errorf("expected transport error, got %v", err)
	}
	if StatusCode(err) != 0 {
		t.Errorf("expected no status for transport error, got %d", StatusCode(err))
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "/x", nil)
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindCanceled {
		t.Errorf("expected canceled error, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected error chain to contain context.Canceled, got %v", err)
	}
}

func TestContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "/x", nil)
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindTimeout {
		t.Errorf("expected timeout error, got %v", err)
	}
}

func TestBlobResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if accept := r.Header.Get("Accept"); accept != "*/*" {
			t.Errorf("expected */* accept for blob, got %s", accept)
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="INV-001.pdf"`)
		io.WriteString(w, "%PDF-1.4")
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	resp, err := c.Get(context.Background(), "/invoices/1/pdf", &RequestOptions{ResponseType: ResponseBlob})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Data) != "%PDF-1.4" {
		t.Errorf("unexpected body %q", resp.Data)
	}
	if resp.ContentType() != "application/pdf" {
		t.Errorf("expected application/pdf, got %s", resp.ContentType())
	}
	if resp.Filename() != "INV-001.pdf" {
		t.Errorf("expected filename INV-001.pdf, got %q", resp.Filename())
	}
}

func TestDecode_MissingPath(t *testing.T) {
	resp := &Response{Status: 200, Data: []byte(`{"data":{"items":[]}}`)}

	var v map[string]any
	err := resp.Decode("data.invoice", &v)
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindDecode {
		t.Errorf("expected decode error, got %v", err)
	}
	if !resp.Exists("data.items") {
		t.Error("expected data.items to exist")
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	resp := &Response{Status: 200, Data: []byte(`not json`)}
	var v map[string]any
	if err := resp.Decode("data", &v); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if resp.Exists("data") {
		t.Error("expected Exists false for invalid JSON")
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:4000/api/", "http://localhost:4000/api"},
		{"api.example.com", "https://api.example.com"},
		{"  https://x.io//  ", "https://x.io"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := NormalizeBaseURL(tc.in); got != tc.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestErrorKindString(t *testing.T) {
	if KindHTTP.String() != "http" || ErrorKind(42).String() != "unknown" {
		t.Error("unexpected ErrorKind strings")
	}
}
