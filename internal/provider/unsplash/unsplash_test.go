package unsplash

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/tjfontaine/wayfarer/internal/provider"
	"github.com/tjfontaine/wayfarer/internal/testutil"
)

func TestClient_SearchImage(t *testing.T) {
	if os.Getenv("UNSPLASH_ACCESS_KEY") == "" && os.Getenv("VCR_MODE") == "record" {
		t.Skip("Skipping test: UNSPLASH_ACCESS_KEY not set")
	}

	recorder, cleanup := testutil.NewVCRRecorder(t, "unsplash_search")
	defer cleanup()

	c := New(testutil.EnvOr("UNSPLASH_ACCESS_KEY", "test-key"),
		WithHTTPClient(testutil.VCRHTTPClient(recorder)))

	t.Run("top result", func(t *testing.T) {
		got, err := c.SearchImage(context.Background(), "Lisbon travel")
		if err != nil {
			t.Fatalf("SearchImage() error = %v", err)
		}
		want := "https://images.unsplash.com/photo-1548707309-dcebeab9ea9b?w=1080&q=80&fm=jpg&fit=max"
		if got != want {
			t.Errorf("SearchImage() = %q, want %q", got, want)
		}
	})

	t.Run("no results", func(t *testing.T) {
		got, err := c.SearchImage(context.Background(), "zzqxv nowhere")
		if err != nil {
			t.Fatalf("SearchImage() error = %v", err)
		}
		if got != "" {
			t.Errorf("SearchImage() = %q, want empty", got)
		}
	})
}

func TestClient_NotConfigured(t *testing.T) {
	c := New("", WithHTTPClient(&http.Client{Transport: failingTransport{t}}))
	if c.Configured() {
		t.Fatal("Configured() = true with blank key")
	}
	got, err := c.SearchImage(context.Background(), "Lisbon")
	if err != nil || got != "" {
		t.Errorf("SearchImage() = %q, %v; want empty, nil", got, err)
	}
}

func TestClient_RequestShape(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"urls":{"regular":"","full":"https://example.com/full.jpg"}}]}`))
	}))
	defer srv.Close()

	c := New("abc", WithBaseURL(srv.URL+"/"), WithResults(3))
	got, err := c.SearchImage(context.Background(), "Kyoto")
	if err != nil {
		t.Fatalf("SearchImage() error = %v", err)
	}
	if got != "https://example.com/full.jpg" {
		t.Errorf("SearchImage() = %q", got)
	}
	if gotAuth != "Client-ID abc" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotQuery != "orientation=landscape&per_page=3&query=Kyoto" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":["Rate Limit Exceeded"]}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := New("abc", WithBaseURL(srv.URL))
	_, err := c.SearchImage(context.Background(), "Kyoto")

	var statusErr *provider.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
		t.Errorf("SearchImage() error = %v, want 403 StatusError", err)
	}
}

type failingTransport struct{ t *testing.T }

func (f failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	f.t.Error("unconfigured client made a network call")
	return nil, errors.New("unexpected call")
}
