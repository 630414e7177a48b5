package fetcher

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestParseDocument tests href and title extraction.
func TestParseDocument(t *testing.T) {
	t.Parallel()

	t.Run("extracts raw hrefs in document order", func(t *testing.T) {
		t.Parallel()

		content := `<html><head><title> Home </title></head><body>
			<a href="/b">B</a>
			<a href="/c#frag">C</a>
			<a href="javascript:void(0)">JS</a>
			<a>no href</a>
			<a href="">empty</a>
			<a href="http://a.test/d">D</a>
		</body></html>`

		doc, err := parseDocument(strings.NewReader(content))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if doc.title != "Home" {
			t.Errorf("expected title 'Home', got %q", doc.title)
		}

		want := []string{"/b", "/c#frag", "javascript:void(0)", "", "http://a.test/d"}
		if len(doc.hrefs) != len(want) {
			t.Fatalf("expected %d hrefs, got %d: %v", len(want), len(doc.hrefs), doc.hrefs)
		}
		for i := range want {
			if doc.hrefs[i] != want[i] {
				t.Errorf("href[%d] = %q, want %q", i, doc.hrefs[i], want[i])
			}
		}
	})

	t.Run("tolerates malformed markup", func(t *testing.T) {
		t.Parallel()

		doc, err := parseDocument(strings.NewReader(`<a href="/x"><div><a href="/y">`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(doc.hrefs) != 2 {
			t.Errorf("expected 2 hrefs, got %v", doc.hrefs)
		}
	})
}

// TestIsHTML tests content type detection.
func TestIsHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType string
		want        bool
	}{
		{"text/html; charset=utf-8", true},
		{"TEXT/HTML", true},
		{"application/xhtml+xml", true},
		{"", true},
		{"application/pdf", false},
		{"image/png", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			t.Parallel()
			if got := isHTML(tt.contentType); got != tt.want {
				t.Errorf("isHTML(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

// TestHTTPFetcherFetch tests page fetching against a local server.
func TestHTTPFetcherFetch(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Root</title></head><body><a href="/b">b</a></body></html>`))
	})
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<a href="/x">x</a>`))
	})
	mux.HandleFunc("/file.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte(`<a href="/hidden">not html</a>`))
	})
	mux.HandleFunc("/ua", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<a href="/` + r.Header.Get("User-Agent") + `">ua</a>`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<a href="/home">home</a>`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	f := New(server.Client())

	t.Run("returns hrefs and title", func(t *testing.T) {
		t.Parallel()

		page, err := f.Fetch(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.Title != "Root" {
			t.Errorf("expected title 'Root', got %q", page.Title)
		}
		if len(page.Hrefs) != 1 || page.Hrefs[0] != "/b" {
			t.Errorf("expected [/b], got %v", page.Hrefs)
		}
		if page.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", page.StatusCode)
		}
	})

	t.Run("reports redirect-resolved final URL", func(t *testing.T) {
		t.Parallel()

		page, err := f.Fetch(context.Background(), server.URL+"/old")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.FinalURL != server.URL+"/new" {
			t.Errorf("expected final URL %s/new, got %s", server.URL, page.FinalURL)
		}
		if page.URL != server.URL+"/old" {
			t.Errorf("expected requested URL to be kept, got %s", page.URL)
		}
	})

	t.Run("non-HTML content yields zero hrefs", func(t *testing.T) {
		t.Parallel()

		page, err := f.Fetch(context.Background(), server.URL+"/file.pdf")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Hrefs) != 0 {
			t.Errorf("expected no hrefs, got %v", page.Hrefs)
		}
	})

	t.Run("error status pages are still parsed", func(t *testing.T) {
		t.Parallel()

		page, err := f.Fetch(context.Background(), server.URL+"/missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", page.StatusCode)
		}
		if len(page.Hrefs) != 1 {
			t.Errorf("expected 1 href, got %v", page.Hrefs)
		}
	})

	t.Run("sends configured user agent", func(t *testing.T) {
		t.Parallel()

		custom := New(server.Client(), WithUserAgent("crawlytics-test"))
		page, err := custom.Fetch(context.Background(), server.URL+"/ua")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Hrefs) != 1 || page.Hrefs[0] != "/crawlytics-test" {
			t.Errorf("expected user agent echoed back, got %v", page.Hrefs)
		}
	})
}

// TestHTTPFetcherResolve tests relative reference resolution.
func TestHTTPFetcherResolve(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/docs/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("docs"))
	})
	mux.HandleFunc("/docs/intro", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("intro"))
	})
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusFound)
	})
	mux.HandleFunc("/go", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/intro", http.StatusFound)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	f := New(server.Client())

	t.Run("resolves against the page the origin landed on", func(t *testing.T) {
		t.Parallel()

		res, err := f.Resolve(context.Background(), "intro", server.URL+"/start")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.FinalURL != server.URL+"/docs/intro" {
			t.Errorf("expected %s/docs/intro, got %s", server.URL, res.FinalURL)
		}
		if res.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", res.StatusCode)
		}
	})

	t.Run("follows redirects of the reference", func(t *testing.T) {
		t.Parallel()

		res, err := f.Resolve(context.Background(), "/go", server.URL+"/docs/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.FinalURL != server.URL+"/docs/intro" {
			t.Errorf("expected redirect target, got %s", res.FinalURL)
		}
	})

	t.Run("reports missing pages by status", func(t *testing.T) {
		t.Parallel()

		res, err := f.Resolve(context.Background(), "/nope", server.URL+"/docs/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", res.StatusCode)
		}
	})
}

// TestConnectionErrors tests error classification.
func TestConnectionErrors(t *testing.T) {
	t.Parallel()

	t.Run("refused connection wraps ErrConnection", func(t *testing.T) {
		t.Parallel()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		addr := listener.Addr().String()
		_ = listener.Close()

		f := New(&http.Client{Timeout: 2 * time.Second})
		_, err = f.Fetch(context.Background(), "http://"+addr+"/")
		if !errors.Is(err, ErrConnection) {
			t.Errorf("expected ErrConnection, got %v", err)
		}
	})

	t.Run("invalid URL is not a connection error", func(t *testing.T) {
		t.Parallel()

		f := New(http.DefaultClient)
		_, err := f.Fetch(context.Background(), "ftp://example.com/")
		if err == nil {
			t.Fatal("expected error")
		}
		if errors.Is(err, ErrConnection) {
			t.Errorf("expected non-connection error, got %v", err)
		}
	})

	t.Run("cancelled context is passed through", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte("slow"))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f := New(server.Client())
		_, err := f.Fetch(ctx, server.URL)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

// TestNewHTTPClient tests client construction.
func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	t.Run("rejects malformed proxy address", func(t *testing.T) {
		t.Parallel()

		for _, addr := range []string{"localhost", "127.0.0.1:", ":9050", "127.0.0.1:70000", "host:abc"} {
			if _, err := NewHTTPClient(ClientConfig{ProxyAddress: addr}); !errors.Is(err, ErrInvalidProxyAddress) {
				t.Errorf("NewHTTPClient(proxy=%q) error = %v, want ErrInvalidProxyAddress", addr, err)
			}
		}
	})

	t.Run("accepts SOCKS5 proxy address", func(t *testing.T) {
		t.Parallel()

		client, err := NewHTTPClient(ClientConfig{ProxyAddress: "127.0.0.1:9050", Timeout: time.Second})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.Jar == nil {
			t.Error("expected cookie jar")
		}
		if client.Timeout != time.Second {
			t.Errorf("expected timeout 1s, got %v", client.Timeout)
		}
	})

	t.Run("injects cookie and headers", func(t *testing.T) {
		t.Parallel()

		var gotCookie, gotHeader string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotCookie = r.Header.Get("Cookie")
			gotHeader = r.Header.Get("X-Crawl")
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		client, err := NewHTTPClient(ClientConfig{
			Cookie:  "session=abc",
			Headers: map[string]string{"X-Crawl": "yes"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := New(client).Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotCookie != "session=abc" {
			t.Errorf("expected cookie, got %q", gotCookie)
		}
		if gotHeader != "yes" {
			t.Errorf("expected header, got %q", gotHeader)
		}
	})

	t.Run("keeps cookies across navigations", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "42", Path: "/"})
			_, _ = w.Write([]byte("ok"))
		})
		mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie("sid")
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<a href="/` + c.Value + `">me</a>`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client, err := NewHTTPClient(ClientConfig{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		f := New(client)

		if _, err := f.Fetch(context.Background(), server.URL+"/login"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		page, err := f.Fetch(context.Background(), server.URL+"/me")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Hrefs) != 1 || page.Hrefs[0] != "/42" {
			t.Errorf("expected cookie to be replayed, got status %d hrefs %v", page.StatusCode, page.Hrefs)
		}
	})
}
