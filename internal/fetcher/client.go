package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"
)

// maxRedirects bounds redirect chains followed by a single navigation.
const maxRedirects = 10

// ClientConfig describes the HTTP client used for crawling.
type ClientConfig struct {
	// Timeout bounds every navigation, including redirects and body reads.
	// Zero disables the client-level timeout.
	Timeout time.Duration

	// ProxyAddress routes all connections through a SOCKS5 proxy
	// in "host:port" format. Empty means direct connections.
	ProxyAddress string

	// Cookie is a raw cookie string (e.g., "session_id=abc123") sent with
	// every request in addition to cookies collected in the jar.
	Cookie string

	// Headers are added to every request, overriding defaults.
	Headers map[string]string
}

// NewHTTPClient builds the crawling HTTP client.
//
// The client keeps a cookie jar so that the crawl behaves like one browser
// session: cookies set by one page are sent to the next. Redirects are followed
// up to maxRedirects hops; the final location is what Fetch and Resolve report.
func NewHTTPClient(cfg ClientConfig) (*http.Client, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     30 * time.Second,
	}

	if cfg.ProxyAddress != "" {
		if !isValidProxyAddress(cfg.ProxyAddress) {
			return nil, ErrInvalidProxyAddress
		}

		// We use nil for auth because local SOCKS proxies typically don't require it
		dialer, err := proxy.SOCKS5("tcp", cfg.ProxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	var rt http.RoundTripper = transport
	if cfg.Cookie != "" || len(cfg.Headers) > 0 {
		rt = &headerInjectingTransport{
			base:    transport,
			cookie:  cfg.Cookie,
			headers: cfg.Headers,
		}
	}

	return &http.Client{
		Transport: rt,
		Timeout:   cfg.Timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// isValidProxyAddress checks if the address is in valid "host:port" format.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" || strings.ContainsAny(host, "/ ") {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// headerInjectingTransport wraps an http.RoundTripper to inject
// custom headers and cookies into every request.
type headerInjectingTransport struct {
	base    http.RoundTripper
	cookie  string
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}

	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}
