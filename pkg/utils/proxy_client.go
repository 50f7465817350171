package utils

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	utls "github.com/refraction-networking/utls"
	"go.uber.org/zap"
	proxy "golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

var clientHelloIDs = map[string]utls.ClientHelloID{
	"chrome":  utls.HelloChrome_Auto,
	"firefox": utls.HelloFirefox_Auto,
	"safari":  utls.HelloSafari_Auto,
	"edge":    utls.HelloEdge_Auto,
}

// ClientHelloByName resolves a configured browser name. An empty name means
// the standard library TLS stack.
func ClientHelloByName(name string) (utls.ClientHelloID, bool, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "none" {
		return utls.ClientHelloID{}, false, nil
	}
	id, ok := clientHelloIDs[name]
	if !ok {
		return utls.ClientHelloID{}, false, fmt.Errorf("unknown TLS client hello %q", name)
	}
	return id, true, nil
}

type ProxyRotator struct {
	parsedURLs []*url.URL
	currentIdx uint32
	mutex      sync.RWMutex
}

func NewProxyRotator(proxyURLs []string) (*ProxyRotator, error) {
	rotator := &ProxyRotator{}

	for _, rawURL := range proxyURLs {
		if strings.TrimSpace(rawURL) == "" {
			continue
		}
		parsedURL, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse proxy URL %s: %w", MaskProxyURL(rawURL), err)
		}
		switch parsedURL.Scheme {
		case "http", "https", "socks5":
		default:
			return nil, fmt.Errorf("unsupported proxy scheme: %s", parsedURL.Scheme)
		}
		rotator.parsedURLs = append(rotator.parsedURLs, parsedURL)
	}

	return rotator, nil
}

func (r *ProxyRotator) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.parsedURLs)
}

// NextProxy returns the proxies round-robin, nil when none are configured.
func (r *ProxyRotator) NextProxy() *url.URL {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if len(r.parsedURLs) == 0 {
		return nil
	}

	idx := (atomic.AddUint32(&r.currentIdx, 1) - 1) % uint32(len(r.parsedURLs))
	return r.parsedURLs[idx]
}

// proxyDialer dials either directly or through a SOCKS5 proxy.
func proxyDialer(proxyURL *url.URL) (proxy.ContextDialer, error) {
	base := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if proxyURL == nil || proxyURL.Scheme != "socks5" {
		return base, nil
	}

	var auth *proxy.Auth
	if proxyURL.User != nil {
		auth = &proxy.Auth{User: proxyURL.User.Username()}
		if password, ok := proxyURL.User.Password(); ok {
			auth.Password = password
		}
	}

	dialer, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, base)
	if err != nil {
		return nil, fmt.Errorf("create SOCKS5 dialer: %w", err)
	}
	cd, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("SOCKS5 dialer does not support contexts")
	}
	return cd, nil
}

// FingerprintingDialer performs the TLS handshake with a browser ClientHello.
type FingerprintingDialer struct {
	dialer        proxy.ContextDialer
	clientHelloID utls.ClientHelloID
}

func NewFingerprintingDialer(dialer proxy.ContextDialer, id utls.ClientHelloID) *FingerprintingDialer {
	return &FingerprintingDialer{dialer: dialer, clientHelloID: id}
}

func (d *FingerprintingDialer) DialTLSContext(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, err := d.dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}

	spec, err := utls.UTLSIdToSpec(d.clientHelloID)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("uTLS spec: %w", err)
	}
	// The transport speaks HTTP/1.1 over this connection.
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*utls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
		}
	}

	uconn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloCustom)
	if err := uconn.ApplyPreset(&spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("uTLS preset: %w", err)
	}
	if err := uconn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("uTLS handshake: %w", err)
	}

	return uconn, nil
}

// RotatingTransport sends each request through the next configured proxy.
type RotatingTransport struct {
	rotator     *ProxyRotator
	clientHello utls.ClientHelloID
	useUTLS     bool

	mu         sync.Mutex
	transports map[string]*http.Transport
}

func NewRotatingTransport(rotator *ProxyRotator, clientHello string) (*RotatingTransport, error) {
	id, useUTLS, err := ClientHelloByName(clientHello)
	if err != nil {
		return nil, err
	}
	return &RotatingTransport{
		rotator:     rotator,
		clientHello: id,
		useUTLS:     useUTLS,
		transports:  make(map[string]*http.Transport),
	}, nil
}

func (t *RotatingTransport) transportFor(proxyURL *url.URL) (*http.Transport, error) {
	key := ""
	if proxyURL != nil {
		key = proxyURL.String()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if tr, ok := t.transports[key]; ok {
		return tr, nil
	}

	dialer, err := proxyDialer(proxyURL)
	if err != nil {
		return nil, err
	}

	tr := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     false,
	}
	if proxyURL != nil && proxyURL.Scheme != "socks5" {
		tr.Proxy = http.ProxyURL(proxyURL)
	} else if t.useUTLS {
		// uTLS needs the raw connection, which an HTTP CONNECT proxy would hide.
		tr.DialTLSContext = NewFingerprintingDialer(dialer, t.clientHello).DialTLSContext
	}

	t.transports[key] = tr
	return tr, nil
}

func (t *RotatingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tr, err := t.transportFor(t.rotator.NextProxy())
	if err != nil {
		return nil, err
	}
	return tr.RoundTrip(req)
}

func MaskProxyURL(proxyURL string) string {
	if !strings.Contains(proxyURL, "@") {
		return proxyURL
	}

	parsedURL, err := url.Parse(proxyURL)
	if err != nil {
		return "[masked]"
	}

	if parsedURL.User != nil {
		username := parsedURL.User.Username()
		return strings.Replace(proxyURL, parsedURL.User.String(), username+":****", 1)
	}

	return proxyURL
}

type ClientOptions struct {
	ProxyURLs   []string
	ClientHello string
	MaxRetries  int
	Backoff     time.Duration
	Timeout     time.Duration
	// MinInterval spaces outgoing requests; zero disables the limiter.
	MinInterval time.Duration
	UserAgent   string
	Logger      *zap.Logger
	// Transport overrides the proxy-aware transport, used by tests.
	Transport http.RoundTripper
}

// RetryableClient retries idempotent requests on connectivity failures,
// 429 and 5xx. Everything else is returned to the caller as received.
type RetryableClient struct {
	client     *http.Client
	maxRetries int
	backoff    time.Duration
	limiter    *rate.Limiter
	userAgent  string
	logger     *zap.Logger
}

func NewRetryableClient(opts ClientOptions) (*RetryableClient, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := opts.Transport
	if transport == nil {
		rotator, err := NewProxyRotator(opts.ProxyURLs)
		if err != nil {
			return nil, fmt.Errorf("failed to create proxy rotator: %w", err)
		}
		for i, p := range opts.ProxyURLs {
			logger.Info("proxy configured", zap.Int("index", i+1), zap.String("url", MaskProxyURL(p)))
		}
		rt, err := NewRotatingTransport(rotator, opts.ClientHello)
		if err != nil {
			return nil, fmt.Errorf("failed to create transport: %w", err)
		}
		transport = rt
	}

	maxRetries := opts.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if opts.MinInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}

	return &RetryableClient{
		client:     &http.Client{Transport: transport, Timeout: timeout},
		maxRetries: maxRetries,
		backoff:    opts.Backoff,
		limiter:    limiter,
		userAgent:  opts.UserAgent,
		logger:     logger,
	}, nil
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Do sends req and returns the response with its fully read body. A non-nil
// error means no response was received.
func (c *RetryableClient) Do(req *http.Request) (*http.Response, []byte, error) {
	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var reqBody []byte
	if req.Body != nil {
		var err error
		reqBody, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("reading request body: %w", err)
		}
		req.Body.Close()
	}

	attempts := 1
	if isIdempotent(req.Method) {
		attempts = c.maxRetries
	}

	ctx := req.Context()
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := c.backoff << uint(attempt-1)
			c.logger.Debug("retrying request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("attempt", attempt+1),
				zap.Duration("wait", wait))
			if err := sleepContext(ctx, wait); err != nil {
				return nil, nil, err
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, nil, fmt.Errorf("rate limiter: %w", err)
			}
		}

		if reqBody != nil {
			req.Body = io.NopCloser(bytes.NewReader(reqBody))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Warn("request error",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			continue
		}

		bodyBytes, err := readBody(resp)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		if retryable && attempt < attempts-1 {
			c.logger.Warn("retryable status",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1))
			continue
		}

		return resp, bodyBytes, nil
	}

	return nil, nil, fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress gzip response: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	bodyBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return bodyBytes, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
