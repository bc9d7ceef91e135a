package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/upb/kb-assistant/internal/observability"
	"github.com/upb/kb-assistant/internal/rag"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultMaxBytes  = 2 << 20 // 2MB
	DefaultUserAgent = "kb-assistant/1.0 (+knowledge ingestion)"
	maxDepth         = 200
)

var (
	ErrEmptyContent   = errors.New("fetched content is empty")
	ErrUnsupportedURL = errors.New("only http and https URLs are supported")
)

// Config configures a Fetcher.
type Config struct {
	Timeout           time.Duration
	MaxBytes          int64
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
}

// Fetcher retrieves a URL and returns its readable text.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	maxBytes  int64
	userAgent string
	limiter   *rate.Limiter
	group     singleflight.Group
	metrics   observability.Metrics
	logger    *zap.Logger
}

// NewFetcher creates a new fetcher. A non-positive RequestsPerSecond disables
// throttling.
func NewFetcher(cfg Config, metrics observability.Metrics, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}

	limiter := rate.NewLimiter(rate.Inf, cfg.Burst)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}

	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		timeout:   cfg.Timeout,
		maxBytes:  cfg.MaxBytes,
		userAgent: cfg.UserAgent,
		limiter:   limiter,
		metrics:   metrics,
		logger:    logger,
	}
}

// Fetch returns the normalized text of rawURL. Concurrent calls for the same
// URL share one request. The shared request is detached from any single
// caller's cancellation and bounded by the fetch timeout; each caller still
// returns as soon as its own ctx is done.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	ch := f.group.DoChan(rawURL, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()
		return f.fetch(fetchCtx, rawURL)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Shared {
			f.logger.Debug("fetch coalesced", zap.String("url", rawURL))
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (string, error) {
	start := time.Now()
	text, err := f.get(ctx, rawURL)
	status := observability.StatusOK
	if err != nil {
		status = observability.StatusFetchError
	}
	f.metrics.RecordFetch(status, time.Since(start))

	if err != nil {
		f.logger.Warn("fetch failed", zap.String("url", rawURL), zap.Error(err))
		return "", err
	}
	f.logger.Info("fetch completed", zap.String("url", rawURL), zap.Int("chars", len(text)))
	return text, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrUnsupportedURL
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var text string
	if isHTML(resp.Header.Get("Content-Type")) {
		text, err = ExtractText(string(body))
		if err != nil {
			return "", fmt.Errorf("failed to parse HTML: %w", err)
		}
	} else {
		text = rag.Normalize(string(body))
	}

	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

// isHTML treats a missing content type as HTML, like most pages served
// without headers.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// ExtractText returns the visible text of an HTML document, normalized.
func ExtractText(document string) (string, error) {
	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	collectText(doc, &sb, 0)
	return rag.Normalize(sb.String()), nil
}

func collectText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > maxDepth {
		return
	}

	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		sb.WriteString(" ")
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template", "svg", "iframe":
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb, depth+1)
	}
}
