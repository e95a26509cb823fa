package handlers

import (
	"context"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/marmos91/dittoweb/internal/logger"
	wire "github.com/marmos91/dittoweb/internal/protocol/http"
	"github.com/marmos91/dittoweb/internal/ratelimiter"
	"github.com/marmos91/dittoweb/pkg/route"
)

// Fetch defaults.
const (
	DefaultFetchScheme   = "https"
	DefaultFetchTimeout  = 10 * time.Second
	DefaultFetchMaxBytes = 4 << 20 // 4MB
)

// blurredBody replaces the opening body tag of fetched pages.
const blurredBody = "<body style='filter: blur(2px)'"

// FetchConfig configures FetchHandler.
type FetchConfig struct {
	// Scheme prefixes the url parameter. Default "https".
	Scheme string

	// Timeout bounds the rate limit wait plus the whole outbound request.
	Timeout time.Duration

	// MaxBytes caps the fetched body. Larger pages fail with 502.
	MaxBytes int64

	// AllowedHosts restricts the hosts that may be fetched. Empty allows any.
	AllowedHosts []string

	// Limiter throttles outbound requests. Nil means unlimited.
	Limiter *ratelimiter.RateLimiter

	// Client performs the request. Nil uses a client with Timeout.
	Client *nethttp.Client
}

// FetchHandler fetches <scheme>://<url param> and responds with the page,
// its <body> tag rewritten to render blurred. Any failure responds 502.
type FetchHandler struct {
	cfg     FetchConfig
	allowed map[string]struct{}
}

// NewFetchHandler applies defaults to cfg.
func NewFetchHandler(cfg FetchConfig) *FetchHandler {
	if cfg.Scheme == "" {
		cfg.Scheme = DefaultFetchScheme
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultFetchMaxBytes
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimiter.New(0, 0)
	}
	if cfg.Client == nil {
		cfg.Client = &nethttp.Client{Timeout: cfg.Timeout}
	}

	var allowed map[string]struct{}
	if len(cfg.AllowedHosts) > 0 {
		allowed = make(map[string]struct{}, len(cfg.AllowedHosts))
		for _, h := range cfg.AllowedHosts {
			allowed[strings.ToLower(h)] = struct{}{}
		}
	}

	return &FetchHandler{cfg: cfg, allowed: allowed}
}

// Handle implements route.Handler.
func (h *FetchHandler) Handle(ctx context.Context, conn net.Conn, _ string, params route.Params) {
	target := params["url"]

	page, err := h.fetch(ctx, target)
	if err != nil {
		logger.Warn("fetch %q: %v", target, err)
		writeStatus(conn, wire.StatusBadGateway)
		return
	}

	body := strings.Replace(page, "<body", blurredBody, 1)
	if err := wire.WriteContent(conn, wire.StatusOK, wire.ContentTypeHTML, []byte(body)); err != nil {
		logger.Debug("fetch: write response: %v", err)
	}
}

func (h *FetchHandler) fetch(ctx context.Context, target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("missing url parameter")
	}

	if h.allowed != nil {
		host, _, _ := strings.Cut(target, "/")
		if hostOnly, _, err := net.SplitHostPort(host); err == nil {
			host = hostOnly
		}
		if _, ok := h.allowed[strings.ToLower(host)]; !ok {
			return "", fmt.Errorf("host %q is not allowed", host)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	if err := h.cfg.Limiter.Wait(ctx); err != nil {
		return "", err
	}

	url := h.cfg.Scheme + "://" + target
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := h.cfg.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.cfg.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > h.cfg.MaxBytes {
		return "", fmt.Errorf("body exceeds %d bytes", h.cfg.MaxBytes)
	}
	return string(data), nil
}
