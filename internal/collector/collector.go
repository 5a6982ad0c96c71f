// Package collector fetches raw payloads from a target application's
// management endpoints. Every fetch carries an explicit status so callers
// can tell "reachable but empty" from "unavailable" without inspecting
// errors.
package collector

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/matera-dldn/qualisentinel/internal/logging"
	apptls "github.com/matera-dldn/qualisentinel/internal/tls"
)

// Status classifies the outcome of a fetch.
type Status int

const (
	// StatusOK means the endpoint responded with a usable payload.
	StatusOK Status = iota
	// StatusEmpty means the source is reachable but exposes nothing
	// usable (404 on every candidate path).
	StatusEmpty
	// StatusUnavailable means a connection/timeout failure or a non-404
	// HTTP error.
	StatusUnavailable
)

// DefaultTimeout bounds each management-endpoint call.
const DefaultTimeout = 5 * time.Second

// Config holds the target endpoints.
type Config struct {
	BaseURL        string
	MetricsPath    string
	TracePaths     []string
	ThreadDumpPath string
	Timeout        time.Duration
	TLS            apptls.ClientConfig
}

// Client is an HTTP client for one target's management endpoints.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a collector Client. Zero-valued paths get the Actuator
// defaults.
func New(cfg Config) (*Client, error) {
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/actuator/prometheus"
	}
	if len(cfg.TracePaths) == 0 {
		cfg.TracePaths = []string{"/actuator/httptrace", "/actuator/http-trace"}
	}
	if cfg.ThreadDumpPath == "" {
		cfg.ThreadDumpPath = "/actuator/threaddump"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	tlsConfig, err := apptls.NewClientTLSConfig(cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("target TLS config: %w", err)
	}
	client := &http.Client{Timeout: cfg.Timeout}
	if tlsConfig != nil {
		client.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}

	return &Client{cfg: cfg, http: client}, nil
}

// Metrics fetches the Prometheus exposition text. Unavailability here is
// fatal for the whole diagnostic cycle; the caller decides that.
func (c *Client) Metrics(ctx context.Context) (string, Status) {
	body, status := c.get(ctx, c.cfg.MetricsPath, "text/plain")
	if status != StatusOK {
		return "", status
	}
	return string(body), StatusOK
}

// Traces fetches the HTTP-trace payload, trying each candidate path in
// order. A 404 falls through to the next path; all-404 means the traces
// are simply not exposed.
func (c *Client) Traces(ctx context.Context) ([]byte, Status) {
	for _, path := range c.cfg.TracePaths {
		body, status := c.get(ctx, path, "application/json")
		if status == StatusEmpty {
			continue
		}
		return body, status
	}
	return nil, StatusEmpty
}

// ThreadDump fetches the thread-dump payload as JSON.
func (c *Client) ThreadDump(ctx context.Context) ([]byte, Status) {
	return c.get(ctx, c.cfg.ThreadDumpPath, "application/json")
}

func (c *Client) get(ctx context.Context, path, accept string) ([]byte, Status) {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, StatusUnavailable
	}
	req.Header.Set("Accept", accept)
	// Setting the header disables the transport's transparent gzip, so
	// both encodings are decoded below.
	req.Header.Set("Accept-Encoding", "zstd, gzip")

	resp, err := c.http.Do(req)
	if err != nil {
		logging.Warn("management endpoint unreachable", logging.F("url", url, "error", err.Error()))
		return nil, StatusUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, StatusEmpty
	case resp.StatusCode != http.StatusOK:
		logging.Warn("management endpoint error", logging.F("url", url, "status", resp.StatusCode))
		return nil, StatusUnavailable
	}

	body, err := decodeBody(resp)
	if err != nil {
		logging.Warn("failed to read management endpoint response", logging.F("url", url, "error", err.Error()))
		return nil, StatusUnavailable
	}
	return body, StatusOK
}

// decodeBody reads the response body, decompressing zstd and gzip
// content encodings.
func decodeBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "zstd":
		dec, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		reader = dec
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return io.ReadAll(reader)
}
