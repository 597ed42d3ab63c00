package source

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jobatlas/jobatlas/internal/jobs"

	"go.uber.org/zap"
)

const (
	defaultUserAgent = "jobatlas/1.0 (+https://github.com/jobatlas/jobatlas)"
	defaultTimeout   = 15 * time.Second
	contentEncoding  = "gzip, deflate"
)

// Client is the HTTP transport shared by all adapters. Every request carries
// the caller's context so an expired per-call budget tears the connection
// down instead of leaking it.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	apiKey     string
	logger     *zap.Logger
}

func NewClient(cfg *Config, apiURL string, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport
	if cfg.ProxyURL != "" {
		if proxy, err := url.Parse(cfg.ProxyURL); err == nil {
			transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
		} else {
			logger.Warn("ignoring unparseable proxy url", zap.String("proxy", cfg.ProxyURL), zap.Error(err))
		}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	if cfg.BaseURL != "" {
		apiURL = cfg.BaseURL
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		UserAgent: userAgent,
		APIURL:    apiURL,
		apiKey:    cfg.APIKey,
		logger:    logger,
	}
}

// GetJSON makes a GET request and decodes the JSON body into target. Network
// failures and non-success statuses come back as typed transport errors;
// context expiry comes back as a timeout error.
func (c *Client) GetJSON(ctx context.Context, path string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+path, nil)
	if err != nil {
		return jobs.Transport("building request", err)
	}

	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", contentEncoding)
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return jobs.Timeout("call exceeded its budget", err)
		}
		return jobs.Transport("upstream call failed", err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return jobs.Transport("reading gzip body", err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	if resp.StatusCode != http.StatusOK {
		return jobs.Transport(fmt.Sprintf("bad status: %s", resp.Status), nil)
	}

	if target == nil {
		return nil
	}

	if err := json.NewDecoder(reader).Decode(target); err != nil {
		return jobs.Transport("decoding response", err)
	}

	return nil
}
