// Package api talks to the CRM REST API. Every call is credentialed with the
// session cookie held in the client's jar; nothing is retried.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	log       *zap.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		jar := c.http.Jar
		hc := *h
		c.http = &hc
		if c.http.Jar == nil {
			c.http.Jar = jar
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host required", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: 40 * time.Second, Jar: jar},
		userAgent: "lintra/1.0",
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// do sends in as JSON (when not nil) and decodes the answer into out (when
// not nil and the body is not empty). Non-2xx answers become *Error.
func (c *Client) do(ctx context.Context, method HTTPMethod, path string, in, out any) error {
	var bodyReader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	u := *c.baseURL
	u.Path = u.Path + path

	req, err := http.NewRequestWithContext(ctx, string(method), u.String(), bodyReader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	requestID := uuid.NewString()
	if bodyReader != nil {
		req.Header.Set(HeaderContentType, ContentTypeJSON)
	}
	req.Header.Set(HeaderAccept, ContentTypeJSON)
	req.Header.Set(HeaderUserAgent, c.userAgent)
	req.Header.Set(HeaderXRequestID, requestID)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("method", string(method)),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	c.log.Debug("request",
		zap.String("method", string(method)),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("duration", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Method:    method,
			Path:      path,
			Status:    resp.StatusCode,
			Message:   parseErrorBody(body),
			RequestID: requestID,
		}
	}
	if readErr != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, readErr)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
