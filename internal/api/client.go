// Package api implements the HTTP client for the streaming chat handler.
package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/net/publicsuffix"

	apierrors "github.com/diogo/ragchat/internal/errors"
	"github.com/diogo/ragchat/internal/models"
	"github.com/diogo/ragchat/internal/sse"
)

// maxErrorBody bounds how much of a failed response is read
const maxErrorBody = 64 * 1024

// Client talks to a chat handler over HTTP
type Client struct {
	baseURL     *url.URL
	handlerPath string
	httpClient  *http.Client
	cookies     []*http.Cookie
	userAgent   string
	logger      zerolog.Logger
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client. The client must not set a
// Timeout, which would cut long streams short.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithHandlerPath overrides the chat handler path
func WithHandlerPath(path string) ClientOption {
	return func(c *Client) {
		if path != "" {
			c.handlerPath = path
		}
	}
}

// WithCookies adds cookies sent with every request, typically the session
// cookies imported from a browser
func WithCookies(cookies []*http.Cookie) ClientOption {
	return func(c *Client) {
		c.cookies = append(c.cookies, cookies...)
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the client logger
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the chat server at baseURL
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: missing host", baseURL)
	}

	c := &Client{
		baseURL:     u,
		handlerPath: models.DefaultHandlerPath,
		userAgent:   "ragchat",
		logger:      zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	// The jar keeps the server's session cookie between questions
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		hc := *c.httpClient
		hc.Jar = jar
		c.httpClient = &hc
	}
	if len(c.cookies) > 0 {
		c.httpClient.Jar.SetCookies(c.baseURL, c.cookies)
	}

	return c, nil
}

// Endpoint returns the absolute URL of the chat handler
func (c *Client) Endpoint() string {
	return c.baseURL.ResolveReference(&url.URL{Path: c.handlerPath}).String()
}

// BuildURL returns the request target for req. The model parameter is only
// present when a model is selected, and disable_rag only when retrieval is
// disabled.
func (c *Client) BuildURL(req models.ChatRequest) string {
	params := url.Values{}
	params.Set(models.ParamMessage, req.Message)
	if req.Model != "" {
		params.Set(models.ParamModel, req.Model)
	}
	if req.DisableRetrieval {
		params.Set(models.ParamDisableRAG, models.DisableRAGValue)
	}

	target := c.baseURL.ResolveReference(&url.URL{Path: c.handlerPath})
	target.RawQuery = params.Encode()
	return target.String()
}

// Stream opens the event stream for req. The returned stream must be closed
// by the caller; cancelling ctx also tears it down.
func (c *Client) Stream(ctx context.Context, req models.ChatRequest) (*EventStream, error) {
	if req.Empty() {
		return nil, apierrors.ErrEmptyQuery
	}

	ctx, cancel := context.WithCancel(ctx)
	target := c.BuildURL(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", sse.ContentType)
	httpReq.Header.Set("Cache-Control", "no-cache")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug().
		Str("url", target).
		Str("model", req.Model).
		Bool("disable_rag", req.DisableRetrieval).
		Msg("opening chat stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apierrors.NewNetworkError("connect", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer cancel()
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, apierrors.NewAPIError(resp.StatusCode, c.handlerPath, errorMessage(resp.StatusCode, body)).
			WithBody(string(body))
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != sse.ContentType {
		resp.Body.Close()
		cancel()
		return nil, apierrors.NewAPIError(resp.StatusCode, c.handlerPath,
			fmt.Sprintf("unexpected content type %q", resp.Header.Get("Content-Type")))
	}

	return newEventStream(resp.Body, cancel), nil
}

// errorMessage extracts the "error" field of a JSON error body, falling back
// to the status text
func errorMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "error"); msg.Type == gjson.String && msg.String() != "" {
			return msg.String()
		}
	}
	if text := http.StatusText(status); text != "" {
		return strings.ToLower(text)
	}
	return "unexpected status"
}
