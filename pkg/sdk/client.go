package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sumandas0/worldkit/internal/cache"
	"github.com/sumandas0/worldkit/internal/observability"
	"github.com/sumandas0/worldkit/internal/resilience"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the hosted world API
	DefaultBaseURL = "https://www.onlyworlds.com/api/worldapi"

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "worldkit-go/" + observability.ServiceVersion
	breakerName      = "world-api"
	maxErrorBody     = 4096
)

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	auth       Authenticator
	userAgent  string

	logger     zerolog.Logger
	metrics    *observability.MetricsManager
	tracing    *observability.TracingManager
	limiter    *rate.Limiter
	retry      *resilience.RetryManager
	breakers   *resilience.CircuitBreakerManager
	references ReferenceTable

	breakerConfig *resilience.CircuitBreakerConfig

	cache *cache.Manager[*Element]

	// Services
	Elements *ElementService
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(metrics *observability.MetricsManager) ClientOption {
	return func(c *Client) {
		c.metrics = metrics
	}
}

func WithTracing(tracing *observability.TracingManager) ClientOption {
	return func(c *Client) {
		c.tracing = tracing
	}
}

// WithRateLimit caps outgoing requests at rps with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry retries requests that failed without an HTTP response.
// Status failures are never retried.
func WithRetry(config resilience.RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = resilience.NewRetryManager(config, resilience.StrategyExponential)
	}
}

// WithCircuitBreaker stops sending requests after repeated transport failures
func WithCircuitBreaker(config resilience.CircuitBreakerConfig) ClientOption {
	return func(c *Client) {
		c.breakerConfig = &config
	}
}

// WithReferenceTable adds field to element type mappings used by
// ResolveReferences. Entries override the defaults.
func WithReferenceTable(table ReferenceTable) ClientOption {
	return func(c *Client) {
		for field, elementType := range table {
			c.references[field] = elementType
		}
	}
}

// NewClient creates a client for the world API at baseURL. An empty baseURL
// selects DefaultBaseURL. A nil auth leaves the client unauthenticated and
// every operation fails until credentials are supplied.
func NewClient(baseURL string, auth Authenticator, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid base URL: %q must be absolute", baseURL)
	}
	if auth == nil {
		auth = KeyAuth{}
	}

	client := &Client{
		baseURL: parsedURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		auth:       auth,
		userAgent:  defaultUserAgent,
		logger:     zerolog.Nop(),
		references: DefaultReferenceTable(),
		cache:      cache.NewManager[*Element](),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.breakerConfig != nil {
		client.breakers = resilience.NewCircuitBreakerManager(*client.breakerConfig, client.logger)
	}
	if client.tracing == nil {
		client.tracing = observability.NewTracingManagerWithProvider(noop.NewTracerProvider())
	}
	client.cache.OnLookup(func(elementType string, hit bool) {
		if hit {
			client.metrics.RecordCacheHit(elementType)
		} else {
			client.metrics.RecordCacheMiss(elementType)
		}
	})

	// Initialize services
	client.Elements = &ElementService{client: client}

	return client, nil
}

// Authenticated reports whether the client holds usable credentials
func (c *Client) Authenticated() bool {
	return c.auth.IsAuthenticated()
}

// CacheStats reports element cache counters
func (c *Client) CacheStats() cache.CacheStats {
	return c.cache.Stats()
}

func (c *Client) collectionPath(elementType string) string {
	return strings.TrimRight(c.baseURL.Path, "/") + "/" + elementType + "/"
}

func (c *Client) elementPath(elementType, id string) string {
	return c.collectionPath(elementType) + id + "/"
}

// doRequest performs an HTTP request. Errors returned here are always
// transport errors; status handling is left to the caller.
func (c *Client) doRequest(ctx context.Context, method, elementType, path string, query url.Values, body any) (*http.Response, error) {
	// Build URL
	u := *c.baseURL
	u.Path = path
	u.RawPath = ""
	if query != nil {
		u.RawQuery = query.Encode()
	}

	// Prepare body
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &APIError{Type: ErrorTypeTransport, Message: "rate limiter wait failed", Err: err}
		}
	}

	var resp *http.Response
	start := time.Now()

	attempt := func() error {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		// Set headers
		for key, values := range c.auth.Headers() {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)

		out, err := c.breakers.ExecuteWithContext(ctx, breakerName, func(context.Context) (any, error) {
			return c.httpClient.Do(req)
		})
		if err != nil {
			return err
		}
		resp = out.(*http.Response)
		return nil
	}

	err := c.retry.Execute(ctx, attempt, resilience.TransportRetryableErrors)
	if err != nil {
		c.metrics.RecordClientRequest(method, elementType, 0, time.Since(start))
		c.logger.Error().
			Err(err).
			Str("method", method).
			Str("url", u.String()).
			Msg("world API request failed")
		return nil, &APIError{Type: ErrorTypeTransport, Message: "request failed", Err: err}
	}

	c.metrics.RecordClientRequest(method, elementType, resp.StatusCode, time.Since(start))
	c.logger.Debug().
		Str("method", method).
		Str("url", u.String()).
		Int("status_code", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("world API request")

	return resp, nil
}

// doJSONRequest performs a JSON request and decodes the response.
// notFound selects whether a 404 maps to ErrorTypeNotFound.
func (c *Client) doJSONRequest(ctx context.Context, method, elementType, path string, query url.Values, reqBody, respBody any, notFound bool) error {
	resp, err := c.doRequest(ctx, method, elementType, path, query, reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Check for errors
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.handleErrorResponse(resp, notFound)
	}

	// Decode response if needed
	if respBody != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return &APIError{
				Type:    ErrorTypeRequestFailed,
				Message: "failed to decode response",
				Code:    resp.StatusCode,
				Err:     err,
			}
		}
	}

	return nil
}

// handleErrorResponse processes error responses from the API
func (c *Client) handleErrorResponse(resp *http.Response, notFound bool) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if notFound && resp.StatusCode == http.StatusNotFound {
		return &APIError{
			Type:    ErrorTypeNotFound,
			Message: "element not found",
			Code:    resp.StatusCode,
		}
	}

	message := resp.Status
	if text := strings.TrimSpace(string(body)); text != "" {
		message = message + ": " + text
	}

	return &APIError{
		Type:    ErrorTypeRequestFailed,
		Message: message,
		Code:    resp.StatusCode,
	}
}

// startOperation opens a span for one element operation and returns a
// function that records its outcome
func (c *Client) startOperation(ctx context.Context, operation, elementType, id string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := c.tracing.StartElementOperation(ctx, operation, elementType, id)

	return ctx, func(err error) {
		status := "success"
		if err != nil {
			status = "error"
			c.tracing.SetSpanError(span, err)
		}
		c.metrics.RecordElementOperation(operation, elementType, status, time.Since(start))
		span.End()
	}
}

// precheck enforces the preconditions shared by every operation
func (c *Client) precheck(elementType string) error {
	if !c.auth.IsAuthenticated() {
		return errNotAuthenticated
	}
	return validateType(elementType)
}

func (c *Client) cacheElement(elementType, id string, element *Element) {
	if element == nil || id == "" {
		return
	}
	c.cache.Set(elementType, id, element.Clone())
	c.metrics.SetCacheSize(c.cache.Len())
}
