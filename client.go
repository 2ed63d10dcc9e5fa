package batchgpt

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the base URL of a batch-gpt server running locally.
const DefaultBaseURL = "http://localhost:8080/v1"

// DefaultAPIKey is sent when no key is configured. The server under test
// does not check it, but the wire protocol requires one.
const DefaultAPIKey = "dummy_openai_api_key"

// Client performs the chat completion and batch exchanges against an
// OpenAI-compatible server and decodes the responses into typed records.
//
// Each method performs exactly one request, without retries.
type Client struct {
	// BaseURL is the API root, e.g. "http://localhost:8080/v1".
	BaseURL string

	// APIKey is sent as a bearer token.
	APIKey string

	// Model is the model chat completion requests are sent with.
	Model Model

	// HTTPClient is the HTTP client to use for requests.
	HTTPClient *http.Client

	// Timeout bounds each exchange when positive.
	Timeout time.Duration

	// Limiter, when set, is waited on before each request.
	Limiter *rate.Limiter

	// Logger receives debug entries for each exchange.
	Logger *zap.Logger
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithHTTPClient is a ClientOption that sets the HTTP client to use for requests.
//
// If the client is nil, then http.DefaultClient is used
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		if c == nil {
			c = http.DefaultClient
		}
		client.HTTPClient = c
	}
}

// WithAPIKey is a ClientOption that sets the API key.
func WithAPIKey(key string) ClientOption {
	return func(client *Client) {
		client.APIKey = key
	}
}

// WithModel is a ClientOption that sets the chat model.
func WithModel(model Model) ClientOption {
	return func(client *Client) {
		client.Model = model
	}
}

// WithTimeout is a ClientOption that bounds each exchange.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.Timeout = d
	}
}

// WithRateLimiter is a ClientOption that paces requests with l.
func WithRateLimiter(l *rate.Limiter) ClientOption {
	return func(client *Client) {
		client.Limiter = l
	}
}

// WithLogger is a ClientOption that sets the logger.
//
// If the logger is nil, logging is disabled.
func WithLogger(l *zap.Logger) ClientOption {
	return func(client *Client) {
		if l == nil {
			l = zap.NewNop()
		}
		client.Logger = l
	}
}

// NewClient returns a new Client for the server at baseURL.
//
// # Example
//
//	c := batchgpt.NewClient("http://localhost:8080/v1")
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		BaseURL:    baseURL,
		APIKey:     DefaultAPIKey,
		Model:      ModelGPT35Turbo,
		HTTPClient: http.DefaultClient,
		Logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) requestOptions() []option.RequestOption {
	base := c.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return []option.RequestOption{
		option.WithBaseURL(base),
		option.WithAPIKey(c.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
}

// exchange sends a single request and returns the raw response body.
func (c *Client) exchange(ctx context.Context, method, path string, body any) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	start := time.Now()
	logger.Debug("sending request", zap.String("method", method), zap.String("path", path))

	api := openai.NewClient(c.requestOptions()...)

	// A *[]byte destination receives the body as-is, whatever its content type.
	var raw []byte
	if err := api.Execute(ctx, method, path, body, &raw); err != nil {
		logger.Debug("request failed", zap.String("path", path), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, err
	}

	logger.Debug("received response", zap.String("path", path), zap.Int("bytes", len(raw)), zap.Duration("elapsed", time.Since(start)))

	return raw, nil
}

// CreateChat sends content as a single user message and returns the
// decoded chat completion.
//
// https://platform.openai.com/docs/api-reference/chat/create
func (c *Client) CreateChat(ctx context.Context, content string) (*ChatCompletionResult, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(content),
		},
	}

	raw, err := c.exchange(ctx, http.MethodPost, "chat/completions", params)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}

	return DecodeChatCompletion(raw)
}

// RetrieveBatch returns the batch with the given identifier.
//
// https://platform.openai.com/docs/api-reference/batch/retrieve
func (c *Client) RetrieveBatch(ctx context.Context, batchID string) (BatchRecord, error) {
	raw, err := c.exchange(ctx, http.MethodGet, "batches/"+url.PathEscape(batchID), nil)
	if err != nil {
		return BatchRecord{}, fmt.Errorf("failed to retrieve batch %q: %w", batchID, err)
	}

	return DecodeBatch(raw)
}

// ListBatches returns every batch the server reports, in server order.
//
// https://platform.openai.com/docs/api-reference/batch/list
func (c *Client) ListBatches(ctx context.Context) ([]BatchRecord, error) {
	raw, err := c.exchange(ctx, http.MethodGet, "batches", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	return DecodeBatchList(raw)
}
