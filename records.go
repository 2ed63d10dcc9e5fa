package batchgpt

// Model is a chat model identifier understood by the server under test.
type Model = string

// ModelGPT35Turbo is the model every chat completion request is sent with
// unless configured otherwise.
const ModelGPT35Turbo Model = "gpt-3.5-turbo"

// Role is the role of a chat message author, either "system", "user", or "assistant".
type Role = string

const (
	// RoleUser is the role used for the single message a chat completion request carries.
	RoleUser Role = "user"

	// RoleAssistant is the role servers usually answer with.
	RoleAssistant Role = "assistant"
)

// BatchStatusCompleted is the only batch status recognized as finished.
// Every other token, including ones the server adds in the future, counts
// as not completed.
const BatchStatusCompleted = "completed"

// ChatCompletionResult is a decoded chat completion response.
//
// https://platform.openai.com/docs/api-reference/chat/object
type ChatCompletionResult struct {
	ID     string `json:"id"`
	Object string `json:"object"`

	// Created is the creation timestamp exactly as it was decoded: an
	// int64 for integral numbers, otherwise whatever the payload carried.
	Created any `json:"created"`

	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is a single generated alternative of a chat completion.
type Choice struct {
	Index        int64  `json:"index"`
	Role         string `json:"role"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason"`
}

// Usage is the token accounting of a chat completion. The counters are
// reported verbatim, TotalTokens is never recomputed.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// BatchRecord is a decoded batch job.
//
// https://platform.openai.com/docs/api-reference/batch/object
type BatchRecord struct {
	ID     string `json:"id"`
	Status string `json:"status"`

	// CreatedAt and ExpiresAt keep the decoded wire value, see [Normalize].
	CreatedAt any `json:"created_at"`
	ExpiresAt any `json:"expires_at"`

	RequestCounts RequestCounts `json:"request_counts"`
}

// Completed reports whether the batch status is exactly "completed".
func (b BatchRecord) Completed() bool {
	return b.Status == BatchStatusCompleted
}

// RequestCounts is the request counter structure of a batch. It is kept
// as an ordered list of key/value pairs so that it can be shown exactly
// as the server sent it, without assuming which counters exist.
type RequestCounts []Counter

// Counter is a single entry of [RequestCounts]. Value holds the decoded
// JSON value (int64, float64, string, bool, nil, or raw JSON text for
// nested structures).
type Counter struct {
	Key   string
	Value any
}

// Get returns the value stored under key.
func (rc RequestCounts) Get(key string) (any, bool) {
	for _, c := range rc {
		if c.Key == key {
			return c.Value, true
		}
	}
	return nil, false
}

// Int returns the integer stored under key, or zero when the counter is
// missing or not an integer.
func (rc RequestCounts) Int(key string) int64 {
	v, ok := rc.Get(key)
	if !ok {
		return 0
	}
	n, ok := v.(int64)
	if !ok {
		return 0
	}
	return n
}
