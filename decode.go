package batchgpt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// DecodeError is returned when a response payload is not valid JSON or
// lacks a field the typed records require.
type DecodeError struct {
	// Entity is the record being decoded, e.g. "chat completion".
	Entity string

	// Field is the gjson path of the offending field, empty when the
	// payload as a whole could not be parsed.
	Field string

	// Reason describes what was wrong with the field.
	Reason string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("decode %s: field %q: %s", e.Entity, e.Field, e.Reason)
}

const (
	entityChat      = "chat completion"
	entityBatch     = "batch"
	entityBatchList = "batch list"
)

func parseRoot(entity string, data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, &DecodeError{Entity: entity, Reason: "invalid JSON payload"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return gjson.Result{}, &DecodeError{Entity: entity, Reason: "payload is not a JSON object"}
	}
	return root, nil
}

func requireString(entity string, obj gjson.Result, path, prefix string) (string, error) {
	r := obj.Get(path)
	if !r.Exists() || r.Type == gjson.Null {
		return "", &DecodeError{Entity: entity, Field: prefix + path, Reason: "missing required field"}
	}
	if r.Type != gjson.String {
		return "", &DecodeError{Entity: entity, Field: prefix + path, Reason: "expected a string"}
	}
	return r.Str, nil
}

func requireInt(entity string, obj gjson.Result, path, prefix string) (int64, error) {
	r := obj.Get(path)
	if !r.Exists() || r.Type == gjson.Null {
		return 0, &DecodeError{Entity: entity, Field: prefix + path, Reason: "missing required field"}
	}
	n, ok := valueOf(r).(int64)
	if !ok {
		return 0, &DecodeError{Entity: entity, Field: prefix + path, Reason: "expected an integer"}
	}
	return n, nil
}

// optionalString returns the string at path, or "" when it is absent or null.
func optionalString(obj gjson.Result, path string) string {
	r := obj.Get(path)
	if r.Type == gjson.String {
		return r.Str
	}
	if !r.Exists() || r.Type == gjson.Null {
		return ""
	}
	return r.Raw
}

// valueOf converts a gjson result into the loosely typed value the
// records carry for fields of unknown shape.
func valueOf(r gjson.Result) any {
	if !r.Exists() {
		return nil
	}
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.String:
		return r.Str
	case gjson.Number:
		if !strings.ContainsAny(r.Raw, ".eE") {
			if n, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
				return n
			}
		}
		return r.Num
	default:
		return json.RawMessage(r.Raw)
	}
}

// DecodeChatCompletion decodes a chat completion response body.
func DecodeChatCompletion(data []byte) (*ChatCompletionResult, error) {
	root, err := parseRoot(entityChat, data)
	if err != nil {
		return nil, err
	}

	res := &ChatCompletionResult{
		Created: valueOf(root.Get("created")),
	}

	if res.ID, err = requireString(entityChat, root, "id", ""); err != nil {
		return nil, err
	}
	if res.Object, err = requireString(entityChat, root, "object", ""); err != nil {
		return nil, err
	}
	if res.Model, err = requireString(entityChat, root, "model", ""); err != nil {
		return nil, err
	}

	choices := root.Get("choices")
	if !choices.Exists() || choices.Type == gjson.Null {
		return nil, &DecodeError{Entity: entityChat, Field: "choices", Reason: "missing required field"}
	}
	if !choices.IsArray() {
		return nil, &DecodeError{Entity: entityChat, Field: "choices", Reason: "expected an array"}
	}

	for i, c := range choices.Array() {
		prefix := "choices." + strconv.Itoa(i) + "."

		index, err := requireInt(entityChat, c, "index", prefix)
		if err != nil {
			return nil, err
		}

		msg := c.Get("message")
		if !msg.IsObject() {
			return nil, &DecodeError{Entity: entityChat, Field: prefix + "message", Reason: "missing required field"}
		}

		res.Choices = append(res.Choices, Choice{
			Index:        index,
			Role:         optionalString(msg, "role"),
			Content:      optionalString(msg, "content"),
			FinishReason: optionalString(c, "finish_reason"),
		})
	}

	usage := root.Get("usage")
	if !usage.IsObject() {
		return nil, &DecodeError{Entity: entityChat, Field: "usage", Reason: "missing required field"}
	}
	if res.Usage.PromptTokens, err = requireInt(entityChat, usage, "prompt_tokens", "usage."); err != nil {
		return nil, err
	}
	if res.Usage.CompletionTokens, err = requireInt(entityChat, usage, "completion_tokens", "usage."); err != nil {
		return nil, err
	}
	if res.Usage.TotalTokens, err = requireInt(entityChat, usage, "total_tokens", "usage."); err != nil {
		return nil, err
	}

	return res, nil
}

func decodeBatchObject(entity string, obj gjson.Result, prefix string) (BatchRecord, error) {
	id, err := requireString(entity, obj, "id", prefix)
	if err != nil {
		return BatchRecord{}, err
	}

	return BatchRecord{
		ID: id,
		// A missing status is kept empty, which the filter treats as not completed.
		Status:        optionalString(obj, "status"),
		CreatedAt:     valueOf(obj.Get("created_at")),
		ExpiresAt:     valueOf(obj.Get("expires_at")),
		RequestCounts: decodeRequestCounts(obj.Get("request_counts")),
	}, nil
}

func decodeRequestCounts(r gjson.Result) RequestCounts {
	if !r.IsObject() {
		return nil
	}
	var rc RequestCounts
	r.ForEach(func(key, value gjson.Result) bool {
		rc = append(rc, Counter{Key: key.String(), Value: valueOf(value)})
		return true
	})
	return rc
}

// DecodeBatch decodes a batch retrieve response body. The batch may be the
// top-level object or nested under a "batch" key.
func DecodeBatch(data []byte) (BatchRecord, error) {
	root, err := parseRoot(entityBatch, data)
	if err != nil {
		return BatchRecord{}, err
	}

	if nested := root.Get("batch"); nested.IsObject() {
		return decodeBatchObject(entityBatch, nested, "batch.")
	}

	return decodeBatchObject(entityBatch, root, "")
}

// DecodeBatchList decodes a batch list response body, {"data": [...]}.
func DecodeBatchList(data []byte) ([]BatchRecord, error) {
	root, err := parseRoot(entityBatchList, data)
	if err != nil {
		return nil, err
	}

	list := root.Get("data")
	if !list.Exists() {
		return nil, &DecodeError{Entity: entityBatchList, Field: "data", Reason: "missing required field"}
	}
	if list.Type == gjson.Null {
		return []BatchRecord{}, nil
	}
	if !list.IsArray() {
		return nil, &DecodeError{Entity: entityBatchList, Field: "data", Reason: "expected an array"}
	}

	items := list.Array()
	records := make([]BatchRecord, 0, len(items))
	for i, item := range items {
		prefix := "data." + strconv.Itoa(i) + "."
		if !item.IsObject() {
			return nil, &DecodeError{Entity: entityBatchList, Field: strings.TrimSuffix(prefix, "."), Reason: "expected an object"}
		}
		if nested := item.Get("batch"); nested.IsObject() {
			item, prefix = nested, prefix+"batch."
		}
		rec, err := decodeBatchObject(entityBatchList, item, prefix)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// MarshalJSON encodes the counters as a JSON object, keeping their order.
func (rc RequestCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range rc {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request count %q: %w", c.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into ordered counters, decoding
// integral numbers as int64.
func (rc *RequestCounts) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return &DecodeError{Entity: "request counts", Reason: "invalid JSON payload"}
	}
	r := gjson.ParseBytes(data)
	if r.Type == gjson.Null {
		*rc = nil
		return nil
	}
	if !r.IsObject() {
		return &DecodeError{Entity: "request counts", Reason: "expected an object"}
	}
	*rc = decodeRequestCounts(r)
	return nil
}
