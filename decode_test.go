package batchgpt_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/picatz/batchgpt"
	"github.com/shoenig/test/must"
)

const chatPayload = `{
  "id": "chatcmpl-abc",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-3.5-turbo-0125",
  "choices": [
    {"index": 0, "message": {"role": "assistant", "content": "Hi!"}, "finish_reason": "stop"},
    {"index": 1, "message": {"role": "assistant", "content": null}, "finish_reason": null}
  ],
  "usage": {"prompt_tokens": 5, "completion_tokens": 2, "total_tokens": 7}
}`

func TestDecodeChatCompletion(t *testing.T) {
	res, err := batchgpt.DecodeChatCompletion([]byte(chatPayload))
	must.NoError(t, err)

	must.Eq(t, "chatcmpl-abc", res.ID)
	must.Eq(t, "chat.completion", res.Object)
	must.Eq(t, any(int64(1700000000)), res.Created)
	must.Eq(t, "gpt-3.5-turbo-0125", res.Model)
	must.Eq(t, []batchgpt.Choice{
		{Index: 0, Role: "assistant", Content: "Hi!", FinishReason: "stop"},
		{Index: 1, Role: "assistant"},
	}, res.Choices)
	must.Eq(t, batchgpt.Usage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7}, res.Usage)
}

func TestDecodeChatCompletion_created_shapes(t *testing.T) {
	tests := []struct {
		created string
		want    any
	}{
		{`1700000000000`, int64(1700000000000)},
		{`1700000000.5`, 1700000000.5},
		{`"1700000000"`, "1700000000"},
		{`null`, nil},
	}

	for _, test := range tests {
		t.Run(test.created, func(t *testing.T) {
			payload := `{"id":"x","object":"chat.completion","created":` + test.created + `,"model":"m","choices":[],"usage":{"prompt_tokens":0,"completion_tokens":0,"total_tokens":0}}`
			res, err := batchgpt.DecodeChatCompletion([]byte(payload))
			must.NoError(t, err)
			must.Eq(t, test.want, res.Created)
		})
	}
}

func TestDecodeChatCompletion_errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		field   string
	}{
		{"invalid json", `{"id":`, ""},
		{"not an object", `[1,2]`, ""},
		{"missing id", `{"object":"chat.completion","model":"m","choices":[],"usage":{}}`, "id"},
		{"numeric id", `{"id":1,"object":"chat.completion","model":"m","choices":[],"usage":{}}`, "id"},
		{"missing model", `{"id":"x","object":"chat.completion","choices":[],"usage":{}}`, "model"},
		{"missing choices", `{"id":"x","object":"o","model":"m","usage":{}}`, "choices"},
		{"choices not array", `{"id":"x","object":"o","model":"m","choices":{},"usage":{}}`, "choices"},
		{"choice without message", `{"id":"x","object":"o","model":"m","choices":[{"index":0}],"usage":{}}`, "choices.0.message"},
		{"choice without index", `{"id":"x","object":"o","model":"m","choices":[{"message":{}}],"usage":{}}`, "choices.0.index"},
		{"missing usage", `{"id":"x","object":"o","model":"m","choices":[]}`, "usage"},
		{"fractional tokens", `{"id":"x","object":"o","model":"m","choices":[],"usage":{"prompt_tokens":1.5,"completion_tokens":0,"total_tokens":0}}`, "usage.prompt_tokens"},
		{"missing total tokens", `{"id":"x","object":"o","model":"m","choices":[],"usage":{"prompt_tokens":1,"completion_tokens":0}}`, "usage.total_tokens"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := batchgpt.DecodeChatCompletion([]byte(test.payload))
			must.Error(t, err)

			var decodeErr *batchgpt.DecodeError
			must.True(t, errors.As(err, &decodeErr))
			must.Eq(t, "chat completion", decodeErr.Entity)
			must.Eq(t, test.field, decodeErr.Field)
		})
	}
}

func TestDecodeBatch(t *testing.T) {
	payload := `{
	  "id": "batch_1",
	  "object": "batch",
	  "status": "in_progress",
	  "created_at": 1700000000,
	  "expires_at": 1700086400000,
	  "request_counts": {"total": 3, "completed": 1, "failed": 0}
	}`

	b, err := batchgpt.DecodeBatch([]byte(payload))
	must.NoError(t, err)
	must.Eq(t, "batch_1", b.ID)
	must.Eq(t, "in_progress", b.Status)
	must.Eq(t, any(int64(1700000000)), b.CreatedAt)
	must.Eq(t, any(int64(1700086400000)), b.ExpiresAt)
	must.Eq(t, "{total: 3, completed: 1, failed: 0}", batchgpt.FormatRequestCounts(b.RequestCounts))
	must.Eq(t, int64(3), b.RequestCounts.Int("total"))
	must.Eq(t, int64(0), b.RequestCounts.Int("unknown"))
}

func TestDecodeBatch_nested(t *testing.T) {
	b, err := batchgpt.DecodeBatch([]byte(`{"batch":{"id":"batch_2","status":"completed"}}`))
	must.NoError(t, err)
	must.Eq(t, "batch_2", b.ID)
	must.True(t, b.Completed())
	must.Nil(t, b.CreatedAt)
}

func TestDecodeBatch_missing_status(t *testing.T) {
	b, err := batchgpt.DecodeBatch([]byte(`{"id":"batch_3"}`))
	must.NoError(t, err)
	must.Eq(t, "", b.Status)
	must.False(t, b.Completed())
}

func TestDecodeBatch_missing_id(t *testing.T) {
	_, err := batchgpt.DecodeBatch([]byte(`{"batch":{"status":"completed"}}`))

	var decodeErr *batchgpt.DecodeError
	must.True(t, errors.As(err, &decodeErr))
	must.Eq(t, "batch.id", decodeErr.Field)
	must.EqError(t, err, `decode batch: field "batch.id": missing required field`)
}

func TestDecodeBatchList(t *testing.T) {
	payload := `{"data":[
	  {"id":"b1","status":"completed","created_at":1700000000},
	  {"batch":{"id":"b2","status":"failed"}},
	  {"id":"b3","status":"in_progress"}
	]}`

	records, err := batchgpt.DecodeBatchList([]byte(payload))
	must.NoError(t, err)
	must.Eq(t, []string{"b1", "b2", "b3"}, ids(records))
}

func TestDecodeBatchList_empty(t *testing.T) {
	for _, payload := range []string{`{"data":[]}`, `{"data":null}`} {
		records, err := batchgpt.DecodeBatchList([]byte(payload))
		must.NoError(t, err)
		must.SliceEmpty(t, records)
	}
}

func TestDecodeBatchList_errors(t *testing.T) {
	tests := []struct {
		payload string
		field   string
	}{
		{`{}`, "data"},
		{`{"data":{}}`, "data"},
		{`{"data":[1]}`, "data.0"},
		{`{"data":[{"id":"b1"},{"status":"completed"}]}`, "data.1.id"},
	}

	for _, test := range tests {
		_, err := batchgpt.DecodeBatchList([]byte(test.payload))

		var decodeErr *batchgpt.DecodeError
		must.True(t, errors.As(err, &decodeErr))
		must.Eq(t, test.field, decodeErr.Field)
	}
}

func TestRequestCounts_JSON(t *testing.T) {
	rc := batchgpt.RequestCounts{
		{Key: "total", Value: int64(4)},
		{Key: "completed", Value: int64(3)},
		{Key: "failed", Value: int64(1)},
	}

	b, err := json.Marshal(rc)
	must.NoError(t, err)
	must.Eq(t, `{"total":4,"completed":3,"failed":1}`, string(b))

	var decoded batchgpt.RequestCounts
	must.NoError(t, json.Unmarshal(b, &decoded))
	must.Eq(t, rc, decoded)
}
