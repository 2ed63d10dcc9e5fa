package batchgpt_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/picatz/batchgpt"
	"github.com/shoenig/test/must"
)

var renderer = batchgpt.Renderer{Normalizer: utc}

func sampleChat() *batchgpt.ChatCompletionResult {
	return &batchgpt.ChatCompletionResult{
		ID:      "chatcmpl-123",
		Object:  "chat.completion",
		Created: int64(1700000000),
		Model:   "gpt-3.5-turbo",
		Choices: []batchgpt.Choice{
			{Index: 0, Role: "assistant", Content: "Hello there!", FinishReason: "stop"},
			{Index: 1, Role: "assistant", Content: "General Kenobi.", FinishReason: "length"},
		},
		Usage: batchgpt.Usage{PromptTokens: 9, CompletionTokens: 12, TotalTokens: 22},
	}
}

func TestRenderer_Chat(t *testing.T) {
	must.Eq(t, []string{
		"Response from server:",
		"ID: chatcmpl-123",
		"Object: chat.completion",
		"Created: 2023-11-14 22:13:20 UTC",
		"Model: gpt-3.5-turbo",
		"Choice 0:",
		"  Role: assistant",
		"  Content: Hello there!",
		"  Finish Reason: stop",
		"Choice 1:",
		"  Role: assistant",
		"  Content: General Kenobi.",
		"  Finish Reason: length",
		"Usage:",
		"  Prompt Tokens: 9",
		"  Completion Tokens: 12",
		// Reported verbatim even though 9+12 != 22.
		"  Total Tokens: 22",
	}, renderer.Chat(sampleChat()))
}

func TestRenderer_Chat_missing_created(t *testing.T) {
	res := sampleChat()
	res.Created = nil

	lines := renderer.Chat(res)
	must.Eq(t, "Created: N/A", lines[3])
}

// parseChatLines reads rendered chat lines back into a result, the way a
// person would read the output.
func parseChatLines(t *testing.T, lines []string) *batchgpt.ChatCompletionResult {
	t.Helper()

	res := &batchgpt.ChatCompletionResult{}
	atoi := func(s string) int64 {
		n, err := strconv.ParseInt(s, 10, 64)
		must.NoError(t, err)
		return n
	}

	inContent := false
	for _, line := range lines {
		if rest, ok := strings.CutPrefix(line, batchgpt.ContentIndent); ok && inContent {
			res.Choices[len(res.Choices)-1].Content += "\n" + rest
			continue
		}

		key, value, _ := strings.Cut(strings.TrimSpace(line), ":")
		inContent = key == "Content"
		value = strings.TrimPrefix(value, " ")

		switch {
		case key == "ID":
			res.ID = value
		case key == "Object":
			res.Object = value
		case key == "Model":
			res.Model = value
		case strings.HasPrefix(key, "Choice "):
			res.Choices = append(res.Choices, batchgpt.Choice{Index: atoi(strings.TrimPrefix(key, "Choice "))})
		case key == "Role":
			res.Choices[len(res.Choices)-1].Role = value
		case key == "Content":
			res.Choices[len(res.Choices)-1].Content = value
		case key == "Finish Reason":
			res.Choices[len(res.Choices)-1].FinishReason = value
		case key == "Prompt Tokens":
			res.Usage.PromptTokens = atoi(value)
		case key == "Completion Tokens":
			res.Usage.CompletionTokens = atoi(value)
		case key == "Total Tokens":
			res.Usage.TotalTokens = atoi(value)
		}
	}

	return res
}

func TestRenderer_Chat_round_trip(t *testing.T) {
	want := sampleChat()
	got := parseChatLines(t, renderer.Chat(want))

	must.Eq(t, want.ID, got.ID)
	must.Eq(t, want.Object, got.Object)
	must.Eq(t, want.Model, got.Model)
	must.Eq(t, want.Choices, got.Choices)
	must.Eq(t, want.Usage, got.Usage)
}

func TestRenderer_Chat_multiline_content(t *testing.T) {
	want := sampleChat()
	want.Choices[0].Content = "line one\nUsage:\n  Total Tokens: 999\n\nlast"

	lines := renderer.Chat(want)
	must.SliceContains(t, lines, "  Content: line one")
	must.SliceContains(t, lines, "    Usage:")
	must.SliceContains(t, lines, "      Total Tokens: 999")

	// Printed output is split back on newlines before reading.
	printed := strings.Join(lines, "\n")
	got := parseChatLines(t, strings.Split(printed, "\n"))

	must.Eq(t, want.Choices, got.Choices)
	must.Eq(t, want.Usage, got.Usage)
}

func TestRenderer_Batch(t *testing.T) {
	must.Eq(t, []string{
		"Batch ID: b1",
		"Status: completed",
		"Created At: 2023-11-14 22:13:20 UTC",
		"Expires At: 2023-11-15 22:13:20 UTC",
		"Request Counts: {total: 2, completed: 1, failed: 0}",
	}, renderer.Batch(batch("b1", "completed")))
}

func TestRenderer_Batch_unavailable_timestamps(t *testing.T) {
	b := batchgpt.BatchRecord{ID: "b1", Status: "validating", CreatedAt: "yesterday"}

	must.Eq(t, []string{
		"Batch ID: b1",
		"Status: validating",
		"Created At: N/A",
		"Expires At: N/A",
		"Request Counts: {}",
	}, renderer.Batch(b))
}

func TestRenderer_Listing(t *testing.T) {
	records := []batchgpt.BatchRecord{batch("b1", "completed"), batch("b2", "in_progress")}

	t.Run("unfiltered", func(t *testing.T) {
		lines := renderer.Listing(batchgpt.FilterAndSummarize(records, batchgpt.FilterNone))

		must.Eq(t, "All batches:", lines[0])
		must.Eq(t, "Batch ID: b1", lines[1])
		must.Eq(t, "---", lines[6])
		must.Eq(t, "Batch ID: b2", lines[7])
		must.Eq(t, "---", lines[12])
		must.Eq(t, []string{"Summary:", "  Total: 2"}, lines[13:])
	})

	t.Run("filtered", func(t *testing.T) {
		lines := renderer.Listing(batchgpt.FilterAndSummarize(records, batchgpt.FilterNotCompleted))

		must.Eq(t, []string{
			"All batches:",
			"Batch ID: b2",
			"Status: in_progress",
			"Created At: 2023-11-14 22:13:20 UTC",
			"Expires At: 2023-11-15 22:13:20 UTC",
			"Request Counts: {total: 2, completed: 1, failed: 0}",
			"---",
			"Summary:",
			"  Total: 1",
			"  Filter: not_completed",
			"  Total Before Filter: 2",
		}, lines)
	})

	t.Run("no records", func(t *testing.T) {
		lines := renderer.Listing(batchgpt.FilterAndSummarize(nil, batchgpt.FilterCompleted))
		must.Eq(t, []string{"No batches received from the batches API"}, lines)
	})

	t.Run("no matches", func(t *testing.T) {
		lines := renderer.Listing(batchgpt.FilterAndSummarize(records[1:], batchgpt.FilterCompleted))
		must.Eq(t, []string{"No batches found with filter: completed"}, lines)
	})
}

func TestRenderer_deterministic(t *testing.T) {
	records := []batchgpt.BatchRecord{batch("b1", "completed"), batch("b2", "in_progress")}
	l := batchgpt.FilterAndSummarize(records, batchgpt.FilterNone)

	must.Eq(t, renderer.Listing(l), renderer.Listing(l))
	must.Eq(t, renderer.Chat(sampleChat()), renderer.Chat(sampleChat()))
}

func TestFormatRequestCounts(t *testing.T) {
	rc := batchgpt.RequestCounts{
		{Key: "total", Value: int64(10)},
		{Key: "ratio", Value: 0.5},
		{Key: "note", Value: "partial"},
		{Key: "stale", Value: true},
		{Key: "missing", Value: nil},
	}
	must.Eq(t, `{total: 10, ratio: 0.5, note: "partial", stale: true, missing: null}`, batchgpt.FormatRequestCounts(rc))
	must.Eq(t, "{}", batchgpt.FormatRequestCounts(nil))
}
