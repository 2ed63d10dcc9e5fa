package batchgpt

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Fixed lines of the rendered output.
const (
	ChatHeader       = "Response from server:"
	ListingHeader    = "All batches:"
	ListingSeparator = "---"
	NoBatchesMessage = "No batches received from the batches API"
)

// NoMatchesMessage is shown when a filter selected none of the batches.
func NoMatchesMessage(filter StatusFilter) string {
	return "No batches found with filter: " + string(filter)
}

// Renderer formats decoded records into display lines. The same input
// always produces the same lines.
type Renderer struct {
	Normalizer Normalizer
}

// Chat renders a chat completion: its identity, one block per choice in
// order, and the token usage. Every returned element is a single line;
// content lines after the first are prefixed with ContentIndent.
func (r Renderer) Chat(res *ChatCompletionResult) []string {
	lines := []string{
		ChatHeader,
		"ID: " + res.ID,
		"Object: " + res.Object,
		"Created: " + r.Normalizer.Normalize(res.Created),
		"Model: " + res.Model,
	}

	for _, c := range res.Choices {
		lines = append(lines,
			"Choice "+strconv.FormatInt(c.Index, 10)+":",
			"  Role: "+c.Role,
		)
		lines = append(lines, contentLines(c.Content)...)
		lines = append(lines, "  Finish Reason: "+c.FinishReason)
	}

	return append(lines,
		"Usage:",
		"  Prompt Tokens: "+strconv.FormatInt(res.Usage.PromptTokens, 10),
		"  Completion Tokens: "+strconv.FormatInt(res.Usage.CompletionTokens, 10),
		"  Total Tokens: "+strconv.FormatInt(res.Usage.TotalTokens, 10),
	)
}

// ContentIndent prefixes the continuation lines of a multi-line choice
// content, so that none of them reads as a field.
const ContentIndent = "    "

// contentLines keeps each element a single line.
func contentLines(content string) []string {
	parts := strings.Split(content, "\n")
	lines := []string{"  Content: " + parts[0]}
	for _, line := range parts[1:] {
		lines = append(lines, ContentIndent+line)
	}
	return lines
}

// Batch renders a single batch.
func (r Renderer) Batch(b BatchRecord) []string {
	return []string{
		"Batch ID: " + b.ID,
		"Status: " + b.Status,
		"Created At: " + r.Normalizer.Normalize(b.CreatedAt),
		"Expires At: " + r.Normalizer.Normalize(b.ExpiresAt),
		"Request Counts: " + FormatRequestCounts(b.RequestCounts),
	}
}

// Listing renders a filtered batch listing. Empty outcomes render as the
// single informational line that describes them.
func (r Renderer) Listing(l Listing) []string {
	switch l.Outcome {
	case OutcomeNoRecords:
		return []string{NoBatchesMessage}
	case OutcomeNoMatches:
		return []string{NoMatchesMessage(l.Summary.Filter)}
	}

	lines := []string{ListingHeader}
	for _, b := range l.Selected {
		lines = append(lines, r.Batch(b)...)
		lines = append(lines, ListingSeparator)
	}

	lines = append(lines,
		"Summary:",
		"  Total: "+strconv.Itoa(l.Summary.Total),
	)
	if l.Summary.Filtered {
		lines = append(lines,
			"  Filter: "+string(l.Summary.Filter),
			"  Total Before Filter: "+strconv.Itoa(l.Summary.Unfiltered),
		)
	}

	return lines
}

// FormatRequestCounts renders counters in the order they were received,
// e.g. "{total: 2, completed: 1, failed: 0}".
func FormatRequestCounts(rc RequestCounts) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, c := range rc {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.Key)
		sb.WriteString(": ")
		sb.WriteString(formatValue(c.Value))
	}
	sb.WriteByte('}')
	return sb.String()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return strconv.Quote(x)
	case json.RawMessage:
		return string(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return NotAvailable
		}
		return string(b)
	}
}
