// Package harness validates a requested operation, runs it against the
// batch-gpt service and renders the outcome as output lines.
package harness

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/picatz/batchgpt"
	"go.uber.org/zap"
)

// Operation names accepted by --api.
const (
	OpChatCompletions   = "chat_completions"
	OpStatusSingleBatch = "status_single_batch"
	OpStatusAllBatches  = "status_all_batches"
)

// Operations lists every accepted operation name.
var Operations = []string{OpChatCompletions, OpStatusSingleBatch, OpStatusAllBatches}

// ErrorPrefix starts the line printed when an operation fails.
const ErrorPrefix = "An error occurred: "

// Exit codes returned by [Dispatcher.Run].
const (
	ExitOK    = 0
	ExitUsage = 1
)

// Service is the remote side of the three operations. *batchgpt.Client
// implements it.
type Service interface {
	CreateChat(ctx context.Context, content string) (*batchgpt.ChatCompletionResult, error)
	RetrieveBatch(ctx context.Context, batchID string) (batchgpt.BatchRecord, error)
	ListBatches(ctx context.Context) ([]batchgpt.BatchRecord, error)
}

var _ Service = (*batchgpt.Client)(nil)

// Recorder keeps the batch statuses an operation observed.
type Recorder interface {
	Record(ctx context.Context, operation string, batches ...batchgpt.BatchRecord) error
}

// Request is one invocation as given on the command line.
type Request struct {
	Operation    string
	Content      string
	BatchID      string
	StatusFilter string
}

// UsageError is a request that cannot be run. It is reported before any
// call to the service.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

func usagef(format string, args ...any) *UsageError {
	return &UsageError{Message: "Error: " + fmt.Sprintf(format, args...)}
}

// Validate checks that req names a known operation and carries the
// parameters that operation needs.
func Validate(req Request) (batchgpt.StatusFilter, error) {
	switch req.Operation {
	case "":
		return batchgpt.FilterNone, usagef("--api is required.")
	case OpChatCompletions:
		if req.Content == "" {
			return batchgpt.FilterNone, usagef("--content is required for chat_completions.")
		}
	case OpStatusSingleBatch:
		if req.BatchID == "" {
			return batchgpt.FilterNone, usagef("--batch_id is required for status_single_batch.")
		}
	case OpStatusAllBatches:
	default:
		return batchgpt.FilterNone, usagef("--api must be one of %s, got %q.", strings.Join(Operations, ", "), req.Operation)
	}

	filter, err := batchgpt.ParseStatusFilter(req.StatusFilter)
	if err != nil {
		names := make([]string, len(batchgpt.StatusFilters))
		for i, f := range batchgpt.StatusFilters {
			names[i] = string(f)
		}
		return batchgpt.FilterNone, usagef("--status_filter must be one of %s, got %q.", strings.Join(names, ", "), req.StatusFilter)
	}
	return filter, nil
}

// Dispatcher runs operations against a Service.
type Dispatcher struct {
	Service  Service
	Renderer batchgpt.Renderer

	// FormatContent, when set, rewrites each choice's content before it
	// is rendered. A formatting error leaves the content as received.
	FormatContent func(string) (string, error)

	// Recorder, when set, is given every batch a status operation saw.
	Recorder Recorder

	Logger *zap.Logger
}

func (d *Dispatcher) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// ChatCompletions sends content as a single user message and renders the
// completion.
func (d *Dispatcher) ChatCompletions(ctx context.Context, content string) batchgpt.Result[[]string] {
	res, err := d.Service.CreateChat(ctx, content)
	if err != nil {
		return batchgpt.FailureFrom[[]string](err)
	}

	if d.FormatContent != nil {
		formatted := *res
		formatted.Choices = make([]batchgpt.Choice, len(res.Choices))
		for i, c := range res.Choices {
			if out, err := d.FormatContent(c.Content); err != nil {
				d.logger().Warn("failed to format choice content", zap.Int64("choice", c.Index), zap.Error(err))
			} else {
				c.Content = out
			}
			formatted.Choices[i] = c
		}
		res = &formatted
	}

	return batchgpt.Success(d.Renderer.Chat(res))
}

// StatusSingleBatch renders the current state of one batch.
func (d *Dispatcher) StatusSingleBatch(ctx context.Context, batchID string) batchgpt.Result[[]string] {
	b, err := d.Service.RetrieveBatch(ctx, batchID)
	if err != nil {
		return batchgpt.FailureFrom[[]string](err)
	}

	d.record(ctx, OpStatusSingleBatch, b)

	return batchgpt.Success(d.Renderer.Batch(b))
}

// StatusAllBatches renders every batch the filter keeps, followed by a
// summary.
func (d *Dispatcher) StatusAllBatches(ctx context.Context, filter batchgpt.StatusFilter) batchgpt.Result[[]string] {
	records, err := d.Service.ListBatches(ctx)
	if err != nil {
		return batchgpt.FailureFrom[[]string](err)
	}

	d.record(ctx, OpStatusAllBatches, records...)

	listing := batchgpt.FilterAndSummarize(records, filter)
	return batchgpt.Success(d.Renderer.Listing(listing))
}

// record never fails the operation; a history write error is only logged.
func (d *Dispatcher) record(ctx context.Context, operation string, batches ...batchgpt.BatchRecord) {
	if d.Recorder == nil || len(batches) == 0 {
		return
	}
	if err := d.Recorder.Record(ctx, operation, batches...); err != nil {
		d.logger().Warn("failed to record batch statuses", zap.String("operation", operation), zap.Error(err))
	}
}

// Dispatch validates req and runs it. The only error it returns is a
// *UsageError; service failures are carried by the Result.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (batchgpt.Result[[]string], error) {
	filter, err := Validate(req)
	if err != nil {
		return batchgpt.Result[[]string]{}, err
	}

	d.logger().Debug("dispatching", zap.String("operation", req.Operation))

	switch req.Operation {
	case OpChatCompletions:
		return d.ChatCompletions(ctx, req.Content), nil
	case OpStatusSingleBatch:
		return d.StatusSingleBatch(ctx, req.BatchID), nil
	default:
		return d.StatusAllBatches(ctx, filter), nil
	}
}

// Run dispatches req, writes the outcome to w and returns the process exit
// code. A usage error exits 1. A failed operation prints ErrorPrefix and
// the message, and still exits 0.
func (d *Dispatcher) Run(ctx context.Context, w io.Writer, req Request) int {
	res, err := d.Dispatch(ctx, req)
	if err != nil {
		fmt.Fprintln(w, err)
		return ExitUsage
	}

	if res.Failed() {
		d.logger().Debug("operation failed", zap.String("operation", req.Operation), zap.String("message", res.Message()))
		fmt.Fprintln(w, ErrorPrefix+res.Message())
		return ExitOK
	}

	lines, _ := res.Value()
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return ExitOK
}
