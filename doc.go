// Package batchgpt implements a test harness for OpenAI-compatible chat
// completion and batch servers, such as batch-gpt.
//
// A [Client] performs one exchange per call and decodes the response into
// typed records ([ChatCompletionResult], [BatchRecord]). The records are
// turned into display lines by a [Renderer], which shows epoch timestamps
// through a [Normalizer]. Batch listings can be narrowed by completion
// status with [FilterAndSummarize].
//
//	c := batchgpt.NewClient(batchgpt.DefaultBaseURL)
//
//	batches, err := c.ListBatches(ctx)
//	if err != nil {
//	    return err
//	}
//
//	listing := batchgpt.FilterAndSummarize(batches, batchgpt.FilterNotCompleted)
//
//	for _, line := range (batchgpt.Renderer{}).Listing(listing) {
//	    fmt.Println(line)
//	}
package batchgpt
