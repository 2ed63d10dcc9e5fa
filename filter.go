package batchgpt

import (
	"fmt"
	"strings"
)

// StatusFilter selects batches by completion status. The zero value
// applies no filter.
type StatusFilter string

const (
	// FilterNone keeps every batch.
	FilterNone StatusFilter = ""

	// FilterCompleted keeps batches whose status is exactly "completed".
	FilterCompleted StatusFilter = "completed"

	// FilterNotCompleted keeps every batch FilterCompleted would drop.
	FilterNotCompleted StatusFilter = "not_completed"
)

// StatusFilters lists the accepted non-empty filter values.
var StatusFilters = []StatusFilter{FilterCompleted, FilterNotCompleted}

// ParseStatusFilter parses a filter name. The empty string is [FilterNone].
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(s); f {
	case FilterNone, FilterCompleted, FilterNotCompleted:
		return f, nil
	default:
		names := make([]string, len(StatusFilters))
		for i, sf := range StatusFilters {
			names[i] = string(sf)
		}
		return FilterNone, fmt.Errorf("invalid status filter %q: must be one of %s", s, strings.Join(names, ", "))
	}
}

// Keep reports whether the filter selects the given batch.
func (f StatusFilter) Keep(b BatchRecord) bool {
	switch f {
	case FilterCompleted:
		return b.Completed()
	case FilterNotCompleted:
		return !b.Completed()
	default:
		return true
	}
}

// Outcome tells a listing with batches apart from the two empty cases,
// which are shown with different messages.
type Outcome int

const (
	// OutcomeBatches means at least one batch was selected.
	OutcomeBatches Outcome = iota

	// OutcomeNoRecords means the server returned no batches at all.
	OutcomeNoRecords

	// OutcomeNoMatches means batches were returned but the filter
	// selected none of them.
	OutcomeNoMatches
)

// Summary holds the counts shown below a batch listing.
type Summary struct {
	// Total is the number of selected batches.
	Total int

	// Filtered is set when a filter was applied, in which case Filter and
	// Unfiltered are meaningful.
	Filtered   bool
	Filter     StatusFilter
	Unfiltered int
}

// Listing is the result of [FilterAndSummarize].
type Listing struct {
	Outcome  Outcome
	Selected []BatchRecord
	Summary  Summary
}

// FilterAndSummarize selects the batches matching filter, preserving their
// order, and computes the listing summary.
func FilterAndSummarize(records []BatchRecord, filter StatusFilter) Listing {
	if len(records) == 0 {
		return Listing{
			Outcome: OutcomeNoRecords,
			Summary: Summary{
				Filtered: filter != FilterNone,
				Filter:   filter,
			},
		}
	}

	if filter == FilterNone {
		return Listing{
			Outcome:  OutcomeBatches,
			Selected: records,
			Summary:  Summary{Total: len(records)},
		}
	}

	selected := make([]BatchRecord, 0, len(records))
	for _, b := range records {
		if filter.Keep(b) {
			selected = append(selected, b)
		}
	}

	l := Listing{
		Outcome:  OutcomeBatches,
		Selected: selected,
		Summary: Summary{
			Total:      len(selected),
			Filtered:   true,
			Filter:     filter,
			Unfiltered: len(records),
		},
	}
	if len(selected) == 0 {
		l.Outcome = OutcomeNoMatches
	}

	return l
}
