package harvest

import (
	"context"
	"fmt"
	"iter"
	"time"
)

// Window is a half-open range of calendar days [Floor, Ceiling).
type Window struct {
	Floor   time.Time
	Ceiling time.Time
}

// LastDay is the inclusive upper bound sent to Harvest's "to" parameter.
func (w Window) LastDay() time.Time {
	if w.Ceiling.IsZero() {
		return time.Time{}
	}
	return w.Ceiling.AddDate(0, 0, -1)
}

// TimeEntries walks /v2/time_entries page by page until next_page is null.
// The sequence is lazy and single-pass: a page is requested only once the
// consumer has pulled every entry of the previous one. A failed page yields
// its error once and ends the sequence.
func TimeEntries(ctx context.Context, client Client, window Window) iter.Seq2[TimeEntry, error] {
	return func(yield func(TimeEntry, error) bool) {
		page := 1
		for {
			result, err := client.ListTimeEntries(ctx, ListQuery{
				Page:    page,
				PerPage: DefaultPageSize,
				From:    window.Floor,
				To:      window.LastDay(),
			})
			if err != nil {
				yield(TimeEntry{}, fmt.Errorf("list time entries page %d: %w", page, err))
				return
			}

			for _, entry := range result.TimeEntries {
				if !yield(entry, nil) {
					return
				}
			}

			if result.NextPage == nil {
				return
			}
			if *result.NextPage <= page {
				yield(TimeEntry{}, fmt.Errorf("list time entries page %d: next_page %d does not advance", page, *result.NextPage))
				return
			}
			page = *result.NextPage
		}
	}
}
