// Package source turns synthetic counts, remote JSON payloads and CSV text
// into canonical rows, one bounded slice at a time.
package source

import (
	"context"
	"time"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
)

// Adapter produces canonical rows for one request.
//
// Open performs the request's one-off I/O, if any, and reports how many input
// positions there are to process. Produce returns the rows for positions
// [from, to). It is called with consecutive, non-overlapping ranges and may
// return fewer rows than positions when input is skipped.
type Adapter interface {
	Open(ctx context.Context) (int, error)
	Produce(from, to int) ([]domain.Row, error)
}

// Clock returns the current time. Missing dates default to its calendar day.
type Clock func() time.Time

func today(now Clock) string {
	return now().UTC().Format(domain.DateLayout)
}
