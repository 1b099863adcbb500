package source

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/prng"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/synth"
)

var testNow = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func newTestSynth() *synth.Synthesizer {
	return synth.New(prng.New(prng.DefaultSeed), testNow)
}

// MockFetcher is a mock implementation of Fetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, req *FetchRequest) ([]byte, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func stringContent(s string) ContentOpener {
	return func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(s)), nil
	}
}

// drain runs an adapter to completion in chunks of chunkSize.
func drain(a Adapter, chunkSize int) ([]domain.Row, int, error) {
	total, err := a.Open(context.Background())
	if err != nil {
		return nil, 0, err
	}

	var rows []domain.Row
	for processed := 0; processed < total; {
		end := processed + chunkSize
		if end > total {
			end = total
		}
		slice, err := a.Produce(processed, end)
		if err != nil {
			return nil, total, err
		}
		rows = append(rows, slice...)
		processed = end
	}
	return rows, total, nil
}
