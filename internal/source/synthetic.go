package source

import (
	"context"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/synth"
)

// Synthetic generates count rows from a synthesizer.
type Synthetic struct {
	count int
	synth *synth.Synthesizer
}

func NewSynthetic(count int, s *synth.Synthesizer) *Synthetic {
	if count < 0 {
		count = 0
	}
	return &Synthetic{count: count, synth: s}
}

func (a *Synthetic) Open(context.Context) (int, error) {
	return a.count, nil
}

func (a *Synthetic) Produce(from, to int) ([]domain.Row, error) {
	if to <= from {
		return nil, nil
	}
	rows := make([]domain.Row, 0, to-from)
	for i := from; i < to; i++ {
		rows = append(rows, a.synth.Row(i))
	}
	return rows, nil
}
