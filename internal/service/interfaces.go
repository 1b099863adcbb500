package service

import (
	"context"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/broadcast"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/dto"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/protocol"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/source"
)

// IngestionServicer defines the interface for ingestion service operations
type IngestionServicer interface {
	Submit(msg *protocol.Message) (*dto.SubmitResponse, error)
	SubmitCSV(msg *protocol.Message, open source.ContentOpener) (*dto.SubmitResponse, error)
	Enqueue(ctx context.Context, msg *protocol.Message) (*dto.EnqueueResponse, error)
	Cancel(requestID string) bool
	Subscribe() *broadcast.Subscription
	GetRunStats(ctx context.Context, req *dto.GetRunStatsRequest) (*dto.GetRunStatsResponse, error)
}

// RequestRouter schedules and cancels ingestion requests
type RequestRouter interface {
	Dispatch(msg *protocol.Message) error
	DispatchCSV(msg *protocol.Message, open source.ContentOpener) error
	Cancel(requestID string) bool
}

// EventSource hands out event subscriptions
type EventSource interface {
	Subscribe(buffer int) *broadcast.Subscription
}
