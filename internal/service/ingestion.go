package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/broadcast"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/dto"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/protocol"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/queue"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/repository"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/router"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/source"
)

// ErrInvalidQuery marks a run stats query that cannot be answered
var ErrInvalidQuery = errors.New("invalid query")

var (
	validGroupBy = map[string]bool{"kind": true, "status": true, "day": true}
	validKinds   = map[string]bool{
		string(domain.KindSynthetic): true,
		string(domain.KindAPI):       true,
		string(domain.KindCSV):       true,
	}
)

// IngestionService represents ingestion service
type IngestionService struct {
	router           RequestRouter
	publisher        queue.QueuePublisher
	repository       repository.RunRepository
	events           EventSource
	subscriberBuffer int
	log              *zap.Logger
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	r RequestRouter,
	publisher queue.QueuePublisher,
	repo repository.RunRepository,
	events EventSource,
	subscriberBuffer int,
	log *zap.Logger,
) *IngestionService {
	return &IngestionService{
		router:           r,
		publisher:        publisher,
		repository:       repo,
		events:           events,
		subscriberBuffer: subscriberBuffer,
		log:              log,
	}
}

// Submit schedules msg in this process
func (s *IngestionService) Submit(msg *protocol.Message) (*dto.SubmitResponse, error) {
	if err := s.router.Dispatch(msg); err != nil {
		return nil, err
	}
	return accepted(msg), nil
}

// SubmitCSV schedules a CSV request whose content is read from open
func (s *IngestionService) SubmitCSV(msg *protocol.Message, open source.ContentOpener) (*dto.SubmitResponse, error) {
	if err := s.router.DispatchCSV(msg, open); err != nil {
		return nil, err
	}
	return accepted(msg), nil
}

// Enqueue hands msg to the queue for the worker to ingest
func (s *IngestionService) Enqueue(ctx context.Context, msg *protocol.Message) (*dto.EnqueueResponse, error) {
	if _, err := msg.Kind(); err != nil {
		return nil, fmt.Errorf("%w: %w", router.ErrInvalidRequest, err)
	}

	messageID, err := s.publisher.PublishRequest(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to publish request to queue: %w", err)
	}

	return &dto.EnqueueResponse{
		RequestID: msg.RequestID,
		MessageID: messageID,
		Status:    "queued",
	}, nil
}

// Cancel stops an in-flight request
func (s *IngestionService) Cancel(requestID string) bool {
	return s.router.Cancel(requestID)
}

// Subscribe opens a subscription to every outbound event
func (s *IngestionService) Subscribe() *broadcast.Subscription {
	return s.events.Subscribe(s.subscriberBuffer)
}

// GetRunStats retrieves aggregated run log stats from the repository
func (s *IngestionService) GetRunStats(ctx context.Context, req *dto.GetRunStatsRequest) (*dto.GetRunStatsResponse, error) {
	if req.From > req.To {
		s.log.Warn("Invalid time range for run stats",
			zap.Int64("from", req.From),
			zap.Int64("to", req.To))
		return nil, fmt.Errorf("%w: from must be less than or equal to to", ErrInvalidQuery)
	}
	if req.GroupBy != "" && !validGroupBy[req.GroupBy] {
		s.log.Warn("Invalid group_by value", zap.String("group_by", req.GroupBy))
		return nil, fmt.Errorf("%w: invalid group_by value: %s (supported: kind, status, day)", ErrInvalidQuery, req.GroupBy)
	}
	if req.Kind != "" && !validKinds[req.Kind] {
		s.log.Warn("Invalid kind value", zap.String("kind", req.Kind))
		return nil, fmt.Errorf("%w: invalid kind value: %s (supported: synthetic, api, csv)", ErrInvalidQuery, req.Kind)
	}

	s.log.Info("Querying run stats",
		zap.Int64("from", req.From),
		zap.Int64("to", req.To),
		zap.String("kind", req.Kind),
		zap.String("group_by", req.GroupBy))

	result, err := s.repository.GetRunStats(ctx, repository.RunStatsQuery{
		From:    req.From,
		To:      req.To,
		Kind:    req.Kind,
		GroupBy: req.GroupBy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get run stats from repository: %w", err)
	}

	response := &dto.GetRunStatsResponse{
		From:       req.From,
		To:         req.To,
		Kind:       req.Kind,
		TotalRuns:  result.TotalRuns,
		FailedRuns: result.FailedRuns,
		TotalRows:  result.TotalRows,
		GroupBy:    req.GroupBy,
		Groups:     make([]dto.RunStatsGroupData, 0, len(result.Groups)),
	}

	for _, group := range result.Groups {
		response.Groups = append(response.Groups, dto.RunStatsGroupData{
			GroupValue: group.GroupValue,
			Runs:       group.Runs,
			Rows:       group.Rows,
		})
	}

	return response, nil
}

func accepted(msg *protocol.Message) *dto.SubmitResponse {
	return &dto.SubmitResponse{
		RequestID: msg.RequestID,
		Type:      msg.Type,
		Status:    "accepted",
	}
}
