package consumer

import (
	"context"

	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/broadcast"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/protocol"
)

// EventLogger is the worker's listener: it writes every outbound event to the log
type EventLogger struct {
	log *zap.Logger
}

// NewEventLogger creates a new event logger
func NewEventLogger(log *zap.Logger) *EventLogger {
	return &EventLogger{log: log}
}

// Start logs events from sub until ctx is done or sub is closed, then closes sub
func (l *EventLogger) Start(ctx context.Context, sub *broadcast.Subscription) {
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			l.log.Info("Event logger shutting down")
			return
		case <-sub.Done():
			l.log.Warn("Event logger subscription closed")
			return
		case event := <-sub.Events():
			l.logEvent(event)
		}
	}
}

func (l *EventLogger) logEvent(event protocol.Event) {
	fields := []zap.Field{
		zap.String("type", event.EventType()),
		zap.String("request_id", event.EventRequestID()),
	}

	switch e := event.(type) {
	case *protocol.ProgressEvent:
		l.log.Debug("Request progress", append(fields,
			zap.Int("processed", e.Processed),
			zap.Int("total", e.Total),
			zap.Float64("progress", e.Progress))...)
	case *protocol.CompleteEvent:
		l.log.Info("Request completed", append(fields, zap.Int("rows", len(e.Data)))...)
	case *protocol.ErrorEvent:
		l.log.Warn("Request failed", append(fields, zap.String("error", e.Error))...)
	}
}
