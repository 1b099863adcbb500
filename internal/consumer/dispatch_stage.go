package consumer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/router"
)

// DispatchStage hands envelopes to the router and settles them. Accepted and
// invalid requests are acked; requests the router cannot take right now are
// nacked for redelivery.
type DispatchStage struct {
	dispatcher Dispatcher
	log        *zap.Logger
}

// NewDispatchStage creates a new dispatch stage
func NewDispatchStage(dispatcher Dispatcher, log *zap.Logger) *DispatchStage {
	return &DispatchStage{
		dispatcher: dispatcher,
		log:        log,
	}
}

// Start dispatches envelopes until in is closed or ctx is done
func (d *DispatchStage) Start(ctx context.Context, in <-chan *Envelope) {
	for {
		select {
		case <-ctx.Done():
			d.log.Info("Dispatch stage shutting down")
			return
		case envelope, ok := <-in:
			if !ok {
				d.log.Info("Dispatch stage input channel closed")
				return
			}
			d.dispatch(ctx, envelope)
		}
	}
}

func (d *DispatchStage) dispatch(ctx context.Context, envelope *Envelope) {
	msg := envelope.Message
	err := d.dispatcher.Dispatch(msg)

	switch {
	case err == nil:
		d.settle(ctx, envelope, true)

	case errors.Is(err, router.ErrSchedulerBusy), errors.Is(err, router.ErrDuplicateRequest):
		d.log.Info("Request deferred",
			zap.String("message_id", envelope.MessageID),
			zap.String("request_id", msg.RequestID),
			zap.Error(err))
		d.settle(ctx, envelope, false)

	case errors.Is(err, router.ErrInvalidRequest):
		d.log.Warn("Invalid request dropped",
			zap.String("message_id", envelope.MessageID),
			zap.String("request_id", msg.RequestID),
			zap.Error(err))
		d.settle(ctx, envelope, true)

	default:
		d.log.Error("Failed to dispatch request",
			zap.String("message_id", envelope.MessageID),
			zap.String("request_id", msg.RequestID),
			zap.Error(err))
		d.settle(ctx, envelope, false)
	}
}

func (d *DispatchStage) settle(ctx context.Context, envelope *Envelope, ack bool) {
	if ack {
		if err := envelope.Ack(ctx); err != nil {
			d.log.Error("Failed to ack envelope", zap.String("message_id", envelope.MessageID), zap.Error(err))
		}
		return
	}
	if err := envelope.Nack(ctx); err != nil {
		d.log.Error("Failed to nack envelope", zap.String("message_id", envelope.MessageID), zap.Error(err))
	}
}
