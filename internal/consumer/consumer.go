package consumer

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/config"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/queue"
)

// Consumer orchestrates a pipeline of stages that turns SQS messages into
// scheduled ingestion requests
type Consumer struct {
	receiver   *Receiver
	parser     *ParserStage
	dispatcher *DispatchStage
	bufferSize int
}

// NewConsumer creates a new consumer with a pipeline architecture
func NewConsumer(cfg *config.Config, queueConsumer queue.QueueConsumer, dispatcher Dispatcher, log *zap.Logger) *Consumer {
	receiver := NewReceiver(queueConsumer, ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 20,
		BufferSize:      cfg.Consumer.BufferSize,
	}, log)

	parser := NewParserStage(queueConsumer, NewJSONMessageParser(), int32(cfg.Consumer.RetryDelaySec), log)

	return &Consumer{
		receiver:   receiver,
		parser:     parser,
		dispatcher: NewDispatchStage(dispatcher, log),
		bufferSize: cfg.Consumer.BufferSize,
	}
}

// Start runs the pipeline until ctx is done
func (c *Consumer) Start(ctx context.Context) error {
	messageChan := make(chan types.Message, c.bufferSize)
	envelopeChan := make(chan *Envelope, c.bufferSize)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		c.receiver.Start(ctx, messageChan)
	}()

	go func() {
		defer wg.Done()
		c.parser.Start(ctx, messageChan, envelopeChan)
	}()

	go func() {
		defer wg.Done()
		c.dispatcher.Start(ctx, envelopeChan)
	}()

	wg.Wait()
	return nil
}
