package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockQueueConsumer is a mock implementation of queue.QueueConsumer
type MockQueueConsumer struct {
	mock.Mock
}

func (m *MockQueueConsumer) ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.ReceiveMessageOutput), args.Error(1)
}

func (m *MockQueueConsumer) DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.DeleteMessageOutput), args.Error(1)
}

func (m *MockQueueConsumer) ChangeMessageVisibility(ctx context.Context, input *sqs.ChangeMessageVisibilityInput) (*sqs.ChangeMessageVisibilityOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.ChangeMessageVisibilityOutput), args.Error(1)
}

func (m *MockQueueConsumer) QueueURL() string {
	args := m.Called()
	return args.String(0)
}

// idleUntilShutdown makes every further receive behave like an empty long
// poll that lasts until ctx is done.
func idleUntilShutdown(m *MockQueueConsumer) {
	m.On("ReceiveMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(&sqs.ReceiveMessageOutput{}, nil).Maybe()
}

func ingestionMessage(id, body string) types.Message {
	return types.Message{
		MessageId:     aws.String(id),
		ReceiptHandle: aws.String("receipt-" + id),
		Body:          aws.String(body),
	}
}

func runReceiver(ctx context.Context, receiver *Receiver, out chan types.Message) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		receiver.Start(ctx, out)
		close(done)
	}()
	return done
}

func TestReceiver_ForwardsIngestionRequestsInOrder(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	core, logs := observer.New(zapcore.DebugLevel)

	receiver := NewReceiver(mockConsumer, ReceiverConfig{MaxMessages: 10, WaitTimeSeconds: 20}, zap.New(core))

	mockConsumer.On("QueueURL").Return(testQueueURL)

	batch := []types.Message{
		ingestionMessage("msg-1", `{"type":"GENERATE_DATA","requestId":"gen-1","count":500,"chunkSize":100}`),
		ingestionMessage("msg-2", `{"type":"FETCH_API_DATA","requestId":"api-1","endpoint":"https://example.com/users","userCount":25}`),
		ingestionMessage("msg-3", `{"type":"PARSE_CSV_DATA","requestId":"csv-1","file":"id,name\n1,Ada","delimiter":","}`),
	}

	mockConsumer.On("ReceiveMessages", mock.Anything, mock.MatchedBy(func(in *sqs.ReceiveMessageInput) bool {
		return aws.ToString(in.QueueUrl) == testQueueURL &&
			in.MaxNumberOfMessages == 10 &&
			in.WaitTimeSeconds == 20 &&
			len(in.MessageAttributeNames) == 1 && in.MessageAttributeNames[0] == "All"
	})).Return(&sqs.ReceiveMessageOutput{Messages: batch}, nil).Once()
	idleUntilShutdown(mockConsumer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan types.Message, 10)
	done := runReceiver(ctx, receiver, out)

	var bodies []string
	for len(bodies) < len(batch) {
		select {
		case msg := <-out:
			bodies = append(bodies, aws.ToString(msg.Body))
		case <-time.After(time.Second):
			t.Fatalf("received %d of %d messages", len(bodies), len(batch))
		}
	}

	for i, msg := range batch {
		assert.Equal(t, aws.ToString(msg.Body), bodies[i])
	}

	cancel()
	<-done

	received := logs.FilterMessage("Received messages from SQS").All()
	require.Len(t, received, 1)
	assert.Equal(t, zapcore.DebugLevel, received[0].Level)
	assert.Equal(t, int64(3), received[0].ContextMap()["message_count"])
}

func TestReceiver_BackoffDoublesAndResetsAfterSuccess(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	core, logs := observer.New(zapcore.DebugLevel)

	receiver := NewReceiver(mockConsumer, ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 20,
		MinBackoff:      time.Millisecond,
		MaxBackoff:      8 * time.Millisecond,
	}, zap.New(core))

	mockConsumer.On("QueueURL").Return(testQueueURL)

	queueDown := errors.New("connection refused")
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.Anything).Return(nil, queueDown).Twice()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.Anything).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{
			ingestionMessage("msg-1", `{"type":"GENERATE_DATA","requestId":"gen-1"}`),
		}}, nil).Once()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.Anything).Return(nil, queueDown).Once()
	idleUntilShutdown(mockConsumer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan types.Message, 1)
	done := runReceiver(ctx, receiver, out)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("Error receiving messages from SQS").Len() == 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	var backoffs []time.Duration
	for _, entry := range logs.FilterMessage("Error receiving messages from SQS").All() {
		backoffs = append(backoffs, entry.ContextMap()["backoff"].(time.Duration))
	}
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, time.Millisecond}, backoffs)
}

func TestReceiver_NextBackoffIsCapped(t *testing.T) {
	receiver := NewReceiver(new(MockQueueConsumer), ReceiverConfig{
		MinBackoff: time.Second,
		MaxBackoff: 5 * time.Second,
	}, zap.NewNop())

	backoff := time.Second
	var sequence []time.Duration
	for i := 0; i < 5; i++ {
		backoff = receiver.nextBackoff(backoff)
		sequence = append(sequence, backoff)
	}

	assert.Equal(t, []time.Duration{
		2 * time.Second,
		4 * time.Second,
		5 * time.Second,
		5 * time.Second,
		5 * time.Second,
	}, sequence)
}

func TestNewReceiver_DefaultBackoff(t *testing.T) {
	receiver := NewReceiver(new(MockQueueConsumer), ReceiverConfig{}, zap.NewNop())

	assert.Equal(t, time.Second, receiver.config.MinBackoff)
	assert.Equal(t, 30*time.Second, receiver.config.MaxBackoff)
}

func TestReceiver_ClosesOutputOnShutdown(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	receiver := NewReceiver(mockConsumer, ReceiverConfig{MaxMessages: 10}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan types.Message, 1)
	receiver.Start(ctx, out)

	_, ok := <-out
	assert.False(t, ok)
	mockConsumer.AssertNotCalled(t, "ReceiveMessages", mock.Anything, mock.Anything)
}

func TestReceiver_ShutdownWhileParserIsBehind(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	receiver := NewReceiver(mockConsumer, ReceiverConfig{MaxMessages: 10}, zap.NewNop())

	mockConsumer.On("QueueURL").Return(testQueueURL)
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.Anything).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{
			ingestionMessage("msg-1", `{"type":"GENERATE_DATA","requestId":"gen-1"}`),
			ingestionMessage("msg-2", `{"type":"GENERATE_DATA","requestId":"gen-2"}`),
			ingestionMessage("msg-3", `{"type":"GENERATE_DATA","requestId":"gen-3"}`),
		}}, nil).Once()
	idleUntilShutdown(mockConsumer)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan types.Message, 1)
	done := runReceiver(ctx, receiver, out)

	// Nobody reads: the receiver holds msg-2 until shutdown.
	require.Eventually(t, func() bool { return len(out) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("receiver blocked on a full output channel after shutdown")
	}

	msg, ok := <-out
	require.True(t, ok)
	assert.Equal(t, "msg-1", aws.ToString(msg.MessageId))
	_, ok = <-out
	assert.False(t, ok)
}

func TestReceiver_BackoffInterruptedByShutdown(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	receiver := NewReceiver(mockConsumer, ReceiverConfig{MaxMessages: 10, MinBackoff: time.Minute}, zap.NewNop())

	mockConsumer.On("QueueURL").Return(testQueueURL)
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := runReceiver(ctx, receiver, make(chan types.Message, 1))

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("receiver kept backing off after shutdown")
	}

	mockConsumer.AssertNumberOfCalls(t, "ReceiveMessages", 1)
}
