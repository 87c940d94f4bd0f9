package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDispatcher simulates the notification listeners.
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Handle(ctx context.Context, ev *domain.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type MockCommitter struct {
	mock.Mock
}

func (m *MockCommitter) CommitMessage(msg *kafka.Message) ([]kafka.TopicPartition, error) {
	args := m.Called(msg)
	return nil, args.Error(0)
}

type MockDLQProducer struct {
	mock.Mock
}

func (m *MockDLQProducer) Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	args := m.Called(msg, deliveryChan)
	return args.Error(0)
}

type MockUnhealthyMarker struct {
	mock.Mock
}

func (m *MockUnhealthyMarker) MarkUnhealthy() {
	m.Called()
}

func TestWorker_ProcessMessage(t *testing.T) {
	// standard valid envelope and Kafka message to reuse
	ev := domain.Event{
		EventID:   "E1",
		EventTime: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
		EventType: domain.ProductOrderStateChangeEvent,
		Event:     domain.EventPayload{ID: "T1"},
	}
	evJSON, _ := json.Marshal(ev)
	kafkaMsg := &kafka.Message{Value: evJSON, Key: []byte("T1")}
	sameEvent := mock.MatchedBy(func(got *domain.Event) bool {
		return got.EventID == ev.EventID && got.Event.ID == ev.Event.ID
	})

	testCases := []struct {
		name            string
		message         *kafka.Message
		setupMocks      func(*MockDispatcher, *MockCommitter, *MockDLQProducer, *MockUnhealthyMarker)
		expectCommit    bool
		expectDLQ       bool
		expectUnhealthy bool
	}{
		{
			name:    "Success - Applied",
			message: kafkaMsg,
			setupMocks: func(d *MockDispatcher, c *MockCommitter, p *MockDLQProducer, h *MockUnhealthyMarker) {
				d.On("Handle", mock.Anything, sameEvent).Return(nil).Once()
				c.On("CommitMessage", kafkaMsg).Return(nil).Once()
			},
			expectCommit: true,
		},
		{
			name:    "Failure - Invalid JSON (sent to DLQ)",
			message: &kafka.Message{Value: []byte("not-json")},
			setupMocks: func(d *MockDispatcher, c *MockCommitter, p *MockDLQProducer, h *MockUnhealthyMarker) {
				p.On("Produce", mock.Anything, mock.Anything).Return(nil).Once()
				c.On("CommitMessage", mock.Anything).Return(nil).Once()
			},
			expectCommit: true,
			expectDLQ:    true,
		},
		{
			name:    "Failure - Unknown field (sent to DLQ)",
			message: &kafka.Message{Value: []byte(`{"eventId":"E1","eventType":"productOrderStateChangeEvent","extra":1}`)},
			setupMocks: func(d *MockDispatcher, c *MockCommitter, p *MockDLQProducer, h *MockUnhealthyMarker) {
				p.On("Produce", mock.Anything, mock.Anything).Return(nil).Once()
				c.On("CommitMessage", mock.Anything).Return(nil).Once()
			},
			expectCommit: true,
			expectDLQ:    true,
		},
		{
			name:    "Stale notification - committed as duplicate",
			message: kafkaMsg,
			setupMocks: func(d *MockDispatcher, c *MockCommitter, p *MockDLQProducer, h *MockUnhealthyMarker) {
				d.On("Handle", mock.Anything, sameEvent).Return(apierror.TimeOut("stale")).Once()
				c.On("CommitMessage", kafkaMsg).Return(nil).Once()
			},
			expectCommit: true,
		},
		{
			name:    "Failure - Rejected notification (sent to DLQ)",
			message: kafkaMsg,
			setupMocks: func(d *MockDispatcher, c *MockCommitter, p *MockDLQProducer, h *MockUnhealthyMarker) {
				d.On("Handle", mock.Anything, sameEvent).Return(apierror.Invalid("Invalid 'id'", "event.id")).Once()
				p.On("Produce", mock.Anything, mock.Anything).Return(nil).Once()
				c.On("CommitMessage", kafkaMsg).Return(nil).Once()
			},
			expectCommit: true,
			expectDLQ:    true,
		},
		{
			name:    "Failure - Unhandled error (sent to DLQ)",
			message: kafkaMsg,
			setupMocks: func(d *MockDispatcher, c *MockCommitter, p *MockDLQProducer, h *MockUnhealthyMarker) {
				d.On("Handle", mock.Anything, sameEvent).Return(errors.New("boom")).Once()
				p.On("Produce", mock.Anything, mock.Anything).Return(nil).Once()
				c.On("CommitMessage", kafkaMsg).Return(nil).Once()
			},
			expectCommit: true,
			expectDLQ:    true,
		},
		{
			name:    "Success - Transient store error with recovery",
			message: kafkaMsg,
			setupMocks: func(d *MockDispatcher, c *MockCommitter, p *MockDLQProducer, h *MockUnhealthyMarker) {
				d.On("Handle", mock.Anything, sameEvent).Return(store.ErrConnectionFailed).Once()
				d.On("Handle", mock.Anything, sameEvent).Return(nil).Once()
				c.On("CommitMessage", kafkaMsg).Return(nil).Once()
			},
			expectCommit: true,
		},
		{
			name:    "Failure - Permanent store error",
			message: kafkaMsg,
			setupMocks: func(d *MockDispatcher, c *MockCommitter, p *MockDLQProducer, h *MockUnhealthyMarker) {
				d.On("Handle", mock.Anything, sameEvent).Return(store.ErrConnectionFailed).Times(3)
				h.On("MarkUnhealthy").Return().Once()
			},
			expectCommit:    false, // left uncommitted so Kafka can redeliver
			expectUnhealthy: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockDispatcher := new(MockDispatcher)
			mockCommitter := new(MockCommitter)
			mockDLQProducer := new(MockDLQProducer)
			mockHealthChecker := new(MockUnhealthyMarker)

			tc.setupMocks(mockDispatcher, mockCommitter, mockDLQProducer, mockHealthChecker)

			w := &worker{
				id: 1,
				deps: workerDependencies{
					dispatcher:    mockDispatcher,
					logger:        logger.NewMockLogger(),
					consumer:      mockCommitter,
					ctx:           context.Background(),
					healthChecker: mockHealthChecker,
					dlqTopic:      "test-dlq",
					dlqPublisher:  mockDLQProducer,
				},
				maxRetries:   3,
				retryBackoff: time.Millisecond,
			}
			w.processMessage(tc.message)

			mockDispatcher.AssertExpectations(t)
			mockHealthChecker.AssertExpectations(t)

			if tc.expectCommit {
				mockCommitter.AssertCalled(t, "CommitMessage", mock.Anything)
			} else {
				mockCommitter.AssertNotCalled(t, "CommitMessage", mock.Anything)
			}

			if tc.expectDLQ {
				mockDLQProducer.AssertCalled(t, "Produce", mock.Anything, mock.Anything)
			} else {
				mockDLQProducer.AssertNotCalled(t, "Produce", mock.Anything, mock.Anything)
			}

			if tc.expectUnhealthy {
				mockHealthChecker.AssertCalled(t, "MarkUnhealthy")
			} else {
				mockHealthChecker.AssertNotCalled(t, "MarkUnhealthy")
			}
		})
	}
}

func TestWorker_SendToDLQ(t *testing.T) {
	producer := new(MockDLQProducer)
	var sent *kafka.Message
	producer.On("Produce", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).(*kafka.Message)
	}).Return(nil).Once()

	w := &worker{deps: workerDependencies{
		logger:       logger.NewMockLogger(),
		dlqTopic:     "notifications-dlq",
		dlqPublisher: producer,
	}}
	orig := &kafka.Message{
		Key:     []byte("T1"),
		Value:   []byte(`{}`),
		Headers: []kafka.Header{{Key: "creation_timestamp_ms", Value: []byte("1")}},
	}

	w.sendToDLQ(orig, errors.New("422 invalidValue: Invalid 'id'"))

	require.NotNil(t, sent)
	assert.Equal(t, "notifications-dlq", *sent.TopicPartition.Topic)
	assert.Equal(t, orig.Value, sent.Value)
	require.Len(t, sent.Headers, 2)
	assert.Equal(t, DLQReasonHeader, sent.Headers[1].Key)
	assert.Equal(t, "422 invalidValue: Invalid 'id'", string(sent.Headers[1].Value))
	assert.Len(t, orig.Headers, 1, "the consumed message is left untouched")
}
