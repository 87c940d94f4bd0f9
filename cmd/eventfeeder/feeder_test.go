package main

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/goinginblind/lso-gateway/internal/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	args := m.Called(msg, deliveryChan)
	return args.Error(0)
}

func collect(t *testing.T, path string) ([]string, error) {
	t.Helper()
	out, errs := streamEnvelopes(path)
	var got []string
	for raw := range out {
		got = append(got, string(raw))
	}
	return got, <-errs
}

func TestStreamEnvelopes(t *testing.T) {
	dir := t.TempDir()

	t.Run("array of objects", func(t *testing.T) {
		path := filepath.Join(dir, "ok.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"eventId":"E1"}, {"eventId":"E2"}]`), 0o600))

		got, err := collect(t, path)
		require.NoError(t, err)
		assert.Equal(t, []string{`{"eventId":"E1"}`, `{"eventId":"E2"}`}, got)
	})

	t.Run("truncated file", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"eventId":"E1"}, {"eventId":`), 0o600))

		got, err := collect(t, path)
		assert.Error(t, err)
		assert.Equal(t, []string{`{"eventId":"E1"}`}, got)
	})

	t.Run("missing file", func(t *testing.T) {
		got, err := collect(t, filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
		assert.Empty(t, got)
	})
}

func TestPartitionKey(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []byte
	}{
		{"entity id", `{"eventId":"E1","event":{"id":"PO-1"}}`, []byte("PO-1")},
		{"no entity", `{"eventId":"E1"}`, nil},
		{"not json", `\x00\x01`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, partitionKey([]byte(tt.payload)))
		})
	}
}

func TestEventPublisher_Publish(t *testing.T) {
	p := new(MockProducer)
	var sent *kafka.Message
	p.On("Produce", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).(*kafka.Message)
	}).Return(nil).Once()

	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	ep := newEventPublisher(p, "lso-notifications")
	ep.now = func() time.Time { return at }

	payload := []byte(`{"eventId":"E1","event":{"id":"PO-1"}}`)
	require.NoError(t, ep.publish(payload))

	p.AssertExpectations(t)
	require.NotNil(t, sent)
	assert.Equal(t, "lso-notifications", *sent.TopicPartition.Topic)
	assert.Equal(t, []byte("PO-1"), sent.Key)
	assert.Equal(t, payload, sent.Value)
	require.Len(t, sent.Headers, 1)
	assert.Equal(t, metrics.CreationTimestampHeader, sent.Headers[0].Key)
	assert.Equal(t, strconv.FormatInt(at.UnixMilli(), 10), string(sent.Headers[0].Value))
}
