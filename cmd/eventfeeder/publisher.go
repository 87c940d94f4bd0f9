package main

import (
	"strconv"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/goinginblind/lso-gateway/internal/pkg/metrics"
)

// producer is the part of *kafka.Producer the publisher needs.
type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

// eventPublisher sends raw envelopes to the notification topic.
type eventPublisher struct {
	producer producer
	topic    string
	now      func() time.Time
}

func newEventPublisher(p producer, topic string) *eventPublisher {
	return &eventPublisher{
		producer: p,
		topic:    topic,
		now:      time.Now,
	}
}

// publish sends payload keyed by its entity id. The delivery report goes to
// the producer's event channel.
func (ep *eventPublisher) publish(payload []byte) error {
	timestamp := strconv.FormatInt(ep.now().UnixMilli(), 10)
	return ep.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &ep.topic, Partition: kafka.PartitionAny},
		Key:            partitionKey(payload),
		Value:          payload,
		Headers: []kafka.Header{
			{Key: metrics.CreationTimestampHeader, Value: []byte(timestamp)},
		},
	}, nil)
}
