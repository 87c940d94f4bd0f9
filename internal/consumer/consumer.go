// Package consumer feeds Seller notifications published on Kafka through
// the same listeners the HTTP API exposes.
package consumer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/goinginblind/lso-gateway/internal/config"
	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
)

// Dispatcher applies one notification envelope.
type Dispatcher interface {
	Handle(ctx context.Context, ev *domain.Event) error
}

// Committer is the part of the kafka consumer the workers use.
type Committer interface {
	CommitMessage(msg *kafka.Message) ([]kafka.TopicPartition, error)
}

// DLQPublisher is the part of the DLQ producer the workers use.
type DLQPublisher interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

// DLQManager is the full DLQ producer as owned by the consumer.
type DLQManager interface {
	DLQPublisher
	Events() chan kafka.Event
	Flush(timeoutMs int) int
	Close()
}

// UnhealthyMarker lets a worker report a store outage it ran into.
type UnhealthyMarker interface {
	MarkUnhealthy()
}

// HealthChecker is the store health as seen by the poll loop.
type HealthChecker interface {
	UnhealthyMarker
	IsHealthy() bool
}

// KafkaConsumer consumes notification envelopes and hands them to a pool
// of workers.
type KafkaConsumer struct {
	consumer      *kafka.Consumer
	dlq           DLQManager
	dispatcher    Dispatcher
	logger        logger.Logger
	healthChecker HealthChecker
	topic         string
	dlqTopic      string
	cfg           config.ConsumerConfig
}

// NewKafkaConsumer creates the consumer and its DLQ producer and subscribes
// to the notification topic. Offsets are committed by the workers only.
func NewKafkaConsumer(
	kcfg config.KafkaConfig,
	ccfg config.ConsumerConfig,
	dispatcher Dispatcher,
	hc HealthChecker,
	logger logger.Logger,
) (*KafkaConsumer, error) {
	brokers := strings.Join(kcfg.Brokers, ",")
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"group.id":           kcfg.GroupID,
		"auto.offset.reset":  kcfg.AutoOffsetReset,
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create DLQ producer: %w", err)
	}

	if err := c.Subscribe(kcfg.Topic, nil); err != nil {
		p.Close()
		c.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", kcfg.Topic, err)
	}

	return &KafkaConsumer{
		consumer:      c,
		dlq:           p,
		dispatcher:    dispatcher,
		logger:        logger,
		healthChecker: hc,
		topic:         kcfg.Topic,
		dlqTopic:      kcfg.DLQTopic,
		cfg:           ccfg,
	}, nil
}

// Run starts the workers and polls until ctx is done. Partitions are
// paused while the store is down so nothing is consumed that could not be
// applied.
func (kc *KafkaConsumer) Run(ctx context.Context) {
	jobs := make(chan *kafka.Message, kc.cfg.JobsBuffer)
	deps := workerDependencies{
		dispatcher:    kc.dispatcher,
		logger:        kc.logger,
		consumer:      kc.consumer,
		ctx:           ctx,
		healthChecker: kc.healthChecker,
		dlqTopic:      kc.dlqTopic,
		dlqPublisher:  kc.dlq,
	}

	var wg sync.WaitGroup
	for i := 1; i <= kc.cfg.Workers; i++ {
		w := &worker{
			id:           i,
			deps:         deps,
			jobs:         jobs,
			maxRetries:   kc.cfg.MaxRetries,
			retryBackoff: kc.cfg.RetryBackoff,
		}
		wg.Add(1)
		go w.run(&wg)
	}

	go drainDLQReports(ctx, kc.dlq, kc.logger)
	go kc.monitorConsumerLag(ctx)

	kc.logger.Infow("Consumer started", "topic", kc.topic, "workers", kc.cfg.Workers)
	kc.poll(ctx, jobs)

	close(jobs)
	wg.Wait()
	kc.close()
}

func (kc *KafkaConsumer) poll(ctx context.Context, jobs chan<- *kafka.Message) {
	paused := false
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		healthy := kc.healthChecker.IsHealthy()
		switch {
		case !healthy && !paused:
			paused = kc.setPaused(true)
		case healthy && paused:
			paused = !kc.setPaused(false)
		}

		switch e := kc.consumer.Poll(100).(type) {
		case *kafka.Message:
			select {
			case jobs <- e:
			case <-ctx.Done():
				return
			}
		case kafka.Error:
			kc.logger.Errorw("Kafka error", "error", e, "code", e.Code())
			if e.IsFatal() {
				return
			}
		}
	}
}

// setPaused pauses or resumes every assigned partition and reports whether
// that took effect.
func (kc *KafkaConsumer) setPaused(pause bool) bool {
	parts, err := kc.consumer.Assignment()
	if err != nil {
		kc.logger.Errorw("Failed to read partition assignment", "error", err)
		return false
	}
	if pause {
		err = kc.consumer.Pause(parts)
	} else {
		err = kc.consumer.Resume(parts)
	}
	if err != nil {
		kc.logger.Errorw("Failed to change partition state", "pause", pause, "error", err)
		return false
	}
	kc.logger.Warnw("Consumption state changed", "paused", pause, "partitions", len(parts))
	return true
}

func (kc *KafkaConsumer) close() {
	kc.logger.Infow("Shutting down consumer...")
	if left := kc.dlq.Flush(int((5 * time.Second).Milliseconds())); left > 0 {
		kc.logger.Warnw("DLQ messages left unflushed", "count", left)
	}
	kc.dlq.Close()
	if err := kc.consumer.Close(); err != nil {
		kc.logger.Errorw("Failed to close consumer", "error", err)
	}
}
