package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"golang.org/x/time/rate"
)

const flushTimeoutMs = 15 * 1000

func main() {
	var (
		envelopeFile  = flag.String("file", "events.json", "Path to the JSON array of notification envelopes.")
		rps           = flag.Float64("rps", 1, "Messages per second.")
		invalidJSON   = flag.Int("invalid-json", 0, "Number of syntactically incorrect JSON messages to send.")
		gibberish     = flag.Int("gibberish", 0, "Number of non-JSON, gibberish messages to send.")
		kafkaTopic    = flag.String("topic", getEnv("KAFKA_TOPIC", "lso-notifications"), "Kafka topic to produce to.")
		kafkaBrokers  = flag.String("brokers", getEnv("KAFKA_BROKERS", "localhost:9092"), "Kafka bootstrap servers.")
		kafkaClientID = flag.String("client-id", getEnv("KAFKA_CLIENT_ID", "lso-eventfeeder"), "Kafka client ID.")
		logLevel      = flag.String("log-level", getEnv("LOG_LEVEL", "info"), "Log level.")
	)
	flag.Parse()

	feedLogger, err := logger.New(*logLevel, true)
	if err != nil {
		log.Fatalf("Failed to create a logger: %v", err)
	}
	defer feedLogger.Sync()

	if *rps <= 0 {
		feedLogger.Fatalw("rps must be positive", "rps", *rps)
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  *kafkaBrokers,
		"client.id":          *kafkaClientID,
		"acks":               "all",
		"enable.idempotence": true,

		"linger.ms":        5,
		"batch.size":       65536,
		"compression.type": "lz4",

		"retries":          5,
		"retry.backoff.ms": 100,
	})
	if err != nil {
		feedLogger.Fatalw("Failed to create producer", "error", err)
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var deliveryWg sync.WaitGroup
	go func() {
		for e := range p.Events() {
			ev, ok := e.(*kafka.Message)
			if !ok {
				continue
			}
			if ev.TopicPartition.Error != nil {
				feedLogger.Errorw("Failed to deliver message", "error", ev.TopicPartition.Error, "key", string(ev.Key))
			} else {
				feedLogger.Infow("Message delivered",
					"topic", *ev.TopicPartition.Topic,
					"partition", ev.TopicPartition.Partition,
					"key", string(ev.Key),
				)
			}
			deliveryWg.Done()
		}
	}()

	f := &feeder{
		publisher: newEventPublisher(p, *kafkaTopic),
		limiter:   rate.NewLimiter(rate.Limit(*rps), 1),
		logger:    feedLogger,
		inFlight:  &deliveryWg,
	}

	for i := 0; i < *gibberish; i++ {
		payload := make([]byte, 32)
		rand.Read(payload)
		if !f.send(ctx, payload, "gibberish") {
			break
		}
	}

	for i := 0; i < *invalidJSON; i++ {
		payload := fmt.Appendf(nil, `{"eventId": "invalid-%d", "event": {`, i)
		if !f.send(ctx, payload, "invalid json") {
			break
		}
	}

	envelopes, errs := streamEnvelopes(*envelopeFile)
	for payload := range envelopes {
		if !f.send(ctx, payload, "envelope") {
			break
		}
	}
	if err := <-errs; err != nil {
		feedLogger.Errorw("Envelope stream stopped early", "file", *envelopeFile, "error", err)
	}

	deliveryWg.Wait()
	if left := p.Flush(flushTimeoutMs); left > 0 {
		feedLogger.Warnw("Messages were not delivered before exit", "count", left)
	}
	feedLogger.Infow("Feeder done", "sent", f.sent)
}

// feeder paces messages onto the topic.
type feeder struct {
	publisher *eventPublisher
	limiter   *rate.Limiter
	logger    logger.Logger
	inFlight  *sync.WaitGroup
	sent      int
}

// send waits for the next slot and publishes payload. It reports false once
// the context is cancelled.
func (f *feeder) send(ctx context.Context, payload []byte, kind string) bool {
	if err := f.limiter.Wait(ctx); err != nil {
		f.logger.Infow("Stopping feed", "reason", err)
		return false
	}
	f.inFlight.Add(1)
	if err := f.publisher.publish(payload); err != nil {
		f.logger.Errorw("Failed to produce message", "kind", kind, "error", err)
		f.inFlight.Done()
		return true
	}
	f.sent++
	return true
}
