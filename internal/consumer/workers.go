package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/pkg/metrics"
	"github.com/goinginblind/lso-gateway/internal/store"
)

// a worker, well, does work
type worker struct {
	id           int
	deps         workerDependencies
	jobs         <-chan *kafka.Message
	maxRetries   int
	retryBackoff time.Duration
}

// workerDependencies contain all dependencies passed down to
// workers from the kafka consumer. They are shared between all the workers.
type workerDependencies struct {
	dispatcher    Dispatcher
	logger        logger.Logger
	consumer      Committer
	ctx           context.Context
	healthChecker UnhealthyMarker
	dlqTopic      string
	dlqPublisher  DLQPublisher
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-w.deps.ctx.Done():
			w.deps.logger.Infow("Worker shutting down", "worker_id", w.id)
			return
		case msg, ok := <-w.jobs:
			if !ok {
				return
			}
			w.processMessage(msg)
		}
	}
}

// processMessage applies one notification envelope:
//   - malformed envelopes go to the DLQ and are committed
//   - store outages are retried, then the store is marked unhealthy and
//     the message is left uncommitted for redelivery
//   - stale notifications (408) are committed as duplicates
//   - rejected notifications go to the DLQ and are committed
func (w *worker) processMessage(msg *kafka.Message) {
	defer metrics.ObserveKafkaMessageLatency(msg, metrics.MessageLatency)

	var ev domain.Event
	dec := json.NewDecoder(bytes.NewReader(msg.Value))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		metrics.MessagesProcessedTotal.WithLabelValues("invalid").Inc()
		w.deps.logger.Errorw("Failed to unmarshal notification", "error", err, "key", string(msg.Key))
		w.sendToDLQ(msg, err)
		w.commit(msg)
		return
	}

	attempts := max(w.maxRetries, 1)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = w.deps.dispatcher.Handle(w.deps.ctx, &ev)
		if !errors.Is(err, store.ErrConnectionFailed) {
			break
		}
		metrics.StoreTransientErrors.Inc()
		if attempt < attempts {
			w.deps.logger.Warnw("Transient store error, will retry.",
				"event_id", ev.EventID,
				"attempt", attempt,
				"retry_in", w.retryBackoff,
				"error", err,
			)
			time.Sleep(w.retryBackoff)
		}
	}

	var apiErr *apierror.Error
	switch {
	case err == nil:
		metrics.MessagesProcessedTotal.WithLabelValues("applied").Inc()
		w.deps.logger.Infow("notification applied",
			"worker_id", w.id,
			"event_id", ev.EventID,
			"event_type", ev.EventType,
		)

	case errors.Is(err, store.ErrConnectionFailed):
		metrics.MessagesProcessedTotal.WithLabelValues("error").Inc()
		w.deps.logger.Errorw("Store unreachable, leaving notification uncommitted.",
			"event_id", ev.EventID,
			"attempts", attempts,
			"error", err,
		)
		w.deps.healthChecker.MarkUnhealthy()
		return

	case errors.As(err, &apiErr) && apiErr.Status == http.StatusRequestTimeout:
		metrics.MessagesProcessedTotal.WithLabelValues("duplicate").Inc()
		w.deps.logger.Infow("Stale notification, skipping",
			"event_id", ev.EventID,
			"event_type", ev.EventType,
		)

	case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
		metrics.MessagesProcessedTotal.WithLabelValues("invalid").Inc()
		w.deps.logger.Warnw("Notification rejected",
			"event_id", ev.EventID,
			"event_type", ev.EventType,
			"error", err,
		)
		w.sendToDLQ(msg, err)

	default:
		metrics.MessagesProcessedTotal.WithLabelValues("error").Inc()
		w.deps.logger.Errorw("Failed to apply notification with an unhandled error",
			"event_id", ev.EventID,
			"error", err,
		)
		w.sendToDLQ(msg, err)
	}

	w.commit(msg)
}

func (w *worker) commit(msg *kafka.Message) {
	if msg == nil {
		return
	}

	_, err := w.deps.consumer.CommitMessage(msg)
	if err != nil {
		w.deps.logger.Errorw("Failed to commit message", "error", err)
	}
}
