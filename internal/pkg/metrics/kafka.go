package metrics

import (
	"strconv"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/prometheus/client_golang/prometheus"
)

// CreationTimestampHeader is set by producers to the unix milliseconds at
// which a message was produced.
const CreationTimestampHeader = "creation_timestamp_ms"

// ObserveKafkaMessageLatency reads the creation timestamp header and observes
// how long ago it was. Messages without the header are ignored. Meant to be
// deferred by the worker handling the message.
func ObserveKafkaMessageLatency(msg *kafka.Message, observer prometheus.Observer) {
	var created time.Time
	for _, header := range msg.Headers {
		if header.Key == CreationTimestampHeader {
			ms, err := strconv.ParseInt(string(header.Value), 10, 64)
			if err == nil {
				created = time.UnixMilli(ms)
			}
			break
		}
	}

	if !created.IsZero() {
		observer.Observe(time.Since(created).Seconds())
	}
}
