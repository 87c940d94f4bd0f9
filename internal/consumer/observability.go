package consumer

import (
	"context"
	"strconv"
	"time"

	"github.com/goinginblind/lso-gateway/internal/pkg/metrics"
)

const (
	lagInterval       = 5 * time.Second
	lagQueryTimeoutMs = 5000
)

// monitorConsumerLag exports how far behind the high watermark each
// assigned partition is. Partitions with no committed offset count from
// the low watermark.
func (kc *KafkaConsumer) monitorConsumerLag(ctx context.Context) {
	ticker := time.NewTicker(lagInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			assignedPartitions, err := kc.consumer.Assignment()
			if err != nil {
				kc.logger.Errorw("Failed to get assigned partitions for lag monitoring", "error", err)
				continue
			}

			if len(assignedPartitions) == 0 {
				continue
			}

			committedPartitions, err := kc.consumer.Committed(assignedPartitions, lagQueryTimeoutMs)
			if err != nil {
				kc.logger.Errorw("Failed to get committed offsets for lag monitoring", "error", err)
				continue
			}

			for _, p := range committedPartitions {
				low, high, err := kc.consumer.QueryWatermarkOffsets(*p.Topic, p.Partition, lagQueryTimeoutMs)
				if err != nil {
					kc.logger.Errorw("Failed to query watermark offsets", "error", err, "topic", *p.Topic, "partition", p.Partition)
					continue
				}

				var lag int64
				if p.Offset < 0 {
					lag = high - low
				} else {
					lag = high - int64(p.Offset)
				}

				if lag < 0 {
					lag = 0
				}

				metrics.ConsumerLag.WithLabelValues(*p.Topic, strconv.Itoa(int(p.Partition))).Set(float64(lag))
			}
		}
	}
}
