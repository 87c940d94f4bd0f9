package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/pkg/metrics"
)

// Pinger wraps the Ping method every store backend has.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreHealthChecker monitors the reachability of the document store.
type StoreHealthChecker struct {
	pinger        Pinger
	logger        logger.Logger
	isHealthy     atomic.Bool
	checkInterval time.Duration
	checkTimeout  time.Duration
}

// NewStoreHealthChecker creates a new StoreHealthChecker. It does not start the monitoring.
func NewStoreHealthChecker(pinger Pinger, logger logger.Logger, checkInterval, checkTimeout time.Duration) *StoreHealthChecker {
	return &StoreHealthChecker{
		pinger:        pinger,
		logger:        logger,
		checkInterval: checkInterval,
		checkTimeout:  checkTimeout,
	}
}

// Start begins the continuous health monitoring in a background goroutine.
// It performs an initial check synchronously to set the initial state.
func (hc *StoreHealthChecker) Start(ctx context.Context) {
	hc.logger.Infow("Starting store health checker...")
	hc.checkHealth(ctx)

	go func() {
		ticker := time.NewTicker(hc.checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hc.checkHealth(ctx)
			case <-ctx.Done():
				hc.logger.Infow("Stopping store health checker.")
				return
			}
		}
	}()
}

// IsHealthy returns the current health status of the store.
func (hc *StoreHealthChecker) IsHealthy() bool {
	return hc.isHealthy.Load()
}

// MarkUnhealthy allows an external component (like a worker) to
// flag the store as unhealthy without waiting for the next scheduled check.
func (hc *StoreHealthChecker) MarkUnhealthy() {
	if hc.isHealthy.CompareAndSwap(true, false) {
		metrics.StoreUp.Set(0)
		hc.logger.Warnw("Store proactively marked as unhealthy by a worker.")
	}
}

// checkHealth performs a single health check.
func (hc *StoreHealthChecker) checkHealth(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, hc.checkTimeout)
	defer cancel()

	err := hc.pinger.Ping(pingCtx)
	wasHealthy := hc.isHealthy.Load()

	if err != nil {
		metrics.StoreUp.Set(0)
		if wasHealthy {
			hc.logger.Errorw("Store connection lost", "error", err)
			hc.isHealthy.Store(false)
		}
		return
	}

	metrics.StoreUp.Set(1)
	if !wasHealthy {
		hc.logger.Infow("Store connection restored")
		hc.isHealthy.Store(true)
	}
}
