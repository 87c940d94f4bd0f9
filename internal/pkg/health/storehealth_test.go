package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPinger struct {
	mock.Mock
}

var _ Pinger = (*MockPinger)(nil)

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestStoreHealthChecker_checkHealth(t *testing.T) {
	pinger := new(MockPinger)
	hc := NewStoreHealthChecker(pinger, logger.NewMockLogger(), time.Minute, time.Second)

	pinger.On("Ping", mock.Anything).Return(nil).Once()
	hc.checkHealth(context.Background())
	assert.True(t, hc.IsHealthy())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreUp))

	pinger.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()
	hc.checkHealth(context.Background())
	assert.False(t, hc.IsHealthy())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.StoreUp))

	pinger.On("Ping", mock.Anything).Return(nil).Once()
	hc.checkHealth(context.Background())
	assert.True(t, hc.IsHealthy(), "recovers on the next good ping")

	pinger.AssertExpectations(t)
}

func TestStoreHealthChecker_MarkUnhealthy(t *testing.T) {
	pinger := new(MockPinger)
	pinger.On("Ping", mock.Anything).Return(nil)
	hc := NewStoreHealthChecker(pinger, logger.NewMockLogger(), time.Minute, time.Second)

	hc.checkHealth(context.Background())
	hc.MarkUnhealthy()
	assert.False(t, hc.IsHealthy())

	hc.MarkUnhealthy()
	assert.False(t, hc.IsHealthy(), "marking twice is a no-op")
}

func TestStoreHealthChecker_Start(t *testing.T) {
	pinger := new(MockPinger)
	pinger.On("Ping", mock.Anything).Return(nil)
	hc := NewStoreHealthChecker(pinger, logger.NewMockLogger(), 5*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hc.Start(ctx)

	assert.True(t, hc.IsHealthy(), "first check runs synchronously")
	assert.Eventually(t, func() bool {
		return len(pinger.Calls) >= 3
	}, time.Second, 5*time.Millisecond)
}
