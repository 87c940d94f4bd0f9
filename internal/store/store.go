package store

import (
	"context"
	"time"

	"github.com/goinginblind/lso-gateway/internal/pkg/metrics"
)

// Collection names one kind of aggregate. Each collection is a map from
// aggregate id to its JSON document.
type Collection string

const (
	ProductOrders       Collection = "productOrder"
	CancelProductOrders Collection = "cancelProductOrder"
	ModifyDeliveryDates Collection = "modifyDeliveryDate"
	Charges             Collection = "charge"
	EventSubscriptions  Collection = "eventSubscription"
)

// UpdateFunc receives the current document and returns its replacement.
// Returning an error aborts the update and leaves the document untouched.
type UpdateFunc func(doc []byte) ([]byte, error)

// Store is the document persistence capability every backend implements.
// Put is last-writer-wins, Update is an atomic read-modify-write of a
// single document.
type Store interface {
	Get(ctx context.Context, c Collection, key string) ([]byte, error)
	Put(ctx context.Context, c Collection, key string, doc []byte) error
	PutField(ctx context.Context, c Collection, key string, path []string, value any) error
	Update(ctx context.Context, c Collection, key string, fn UpdateFunc) error
	List(ctx context.Context, c Collection) ([][]byte, error)
	Ping(ctx context.Context) error
}

// observe records the duration of a backend call, use as
// defer observe("memory", "get", time.Now()).
func observe(backend, operation string, start time.Time) {
	metrics.StoreResponseTime.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}
