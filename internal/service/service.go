// Package service holds the order lifecycle, the notification listeners and
// the event subscription hub. Business rules are checked before the Seller
// is called, and every response is reconciled before it is persisted.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/config"
	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/pkg/metrics"
	"github.com/goinginblind/lso-gateway/internal/seller"
	"github.com/goinginblind/lso-gateway/internal/store"
	"github.com/google/uuid"
)

// ErrConfigurationMissing is returned when a payload template an operation
// depends on is not configured.
var ErrConfigurationMissing = config.ErrConfigurationMissing

// Repositories are the typed collections the services work on.
type Repositories struct {
	Orders        *store.Documents[domain.ProductOrder]
	Cancels       *store.Documents[domain.CancelProductOrder]
	DeliveryDates *store.Documents[domain.ModifyDeliveryDate]
	Charges       *store.Documents[domain.Charge]
	Subscriptions *store.Documents[domain.EventSubscription]
}

func NewRepositories(s store.Store) *Repositories {
	return &Repositories{
		Orders:        store.NewDocuments[domain.ProductOrder](s, store.ProductOrders),
		Cancels:       store.NewDocuments[domain.CancelProductOrder](s, store.CancelProductOrders),
		DeliveryDates: store.NewDocuments[domain.ModifyDeliveryDate](s, store.ModifyDeliveryDates),
		Charges:       store.NewDocuments[domain.Charge](s, store.Charges),
		Subscriptions: store.NewDocuments[domain.EventSubscription](s, store.EventSubscriptions),
	}
}

// Option tweaks the clock and id source, mostly for tests.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func buildOptions(opts []Option) options {
	o := options{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Party is the buyer/seller pair a request is made on behalf of.
type Party struct {
	BuyerID  string
	SellerID string
}

var (
	allowedBuyers  = map[string]struct{}{"ONS": {}, "ZOH": {}, "SLF": {}}
	allowedSellers = map[string]struct{}{"EQX": {}, "CYX": {}}
)

const sellerCyxtera = "CYX"

func (p Party) validate() error {
	if _, ok := allowedBuyers[p.BuyerID]; !ok {
		return apierror.Unprocessable(apierror.InvalidValue, "Invalid 'buyerId'", "buyerId").WithReason("Invalid value")
	}
	if _, ok := allowedSellers[p.SellerID]; !ok {
		return apierror.Unprocessable(apierror.InvalidValue, "Invalid 'sellerId'", "sellerId").WithReason("Invalid value")
	}
	return nil
}

// ownerMismatch names the first side of p that does not own the record.
// Empty sides of p match anything.
func (p Party) ownerMismatch(buyerID, sellerID string) string {
	if p.BuyerID != "" && p.BuyerID != buyerID {
		return "buyerId"
	}
	if p.SellerID != "" && p.SellerID != sellerID {
		return "sellerId"
	}
	return ""
}

// callSeller turns transport errors and non-2xx answers into errors.
func callSeller(l logger.Logger, op string, res *seller.Result, err error) error {
	if err != nil {
		l.Warnw("seller call failed", "operation", op, "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if f := res.Failure(); f != nil {
		l.Warnw("seller rejected request", "operation", op, "status", res.StatusCode, "message", f.Message)
		return f
	}
	return nil
}

// mismatch is the answer to a response that diverged from its request. The
// Seller side effect, if any, has already happened and is only logged.
func mismatch(l logger.Logger, aggregate, id string) error {
	metrics.ReconciliationFailures.WithLabelValues(aggregate).Inc()
	l.Errorw("response diverged from request", "aggregate", aggregate, "id", id)
	return apierror.Invalid("Request and response data are mismatching", aggregate)
}

// required wraps a template check so callers can match ErrConfigurationMissing.
func required(err error) error {
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}
	return nil
}

// invalidRequest turns a shape validation failure into the 400 envelope.
func invalidRequest(err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return apierror.BadRequest(apierror.InvalidBody, ve.Error()).WithPath(ve.PropertyPath)
	}
	return err
}
