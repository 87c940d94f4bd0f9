package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/goinginblind/lso-gateway/internal/config"
	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/goinginblind/lso-gateway/internal/fieldmap"
	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/seller"
)

// Lifecycle runs the buyer facing operations over orders, cancellations,
// delivery date changes, charges and the move and attachment passthroughs.
type Lifecycle struct {
	repos     *Repositories
	seller    seller.Gateway
	mapper    *fieldmap.Mapper
	templates *config.Templates
	logger    logger.Logger
	opts      options
}

func NewLifecycle(
	repos *Repositories,
	gw seller.Gateway,
	mapper *fieldmap.Mapper,
	templates *config.Templates,
	logger logger.Logger,
	opts ...Option,
) *Lifecycle {
	return &Lifecycle{
		repos:     repos,
		seller:    gw,
		mapper:    mapper,
		templates: templates,
		logger:    logger,
		opts:      buildOptions(opts),
	}
}

func (l *Lifecycle) now() time.Time {
	return l.opts.now()
}

// transactionID extracts the Seller transaction id from an accepted answer.
func (l *Lifecycle) transactionID(res *seller.Result) (string, error) {
	id, merr := l.mapper.TransactionID(res.Body)
	if merr != nil {
		return "", merr.APIError()
	}
	return id, nil
}

// deepCopy clones v through its JSON form, which is also how it is stored.
func deepCopy[T any](v *T) (*T, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("copying %T: %w", v, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("copying %T: %w", v, err)
	}
	return &out, nil
}

// findOrderByItem returns the most recent order of the party holding an
// item with the given id, or nil.
func (l *Lifecycle) findOrderByItem(ctx context.Context, p Party, itemID string) (*domain.ProductOrder, error) {
	orders, err := l.repos.Orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	var found *domain.ProductOrder
	for _, o := range orders {
		if p.ownerMismatch(o.BuyerID, o.SellerID) != "" {
			continue
		}
		if item, _ := o.FindItem(itemID); item == nil {
			continue
		}
		if found == nil || orderedAfter(o, found) {
			found = o
		}
	}
	return found, nil
}

func orderedAfter(a, b *domain.ProductOrder) bool {
	if a.OrderDate == nil || b.OrderDate == nil {
		return a.OrderDate != nil
	}
	return a.OrderDate.After(*b.OrderDate)
}
