package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/goinginblind/lso-gateway/internal/domain"
	"gopkg.in/yaml.v3"
)

// ErrConfigurationMissing is returned when a payload template the current
// operation depends on has not been configured.
var ErrConfigurationMissing = errors.New("configuration missing")

// Templates are the Seller defined values merged into every response the
// gateway builds. They are loaded once and handed to the services.
type Templates struct {
	ProductOrder       ProductOrderTemplate       `yaml:"productorder_payloads"`
	CancelOrder        CancelOrderTemplate        `yaml:"cancel_order_payload"`
	ModifyDeliveryDate ModifyDeliveryDateTemplate `yaml:"modify_order_payload"`
}

type ProductOrderTemplate struct {
	State              string `yaml:"state"`
	ItemState          string `yaml:"item_state"`
	Href               string `yaml:"href"`
	CancellationReason string `yaml:"cancellationReason"`
}

type ContactTemplate struct {
	Name         string `yaml:"name"`
	Number       string `yaml:"number"`
	EmailAddress string `yaml:"emailAddress"`
	Organization string `yaml:"organization"`
	Role         string `yaml:"role"`
}

type ChargeRefTemplate struct {
	ID   string `yaml:"id"`
	Href string `yaml:"href"`
}

type CancelOrderTemplate struct {
	State                     string              `yaml:"state"`
	Href                      string              `yaml:"href"`
	CancellationDeniedReason  string              `yaml:"cancellationDeniedReason"`
	Charge                    []ChargeRefTemplate `yaml:"charge"`
	RelatedContactInformation []ContactTemplate   `yaml:"relatedContactInformation"`
}

type ModifyDeliveryDateTemplate struct {
	Href           string `yaml:"href"`
	State          string `yaml:"state"`
	OrderState     string `yaml:"order_state"`
	OrderItemState string `yaml:"order_item_state"`
}

// DefaultTemplates is used when no template file is configured.
func DefaultTemplates() *Templates {
	return &Templates{
		ProductOrder: ProductOrderTemplate{
			State:              string(domain.OrderAcknowledged),
			ItemState:          string(domain.ItemAcknowledged),
			Href:               "/v1/MEF/lsoSonata/productOrder",
			CancellationReason: "Cancelled at the request of the Buyer",
		},
		CancelOrder: CancelOrderTemplate{
			State: string(domain.CancelAcknowledged),
			Href:  "/v1/MEF/lsoSonata/cancelProductOrder",
			RelatedContactInformation: []ContactTemplate{
				{Name: "Seller Order Desk", Number: "+1-555-0100", EmailAddress: "orders@seller.example", Role: "sellerContactInformation"},
			},
		},
		ModifyDeliveryDate: ModifyDeliveryDateTemplate{
			Href:           "/v1/MEF/lsoSonata/modifyProductOrderItemRequestedDeliveryDate",
			State:          string(domain.TaskAcknowledged),
			OrderState:     string(domain.OrderPendingAssessingModification),
			OrderItemState: string(domain.ItemPendingAssessingModification),
		},
	}
}

// LoadTemplates decodes the template file at path. An empty path or a
// missing file yields the defaults.
func LoadTemplates(path string) (*Templates, error) {
	if path == "" {
		return DefaultTemplates(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultTemplates(), nil
		}
		return nil, fmt.Errorf("reading templates %s: %w", path, err)
	}

	var t Templates
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decoding templates %s: %w", path, err)
	}
	return &t, nil
}

func missing(key string) error {
	return fmt.Errorf("%w: %s", ErrConfigurationMissing, key)
}

// RequireProductOrder checks the keys order creation depends on.
func (t *Templates) RequireProductOrder() error {
	switch {
	case t == nil:
		return missing("templates")
	case t.ProductOrder.State == "":
		return missing("productorder_payloads.state")
	case t.ProductOrder.ItemState == "":
		return missing("productorder_payloads.item_state")
	}
	return nil
}

// RequireCancel checks the keys a cancellation depends on.
func (t *Templates) RequireCancel() error {
	switch {
	case t == nil:
		return missing("templates")
	case t.CancelOrder.State == "":
		return missing("cancel_order_payload.state")
	case t.ProductOrder.CancellationReason == "":
		return missing("productorder_payloads.cancellationReason")
	}
	return nil
}

// RequireModifyDeliveryDate checks the keys a delivery date change depends on.
func (t *Templates) RequireModifyDeliveryDate() error {
	switch {
	case t == nil:
		return missing("templates")
	case t.ModifyDeliveryDate.State == "":
		return missing("modify_order_payload.state")
	case t.ModifyDeliveryDate.OrderState == "":
		return missing("modify_order_payload.order_state")
	case t.ModifyDeliveryDate.OrderItemState == "":
		return missing("modify_order_payload.order_item_state")
	}
	return nil
}

// SellerContacts converts the configured Seller contacts.
func (c CancelOrderTemplate) SellerContacts() []domain.RelatedContactInformation {
	out := make([]domain.RelatedContactInformation, 0, len(c.RelatedContactInformation))
	for _, ct := range c.RelatedContactInformation {
		out = append(out, domain.RelatedContactInformation{
			Name:         ct.Name,
			Number:       ct.Number,
			EmailAddress: ct.EmailAddress,
			Organization: ct.Organization,
			Role:         ct.Role,
		})
	}
	return out
}

// Charges converts the configured cancellation charges.
func (c CancelOrderTemplate) Charges() []domain.ChargeRef {
	if len(c.Charge) == 0 {
		return nil
	}
	out := make([]domain.ChargeRef, 0, len(c.Charge))
	for _, ch := range c.Charge {
		out = append(out, domain.ChargeRef{ID: ch.ID, Href: ch.Href})
	}
	return out
}
