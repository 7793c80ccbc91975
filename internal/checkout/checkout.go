// Package checkout sequences the checkout steps: shipping, payment and
// confirmation.
//
// The machine lives in memory only. Restarting the process drops step
// progress and form input, while the cart survives in its own slot.
package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/drstein77/shopflow/internal/models"
	"github.com/drstein77/shopflow/internal/order"
	"go.uber.org/zap"
)

// Step is a fulfillment step.
type Step int

const (
	StepShipping Step = iota + 1
	StepPayment
	StepConfirmed
)

func (s Step) String() string {
	switch s {
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Log interface {
	Info(string, ...zap.Field)
	Warn(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// Cart is the part of the cart store the checkout needs.
type Cart interface {
	Lines() []models.CartLine
	IsEmpty() bool
	RemoveLines(ctx context.Context, lines []models.CartLine) error
}

// OrderSaver persists the confirmed order.
type OrderSaver interface {
	Save(ctx context.Context, o models.Order) error
}

// State is a snapshot of the machine.
type State struct {
	Step     Step                `json:"step"`
	Shipping models.ShippingInfo `json:"shipping"`
	Payment  models.PaymentInfo  `json:"payment"`
	Pending  bool                `json:"pending"`
	Order    *models.Order       `json:"order,omitempty"`
}

// Machine is the single-shopper checkout.
type Machine struct {
	mu       sync.Mutex
	step     Step
	shipping models.ShippingInfo
	payment  models.PaymentInfo
	pending  bool
	order    *models.Order

	cart    Cart
	builder *order.Builder
	orders  OrderSaver
	gateway PaymentGateway
	log     Log
}

// New creates a machine positioned at the shipping step.
func New(cart Cart, builder *order.Builder, orders OrderSaver, gateway PaymentGateway, log Log) *Machine {
	return &Machine{
		step:    StepShipping,
		cart:    cart,
		builder: builder,
		orders:  orders,
		gateway: gateway,
		log:     log,
	}
}

// State returns the current step and forms. Card data is masked.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := State{
		Step:     m.step,
		Shipping: m.shipping,
		Payment:  m.payment.Masked(),
		Pending:  m.pending,
	}
	if m.order != nil {
		o := *m.order
		s.Order = &o
	}
	return s
}

// Reset starts a fresh checkout at the shipping step. It is refused while a
// payment is pending.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending {
		return ErrPaymentInProgress
	}
	m.step = StepShipping
	m.shipping = models.ShippingInfo{}
	m.payment = models.PaymentInfo{}
	m.order = nil
	return nil
}

// SubmitShipping validates the shipping form and advances to payment.
func (m *Machine) SubmitShipping(info models.ShippingInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.step != StepShipping {
		return fmt.Errorf("%w: shipping form submitted at %s step", ErrInvalidTransition, m.step)
	}
	if m.cart.IsEmpty() {
		return ErrEmptyCart
	}

	info = info.Trimmed()
	if missing := missingShipping(info); len(missing) > 0 {
		return &ValidationError{Step: StepShipping, Fields: missing}
	}

	m.shipping = info
	m.step = StepPayment
	m.log.Info("Checkout moved to payment")
	return nil
}

// Back returns from payment to shipping, keeping the entered data.
func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.step != StepPayment {
		return fmt.Errorf("%w: cannot go back from %s step", ErrInvalidTransition, m.step)
	}
	if m.pending {
		return ErrPaymentInProgress
	}
	m.step = StepShipping
	return nil
}

// SubmitPayment charges the cart total and, on success, records the order,
// takes the ordered lines out of the cart and confirms the checkout. A failed charge leaves the
// machine on the payment step with cart and forms intact.
//
// Only one submission may be pending at a time; a second call returns
// ErrPaymentInProgress until the first resolves.
func (m *Machine) SubmitPayment(ctx context.Context, info models.PaymentInfo) (models.Order, error) {
	lines, shipping, payment, err := m.beginPayment(info)
	if err != nil {
		return models.Order{}, err
	}

	_, _, total := order.Totals(lines)
	m.log.Info("Processing payment", zap.String("amount", total.StringFixed(2)), zap.Int("lines", len(lines)))

	chargeErr := m.gateway.Charge(ctx, total, payment)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = false

	if chargeErr != nil {
		m.log.Warn("Payment failed", zap.Error(chargeErr))
		return models.Order{}, &PaymentError{Err: chargeErr}
	}

	o := m.builder.Build(lines, shipping, payment)
	if err := m.orders.Save(ctx, o); err != nil {
		m.log.Error("Failed to save order", zap.Error(err))
		return models.Order{}, fmt.Errorf("failed to record order: %w", err)
	}
	if err := m.cart.RemoveLines(ctx, lines); err != nil {
		m.log.Error("Failed to clear cart after order", zap.Int64("order", o.ID), zap.Error(err))
	}

	m.order = &o
	m.step = StepConfirmed
	m.log.Info("Order confirmed", zap.Int64("id", o.ID), zap.String("reference", o.Reference))
	return o, nil
}

// beginPayment validates the submission, snapshots the cart and raises the
// pending flag.
func (m *Machine) beginPayment(info models.PaymentInfo) ([]models.CartLine, models.ShippingInfo, models.PaymentInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var none models.PaymentInfo
	if m.step != StepPayment {
		return nil, models.ShippingInfo{}, none, fmt.Errorf("%w: payment submitted at %s step", ErrInvalidTransition, m.step)
	}
	if m.pending {
		return nil, models.ShippingInfo{}, none, ErrPaymentInProgress
	}

	info = info.Trimmed()
	if missing := missingPayment(info); len(missing) > 0 {
		return nil, models.ShippingInfo{}, none, &ValidationError{Step: StepPayment, Fields: missing}
	}
	if m.cart.IsEmpty() {
		return nil, models.ShippingInfo{}, none, ErrEmptyCart
	}

	m.payment = info
	m.pending = true
	return m.cart.Lines(), m.shipping, info, nil
}

func missingShipping(s models.ShippingInfo) []string {
	return missing([]field{
		{"firstName", s.FirstName},
		{"lastName", s.LastName},
		{"email", s.Email},
		{"address", s.Address},
		{"city", s.City},
		{"state", s.State},
		{"zipCode", s.ZipCode},
	})
}

func missingPayment(p models.PaymentInfo) []string {
	return missing([]field{
		{"cardNumber", p.CardNumber},
		{"cardName", p.CardName},
		{"expiryDate", p.ExpiryDate},
		{"cvv", p.CVV},
	})
}

type field struct {
	name  string
	value string
}

func missing(fields []field) []string {
	var out []string
	for _, f := range fields {
		if f.value == "" {
			out = append(out, f.name)
		}
	}
	return out
}
