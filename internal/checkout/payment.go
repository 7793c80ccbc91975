package checkout

import (
	"context"
	"time"

	"github.com/drstein77/shopflow/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultPaymentDelay is how long the simulated gateway takes to answer.
const DefaultPaymentDelay = 2 * time.Second

// DeclinedTestCard is rejected by the simulated gateway.
const DeclinedTestCard = "4000000000000002"

// PaymentGateway charges the shopper.
type PaymentGateway interface {
	Charge(ctx context.Context, amount decimal.Decimal, info models.PaymentInfo) error
}

// GatewayFunc adapts a function to PaymentGateway.
type GatewayFunc func(ctx context.Context, amount decimal.Decimal, info models.PaymentInfo) error

func (f GatewayFunc) Charge(ctx context.Context, amount decimal.Decimal, info models.PaymentInfo) error {
	return f(ctx, amount, info)
}

// SimulatedGateway approves every charge after a fixed delay, except for
// card numbers on its decline list.
type SimulatedGateway struct {
	Delay    time.Duration
	Declined map[string]struct{}
}

// NewSimulatedGateway creates a gateway declining DeclinedTestCard and any
// extra card numbers given.
func NewSimulatedGateway(delay time.Duration, declined ...string) *SimulatedGateway {
	g := &SimulatedGateway{
		Delay:    delay,
		Declined: map[string]struct{}{DeclinedTestCard: {}},
	}
	for _, card := range declined {
		g.Declined[card] = struct{}{}
	}
	return g
}

func (g *SimulatedGateway) Charge(ctx context.Context, _ decimal.Decimal, info models.PaymentInfo) error {
	if g.Delay > 0 {
		timer := time.NewTimer(g.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if _, ok := g.Declined[info.CardNumber]; ok {
		return ErrPaymentDeclined
	}
	return nil
}
