package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/oklog/ulid/v2"

	"course-purchase/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*SimulatedGateway)(nil)

// SimulatedGateway creates gateway orders locally and verifies checkout
// signatures with the shared key secret, the same way a hosted checkout
// (Razorpay and similar) signs `order_id|payment_id`.
type SimulatedGateway struct {
	keyID     string
	keySecret string
}

func NewSimulatedGateway(keyID, keySecret string) *SimulatedGateway {
	return &SimulatedGateway{keyID: keyID, keySecret: keySecret}
}

func (g *SimulatedGateway) Name() string  { return "simulated" }
func (g *SimulatedGateway) KeyID() string { return g.keyID }

func (g *SimulatedGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (adapter.GatewayOrder, error) {
	if err := ctx.Err(); err != nil {
		return adapter.GatewayOrder{}, err
	}
	if amountMinor < 0 {
		return adapter.GatewayOrder{}, errors.New("payment: negative amount")
	}
	return adapter.GatewayOrder{
		OrderID:     "order_" + ulid.Make().String(),
		AmountMinor: amountMinor,
		Currency:    strings.ToUpper(currency),
		Receipt:     receipt,
	}, nil
}

func (g *SimulatedGateway) VerifySignature(orderID, paymentID, signature string) error {
	return VerifySignature(g.keySecret, orderID, paymentID, signature)
}

// Checkout simulates the client-side payment step: it returns a payment id
// and the signature a real checkout would post back. Dev tooling only.
func (g *SimulatedGateway) Checkout(orderID string) (paymentID, signature string) {
	paymentID = "pay_" + ulid.Make().String()
	return paymentID, Sign(g.keySecret, orderID, paymentID)
}
