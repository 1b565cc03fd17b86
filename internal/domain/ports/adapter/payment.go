package adapter

import "context"

// GatewayOrder is what the client needs to open the gateway's checkout.
type GatewayOrder struct {
	OrderID     string
	AmountMinor int64 // smallest currency unit
	Currency    string
	Receipt     string
}

// PaymentGateway is the hex port for payment providers.
type PaymentGateway interface {
	Name() string
	// KeyID is the public key the client-side checkout is opened with.
	KeyID() string

	// CreateOrder registers an order for amountMinor with the provider.
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (GatewayOrder, error)
	// VerifySignature checks the provider signature for a completed payment
	// against the shared secret. A nil error means the payment is genuine.
	VerifySignature(orderID, paymentID, signature string) error
}
