package services

import (
	"context"

	"github.com/anjiri1684/learnhub/payments"
)

// PaymentGateway creates remote orders the client pays against.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req payments.OrderRequest) (*payments.GatewayOrder, error)
}

// SignatureVerifier checks the signature the gateway hands the client after a
// successful payment.
type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) bool
}

// PaymentSettings bundles what checkout flows need from the gateway side.
type PaymentSettings struct {
	Gateway  PaymentGateway
	Verifier SignatureVerifier
	KeyID    string
	Currency string
}

func (p PaymentSettings) currency() string {
	if p.Currency == "" {
		return "INR"
	}
	return p.Currency
}
