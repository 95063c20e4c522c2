package ports

import (
	"context"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/services"
)

// Charge statuses reported by the payment processor.
const (
	ChargeStatusSuccess = "success"
	ChargeStatusFailed  = "failed"
	ChargeStatusPending = "pending"
)

// PaymentInitialization is the processor's response to a checkout initialization.
type PaymentInitialization struct {
	Reference        string
	AuthorizationURL string
}

// PaymentVerification is the processor's view of a charge. Metadata echoes back
// whatever the Initialize call attached, which is how webhook-driven order
// creation recovers the checkout context.
type PaymentVerification struct {
	Reference string
	Status    string
	Amount    kernel.Money
	Metadata  map[string]string
}

// RefundResult is the processor's response to a refund request.
type RefundResult struct {
	RefundID string
	Status   string
}

// PaymentClient is the contract with the external payment processor.
// Every call carries an explicit timeout through its context; implementations
// translate timeouts and 5xx responses into errs.UpstreamUnavailableError.
type PaymentClient interface {
	// Initialize starts a charge for the given amount and returns the reference
	// plus the URL the buyer completes authorization on. The settlement split is
	// passed along so the processor can route the seller's share at capture time.
	// Metadata is stored with the charge and echoed back on verification and in
	// webhook payloads.
	Initialize(
		ctx context.Context,
		amount kernel.Money,
		email string,
		split services.SettlementSplit,
		metadata map[string]string,
	) (PaymentInitialization, error)

	// Verify fetches the current status of a charge by reference.
	Verify(ctx context.Context, reference string) (PaymentVerification, error)

	// Refund issues a refund against a captured charge. A zero amount refunds
	// the full charge. Implementations must be safe to call twice with the same
	// reference; the processor treats the reference as the idempotency key.
	Refund(ctx context.Context, reference string, amount kernel.Money) (RefundResult, error)
}
