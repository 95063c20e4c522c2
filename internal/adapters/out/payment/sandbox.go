package payment

import (
	"context"
	"fmt"
	"sync"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/services"
	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/errs"

	"github.com/google/uuid"
)

// SandboxClient is an in-process stand-in for the payment processor, used in
// local development and demo environments. Every initialized charge verifies
// as an instant success with the metadata echoed back, and refunds always
// process. No real money is involved.
type SandboxClient struct {
	mu      sync.Mutex
	charges map[string]sandboxCharge
}

type sandboxCharge struct {
	amount   kernel.Money
	metadata map[string]string
}

// NewSandboxClient creates a sandbox payment client.
func NewSandboxClient() *SandboxClient {
	return &SandboxClient{charges: make(map[string]sandboxCharge)}
}

// Initialize records the charge and returns a sandbox reference.
func (c *SandboxClient) Initialize(
	_ context.Context,
	amount kernel.Money,
	_ string,
	_ services.SettlementSplit,
	metadata map[string]string,
) (ports.PaymentInitialization, error) {
	reference := "SBX-" + uuid.NewString()

	c.mu.Lock()
	c.charges[reference] = sandboxCharge{amount: amount, metadata: metadata}
	c.mu.Unlock()

	return ports.PaymentInitialization{
		Reference:        reference,
		AuthorizationURL: "https://sandbox.invalid/pay/" + reference,
	}, nil
}

// Verify reports every known charge as an instant success.
func (c *SandboxClient) Verify(_ context.Context, reference string) (ports.PaymentVerification, error) {
	c.mu.Lock()
	charge, ok := c.charges[reference]
	c.mu.Unlock()

	if !ok {
		return ports.PaymentVerification{}, errs.NewObjectNotFoundError("charge", reference)
	}

	return ports.PaymentVerification{
		Reference: reference,
		Status:    ports.ChargeStatusSuccess,
		Amount:    charge.amount,
		Metadata:  charge.metadata,
	}, nil
}

// Refund always succeeds for a known charge.
func (c *SandboxClient) Refund(_ context.Context, reference string, _ kernel.Money) (ports.RefundResult, error) {
	c.mu.Lock()
	_, ok := c.charges[reference]
	c.mu.Unlock()

	if !ok {
		return ports.RefundResult{}, errs.NewObjectNotFoundError("charge", reference)
	}

	return ports.RefundResult{
		RefundID: fmt.Sprintf("SBX-RF-%s", reference),
		Status:   "processed",
	}, nil
}
