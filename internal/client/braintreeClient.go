package client

import (
	"context"
	"errors"
	"fmt"

	"cloudcart-storefront/internal/config"

	"github.com/braintree-go/braintree-go"
)

var ErrTransactionDeclined = errors.New("transaction declined")

// --- INTERFACE ---

type BraintreeClient interface {
	// ChargeNonce charges a frontend payment nonce and settles immediately, returning the transaction id
	ChargeNonce(ctx context.Context, nonce string, amountCents int64, orderID string) (string, error)

	// Void cancels an unsettled transaction, used when the order could not be recorded
	Void(ctx context.Context, transactionID string) error
}

// --- IMPLEMENTATION ---

type braintreeClientImpl struct {
	gateway *braintree.Braintree
}

func NewBraintreeClient(cfg *config.Braintree) BraintreeClient {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway: gateway,
	}
}

// --- METHODS ---

func (c *braintreeClientImpl) ChargeNonce(ctx context.Context, nonce string, amountCents int64, orderID string) (string, error) {
	req := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             braintree.NewDecimal(amountCents, 2),
		PaymentMethodNonce: nonce,
		OrderId:            orderID,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true,
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		var btErr *braintree.BraintreeError
		if errors.As(err, &btErr) {
			return "", fmt.Errorf("%w: %s", ErrTransactionDeclined, btErr.Error())
		}
		return "", fmt.Errorf("transaction creation failed: %w", err)
	}

	switch tx.Status {
	case braintree.TransactionStatusProcessorDeclined, braintree.TransactionStatusGatewayRejected, braintree.TransactionStatusFailed:
		return "", fmt.Errorf("%w: %s", ErrTransactionDeclined, tx.ProcessorResponseText)
	}

	return tx.Id, nil
}

func (c *braintreeClientImpl) Void(ctx context.Context, transactionID string) error {
	if _, err := c.gateway.Transaction().Void(ctx, transactionID); err != nil {
		return fmt.Errorf("failed to void transaction %s: %w", transactionID, err)
	}
	return nil
}
