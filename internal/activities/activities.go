package activities

import (
	"context"
	"errors"
	"math/big"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/ledger"
	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

// Application error types raised by SettleRefund. Failures of these types
// are permanent and never retried.
const (
	ErrTypeInvalidSignature = "InvalidSignature"
	ErrTypeNonceReplayed    = "NonceReplayed"
	ErrTypeInvalidArgument  = "InvalidArgument"
	ErrTypeNotFound         = "NotFound"
)

// NonRetryableErrorTypes lists the error types a retry policy should not retry.
var NonRetryableErrorTypes = []string{
	ErrTypeInvalidSignature,
	ErrTypeNonceReplayed,
	ErrTypeInvalidArgument,
	ErrTypeNotFound,
}

// RefundProcessor settles airline-signed refunds
type RefundProcessor interface {
	ProcessAirlineRefunds(ctx context.Context, caller wallet.Address, amount *big.Int, nonce uint64, signature []byte, value *big.Int) (models.PendingRefund, error)
}

type SettleRefundInput struct {
	Nonce     uint64         `json:"nonce"`
	Amount    *big.Int       `json:"amount"`
	Signature []byte         `json:"signature"`
	Submitter wallet.Address `json:"submitter"`
}

// Activities holds the dependencies of the settlement activities
type Activities struct {
	refunds RefundProcessor
}

func NewActivities(refunds RefundProcessor) *Activities {
	return &Activities{refunds: refunds}
}

// SettleRefund submits an authorized refund to the ledger on behalf of the
// submitter, attaching exactly the refund amount.
func (a *Activities) SettleRefund(ctx context.Context, input SettleRefundInput) (*models.SettleRefundResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Settling refund", "nonce", input.Nonce, "submitter", input.Submitter)

	if input.Amount == nil || input.Amount.Sign() <= 0 {
		return nil, temporal.NewNonRetryableApplicationError("refund amount must be positive", ErrTypeInvalidArgument, nil)
	}

	refund, err := a.refunds.ProcessAirlineRefunds(ctx, input.Submitter, input.Amount, input.Nonce, input.Signature, input.Amount)
	if err != nil {
		logger.Warn("Refund settlement failed", "nonce", input.Nonce, "error", err)
		return nil, classify(err)
	}

	logger.Info("Refund settled", "nonce", refund.Nonce, "passenger", refund.Passenger, "amount", refund.Amount.String())
	return &models.SettleRefundResult{Success: true}, nil
}

// classify marks permanent ledger failures as non-retryable. Anything else,
// such as a paused ledger or a failed transfer, is left to the retry policy.
func classify(err error) error {
	var errType string
	switch {
	case errors.Is(err, ledger.ErrInvalidSignature):
		errType = ErrTypeInvalidSignature
	case errors.Is(err, ledger.ErrNonceReplayed):
		errType = ErrTypeNonceReplayed
	case errors.Is(err, ledger.ErrNotFound):
		errType = ErrTypeNotFound
	case errors.Is(err, ledger.ErrInvalidArgument),
		errors.Is(err, ledger.ErrInsufficientPayment),
		errors.Is(err, ledger.ErrUnauthorized):
		errType = ErrTypeInvalidArgument
	default:
		return err
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), errType, err)
}
