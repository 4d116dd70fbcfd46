package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/activities"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

const (
	// DefaultAuthorizationTimeout is how long a refund waits for the airline's signature
	DefaultAuthorizationTimeout = 7 * 24 * time.Hour
	// SettleTimeout bounds a single settlement attempt
	SettleTimeout = 30 * time.Second
	// MaxAuthorizationAttempts caps rejected signatures before the workflow gives up
	MaxAuthorizationAttempts = 3
)

// RefundSettlementWorkflow waits for the airline to authorize a cancelled
// booking's refund and then settles it on the ledger. A refund that is not
// authorized before the deadline stays pending on the ledger and can still
// be processed directly.
func RefundSettlementWorkflow(ctx workflow.Context, input models.RefundWorkflowInput) (*models.RefundWorkflowState, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Refund settlement workflow started", "nonce", input.Nonce, "passenger", input.Passenger)

	timeout := input.AuthorizationTimeout
	if timeout <= 0 {
		timeout = DefaultAuthorizationTimeout
	}

	state := models.RefundWorkflowState{
		Nonce:       input.Nonce,
		Status:      models.RefundStatusAwaitingAuthorization,
		Amount:      input.Amount,
		DeadlineAt:  workflow.Now(ctx).Add(timeout),
		LastUpdated: workflow.Now(ctx),
	}
	update := func(status models.RefundStatus, reason string) {
		state.Status = status
		state.FailureReason = reason
		state.LastUpdated = workflow.Now(ctx)
	}

	if err := workflow.SetQueryHandler(ctx, models.QueryGetState, func() (models.RefundWorkflowState, error) {
		return state, nil
	}); err != nil {
		return nil, err
	}

	activityCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: SettleTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: activities.NonRetryableErrorTypes,
		},
	})

	timerCtx, cancelTimer := workflow.WithCancel(ctx)
	deadline := workflow.NewTimer(timerCtx, timeout)
	authorizedCh := workflow.GetSignalChannel(ctx, models.SignalRefundAuthorized)

	for {
		var signal models.RefundAuthorizedSignal
		var expired bool

		selector := workflow.NewSelector(ctx)
		selector.AddReceive(authorizedCh, func(c workflow.ReceiveChannel, more bool) {
			c.Receive(ctx, &signal)
		})
		selector.AddFuture(deadline, func(f workflow.Future) {
			expired = true
		})
		selector.Select(ctx)

		if expired {
			logger.Info("Refund authorization expired", "nonce", input.Nonce)
			update(models.RefundStatusExpired, "authorization deadline passed")
			return &state, nil
		}

		state.Attempts++
		update(models.RefundStatusSettling, "")
		logger.Info("Refund authorized", "nonce", input.Nonce, "attempt", state.Attempts, "submitter", signal.Submitter)

		amount := signal.Amount
		if amount == nil {
			amount = input.Amount
		}
		var result models.SettleRefundResult
		err := workflow.ExecuteActivity(activityCtx, "SettleRefund", activities.SettleRefundInput{
			Nonce:     input.Nonce,
			Amount:    amount,
			Signature: signal.Signature,
			Submitter: signal.Submitter,
		}).Get(ctx, &result)

		if err == nil && result.Success {
			cancelTimer()
			state.AuthorizedBy = signal.Submitter.String()
			update(models.RefundStatusSettled, "")
			logger.Info("Refund settled", "nonce", input.Nonce)
			return &state, nil
		}
		if err == nil {
			err = errors.New(result.Error)
		}

		switch errorType(err) {
		case activities.ErrTypeNonceReplayed:
			// Settled by a direct submission while this workflow was waiting.
			cancelTimer()
			update(models.RefundStatusSettled, "refund already processed")
			return &state, nil
		case activities.ErrTypeNotFound:
			cancelTimer()
			update(models.RefundStatusRejected, err.Error())
			return &state, nil
		}

		logger.Warn("Refund settlement attempt failed", "nonce", input.Nonce, "attempt", state.Attempts, "error", err)
		if state.Attempts >= MaxAuthorizationAttempts {
			cancelTimer()
			update(models.RefundStatusRejected, err.Error())
			return &state, nil
		}
		update(models.RefundStatusAwaitingAuthorization, err.Error())
	}
}

func errorType(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Type()
	}
	return ""
}
