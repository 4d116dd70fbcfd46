package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

// ProcessAirlineRefunds settles the pending refund behind nonce. The airline
// authorizes it by signing (airline, amount, nonce); anyone may submit it,
// paying exactly amount as value from their own account. The nonce is
// consumed and committed before the passenger is paid.
func (l *Ledger) ProcessAirlineRefunds(
	ctx context.Context,
	caller wallet.Address,
	amount *big.Int,
	nonce uint64,
	signature []byte,
	value *big.Int,
) (models.PendingRefund, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireNotPaused(); err != nil {
		return models.PendingRefund{}, err
	}
	if err := validateCaller(caller); err != nil {
		return models.PendingRefund{}, err
	}
	refund, ok := l.state.Refunds[nonce]
	if !ok {
		return models.PendingRefund{}, fmt.Errorf("%w: refund nonce %d", ErrNotFound, nonce)
	}
	digest, err := wallet.RefundDigest(refund.Airline, amount, nonce)
	if err != nil {
		return models.PendingRefund{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := wallet.Verify(refund.Airline, digest, signature); err != nil {
		return models.PendingRefund{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if refund.Consumed {
		return models.PendingRefund{}, fmt.Errorf("%w: refund nonce %d", ErrNonceReplayed, nonce)
	}
	if amount.Cmp(refund.Amount) != 0 {
		return models.PendingRefund{}, fmt.Errorf("%w: amount %s does not match pending refund %s", ErrInvalidArgument, amount, refund.Amount)
	}
	if value == nil || value.Cmp(amount) < 0 {
		return models.PendingRefund{}, fmt.Errorf("%w: refund of %s needs matching value", ErrInsufficientPayment, amount)
	}
	if value.Cmp(amount) > 0 {
		return models.PendingRefund{}, fmt.Errorf("%w: attached value %s exceeds refund %s", ErrInvalidArgument, value, amount)
	}

	next := l.state.clone()
	refund.Consumed = true
	refund.SettledAt = l.now()
	next.Refunds[nonce] = refund

	// value is taken from the submitter and the same amount goes straight
	// out to the passenger
	if err := l.collect(ctx, caller, value); err != nil {
		return models.PendingRefund{}, err
	}
	prev := l.state
	if err := l.commit(ctx, next); err != nil {
		l.release(ctx, caller, value)
		return models.PendingRefund{}, err
	}
	if err := l.payout(ctx, prev, refund.Passenger, amount); err != nil {
		l.release(ctx, caller, value)
		return models.PendingRefund{}, err
	}

	l.logger.WithFields(logrus.Fields{
		"nonce":     nonce,
		"airline":   refund.Airline,
		"passenger": refund.Passenger,
		"amount":    amount.String(),
		"caller":    caller,
	}).Info("Refund processed")
	flightID := refund.FlightID
	l.publish(models.Event{
		Type:      models.EventRefundProcessed,
		FlightID:  &flightID,
		SeatID:    refund.SeatID,
		Airline:   refund.Airline,
		Passenger: refund.Passenger,
		Caller:    caller,
		Amount:    new(big.Int).Set(amount),
		Nonce:     nonce,
	})
	return refund, nil
}

func (l *Ledger) GetPendingRefund(ctx context.Context, nonce uint64) (models.PendingRefund, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	refund, ok := l.state.Refunds[nonce]
	if !ok {
		return models.PendingRefund{}, fmt.Errorf("%w: refund nonce %d", ErrNotFound, nonce)
	}
	return refund, nil
}

// GetPendingRefundsForAirline lists the airline's unsettled refunds, oldest first.
func (l *Ledger) GetPendingRefundsForAirline(ctx context.Context, airline wallet.Address) []models.PendingRefund {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []models.PendingRefund
	for _, r := range l.state.Refunds {
		if r.Airline == airline && !r.Consumed {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestedAt != out[j].RequestedAt {
			return out[i].RequestedAt < out[j].RequestedAt
		}
		return out[i].Nonce < out[j].Nonce
	})
	return out
}
