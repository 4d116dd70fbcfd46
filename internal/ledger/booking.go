package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/sirupsen/logrus"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

// BookSeat transfers a vacant seat to caller against value, which is
// collected from the caller before the booking commits. The seat price is
// escrowed for the flight's airline, which is approved to reclaim the seat.
func (l *Ledger) BookSeat(ctx context.Context, caller wallet.Address, seatID models.TokenID, value *big.Int) (models.Seat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireNotPaused(); err != nil {
		return models.Seat{}, err
	}
	if err := validateCaller(caller); err != nil {
		return models.Seat{}, err
	}
	seat, ok := l.state.liveSeat(seatID)
	if !ok {
		return models.Seat{}, fmt.Errorf("%w: seat %d", ErrNotFound, seatID)
	}
	if seat.Status != models.SeatStatusVacant {
		return models.Seat{}, fmt.Errorf("%w: seat %d is %s", ErrSeatUnavailable, seatID, seat.Status)
	}
	if value == nil || value.Sign() < 0 {
		return models.Seat{}, fmt.Errorf("%w: missing payment", ErrInsufficientPayment)
	}
	if value.Cmp(seat.Price) < 0 {
		return models.Seat{}, fmt.Errorf("%w: paid %s, price %s", ErrInsufficientPayment, value, seat.Price)
	}

	flight := l.state.Flights[seat.FlightID]
	change := new(big.Int).Sub(value, seat.Price)
	charged := value
	if l.cfg.OverpaymentPolicy == OverpaymentRefund {
		charged = seat.Price
	}

	next := l.state.clone()
	seat.Status = models.SeatStatusOccupied
	seat.Owner = ""
	next.Seats[seatID] = seat
	next.Owners[seatID] = caller
	next.Approvals[seatID] = flight.Airline
	next.Escrow[flight.Airline] = new(big.Int).Add(next.escrowOf(flight.Airline), seat.Price)
	next.Holdings.Add(next.Holdings, charged)
	if l.cfg.OverpaymentPolicy != OverpaymentRefund && change.Sign() > 0 {
		next.Surplus.Add(next.Surplus, change)
	}

	if err := l.collect(ctx, caller, charged); err != nil {
		return models.Seat{}, err
	}
	if err := l.commit(ctx, next); err != nil {
		l.release(ctx, caller, charged)
		return models.Seat{}, err
	}

	seat.Owner = caller
	l.logger.WithFields(logrus.Fields{
		"seatId":    seatID,
		"flightId":  flight.ID,
		"passenger": caller,
		"price":     seat.Price.String(),
		"paid":      charged.String(),
	}).Info("Seat booked")
	event := flightEvent(models.EventSeatBooked, flight)
	event.SeatID = seatID
	event.SeatNumber = seat.SeatNumber
	event.Passenger = caller
	event.Amount = new(big.Int).Set(seat.Price)
	l.publish(event)
	return seat, nil
}

// WithdrawFlightFees pays the airline's whole escrow balance to it. The
// balance is zeroed and committed before the transfer.
func (l *Ledger) WithdrawFlightFees(ctx context.Context, caller, airline wallet.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireNotPaused(); err != nil {
		return nil, err
	}
	if caller != airline {
		return nil, fmt.Errorf("%w: only %s may withdraw its fees", ErrUnauthorized, airline)
	}
	balance := l.state.escrowOf(airline)
	if balance.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}
	amount := new(big.Int).Set(balance)

	next := l.state.clone()
	next.Escrow[airline] = new(big.Int)
	next.Holdings.Sub(next.Holdings, amount)

	prev := l.state
	if err := l.commit(ctx, next); err != nil {
		return nil, err
	}
	if err := l.payout(ctx, prev, airline, amount); err != nil {
		return nil, err
	}

	l.logger.WithFields(logrus.Fields{
		"airline": airline,
		"amount":  amount.String(),
	}).Info("Flight fees withdrawn")
	l.publish(models.Event{Type: models.EventFeesWithdrawn, Airline: airline, Amount: new(big.Int).Set(amount)})
	return amount, nil
}

// EscrowBalance is visible to the airline that owns it only.
func (l *Ledger) EscrowBalance(ctx context.Context, caller, airline wallet.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != airline {
		return nil, fmt.Errorf("%w: escrow of %s", ErrUnauthorized, airline)
	}
	return new(big.Int).Set(l.state.escrowOf(airline)), nil
}

// CancelSeatBooking returns an occupied seat to its airline and queues a
// refund of the seat price for the passenger.
func (l *Ledger) CancelSeatBooking(ctx context.Context, caller wallet.Address, seatID models.TokenID) (models.PendingRefund, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireNotPaused(); err != nil {
		return models.PendingRefund{}, err
	}
	seat, ok := l.state.liveSeat(seatID)
	if !ok {
		return models.PendingRefund{}, fmt.Errorf("%w: seat %d", ErrNotFound, seatID)
	}
	flight := l.state.Flights[seat.FlightID]
	if caller != seat.Owner && caller != flight.Airline {
		return models.PendingRefund{}, fmt.Errorf("%w: caller may not cancel seat %d", ErrUnauthorized, seatID)
	}
	if seat.Status != models.SeatStatusOccupied {
		return models.PendingRefund{}, fmt.Errorf("%w: seat %d is %s", ErrSeatUnavailable, seatID, seat.Status)
	}
	if approved := l.state.Approvals[seatID]; caller == flight.Airline && caller != seat.Owner && approved != flight.Airline {
		return models.PendingRefund{}, fmt.Errorf("%w: airline is not approved for seat %d", ErrUnauthorized, seatID)
	}
	nonce, err := l.allocateRefundNonce()
	if err != nil {
		return models.PendingRefund{}, err
	}

	passenger := seat.Owner
	refund := models.PendingRefund{
		Nonce:       nonce,
		SeatID:      seatID,
		FlightID:    flight.ID,
		Airline:     flight.Airline,
		Passenger:   passenger,
		Amount:      new(big.Int).Set(seat.Price),
		RequestedAt: l.now(),
	}

	next := l.state.clone()
	seat.Status = models.SeatStatusVacant
	seat.Owner = ""
	next.Seats[seatID] = seat
	next.Owners[seatID] = flight.Airline
	delete(next.Approvals, seatID)
	next.Refunds[nonce] = refund

	if err := l.commit(ctx, next); err != nil {
		return models.PendingRefund{}, err
	}

	l.logger.WithFields(logrus.Fields{
		"seatId":    seatID,
		"flightId":  flight.ID,
		"passenger": passenger,
		"caller":    caller,
		"nonce":     nonce,
	}).Info("Seat booking cancelled, refund queued")
	event := flightEvent(models.EventSeatBookingCancelled, flight)
	event.SeatID = seatID
	event.SeatNumber = seat.SeatNumber
	event.Passenger = passenger
	event.Caller = caller
	event.Amount = new(big.Int).Set(refund.Amount)
	event.Nonce = nonce
	l.publish(event)
	return refund, nil
}

// allocateRefundNonce draws a fresh nonce. Caller holds l.mu.
func (l *Ledger) allocateRefundNonce() (uint64, error) {
	for attempt := 0; attempt < 16; attempt++ {
		n, err := l.nonces()
		if err != nil {
			return 0, fmt.Errorf("failed to allocate refund nonce: %w", err)
		}
		if _, used := l.state.Refunds[n]; n != 0 && !used {
			return n, nil
		}
	}
	return 0, fmt.Errorf("failed to allocate refund nonce: no unused value found")
}
