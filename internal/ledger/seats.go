package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/sirupsen/logrus"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

const maxSeatNumberLength = 8

// AddSeatInventoryToFlightCabin adds one vacant seat per (number, price) pair
// to the caller's flight. Either every seat is added or none is.
func (l *Ledger) AddSeatInventoryToFlightCabin(
	ctx context.Context,
	caller wallet.Address,
	flightNumber string,
	departure int64,
	seatNumbers []string,
	seatPrices []*big.Int,
	cabin models.CabinClass,
) ([]models.Seat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireNotPaused(); err != nil {
		return nil, err
	}
	flight, err := l.findFlight(flightNumber, departure)
	if err != nil {
		return nil, err
	}
	if caller != flight.Airline {
		return nil, fmt.Errorf("%w: caller does not own flight %s", ErrUnauthorized, flight.ID)
	}
	if err := l.validateInventory(flight, seatNumbers, seatPrices, cabin); err != nil {
		return nil, err
	}
	if len(flight.SeatIDs)+len(seatNumbers) > flight.Capacity {
		return nil, fmt.Errorf("%w: %d seats present, %d requested, capacity %d",
			ErrCapacityExceeded, len(flight.SeatIDs), len(seatNumbers), flight.Capacity)
	}

	next := l.state.clone()
	f := next.Flights[flight.ID]
	added := make([]models.Seat, 0, len(seatNumbers))
	for i, number := range seatNumbers {
		id := next.mint(flight.Airline)
		seat := models.Seat{
			ID:         id,
			FlightID:   flight.ID,
			SeatNumber: number,
			Price:      new(big.Int).Set(seatPrices[i]),
			Class:      cabin,
			Status:     models.SeatStatusVacant,
		}
		next.Seats[id] = seat
		f.SeatIDs = append(f.SeatIDs, id)
		seat.Owner = flight.Airline
		added = append(added, seat)
	}
	next.Flights[flight.ID] = f

	if err := l.commit(ctx, next); err != nil {
		return nil, err
	}

	ids := make([]models.TokenID, len(added))
	for i, s := range added {
		ids[i] = s.ID
	}
	l.logger.WithFields(logrus.Fields{
		"flightId": flight.ID,
		"cabin":    cabin,
		"count":    len(added),
	}).Info("Seat inventory added")
	event := flightEvent(models.EventSeatsAdded, f)
	event.SeatIDs = ids
	l.publish(event)
	return added, nil
}

func (l *Ledger) validateInventory(flight models.Flight, numbers []string, prices []*big.Int, cabin models.CabinClass) error {
	if !cabin.Valid() {
		return fmt.Errorf("%w: unknown cabin class %q", ErrInvalidArgument, cabin)
	}
	if len(numbers) == 0 {
		return fmt.Errorf("%w: no seats given", ErrInvalidArgument)
	}
	if len(numbers) != len(prices) {
		return fmt.Errorf("%w: %d seat numbers but %d prices", ErrInvalidArgument, len(numbers), len(prices))
	}

	taken := make(map[string]bool, len(flight.SeatIDs)+len(numbers))
	for _, id := range flight.SeatIDs {
		taken[l.state.Seats[id].SeatNumber] = true
	}
	for i, number := range numbers {
		if number == "" || len(number) > maxSeatNumberLength {
			return fmt.Errorf("%w: seat number %q must be 1 to %d bytes", ErrInvalidArgument, number, maxSeatNumberLength)
		}
		if taken[number] {
			return fmt.Errorf("%w: duplicate seat number %q", ErrInvalidArgument, number)
		}
		taken[number] = true
		if prices[i] == nil || prices[i].Sign() <= 0 {
			return fmt.Errorf("%w: seat %q price must be positive", ErrInvalidArgument, number)
		}
	}
	return nil
}

// GetSeatsForFlight returns the flight's seats that have not been burned by check-in.
func (l *Ledger) GetSeatsForFlight(ctx context.Context, flightID models.FlightID) ([]models.Seat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	flight, ok := l.state.Flights[flightID]
	if !ok {
		return nil, fmt.Errorf("%w: flight %s", ErrNotFound, flightID)
	}
	seats := make([]models.Seat, 0, len(flight.SeatIDs))
	for _, id := range flight.SeatIDs {
		if seat, live := l.state.liveSeat(id); live {
			seats = append(seats, seat)
		}
	}
	return seats, nil
}

func (l *Ledger) GetSeat(ctx context.Context, id models.TokenID) (models.Seat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seat, ok := l.state.liveSeat(id)
	if !ok {
		return models.Seat{}, fmt.Errorf("%w: seat %d", ErrNotFound, id)
	}
	return seat, nil
}

// OwnerOf resolves the owner of a live seat claim or boarding pass.
func (l *Ledger) OwnerOf(ctx context.Context, id models.TokenID) (wallet.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner, ok := l.state.Owners[id]
	if !ok {
		return "", fmt.Errorf("%w: token %d", ErrNotFound, id)
	}
	return owner, nil
}

func (l *Ledger) Exists(ctx context.Context, id models.TokenID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.state.Owners[id]
	return ok
}
