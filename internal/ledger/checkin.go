package ledger

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

const maxReferenceLength = 2048

// GetBarcodeStringParametersForBoardingPass returns the fields the barcode of
// the seat's boarding pass is assembled from.
func (l *Ledger) GetBarcodeStringParametersForBoardingPass(ctx context.Context, seatID models.TokenID) (models.BarcodeParameters, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seat, ok := l.state.Seats[seatID]
	if !ok {
		return models.BarcodeParameters{}, fmt.Errorf("%w: seat %d", ErrNotFound, seatID)
	}
	flight := l.state.Flights[seat.FlightID]
	return models.BarcodeParameters{
		FlightNumber: flight.FlightNumber,
		Origin:       flight.Origin,
		Destination:  flight.Destination,
		Departure:    flight.Departure,
		AirlineCode:  flight.AirlineCode,
	}, nil
}

// CheckinPassenger burns the caller's seat claim and mints a boarding pass
// to the caller in its place.
func (l *Ledger) CheckinPassenger(ctx context.Context, caller wallet.Address, seatID models.TokenID, barcode, passportScanRef string) (models.BoardingPass, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireNotPaused(); err != nil {
		return models.BoardingPass{}, err
	}
	record, ok := l.state.Seats[seatID]
	if !ok {
		return models.BoardingPass{}, fmt.Errorf("%w: seat %d", ErrNotFound, seatID)
	}
	// a burned seat answers to the holder of its boarding pass
	holder := l.state.Owners[seatID]
	if record.CheckedIn {
		holder = l.state.Owners[l.state.SeatBoardingPass[seatID]]
	}
	if caller != holder {
		return models.BoardingPass{}, fmt.Errorf("%w: caller does not own seat %d", ErrUnauthorized, seatID)
	}
	if record.CheckedIn {
		return models.BoardingPass{}, fmt.Errorf("%w: seat %d already checked in", ErrSeatUnavailable, seatID)
	}
	seat, _ := l.state.liveSeat(seatID)
	if seat.Status != models.SeatStatusOccupied {
		return models.BoardingPass{}, fmt.Errorf("%w: seat %d is %s", ErrSeatUnavailable, seatID, seat.Status)
	}
	if barcode == "" || len(barcode) > maxReferenceLength {
		return models.BoardingPass{}, fmt.Errorf("%w: barcode must be 1 to %d bytes", ErrInvalidArgument, maxReferenceLength)
	}
	if len(passportScanRef) > maxReferenceLength {
		return models.BoardingPass{}, fmt.Errorf("%w: passport scan reference exceeds %d bytes", ErrInvalidArgument, maxReferenceLength)
	}

	flight := l.state.Flights[seat.FlightID]

	next := l.state.clone()
	next.burn(seatID)
	record.CheckedIn = true
	next.Seats[seatID] = record
	pass := models.BoardingPass{
		ID:              next.mint(caller),
		SeatID:          seatID,
		FlightID:        flight.ID,
		Barcode:         barcode,
		Passenger:       caller,
		PassportScanRef: passportScanRef,
		IssuedAt:        l.now(),
	}
	next.BoardingPasses[pass.ID] = pass
	next.SeatBoardingPass[seatID] = pass.ID

	if err := l.commit(ctx, next); err != nil {
		return models.BoardingPass{}, err
	}

	l.logger.WithFields(logrus.Fields{
		"seatId":         seatID,
		"boardingPassId": pass.ID,
		"flightId":       flight.ID,
		"passenger":      caller,
	}).Info("Passenger checked in")
	event := flightEvent(models.EventBoardingPassGenerated, flight)
	event.SeatID = seatID
	event.SeatNumber = seat.SeatNumber
	event.BoardingPassID = pass.ID
	event.Passenger = caller
	event.PassportScanRef = passportScanRef
	l.publish(event)
	return pass, nil
}

func (l *Ledger) GetBoardingPassForSeat(ctx context.Context, seatID models.TokenID) (models.BoardingPass, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	passID, ok := l.state.SeatBoardingPass[seatID]
	if !ok {
		return models.BoardingPass{}, fmt.Errorf("%w: no boarding pass for seat %d", ErrNotFound, seatID)
	}
	return l.state.BoardingPasses[passID], nil
}
