package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

const (
	demoFlightNumber = "BA125"
	demoOrigin       = "LHR"
	demoDestination  = "JFK"
	demoAirlineCode  = "BA"
	demoAirlineName  = "British Airways"
	demoCapacity     = 100
	demoOffset       = 100 * 24 * time.Hour
	maxFieldLength   = 64
)

// CreateFlightParams are the arguments of CreateFlight
type CreateFlightParams struct {
	FlightNumber string
	Origin       string
	Destination  string
	Departure    int64
	AirlineCode  string
	AirlineName  string
	Capacity     int
	Airline      wallet.Address
	Signature    []byte
	Nonce        uint64
}

// GetFlightID derives the flight id. It is pure and needs no lock.
func GetFlightID(flightNumber string, departure int64) (models.FlightID, error) {
	id, err := wallet.FlightID(flightNumber, departure)
	if err != nil {
		return models.FlightID{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return models.FlightID(id), nil
}

func (l *Ledger) GetFlightID(flightNumber string, departure int64) (models.FlightID, error) {
	return GetFlightID(flightNumber, departure)
}

// CreateFlight registers a flight for p.Airline, authorized by the airline's
// signature over the flight id, its address and a single-use nonce.
func (l *Ledger) CreateFlight(ctx context.Context, caller wallet.Address, p CreateFlightParams) (models.Flight, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireNotPaused(); err != nil {
		return models.Flight{}, err
	}
	if err := validateCaller(caller); err != nil {
		return models.Flight{}, err
	}
	if err := validateFlightParams(p); err != nil {
		return models.Flight{}, err
	}
	if p.Departure <= l.now() {
		return models.Flight{}, fmt.Errorf("%w: departure %d", ErrDepartureInPast, p.Departure)
	}

	id, err := GetFlightID(p.FlightNumber, p.Departure)
	if err != nil {
		return models.Flight{}, err
	}
	digest, err := wallet.CreateFlightDigest(id, p.Airline, p.Nonce)
	if err != nil {
		return models.Flight{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := wallet.Verify(p.Airline, digest, p.Signature); err != nil {
		return models.Flight{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if l.state.FlightNonces[p.Airline][p.Nonce] {
		return models.Flight{}, fmt.Errorf("%w: flight nonce %d", ErrNonceReplayed, p.Nonce)
	}
	if _, exists := l.state.Flights[id]; exists {
		return models.Flight{}, fmt.Errorf("%w: flight %s already exists", ErrInvalidArgument, id)
	}

	next := l.state.clone()
	flight := registerFlight(next, id, p, l.now())
	used, ok := next.FlightNonces[p.Airline]
	if !ok {
		used = make(map[uint64]bool)
		next.FlightNonces[p.Airline] = used
	}
	used[p.Nonce] = true

	if err := l.commit(ctx, next); err != nil {
		return models.Flight{}, err
	}

	l.logger.WithFields(logrus.Fields{
		"flightId":     id,
		"flightNumber": flight.FlightNumber,
		"airline":      flight.Airline,
		"caller":       caller,
	}).Info("Flight created")
	l.publish(flightEvent(models.EventFlightCreated, flight))
	return cloneFlight(flight), nil
}

func (l *Ledger) GetFlight(ctx context.Context, id models.FlightID) (models.Flight, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	flight, ok := l.state.Flights[id]
	if !ok {
		return models.Flight{}, fmt.Errorf("%w: flight %s", ErrNotFound, id)
	}
	return cloneFlight(flight), nil
}

// GetActiveAirlines returns airlines in registration order, administrator first.
func (l *Ledger) GetActiveAirlines(ctx context.Context) []wallet.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]wallet.Address{}, l.state.Airlines...)
}

func (l *Ledger) GetFlightIDsForAirline(ctx context.Context, airline wallet.Address) []models.FlightID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.FlightID{}, l.state.AirlineFlights[airline]...)
}

// seedDemoFlight registers the administrator's bootstrap flight on a fresh ledger.
func (l *Ledger) seedDemoFlight(next *State) error {
	offset := l.cfg.DemoFlight.DepartureOffset
	if offset <= 0 {
		offset = demoOffset
	}
	capacity := l.cfg.DemoFlight.Capacity
	if capacity <= 0 {
		capacity = demoCapacity
	}

	p := CreateFlightParams{
		FlightNumber: demoFlightNumber,
		Origin:       demoOrigin,
		Destination:  demoDestination,
		Departure:    l.clock.Now().Add(offset).Unix(),
		AirlineCode:  demoAirlineCode,
		AirlineName:  demoAirlineName,
		Capacity:     capacity,
		Airline:      next.Admin,
	}
	id, err := GetFlightID(p.FlightNumber, p.Departure)
	if err != nil {
		return err
	}
	flight := registerFlight(next, id, p, l.now())
	l.logger.WithFields(logrus.Fields{
		"flightId":     id,
		"flightNumber": flight.FlightNumber,
		"departure":    flight.Departure,
	}).Info("Demo flight seeded")
	return nil
}

func registerFlight(next *State, id models.FlightID, p CreateFlightParams, now int64) models.Flight {
	flight := models.Flight{
		ID:           id,
		FlightNumber: p.FlightNumber,
		Origin:       p.Origin,
		Destination:  p.Destination,
		Departure:    p.Departure,
		AirlineCode:  p.AirlineCode,
		AirlineName:  p.AirlineName,
		Airline:      p.Airline,
		Capacity:     p.Capacity,
		SeatIDs:      []models.TokenID{},
		CreatedAt:    now,
	}
	next.Flights[id] = flight
	if _, known := next.AirlineFlights[p.Airline]; !known {
		next.Airlines = append(next.Airlines, p.Airline)
	}
	next.AirlineFlights[p.Airline] = append(next.AirlineFlights[p.Airline], id)
	return flight
}

func validateFlightParams(p CreateFlightParams) error {
	var errs []error
	if err := p.Airline.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("airline: %v", err))
	}
	fields := []struct{ name, value string }{
		{"origin", p.Origin},
		{"destination", p.Destination},
		{"airlineCode", p.AirlineCode},
		{"airlineName", p.AirlineName},
	}
	for _, f := range fields {
		if f.value == "" || len(f.value) > maxFieldLength {
			errs = append(errs, fmt.Errorf("%s must be 1 to %d bytes", f.name, maxFieldLength))
		}
	}
	if p.Capacity <= 0 {
		errs = append(errs, errors.New("capacity must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, errors.Join(errs...))
	}
	return nil
}

// findFlight resolves a flight by number and departure. Caller holds l.mu.
func (l *Ledger) findFlight(flightNumber string, departure int64) (models.Flight, error) {
	id, err := GetFlightID(flightNumber, departure)
	if err != nil {
		return models.Flight{}, err
	}
	flight, ok := l.state.Flights[id]
	if !ok {
		return models.Flight{}, fmt.Errorf("%w: flight %s at %d", ErrNotFound, flightNumber, departure)
	}
	return flight, nil
}

func cloneFlight(f models.Flight) models.Flight {
	f.SeatIDs = append([]models.TokenID{}, f.SeatIDs...)
	return f
}

func flightEvent(t models.EventType, f models.Flight) models.Event {
	id := f.ID
	return models.Event{
		Type:         t,
		FlightID:     &id,
		FlightNumber: f.FlightNumber,
		Origin:       f.Origin,
		Destination:  f.Destination,
		Departure:    f.Departure,
		Airline:      f.Airline,
	}
}
