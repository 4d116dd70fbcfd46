package ledger

import (
	"math/big"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

// State is the complete durable ledger state. Stores persist it as one
// JSON snapshot.
type State struct {
	Version          uint64                                 `json:"version"`
	Admin            wallet.Address                         `json:"admin"`
	Paused           bool                                   `json:"paused"`
	NextTokenID      models.TokenID                         `json:"nextTokenId"`
	Flights          map[models.FlightID]models.Flight      `json:"flights"`
	Airlines         []wallet.Address                       `json:"airlines"`
	AirlineFlights   map[wallet.Address][]models.FlightID   `json:"airlineFlights"`
	Seats            map[models.TokenID]models.Seat         `json:"seats"`
	Owners           map[models.TokenID]wallet.Address      `json:"owners"`
	Approvals        map[models.TokenID]wallet.Address      `json:"approvals"`
	BoardingPasses   map[models.TokenID]models.BoardingPass `json:"boardingPasses"`
	SeatBoardingPass map[models.TokenID]models.TokenID      `json:"seatBoardingPass"`
	Escrow           map[wallet.Address]*big.Int            `json:"escrow"`
	Refunds          map[uint64]models.PendingRefund        `json:"refunds"`
	FlightNonces     map[wallet.Address]map[uint64]bool     `json:"flightNonces"`
	Holdings         *big.Int                               `json:"holdings"`
	Surplus          *big.Int                               `json:"surplus"`
}

func newState(admin wallet.Address) *State {
	s := &State{Admin: admin, NextTokenID: 1}
	s.normalize()
	return s
}

// normalize fills in collections a decoded snapshot may be missing.
func (s *State) normalize() {
	if s.NextTokenID == 0 {
		s.NextTokenID = 1
	}
	if s.Flights == nil {
		s.Flights = make(map[models.FlightID]models.Flight)
	}
	if s.AirlineFlights == nil {
		s.AirlineFlights = make(map[wallet.Address][]models.FlightID)
	}
	if s.Seats == nil {
		s.Seats = make(map[models.TokenID]models.Seat)
	}
	if s.Owners == nil {
		s.Owners = make(map[models.TokenID]wallet.Address)
	}
	if s.Approvals == nil {
		s.Approvals = make(map[models.TokenID]wallet.Address)
	}
	if s.BoardingPasses == nil {
		s.BoardingPasses = make(map[models.TokenID]models.BoardingPass)
	}
	if s.SeatBoardingPass == nil {
		s.SeatBoardingPass = make(map[models.TokenID]models.TokenID)
	}
	if s.Escrow == nil {
		s.Escrow = make(map[wallet.Address]*big.Int)
	}
	if s.Refunds == nil {
		s.Refunds = make(map[uint64]models.PendingRefund)
	}
	if s.FlightNonces == nil {
		s.FlightNonces = make(map[wallet.Address]map[uint64]bool)
	}
	if s.Holdings == nil {
		s.Holdings = new(big.Int)
	}
	if s.Surplus == nil {
		s.Surplus = new(big.Int)
	}
}

// clone returns a deep copy. Amounts stored in records are never mutated
// in place, so they are shared; running totals are copied.
func (s *State) clone() *State {
	c := &State{
		Version:          s.Version,
		Admin:            s.Admin,
		Paused:           s.Paused,
		NextTokenID:      s.NextTokenID,
		Flights:          make(map[models.FlightID]models.Flight, len(s.Flights)),
		Airlines:         append([]wallet.Address(nil), s.Airlines...),
		AirlineFlights:   make(map[wallet.Address][]models.FlightID, len(s.AirlineFlights)),
		Seats:            make(map[models.TokenID]models.Seat, len(s.Seats)),
		Owners:           make(map[models.TokenID]wallet.Address, len(s.Owners)),
		Approvals:        make(map[models.TokenID]wallet.Address, len(s.Approvals)),
		BoardingPasses:   make(map[models.TokenID]models.BoardingPass, len(s.BoardingPasses)),
		SeatBoardingPass: make(map[models.TokenID]models.TokenID, len(s.SeatBoardingPass)),
		Escrow:           make(map[wallet.Address]*big.Int, len(s.Escrow)),
		Refunds:          make(map[uint64]models.PendingRefund, len(s.Refunds)),
		FlightNonces:     make(map[wallet.Address]map[uint64]bool, len(s.FlightNonces)),
		Holdings:         new(big.Int).Set(s.Holdings),
		Surplus:          new(big.Int).Set(s.Surplus),
	}
	for id, f := range s.Flights {
		f.SeatIDs = append([]models.TokenID(nil), f.SeatIDs...)
		c.Flights[id] = f
	}
	for a, ids := range s.AirlineFlights {
		c.AirlineFlights[a] = append([]models.FlightID(nil), ids...)
	}
	for id, seat := range s.Seats {
		c.Seats[id] = seat
	}
	for id, owner := range s.Owners {
		c.Owners[id] = owner
	}
	for id, approved := range s.Approvals {
		c.Approvals[id] = approved
	}
	for id, bp := range s.BoardingPasses {
		c.BoardingPasses[id] = bp
	}
	for seat, bp := range s.SeatBoardingPass {
		c.SeatBoardingPass[seat] = bp
	}
	for a, bal := range s.Escrow {
		c.Escrow[a] = new(big.Int).Set(bal)
	}
	for n, r := range s.Refunds {
		c.Refunds[n] = r
	}
	for a, used := range s.FlightNonces {
		m := make(map[uint64]bool, len(used))
		for n := range used {
			m[n] = true
		}
		c.FlightNonces[a] = m
	}
	return c
}

func (s *State) escrowOf(airline wallet.Address) *big.Int {
	if bal, ok := s.Escrow[airline]; ok {
		return bal
	}
	return new(big.Int)
}

// mint assigns the next token id to owner.
func (s *State) mint(owner wallet.Address) models.TokenID {
	id := s.NextTokenID
	s.NextTokenID++
	s.Owners[id] = owner
	return id
}

func (s *State) burn(id models.TokenID) {
	delete(s.Owners, id)
	delete(s.Approvals, id)
}

// liveSeat returns a seat whose claim has not been burned.
func (s *State) liveSeat(id models.TokenID) (models.Seat, bool) {
	seat, ok := s.Seats[id]
	if !ok {
		return seat, false
	}
	owner, ok := s.Owners[id]
	if !ok {
		return seat, false
	}
	seat.Owner = owner
	return seat, true
}
