package models

import (
	"math/big"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
)

type EventType string

const (
	EventFlightCreated         EventType = "flight_created"
	EventSeatsAdded            EventType = "seats_added"
	EventSeatBooked            EventType = "seat_booked"
	EventFeesWithdrawn         EventType = "fees_withdrawn"
	EventSeatBookingCancelled  EventType = "seat_booking_cancelled"
	EventBoardingPassGenerated EventType = "boarding_pass_generated"
	EventRefundProcessed       EventType = "refund_processed"
	EventPaused                EventType = "paused"
	EventUnpaused              EventType = "unpaused"
)

// Event is published after a mutating ledger operation commits
type Event struct {
	ID              string         `json:"id"`
	Type            EventType      `json:"type"`
	FlightID        *FlightID      `json:"flightId,omitempty"`
	FlightNumber    string         `json:"flightNumber,omitempty"`
	Origin          string         `json:"origin,omitempty"`
	Destination     string         `json:"destination,omitempty"`
	Departure       int64          `json:"departure,omitempty"`
	SeatID          TokenID        `json:"seatId,omitempty"`
	SeatIDs         []TokenID      `json:"seatIds,omitempty"`
	SeatNumber      string         `json:"seatNumber,omitempty"`
	BoardingPassID  TokenID        `json:"boardingPassId,omitempty"`
	Airline         wallet.Address `json:"airline,omitempty"`
	Passenger       wallet.Address `json:"passenger,omitempty"`
	Caller          wallet.Address `json:"caller,omitempty"`
	Amount          *big.Int       `json:"amount,omitempty"`
	Nonce           uint64         `json:"nonce,omitempty"`
	PassportScanRef string         `json:"passportScanRef,omitempty"`
	Timestamp       int64          `json:"timestamp"`
}
