package models

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
)

// FlightID is the keccak digest of a flight number and departure timestamp.
type FlightID [32]byte

func (id FlightID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

func (id FlightID) IsZero() bool {
	return id == FlightID{}
}

func (id FlightID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *FlightID) UnmarshalText(text []byte) error {
	parsed, err := ParseFlightID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseFlightID accepts a 32-byte hex string with or without the 0x prefix.
func ParseFlightID(s string) (FlightID, error) {
	var id FlightID
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return id, fmt.Errorf("invalid flight id %q: %w", s, err)
	}
	if len(raw) != len(id) {
		return id, fmt.Errorf("invalid flight id %q: want %d bytes, got %d", s, len(id), len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// TokenID identifies a seat claim or a boarding pass. Both share one id space.
type TokenID uint64

// Flight represents a scheduled flight owned by an airline
type Flight struct {
	ID           FlightID       `json:"id"`
	FlightNumber string         `json:"flightNumber"`
	Origin       string         `json:"origin"`
	Destination  string         `json:"destination"`
	Departure    int64          `json:"departure"` // unix seconds
	AirlineCode  string         `json:"airlineCode"`
	AirlineName  string         `json:"airlineName"`
	Airline      wallet.Address `json:"airline"`
	Capacity     int            `json:"capacity"`
	SeatIDs      []TokenID      `json:"seatIds"`
	CreatedAt    int64          `json:"createdAt"`
}

// Seat represents a seat on a flight
type Seat struct {
	ID         TokenID        `json:"id"`
	FlightID   FlightID       `json:"flightId"`
	SeatNumber string         `json:"seatNumber"`
	Price      *big.Int       `json:"price"`
	Class      CabinClass     `json:"class"`
	Status     SeatStatus     `json:"status"`
	CheckedIn  bool           `json:"checkedIn"`
	Owner      wallet.Address `json:"owner,omitempty"`
}

type CabinClass string

const (
	CabinClassEconomy  CabinClass = "economy"
	CabinClassBusiness CabinClass = "business"
	CabinClassFirst    CabinClass = "first"
)

func (c CabinClass) Valid() bool {
	switch c {
	case CabinClassEconomy, CabinClassBusiness, CabinClassFirst:
		return true
	}
	return false
}

type SeatStatus string

const (
	SeatStatusVacant   SeatStatus = "vacant"
	SeatStatusOccupied SeatStatus = "occupied"
)
