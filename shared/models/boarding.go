package models

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
)

// BoardingPass is minted to the seat owner on check-in
type BoardingPass struct {
	ID              TokenID        `json:"id"`
	SeatID          TokenID        `json:"seatId"`
	FlightID        FlightID       `json:"flightId"`
	Barcode         string         `json:"barcode"`
	Passenger       wallet.Address `json:"passenger"`
	PassportScanRef string         `json:"passportScanRef"`
	IssuedAt        int64          `json:"issuedAt"`
}

// BarcodeParameters are the five fields a boarding-pass barcode is built from.
type BarcodeParameters struct {
	FlightNumber string `json:"flightNumber"`
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	Departure    int64  `json:"departure"`
	AirlineCode  string `json:"airlineCode"`
}

// Fields returns the parameters in barcode order.
func (p BarcodeParameters) Fields() []string {
	return []string{
		p.FlightNumber,
		p.Origin,
		p.Destination,
		strconv.FormatInt(p.Departure, 10),
		p.AirlineCode,
	}
}

// Assemble builds the barcode string handed back on check-in.
func (p BarcodeParameters) Assemble() string {
	var b strings.Builder
	b.WriteString(p.FlightNumber)
	b.WriteString(strings.TrimSpace(p.Origin))
	b.WriteString(strings.TrimSpace(p.Destination))
	b.WriteString(strconv.FormatInt(p.Departure, 10))
	b.WriteString(strings.TrimSpace(p.AirlineCode))
	return b.String()
}

// PendingRefund is queued when an occupied seat is cancelled
type PendingRefund struct {
	Nonce       uint64         `json:"nonce"`
	SeatID      TokenID        `json:"seatId"`
	FlightID    FlightID       `json:"flightId"`
	Airline     wallet.Address `json:"airline"`
	Passenger   wallet.Address `json:"passenger"`
	Amount      *big.Int       `json:"amount"`
	Consumed    bool           `json:"consumed"`
	RequestedAt int64          `json:"requestedAt"`
	SettledAt   int64          `json:"settledAt,omitempty"`
}
