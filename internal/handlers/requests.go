package handlers

import (
	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

// Amounts are decimal strings and signatures are hex.

type LoginRequest struct {
	Address   wallet.Address `json:"address"`
	IssuedAt  int64          `json:"issuedAt"`
	Signature string         `json:"signature"`
}

type TokenResponse struct {
	Token     string         `json:"token"`
	ExpiresAt int64          `json:"expiresAt"`
	Address   wallet.Address `json:"address"`
}

type CreateFlightRequest struct {
	FlightNumber string         `json:"flightNumber"`
	Origin       string         `json:"origin"`
	Destination  string         `json:"destination"`
	Departure    int64          `json:"departure"`
	AirlineCode  string         `json:"airlineCode"`
	AirlineName  string         `json:"airlineName"`
	Capacity     int            `json:"capacity"`
	Airline      wallet.Address `json:"airline"`
	Signature    string         `json:"signature"`
	Nonce        uint64         `json:"nonce"`
}

type SeatInventoryRequest struct {
	FlightNumber string            `json:"flightNumber"`
	Departure    int64             `json:"departure"`
	SeatNumbers  []string          `json:"seatNumbers"`
	SeatPrices   []string          `json:"seatPrices"`
	Cabin        models.CabinClass `json:"cabin"`
}

type BookSeatRequest struct {
	Value string `json:"value"`
}

type CheckinRequest struct {
	Barcode         string `json:"barcode"`
	PassportScanRef string `json:"passportScanRef"`
}

type RefundRequest struct {
	Amount    string `json:"amount"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
	Value     string `json:"value"`
}

type AuthorizeRefundRequest struct {
	Amount    string `json:"amount"`
	Signature string `json:"signature"`
}

type FlightIDResponse struct {
	FlightID models.FlightID `json:"flightId"`
}

type AmountResponse struct {
	Airline wallet.Address `json:"airline"`
	Amount  string         `json:"amount"`
}

type OwnerResponse struct {
	TokenID models.TokenID `json:"tokenId"`
	Exists  bool           `json:"exists"`
	Owner   wallet.Address `json:"owner,omitempty"`
}

type DepositRequest struct {
	Amount string `json:"amount"`
}

type BalanceResponse struct {
	Account wallet.Address `json:"account"`
	Balance string         `json:"balance"`
}
