package handlers

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/ledger"
	"github.com/cx-tal-miterani/flight-seats-distributor/internal/service"
)

// GetFlightID handles GET /api/flights/id?flightNumber=&departure=
func (h *Handler) GetFlightID(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	departure, err := strconv.ParseInt(query.Get("departure"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "departure must be a unix timestamp")
		return
	}

	id, err := h.ledgerService.GetFlightID(r.Context(), query.Get("flightNumber"), departure)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, FlightIDResponse{FlightID: id})
}

// CreateFlight handles POST /api/flights
func (h *Handler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var req CreateFlightRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sig, err := parseSignature(req.Signature)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	flight, err := h.ledgerService.CreateFlight(r.Context(), caller(r), ledger.CreateFlightParams{
		FlightNumber: req.FlightNumber,
		Origin:       req.Origin,
		Destination:  req.Destination,
		Departure:    req.Departure,
		AirlineCode:  req.AirlineCode,
		AirlineName:  req.AirlineName,
		Capacity:     req.Capacity,
		Airline:      req.Airline,
		Signature:    sig,
		Nonce:        req.Nonce,
	})
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, flight)
}

// GetFlight handles GET /api/flights/{id}
func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	id, err := pathFlightID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	flight, err := h.ledgerService.GetFlight(r.Context(), id)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, flight)
}

// GetFlightSeats handles GET /api/flights/{id}/seats
func (h *Handler) GetFlightSeats(w http.ResponseWriter, r *http.Request) {
	id, err := pathFlightID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	seats, err := h.ledgerService.GetSeatsForFlight(r.Context(), id)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, seats)
}

// AddSeatInventory handles POST /api/inventory
func (h *Handler) AddSeatInventory(w http.ResponseWriter, r *http.Request) {
	var req SeatInventoryRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	prices := make([]*big.Int, len(req.SeatPrices))
	for i, raw := range req.SeatPrices {
		price, err := parseAmount(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		prices[i] = price
	}

	seats, err := h.ledgerService.AddSeatInventory(r.Context(), caller(r), &service.SeatInventoryRequest{
		FlightNumber: req.FlightNumber,
		Departure:    req.Departure,
		SeatNumbers:  req.SeatNumbers,
		SeatPrices:   prices,
		Cabin:        req.Cabin,
	})
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, seats)
}

// GetActiveAirlines handles GET /api/airlines
func (h *Handler) GetActiveAirlines(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.ledgerService.GetActiveAirlines(r.Context()))
}

// GetAirlineFlights handles GET /api/airlines/{address}/flights
func (h *Handler) GetAirlineFlights(w http.ResponseWriter, r *http.Request) {
	airline, err := pathAddress(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.ledgerService.GetFlightIDsForAirline(r.Context(), airline))
}
