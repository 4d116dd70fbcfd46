package handlers

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/ledger"
)

// GetSeat handles GET /api/seats/{id}
func (h *Handler) GetSeat(w http.ResponseWriter, r *http.Request) {
	id, err := pathTokenID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	seat, err := h.ledgerService.GetSeat(r.Context(), id)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, seat)
}

// BookSeat handles POST /api/seats/{id}/book
func (h *Handler) BookSeat(w http.ResponseWriter, r *http.Request) {
	id, err := pathTokenID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req BookSeatRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	value, err := parseAmount(req.Value)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	seat, err := h.ledgerService.BookSeat(r.Context(), caller(r), id, value)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, seat)
}

// CancelSeatBooking handles DELETE /api/seats/{id}/booking
func (h *Handler) CancelSeatBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathTokenID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	refund, err := h.ledgerService.CancelSeatBooking(r.Context(), caller(r), id)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, refund)
}

// GetBarcodeParameters handles GET /api/seats/{id}/barcode
func (h *Handler) GetBarcodeParameters(w http.ResponseWriter, r *http.Request) {
	id, err := pathTokenID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	params, err := h.ledgerService.GetBarcodeParameters(r.Context(), id)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"fields":  params.Fields(),
		"barcode": params.Assemble(),
	})
}

// CheckinPassenger handles POST /api/seats/{id}/checkin
func (h *Handler) CheckinPassenger(w http.ResponseWriter, r *http.Request) {
	id, err := pathTokenID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req CheckinRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	pass, err := h.ledgerService.CheckinPassenger(r.Context(), caller(r), id, req.Barcode, req.PassportScanRef)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, pass)
}

// GetBoardingPass handles GET /api/seats/{id}/boarding-pass
func (h *Handler) GetBoardingPass(w http.ResponseWriter, r *http.Request) {
	id, err := pathTokenID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	pass, err := h.ledgerService.GetBoardingPassForSeat(r.Context(), id)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pass)
}

// GetTokenOwner handles GET /api/tokens/{id}/owner. Burned or unknown
// tokens report exists=false rather than an error.
func (h *Handler) GetTokenOwner(w http.ResponseWriter, r *http.Request) {
	id, err := pathTokenID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	owner, err := h.ledgerService.OwnerOf(r.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			respondJSON(w, http.StatusOK, OwnerResponse{TokenID: id})
			return
		}
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, OwnerResponse{TokenID: id, Exists: true, Owner: owner})
}

// GetEscrow handles GET /api/airlines/{address}/escrow
func (h *Handler) GetEscrow(w http.ResponseWriter, r *http.Request) {
	airline, err := pathAddress(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	balance, err := h.ledgerService.EscrowBalance(r.Context(), caller(r), airline)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, AmountResponse{Airline: airline, Amount: amountString(balance)})
}

// WithdrawFees handles POST /api/airlines/{address}/withdraw
func (h *Handler) WithdrawFees(w http.ResponseWriter, r *http.Request) {
	airline, err := pathAddress(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := h.ledgerService.WithdrawFlightFees(r.Context(), caller(r), airline)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, AmountResponse{Airline: airline, Amount: amountString(amount)})
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
