package handlers

import (
	"net/http"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/service"
)

// GetPendingRefund handles GET /api/refunds/{nonce}
func (h *Handler) GetPendingRefund(w http.ResponseWriter, r *http.Request) {
	nonce, err := pathNonce(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	refund, err := h.ledgerService.GetPendingRefund(r.Context(), nonce)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, refund)
}

// GetAirlineRefunds handles GET /api/airlines/{address}/refunds
func (h *Handler) GetAirlineRefunds(w http.ResponseWriter, r *http.Request) {
	airline, err := pathAddress(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.ledgerService.GetPendingRefundsForAirline(r.Context(), airline))
}

// ProcessRefund handles POST /api/refunds
func (h *Handler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	var req RefundRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	value, err := parseAmount(req.Value)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sig, err := parseSignature(req.Signature)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	refund, err := h.ledgerService.ProcessAirlineRefund(r.Context(), caller(r), &service.RefundRequest{
		Amount:    amount,
		Nonce:     req.Nonce,
		Signature: sig,
		Value:     value,
	})
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, refund)
}

// AuthorizeRefund handles POST /api/refunds/{nonce}/authorize
func (h *Handler) AuthorizeRefund(w http.ResponseWriter, r *http.Request) {
	nonce, err := pathNonce(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req AuthorizeRefundRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sig, err := parseSignature(req.Signature)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ledgerService.AuthorizeRefund(r.Context(), caller(r), nonce, amount, sig); err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "Refund authorization submitted"})
}

// GetRefundSettlement handles GET /api/refunds/{nonce}/settlement
func (h *Handler) GetRefundSettlement(w http.ResponseWriter, r *http.Request) {
	nonce, err := pathNonce(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := h.ledgerService.GetRefundSettlement(r.Context(), nonce)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}
