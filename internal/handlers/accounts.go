package handlers

import (
	"net/http"
)

// Deposit handles POST /api/accounts/{address}/deposit
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	account, err := pathAddress(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req DepositRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	balance, err := h.ledgerService.Deposit(r.Context(), caller(r), account, amount)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, BalanceResponse{Account: account, Balance: amountString(balance)})
}

// GetBalance handles GET /api/accounts/{address}/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account, err := pathAddress(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	balance, err := h.ledgerService.BalanceOf(r.Context(), account)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, BalanceResponse{Account: account, Balance: amountString(balance)})
}
