package handlers

import "net/http"

// Pause handles POST /api/admin/pause
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	if err := h.ledgerService.Pause(r.Context(), caller(r)); err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.ledgerService.Status(r.Context()))
}

// Unpause handles POST /api/admin/unpause
func (h *Handler) Unpause(w http.ResponseWriter, r *http.Request) {
	if err := h.ledgerService.Unpause(r.Context(), caller(r)); err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.ledgerService.Status(r.Context()))
}

// GetStatus handles GET /api/admin/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.ledgerService.Status(r.Context()))
}
