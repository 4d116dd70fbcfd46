package handlers

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/auth"
	"github.com/cx-tal-miterani/flight-seats-distributor/internal/ledger"
	"github.com/cx-tal-miterani/flight-seats-distributor/internal/service"
	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

// Handler contains HTTP handlers for the API
type Handler struct {
	ledgerService service.LedgerService
	tokens        *auth.TokenService
	logger        logrus.FieldLogger
}

// NewHandler creates a new Handler instance
func NewHandler(ledgerService service.LedgerService, tokens *auth.TokenService, logger logrus.FieldLogger) *Handler {
	return &Handler{
		ledgerService: ledgerService,
		tokens:        tokens,
		logger:        logger,
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondLedgerError maps ledger failures onto HTTP statuses.
func (h *Handler) respondLedgerError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, ledger.ErrContractPaused):
		status = http.StatusServiceUnavailable
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrDepartureInPast),
		errors.Is(err, ledger.ErrCapacityExceeded),
		errors.Is(err, ledger.ErrInvalidArgument),
		errors.Is(err, wallet.ErrInvalidInput),
		errors.Is(err, wallet.ErrInvalidAddress):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrSeatUnavailable),
		errors.Is(err, ledger.ErrAlreadyInState),
		errors.Is(err, ledger.ErrNonceReplayed),
		errors.Is(err, ledger.ErrNothingToWithdraw):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientPayment):
		status = http.StatusPaymentRequired
	case errors.Is(err, ledger.ErrInvalidSignature):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrSettlementDisabled),
		errors.Is(err, service.ErrAccountsDisabled):
		status = http.StatusNotImplemented
	}

	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("Request failed")
		respondError(w, status, "internal error")
		return
	}
	respondError(w, status, err.Error())
}

func caller(r *http.Request) wallet.Address {
	addr, _ := auth.CallerFromContext(r.Context())
	return addr
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, errors.New("amount is required")
	}
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount %q is negative", s)
	}
	return amount, nil
}

func parseSignature(s string) ([]byte, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(sig) == 0 {
		return nil, errors.New("signature must be non-empty hex")
	}
	return sig, nil
}

func pathTokenID(r *http.Request) (models.TokenID, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, errors.New("invalid token id")
	}
	return models.TokenID(id), nil
}

func pathFlightID(r *http.Request) (models.FlightID, error) {
	return models.ParseFlightID(mux.Vars(r)["id"])
}

func pathAddress(r *http.Request) (wallet.Address, error) {
	addr := wallet.Address(mux.Vars(r)["address"])
	if err := addr.Validate(); err != nil {
		return "", err
	}
	return addr, nil
}

func pathNonce(r *http.Request) (uint64, error) {
	nonce, err := strconv.ParseUint(mux.Vars(r)["nonce"], 10, 64)
	if err != nil {
		return 0, errors.New("invalid nonce")
	}
	return nonce, nil
}

// Login handles POST /api/auth/token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sig, err := parseSignature(req.Signature)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, expires, err := h.tokens.Login(req.Address, req.IssuedAt, sig)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidLogin) || errors.Is(err, auth.ErrLoginExpired) {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.respondLedgerError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: expires.Unix(),
		Address:   req.Address,
	})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.ledgerService.Status(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"paused": status.Paused,
		"time":   time.Now().Format(time.RFC3339),
	})
}
