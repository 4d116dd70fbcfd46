package router

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/auth"
	"github.com/cx-tal-miterani/flight-seats-distributor/internal/handlers"
	"github.com/cx-tal-miterani/flight-seats-distributor/internal/websocket"
)

// SetupRouter creates and configures the HTTP router. Reads are public;
// mutating routes require a bearer token.
func SetupRouter(h *handlers.Handler, hub *websocket.Hub, tokens *auth.TokenService, allowedOrigins []string) *mux.Router {
	r := mux.NewRouter()

	r.Use(corsMiddleware(allowedOrigins))
	r.Use(auth.Middleware(tokens))

	api := r.PathPrefix("/api").Subrouter()
	signed := auth.RequireCaller

	api.HandleFunc("/auth/token", h.Login).Methods(http.MethodPost, http.MethodOptions)

	// Flights
	api.HandleFunc("/flights/id", h.GetFlightID).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights", signed(h.CreateFlight)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/flights/{id}", h.GetFlight).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights/{id}/seats", h.GetFlightSeats).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/inventory", signed(h.AddSeatInventory)).Methods(http.MethodPost, http.MethodOptions)

	// Airlines
	api.HandleFunc("/airlines", h.GetActiveAirlines).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/airlines/{address}/flights", h.GetAirlineFlights).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/airlines/{address}/escrow", signed(h.GetEscrow)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/airlines/{address}/withdraw", signed(h.WithdrawFees)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/airlines/{address}/refunds", h.GetAirlineRefunds).Methods(http.MethodGet, http.MethodOptions)

	// Seats and boarding passes
	api.HandleFunc("/seats/{id}", h.GetSeat).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/seats/{id}/book", signed(h.BookSeat)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/seats/{id}/booking", signed(h.CancelSeatBooking)).Methods(http.MethodDelete, http.MethodOptions)
	api.HandleFunc("/seats/{id}/barcode", h.GetBarcodeParameters).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/seats/{id}/checkin", signed(h.CheckinPassenger)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/seats/{id}/boarding-pass", h.GetBoardingPass).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/tokens/{id}/owner", h.GetTokenOwner).Methods(http.MethodGet, http.MethodOptions)

	// Refunds
	api.HandleFunc("/refunds", signed(h.ProcessRefund)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/refunds/{nonce}", h.GetPendingRefund).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/refunds/{nonce}/authorize", signed(h.AuthorizeRefund)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/refunds/{nonce}/settlement", h.GetRefundSettlement).Methods(http.MethodGet, http.MethodOptions)

	// Admin
	api.HandleFunc("/admin/pause", signed(h.Pause)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/admin/unpause", signed(h.Unpause)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/admin/status", h.GetStatus).Methods(http.MethodGet, http.MethodOptions)

	// Accounts in the in-process bank
	api.HandleFunc("/accounts/{address}/deposit", signed(h.Deposit)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/accounts/{address}/balance", h.GetBalance).Methods(http.MethodGet, http.MethodOptions)

	// WebSocket for real-time updates
	api.HandleFunc("/flights/{id}/ws", hub.ServeWS)

	// Health check
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	return r
}

func corsMiddleware(allowedOrigins []string) mux.MiddlewareFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[strings.TrimSuffix(origin, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
