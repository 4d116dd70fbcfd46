package models

import (
	"math/big"
	"time"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
)

// RefundWorkflowInput starts settlement of one pending refund
type RefundWorkflowInput struct {
	Nonce     uint64         `json:"nonce"`
	SeatID    TokenID        `json:"seatId"`
	Airline   wallet.Address `json:"airline"`
	Passenger wallet.Address `json:"passenger"`
	Amount    *big.Int       `json:"amount"`
	// AuthorizationTimeout bounds the wait for the airline's signature.
	AuthorizationTimeout time.Duration `json:"authorizationTimeout"`
}

type RefundStatus string

const (
	RefundStatusAwaitingAuthorization RefundStatus = "awaiting_authorization"
	RefundStatusSettling              RefundStatus = "settling"
	RefundStatusSettled               RefundStatus = "settled"
	RefundStatusRejected              RefundStatus = "rejected"
	RefundStatusExpired               RefundStatus = "expired"
)

// RefundWorkflowState represents the current state of the settlement workflow
type RefundWorkflowState struct {
	Nonce         uint64       `json:"nonce"`
	Status        RefundStatus `json:"status"`
	Amount        *big.Int     `json:"amount"`
	Attempts      int          `json:"attempts"`
	FailureReason string       `json:"failureReason,omitempty"`
	AuthorizedBy  string       `json:"authorizedBy,omitempty"`
	DeadlineAt    time.Time    `json:"deadlineAt"`
	LastUpdated   time.Time    `json:"lastUpdated"`
}

// Signals for workflow communication
const (
	SignalRefundAuthorized = "refund-authorized"
)

// RefundAuthorizedSignal carries the airline's signature over the refund digest
type RefundAuthorizedSignal struct {
	Amount    *big.Int       `json:"amount"`
	Signature []byte         `json:"signature"`
	Submitter wallet.Address `json:"submitter"`
}

// Queries for workflow state
const (
	QueryGetState = "get_state"
)

// Activity results
type SettleRefundResult struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	CanRetry bool   `json:"canRetry"`
}
