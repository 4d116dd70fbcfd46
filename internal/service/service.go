package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"go.temporal.io/sdk/client"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/ledger"
	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

const (
	DefaultTaskQueue   = "refund-settlement-queue"
	RefundWorkflowName = "RefundSettlementWorkflow"
)

var (
	ErrSettlementDisabled = errors.New("refund settlement workflows are disabled")
	ErrAccountsDisabled   = errors.New("account funding is not available")
)

// RefundWorkflowID names the settlement workflow of a refund nonce.
func RefundWorkflowID(nonce uint64) string {
	return "refund-" + strconv.FormatUint(nonce, 10)
}

// LedgerService defines the operations exposed to API callers
type LedgerService interface {
	GetFlightID(ctx context.Context, flightNumber string, departure int64) (models.FlightID, error)
	CreateFlight(ctx context.Context, caller wallet.Address, params ledger.CreateFlightParams) (*models.Flight, error)
	GetFlight(ctx context.Context, id models.FlightID) (*models.Flight, error)
	GetSeatsForFlight(ctx context.Context, id models.FlightID) ([]models.Seat, error)
	GetActiveAirlines(ctx context.Context) []wallet.Address
	GetFlightIDsForAirline(ctx context.Context, airline wallet.Address) []models.FlightID

	AddSeatInventory(ctx context.Context, caller wallet.Address, req *SeatInventoryRequest) ([]models.Seat, error)
	GetSeat(ctx context.Context, id models.TokenID) (*models.Seat, error)
	OwnerOf(ctx context.Context, id models.TokenID) (wallet.Address, error)

	BookSeat(ctx context.Context, caller wallet.Address, seatID models.TokenID, value *big.Int) (*models.Seat, error)
	WithdrawFlightFees(ctx context.Context, caller, airline wallet.Address) (*big.Int, error)
	EscrowBalance(ctx context.Context, caller, airline wallet.Address) (*big.Int, error)
	CancelSeatBooking(ctx context.Context, caller wallet.Address, seatID models.TokenID) (*models.PendingRefund, error)

	GetBarcodeParameters(ctx context.Context, seatID models.TokenID) (*models.BarcodeParameters, error)
	CheckinPassenger(ctx context.Context, caller wallet.Address, seatID models.TokenID, barcode, passportScanRef string) (*models.BoardingPass, error)
	GetBoardingPassForSeat(ctx context.Context, seatID models.TokenID) (*models.BoardingPass, error)

	GetPendingRefund(ctx context.Context, nonce uint64) (*models.PendingRefund, error)
	GetPendingRefundsForAirline(ctx context.Context, airline wallet.Address) []models.PendingRefund
	ProcessAirlineRefund(ctx context.Context, caller wallet.Address, req *RefundRequest) (*models.PendingRefund, error)
	AuthorizeRefund(ctx context.Context, caller wallet.Address, nonce uint64, amount *big.Int, signature []byte) error
	GetRefundSettlement(ctx context.Context, nonce uint64) (*models.RefundWorkflowState, error)

	Deposit(ctx context.Context, caller, account wallet.Address, amount *big.Int) (*big.Int, error)
	BalanceOf(ctx context.Context, account wallet.Address) (*big.Int, error)

	Pause(ctx context.Context, caller wallet.Address) error
	Unpause(ctx context.Context, caller wallet.Address) error
	Status(ctx context.Context) ledger.Status
}

// SeatInventoryRequest adds seats to one cabin of a flight
type SeatInventoryRequest struct {
	FlightNumber string
	Departure    int64
	SeatNumbers  []string
	SeatPrices   []*big.Int
	Cabin        models.CabinClass
}

// RefundRequest submits an airline-signed refund with its attached value
type RefundRequest struct {
	Amount    *big.Int
	Nonce     uint64
	Signature []byte
	Value     *big.Int
}

type Options struct {
	TaskQueue                  string
	RefundAuthorizationTimeout time.Duration
	// Accounts exposes the in-process bank, when there is one.
	Accounts ledger.Accounts
}

// ledgerService implements LedgerService
type ledgerService struct {
	ledger         *ledger.Ledger
	temporalClient client.Client
	opts           Options
	logger         logrus.FieldLogger
}

// NewLedgerService creates a new LedgerService. temporalClient may be nil,
// in which case refunds are settled only by direct submission.
func NewLedgerService(l *ledger.Ledger, temporalClient client.Client, opts Options, logger logrus.FieldLogger) LedgerService {
	if opts.TaskQueue == "" {
		opts.TaskQueue = DefaultTaskQueue
	}
	if opts.RefundAuthorizationTimeout <= 0 {
		opts.RefundAuthorizationTimeout = 7 * 24 * time.Hour
	}
	return &ledgerService{
		ledger:         l,
		temporalClient: temporalClient,
		opts:           opts,
		logger:         logger,
	}
}

func (s *ledgerService) GetFlightID(ctx context.Context, flightNumber string, departure int64) (models.FlightID, error) {
	return s.ledger.GetFlightID(flightNumber, departure)
}

func (s *ledgerService) CreateFlight(ctx context.Context, caller wallet.Address, params ledger.CreateFlightParams) (*models.Flight, error) {
	flight, err := s.ledger.CreateFlight(ctx, caller, params)
	if err != nil {
		return nil, err
	}
	return &flight, nil
}

func (s *ledgerService) GetFlight(ctx context.Context, id models.FlightID) (*models.Flight, error) {
	flight, err := s.ledger.GetFlight(ctx, id)
	if err != nil {
		return nil, err
	}
	return &flight, nil
}

func (s *ledgerService) GetSeatsForFlight(ctx context.Context, id models.FlightID) ([]models.Seat, error) {
	return s.ledger.GetSeatsForFlight(ctx, id)
}

func (s *ledgerService) GetActiveAirlines(ctx context.Context) []wallet.Address {
	return s.ledger.GetActiveAirlines(ctx)
}

func (s *ledgerService) GetFlightIDsForAirline(ctx context.Context, airline wallet.Address) []models.FlightID {
	return s.ledger.GetFlightIDsForAirline(ctx, airline)
}

func (s *ledgerService) AddSeatInventory(ctx context.Context, caller wallet.Address, req *SeatInventoryRequest) ([]models.Seat, error) {
	return s.ledger.AddSeatInventoryToFlightCabin(ctx, caller, req.FlightNumber, req.Departure, req.SeatNumbers, req.SeatPrices, req.Cabin)
}

func (s *ledgerService) GetSeat(ctx context.Context, id models.TokenID) (*models.Seat, error) {
	seat, err := s.ledger.GetSeat(ctx, id)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (s *ledgerService) OwnerOf(ctx context.Context, id models.TokenID) (wallet.Address, error) {
	return s.ledger.OwnerOf(ctx, id)
}

func (s *ledgerService) BookSeat(ctx context.Context, caller wallet.Address, seatID models.TokenID, value *big.Int) (*models.Seat, error) {
	seat, err := s.ledger.BookSeat(ctx, caller, seatID, value)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (s *ledgerService) WithdrawFlightFees(ctx context.Context, caller, airline wallet.Address) (*big.Int, error) {
	return s.ledger.WithdrawFlightFees(ctx, caller, airline)
}

func (s *ledgerService) EscrowBalance(ctx context.Context, caller, airline wallet.Address) (*big.Int, error) {
	return s.ledger.EscrowBalance(ctx, caller, airline)
}

// CancelSeatBooking cancels the booking and, when workflows are enabled,
// starts the settlement workflow for the queued refund. The cancellation
// stands even if the workflow cannot be started.
func (s *ledgerService) CancelSeatBooking(ctx context.Context, caller wallet.Address, seatID models.TokenID) (*models.PendingRefund, error) {
	refund, err := s.ledger.CancelSeatBooking(ctx, caller, seatID)
	if err != nil {
		return nil, err
	}

	if s.temporalClient != nil {
		if err := s.startSettlement(ctx, refund); err != nil {
			s.logger.WithError(err).WithField("nonce", refund.Nonce).Error("Failed to start refund settlement workflow")
		}
	}
	return &refund, nil
}

func (s *ledgerService) startSettlement(ctx context.Context, refund models.PendingRefund) error {
	input := models.RefundWorkflowInput{
		Nonce:                refund.Nonce,
		SeatID:               refund.SeatID,
		Airline:              refund.Airline,
		Passenger:            refund.Passenger,
		Amount:               refund.Amount,
		AuthorizationTimeout: s.opts.RefundAuthorizationTimeout,
	}
	workflowOptions := client.StartWorkflowOptions{
		ID:        RefundWorkflowID(refund.Nonce),
		TaskQueue: s.opts.TaskQueue,
	}

	_, err := s.temporalClient.ExecuteWorkflow(ctx, workflowOptions, RefundWorkflowName, input)
	if err != nil {
		return fmt.Errorf("failed to start workflow: %w", err)
	}
	return nil
}

func (s *ledgerService) GetBarcodeParameters(ctx context.Context, seatID models.TokenID) (*models.BarcodeParameters, error) {
	params, err := s.ledger.GetBarcodeStringParametersForBoardingPass(ctx, seatID)
	if err != nil {
		return nil, err
	}
	return &params, nil
}

func (s *ledgerService) CheckinPassenger(ctx context.Context, caller wallet.Address, seatID models.TokenID, barcode, passportScanRef string) (*models.BoardingPass, error) {
	pass, err := s.ledger.CheckinPassenger(ctx, caller, seatID, barcode, passportScanRef)
	if err != nil {
		return nil, err
	}
	return &pass, nil
}

func (s *ledgerService) GetBoardingPassForSeat(ctx context.Context, seatID models.TokenID) (*models.BoardingPass, error) {
	pass, err := s.ledger.GetBoardingPassForSeat(ctx, seatID)
	if err != nil {
		return nil, err
	}
	return &pass, nil
}

func (s *ledgerService) GetPendingRefund(ctx context.Context, nonce uint64) (*models.PendingRefund, error) {
	refund, err := s.ledger.GetPendingRefund(ctx, nonce)
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

func (s *ledgerService) GetPendingRefundsForAirline(ctx context.Context, airline wallet.Address) []models.PendingRefund {
	return s.ledger.GetPendingRefundsForAirline(ctx, airline)
}

func (s *ledgerService) ProcessAirlineRefund(ctx context.Context, caller wallet.Address, req *RefundRequest) (*models.PendingRefund, error) {
	refund, err := s.ledger.ProcessAirlineRefunds(ctx, caller, req.Amount, req.Nonce, req.Signature, req.Value)
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

// AuthorizeRefund hands the airline's signature to the settlement workflow,
// which submits it to the ledger.
func (s *ledgerService) AuthorizeRefund(ctx context.Context, caller wallet.Address, nonce uint64, amount *big.Int, signature []byte) error {
	if s.temporalClient == nil {
		return ErrSettlementDisabled
	}
	if _, err := s.ledger.GetPendingRefund(ctx, nonce); err != nil {
		return err
	}

	signal := models.RefundAuthorizedSignal{
		Amount:    amount,
		Signature: signature,
		Submitter: caller,
	}
	if err := s.temporalClient.SignalWorkflow(ctx, RefundWorkflowID(nonce), "", models.SignalRefundAuthorized, signal); err != nil {
		return fmt.Errorf("failed to signal workflow: %w", err)
	}
	return nil
}

func (s *ledgerService) GetRefundSettlement(ctx context.Context, nonce uint64) (*models.RefundWorkflowState, error) {
	if s.temporalClient == nil {
		return nil, ErrSettlementDisabled
	}

	response, err := s.temporalClient.QueryWorkflow(ctx, RefundWorkflowID(nonce), "", models.QueryGetState)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow: %w", err)
	}

	var state models.RefundWorkflowState
	if err := response.Get(&state); err != nil {
		return nil, fmt.Errorf("failed to decode workflow state: %w", err)
	}
	return &state, nil
}

// Deposit credits an account in the in-process bank. Only the ledger
// administrator may fund accounts.
func (s *ledgerService) Deposit(ctx context.Context, caller, account wallet.Address, amount *big.Int) (*big.Int, error) {
	if s.opts.Accounts == nil {
		return nil, ErrAccountsDisabled
	}
	if caller != s.ledger.Admin() {
		return nil, fmt.Errorf("%w: only the administrator may fund accounts", ledger.ErrUnauthorized)
	}
	if err := s.opts.Accounts.Deposit(account, amount); err != nil {
		return nil, err
	}

	balance := s.opts.Accounts.BalanceOf(account)
	s.logger.WithFields(logrus.Fields{
		"account": account,
		"amount":  amount.String(),
		"balance": balance.String(),
	}).Info("Account funded")
	return balance, nil
}

func (s *ledgerService) BalanceOf(ctx context.Context, account wallet.Address) (*big.Int, error) {
	if s.opts.Accounts == nil {
		return nil, ErrAccountsDisabled
	}
	return s.opts.Accounts.BalanceOf(account), nil
}

func (s *ledgerService) Pause(ctx context.Context, caller wallet.Address) error {
	return s.ledger.Pause(ctx, caller)
}

func (s *ledgerService) Unpause(ctx context.Context, caller wallet.Address) error {
	return s.ledger.Unpause(ctx, caller)
}

func (s *ledgerService) Status(ctx context.Context) ledger.Status {
	return s.ledger.Status(ctx)
}
