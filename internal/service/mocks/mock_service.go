package mocks

import (
	"context"
	"math/big"

	"github.com/stretchr/testify/mock"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/ledger"
	"github.com/cx-tal-miterani/flight-seats-distributor/internal/service"
	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

// MockLedgerService is a mock implementation of LedgerService
type MockLedgerService struct {
	mock.Mock
}

var _ service.LedgerService = (*MockLedgerService)(nil)

func (m *MockLedgerService) GetFlightID(ctx context.Context, flightNumber string, departure int64) (models.FlightID, error) {
	args := m.Called(ctx, flightNumber, departure)
	return args.Get(0).(models.FlightID), args.Error(1)
}

func (m *MockLedgerService) CreateFlight(ctx context.Context, caller wallet.Address, params ledger.CreateFlightParams) (*models.Flight, error) {
	args := m.Called(ctx, caller, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flight), args.Error(1)
}

func (m *MockLedgerService) GetFlight(ctx context.Context, id models.FlightID) (*models.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flight), args.Error(1)
}

func (m *MockLedgerService) GetSeatsForFlight(ctx context.Context, id models.FlightID) ([]models.Seat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Seat), args.Error(1)
}

func (m *MockLedgerService) GetActiveAirlines(ctx context.Context) []wallet.Address {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]wallet.Address)
}

func (m *MockLedgerService) GetFlightIDsForAirline(ctx context.Context, airline wallet.Address) []models.FlightID {
	args := m.Called(ctx, airline)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.FlightID)
}

func (m *MockLedgerService) AddSeatInventory(ctx context.Context, caller wallet.Address, req *service.SeatInventoryRequest) ([]models.Seat, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Seat), args.Error(1)
}

func (m *MockLedgerService) GetSeat(ctx context.Context, id models.TokenID) (*models.Seat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Seat), args.Error(1)
}

func (m *MockLedgerService) OwnerOf(ctx context.Context, id models.TokenID) (wallet.Address, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(wallet.Address), args.Error(1)
}

func (m *MockLedgerService) BookSeat(ctx context.Context, caller wallet.Address, seatID models.TokenID, value *big.Int) (*models.Seat, error) {
	args := m.Called(ctx, caller, seatID, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Seat), args.Error(1)
}

func (m *MockLedgerService) WithdrawFlightFees(ctx context.Context, caller, airline wallet.Address) (*big.Int, error) {
	args := m.Called(ctx, caller, airline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) EscrowBalance(ctx context.Context, caller, airline wallet.Address) (*big.Int, error) {
	args := m.Called(ctx, caller, airline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) CancelSeatBooking(ctx context.Context, caller wallet.Address, seatID models.TokenID) (*models.PendingRefund, error) {
	args := m.Called(ctx, caller, seatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingRefund), args.Error(1)
}

func (m *MockLedgerService) GetBarcodeParameters(ctx context.Context, seatID models.TokenID) (*models.BarcodeParameters, error) {
	args := m.Called(ctx, seatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BarcodeParameters), args.Error(1)
}

func (m *MockLedgerService) CheckinPassenger(ctx context.Context, caller wallet.Address, seatID models.TokenID, barcode, passportScanRef string) (*models.BoardingPass, error) {
	args := m.Called(ctx, caller, seatID, barcode, passportScanRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BoardingPass), args.Error(1)
}

func (m *MockLedgerService) GetBoardingPassForSeat(ctx context.Context, seatID models.TokenID) (*models.BoardingPass, error) {
	args := m.Called(ctx, seatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BoardingPass), args.Error(1)
}

func (m *MockLedgerService) GetPendingRefund(ctx context.Context, nonce uint64) (*models.PendingRefund, error) {
	args := m.Called(ctx, nonce)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingRefund), args.Error(1)
}

func (m *MockLedgerService) GetPendingRefundsForAirline(ctx context.Context, airline wallet.Address) []models.PendingRefund {
	args := m.Called(ctx, airline)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.PendingRefund)
}

func (m *MockLedgerService) ProcessAirlineRefund(ctx context.Context, caller wallet.Address, req *service.RefundRequest) (*models.PendingRefund, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingRefund), args.Error(1)
}

func (m *MockLedgerService) AuthorizeRefund(ctx context.Context, caller wallet.Address, nonce uint64, amount *big.Int, signature []byte) error {
	args := m.Called(ctx, caller, nonce, amount, signature)
	return args.Error(0)
}

func (m *MockLedgerService) GetRefundSettlement(ctx context.Context, nonce uint64) (*models.RefundWorkflowState, error) {
	args := m.Called(ctx, nonce)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefundWorkflowState), args.Error(1)
}

func (m *MockLedgerService) Pause(ctx context.Context, caller wallet.Address) error {
	args := m.Called(ctx, caller)
	return args.Error(0)
}

func (m *MockLedgerService) Unpause(ctx context.Context, caller wallet.Address) error {
	args := m.Called(ctx, caller)
	return args.Error(0)
}

func (m *MockLedgerService) Deposit(ctx context.Context, caller, account wallet.Address, amount *big.Int) (*big.Int, error) {
	args := m.Called(ctx, caller, account, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) BalanceOf(ctx context.Context, account wallet.Address) (*big.Int, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) Status(ctx context.Context) ledger.Status {
	args := m.Called(ctx)
	return args.Get(0).(ledger.Status)
}
