package service

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"
	temporalmocks "go.temporal.io/sdk/mocks"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/ledger"
	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

type serviceFixture struct {
	svc       LedgerService
	ledger    *ledger.Ledger
	bank      *ledger.MemoryBank
	admin     *wallet.Wallet
	temporal  *temporalmocks.Client
	airline   *wallet.Wallet
	passenger *wallet.Wallet
	seat      models.Seat
}

func newServiceFixture(t *testing.T, withTemporal bool) *serviceFixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	admin, err := wallet.NewWallet()
	require.NoError(t, err)
	airline, err := wallet.NewWallet()
	require.NoError(t, err)
	passenger, err := wallet.NewWallet()
	require.NoError(t, err)

	bank := ledger.NewMemoryBank()
	l, err := ledger.New(context.Background(), ledger.Config{Admin: admin.Address()},
		ledger.WithLogger(logger), ledger.WithBank(bank))
	require.NoError(t, err)

	f := &serviceFixture{ledger: l, bank: bank, admin: admin, airline: airline, passenger: passenger}
	var tc client.Client
	if withTemporal {
		f.temporal = &temporalmocks.Client{}
		tc = f.temporal
	}
	f.svc = NewLedgerService(l, tc, Options{RefundAuthorizationTimeout: time.Hour, Accounts: bank}, logger)

	departure := time.Now().Add(72 * time.Hour).Unix()
	id, err := ledger.GetFlightID("DL555", departure)
	require.NoError(t, err)
	digest, err := wallet.CreateFlightDigest([32]byte(id), airline.Address(), 1)
	require.NoError(t, err)
	sig, err := airline.Sign(digest)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = f.svc.CreateFlight(ctx, airline.Address(), ledger.CreateFlightParams{
		FlightNumber: "DL555", Origin: "LHR", Destination: "JFK", Departure: departure,
		AirlineCode: "DL", AirlineName: "Delta", Capacity: 3,
		Airline: airline.Address(), Signature: sig, Nonce: 1,
	})
	require.NoError(t, err)

	seats, err := f.svc.AddSeatInventory(ctx, airline.Address(), &SeatInventoryRequest{
		FlightNumber: "DL555", Departure: departure,
		SeatNumbers: []string{"1A"}, SeatPrices: []*big.Int{big.NewInt(100)},
		Cabin: models.CabinClassFirst,
	})
	require.NoError(t, err)
	f.seat = seats[0]

	_, err = f.svc.Deposit(ctx, admin.Address(), passenger.Address(), big.NewInt(200))
	require.NoError(t, err)
	_, err = f.svc.BookSeat(ctx, passenger.Address(), f.seat.ID, big.NewInt(100))
	require.NoError(t, err)
	return f
}

func TestCancelSeatBooking_StartsSettlementWorkflow(t *testing.T) {
	f := newServiceFixture(t, true)
	ctx := context.Background()

	f.temporal.On("ExecuteWorkflow", mock.Anything,
		mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
			return o.TaskQueue == DefaultTaskQueue && len(o.ID) > len("refund-")
		}),
		RefundWorkflowName,
		mock.MatchedBy(func(in models.RefundWorkflowInput) bool {
			return in.Passenger == f.passenger.Address() && in.Amount.Int64() == 100 && in.AuthorizationTimeout == time.Hour
		}),
	).Return(&temporalmocks.WorkflowRun{}, nil).Once()

	refund, err := f.svc.CancelSeatBooking(ctx, f.airline.Address(), f.seat.ID)
	require.NoError(t, err)
	assert.Equal(t, f.passenger.Address(), refund.Passenger)
	f.temporal.AssertExpectations(t)
}

func TestCancelSeatBooking_WorkflowFailureKeepsCancellation(t *testing.T) {
	f := newServiceFixture(t, true)
	ctx := context.Background()

	f.temporal.On("ExecuteWorkflow", mock.Anything, mock.Anything, RefundWorkflowName, mock.Anything).
		Return(nil, errors.New("temporal unavailable")).Once()

	refund, err := f.svc.CancelSeatBooking(ctx, f.passenger.Address(), f.seat.ID)
	require.NoError(t, err)

	stored, err := f.svc.GetPendingRefund(ctx, refund.Nonce)
	require.NoError(t, err)
	assert.False(t, stored.Consumed)
}

func TestAuthorizeRefund(t *testing.T) {
	f := newServiceFixture(t, true)
	ctx := context.Background()
	f.temporal.On("ExecuteWorkflow", mock.Anything, mock.Anything, RefundWorkflowName, mock.Anything).
		Return(&temporalmocks.WorkflowRun{}, nil)

	refund, err := f.svc.CancelSeatBooking(ctx, f.airline.Address(), f.seat.ID)
	require.NoError(t, err)

	sig := []byte{1, 2, 3}
	f.temporal.On("SignalWorkflow", mock.Anything, RefundWorkflowID(refund.Nonce), "", models.SignalRefundAuthorized,
		models.RefundAuthorizedSignal{Amount: refund.Amount, Signature: sig, Submitter: f.airline.Address()},
	).Return(nil).Once()

	require.NoError(t, f.svc.AuthorizeRefund(ctx, f.airline.Address(), refund.Nonce, refund.Amount, sig))
	f.temporal.AssertExpectations(t)

	err = f.svc.AuthorizeRefund(ctx, f.airline.Address(), refund.Nonce+1, refund.Amount, sig)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestWithoutTemporal(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()

	refund, err := f.svc.CancelSeatBooking(ctx, f.airline.Address(), f.seat.ID)
	require.NoError(t, err)

	err = f.svc.AuthorizeRefund(ctx, f.airline.Address(), refund.Nonce, refund.Amount, nil)
	assert.ErrorIs(t, err, ErrSettlementDisabled)
	_, err = f.svc.GetRefundSettlement(ctx, refund.Nonce)
	assert.ErrorIs(t, err, ErrSettlementDisabled)

	digest, err := wallet.RefundDigest(f.airline.Address(), refund.Amount, refund.Nonce)
	require.NoError(t, err)
	sig, err := f.airline.Sign(digest)
	require.NoError(t, err)

	settled, err := f.svc.ProcessAirlineRefund(ctx, f.passenger.Address(), &RefundRequest{
		Amount: refund.Amount, Nonce: refund.Nonce, Signature: sig, Value: refund.Amount,
	})
	require.NoError(t, err)
	assert.True(t, settled.Consumed)
	assert.Equal(t, 1, f.svc.Status(ctx).Flights)

	// booked for 100, funded the refund with 100, received 100 back
	balance, err := f.svc.BalanceOf(ctx, f.passenger.Address())
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Int64())
}

func TestDeposit(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()

	balance, err := f.svc.Deposit(ctx, f.admin.Address(), f.airline.Address(), big.NewInt(50))
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance.Int64())

	_, err = f.svc.Deposit(ctx, f.airline.Address(), f.airline.Address(), big.NewInt(50))
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)
	_, err = f.svc.Deposit(ctx, f.admin.Address(), f.airline.Address(), big.NewInt(0))
	assert.ErrorIs(t, err, ledger.ErrInvalidArgument)

	balance, err = f.svc.BalanceOf(ctx, f.airline.Address())
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance.Int64())

	noBank := NewLedgerService(f.ledger, nil, Options{}, logrus.New())
	_, err = noBank.Deposit(ctx, f.admin.Address(), f.airline.Address(), big.NewInt(1))
	assert.ErrorIs(t, err, ErrAccountsDisabled)
	_, err = noBank.BalanceOf(ctx, f.airline.Address())
	assert.ErrorIs(t, err, ErrAccountsDisabled)
}

func TestRefundWorkflowID(t *testing.T) {
	assert.Equal(t, "refund-42", RefundWorkflowID(42))
}
