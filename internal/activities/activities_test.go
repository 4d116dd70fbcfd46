package activities

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/ledger"
	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

type refundFixture struct {
	ledger    *ledger.Ledger
	bank      *ledger.MemoryBank
	admin     *wallet.Wallet
	airline   *wallet.Wallet
	passenger *wallet.Wallet
	refund    models.PendingRefund
	env       *testsuite.TestActivityEnvironment
}

func newRefundFixture(t *testing.T) *refundFixture {
	t.Helper()
	ctx := context.Background()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &refundFixture{bank: ledger.NewMemoryBank()}
	var err error
	f.admin, err = wallet.NewWallet()
	require.NoError(t, err)
	f.airline, err = wallet.NewWallet()
	require.NoError(t, err)
	f.passenger, err = wallet.NewWallet()
	require.NoError(t, err)
	require.NoError(t, f.bank.Deposit(f.passenger.Address(), big.NewInt(100)))
	require.NoError(t, f.bank.Deposit(f.airline.Address(), big.NewInt(100)))

	f.ledger, err = ledger.New(ctx, ledger.Config{Admin: f.admin.Address()},
		ledger.WithLogger(logger), ledger.WithBank(f.bank))
	require.NoError(t, err)

	departure := time.Now().Add(48 * time.Hour).Unix()
	id, err := ledger.GetFlightID("DL555", departure)
	require.NoError(t, err)
	digest, err := wallet.CreateFlightDigest([32]byte(id), f.airline.Address(), 1)
	require.NoError(t, err)
	sig, err := f.airline.Sign(digest)
	require.NoError(t, err)
	_, err = f.ledger.CreateFlight(ctx, f.airline.Address(), ledger.CreateFlightParams{
		FlightNumber: "DL555", Origin: "ATL", Destination: "LAX", Departure: departure,
		AirlineCode: "DL", AirlineName: "Delta", Capacity: 2,
		Airline: f.airline.Address(), Signature: sig, Nonce: 1,
	})
	require.NoError(t, err)

	seats, err := f.ledger.AddSeatInventoryToFlightCabin(ctx, f.airline.Address(), "DL555", departure,
		[]string{"1A"}, []*big.Int{big.NewInt(100)}, models.CabinClassFirst)
	require.NoError(t, err)
	_, err = f.ledger.BookSeat(ctx, f.passenger.Address(), seats[0].ID, big.NewInt(100))
	require.NoError(t, err)
	f.refund, err = f.ledger.CancelSeatBooking(ctx, f.airline.Address(), seats[0].ID)
	require.NoError(t, err)

	var ts testsuite.WorkflowTestSuite
	f.env = ts.NewTestActivityEnvironment()
	f.env.RegisterActivity(NewActivities(f.ledger))
	return f
}

func (f *refundFixture) input(t *testing.T, signer *wallet.Wallet) SettleRefundInput {
	t.Helper()
	digest, err := wallet.RefundDigest(f.airline.Address(), f.refund.Amount, f.refund.Nonce)
	require.NoError(t, err)
	sig, err := signer.Sign(digest)
	require.NoError(t, err)
	return SettleRefundInput{
		Nonce:     f.refund.Nonce,
		Amount:    new(big.Int).Set(f.refund.Amount),
		Signature: sig,
		Submitter: f.airline.Address(),
	}
}

func (f *refundFixture) settle(input SettleRefundInput) (*models.SettleRefundResult, error) {
	acts := &Activities{}
	val, err := f.env.ExecuteActivity(acts.SettleRefund, input)
	if err != nil {
		return nil, err
	}
	var result models.SettleRefundResult
	if err := val.Get(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func requireErrorType(t *testing.T, err error, errType string) {
	t.Helper()
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr), "expected application error, got %v", err)
	assert.Equal(t, errType, appErr.Type())
	assert.True(t, appErr.NonRetryable())
}

func TestSettleRefund_Success(t *testing.T) {
	f := newRefundFixture(t)

	result, err := f.settle(f.input(t, f.airline))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(100), f.bank.BalanceOf(f.passenger.Address()).Int64())
	assert.Equal(t, 0, f.bank.BalanceOf(f.airline.Address()).Sign())

	refund, err := f.ledger.GetPendingRefund(context.Background(), f.refund.Nonce)
	require.NoError(t, err)
	assert.True(t, refund.Consumed)
}

func TestSettleRefund_Replay(t *testing.T) {
	f := newRefundFixture(t)

	input := f.input(t, f.airline)
	_, err := f.settle(input)
	require.NoError(t, err)

	_, err = f.settle(input)
	requireErrorType(t, err, ErrTypeNonceReplayed)
	assert.Equal(t, int64(100), f.bank.BalanceOf(f.passenger.Address()).Int64())
}

func TestSettleRefund_ForgedSignature(t *testing.T) {
	f := newRefundFixture(t)

	_, err := f.settle(f.input(t, f.passenger))
	requireErrorType(t, err, ErrTypeInvalidSignature)
	assert.Equal(t, 0, f.bank.BalanceOf(f.passenger.Address()).Sign())
}

func TestSettleRefund_UnknownNonce(t *testing.T) {
	f := newRefundFixture(t)

	input := f.input(t, f.airline)
	input.Nonce++
	_, err := f.settle(input)
	requireErrorType(t, err, ErrTypeNotFound)
}

func TestSettleRefund_MissingAmount(t *testing.T) {
	f := newRefundFixture(t)

	input := f.input(t, f.airline)
	input.Amount = nil
	_, err := f.settle(input)
	requireErrorType(t, err, ErrTypeInvalidArgument)
}

func TestSettleRefund_UnfundedSubmitter(t *testing.T) {
	f := newRefundFixture(t)
	broke, err := wallet.NewWallet()
	require.NoError(t, err)

	input := f.input(t, f.airline)
	input.Submitter = broke.Address()
	_, err = f.settle(input)
	requireErrorType(t, err, ErrTypeInvalidArgument)

	refund, err := f.ledger.GetPendingRefund(context.Background(), f.refund.Nonce)
	require.NoError(t, err)
	assert.False(t, refund.Consumed)
	assert.Equal(t, 0, f.bank.BalanceOf(f.passenger.Address()).Sign())
}

func TestSettleRefund_PausedIsRetryable(t *testing.T) {
	f := newRefundFixture(t)
	require.NoError(t, f.ledger.Pause(context.Background(), f.admin.Address()))

	_, err := f.settle(f.input(t, f.airline))
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		assert.False(t, appErr.NonRetryable())
	}
	assert.Contains(t, err.Error(), ledger.ErrContractPaused.Error())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err       error
		errType   string
		retryable bool
	}{
		{err: fmt.Errorf("refund 1: %w", ledger.ErrInvalidSignature), errType: ErrTypeInvalidSignature},
		{err: ledger.ErrNonceReplayed, errType: ErrTypeNonceReplayed},
		{err: ledger.ErrNotFound, errType: ErrTypeNotFound},
		{err: ledger.ErrInvalidArgument, errType: ErrTypeInvalidArgument},
		{err: ledger.ErrUnauthorized, errType: ErrTypeInvalidArgument},
		{err: ledger.ErrContractPaused, retryable: true},
		{err: errors.New("transfer failed"), retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got := classify(tt.err)
			if tt.retryable {
				assert.Equal(t, tt.err, got)
				return
			}
			requireErrorType(t, got, tt.errType)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
