package workflows

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/activities"
	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

const testAirline = wallet.Address("1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2")

type RefundWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *RefundWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.env.RegisterActivityWithOptions(activities.NewActivities(nil).SettleRefund, activity.RegisterOptions{Name: "SettleRefund"})
}

func (s *RefundWorkflowTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func TestRefundWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(RefundWorkflowTestSuite))
}

func testInput() models.RefundWorkflowInput {
	return models.RefundWorkflowInput{
		Nonce:                42,
		SeatID:               3,
		Airline:              testAirline,
		Passenger:            "passenger",
		Amount:               big.NewInt(100),
		AuthorizationTimeout: time.Hour,
	}
}

func (s *RefundWorkflowTestSuite) signalAfter(delay time.Duration, sig []byte) {
	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(models.SignalRefundAuthorized, models.RefundAuthorizedSignal{
			Amount:    big.NewInt(100),
			Signature: sig,
			Submitter: testAirline,
		})
	}, delay)
}

func (s *RefundWorkflowTestSuite) result() models.RefundWorkflowState {
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var state models.RefundWorkflowState
	s.NoError(s.env.GetWorkflowResult(&state))
	return state
}

func (s *RefundWorkflowTestSuite) TestWorkflow_Constants() {
	s.Equal(7*24*time.Hour, DefaultAuthorizationTimeout)
	s.Equal(3, MaxAuthorizationAttempts)
}

func (s *RefundWorkflowTestSuite) TestWorkflow_SettlesOnAuthorization() {
	s.env.OnActivity("SettleRefund", mock.Anything, mock.MatchedBy(func(in activities.SettleRefundInput) bool {
		return in.Nonce == 42 && in.Amount.Int64() == 100 && in.Submitter == testAirline && string(in.Signature) == "sig"
	})).Return(&models.SettleRefundResult{Success: true}, nil).Once()

	s.signalAfter(time.Minute, []byte("sig"))
	s.env.ExecuteWorkflow(RefundSettlementWorkflow, testInput())

	state := s.result()
	s.Equal(models.RefundStatusSettled, state.Status)
	s.Equal(1, state.Attempts)
	s.Equal(testAirline.String(), state.AuthorizedBy)
	s.Equal(int64(100), state.Amount.Int64())
}

func (s *RefundWorkflowTestSuite) TestWorkflow_ExpiresWithoutAuthorization() {
	s.env.ExecuteWorkflow(RefundSettlementWorkflow, testInput())

	state := s.result()
	s.Equal(models.RefundStatusExpired, state.Status)
	s.Equal(0, state.Attempts)
}

func (s *RefundWorkflowTestSuite) TestWorkflow_RetriesAfterBadSignature() {
	s.env.OnActivity("SettleRefund", mock.Anything, mock.Anything).
		Return(nil, temporal.NewNonRetryableApplicationError("invalid signature", activities.ErrTypeInvalidSignature, nil)).Once()
	s.env.OnActivity("SettleRefund", mock.Anything, mock.Anything).
		Return(&models.SettleRefundResult{Success: true}, nil).Once()

	s.signalAfter(time.Minute, []byte("forged"))
	s.env.RegisterDelayedCallback(func() {
		val, err := s.env.QueryWorkflow(models.QueryGetState)
		s.NoError(err)
		var state models.RefundWorkflowState
		s.NoError(val.Get(&state))
		s.Equal(models.RefundStatusAwaitingAuthorization, state.Status)
		s.Contains(state.FailureReason, "invalid signature")
	}, 2*time.Minute)
	s.signalAfter(3*time.Minute, []byte("sig"))

	s.env.ExecuteWorkflow(RefundSettlementWorkflow, testInput())

	state := s.result()
	s.Equal(models.RefundStatusSettled, state.Status)
	s.Equal(2, state.Attempts)
	s.Empty(state.FailureReason)
}

func (s *RefundWorkflowTestSuite) TestWorkflow_RejectsAfterMaxAttempts() {
	s.env.OnActivity("SettleRefund", mock.Anything, mock.Anything).
		Return(nil, temporal.NewNonRetryableApplicationError("invalid signature", activities.ErrTypeInvalidSignature, nil)).
		Times(MaxAuthorizationAttempts)

	for i := 1; i <= MaxAuthorizationAttempts; i++ {
		s.signalAfter(time.Duration(i)*time.Minute, []byte("forged"))
	}
	s.env.ExecuteWorkflow(RefundSettlementWorkflow, testInput())

	state := s.result()
	s.Equal(models.RefundStatusRejected, state.Status)
	s.Equal(MaxAuthorizationAttempts, state.Attempts)
}

func (s *RefundWorkflowTestSuite) TestWorkflow_AlreadyProcessedDirectly() {
	s.env.OnActivity("SettleRefund", mock.Anything, mock.Anything).
		Return(nil, temporal.NewNonRetryableApplicationError("nonce already used", activities.ErrTypeNonceReplayed, nil)).Once()

	s.signalAfter(time.Minute, []byte("sig"))
	s.env.ExecuteWorkflow(RefundSettlementWorkflow, testInput())

	state := s.result()
	s.Equal(models.RefundStatusSettled, state.Status)
	s.Equal("refund already processed", state.FailureReason)
}

func (s *RefundWorkflowTestSuite) TestWorkflow_UnknownRefundIsRejected() {
	s.env.OnActivity("SettleRefund", mock.Anything, mock.Anything).
		Return(nil, temporal.NewNonRetryableApplicationError("not found", activities.ErrTypeNotFound, nil)).Once()

	s.signalAfter(time.Minute, []byte("sig"))
	s.env.ExecuteWorkflow(RefundSettlementWorkflow, testInput())

	state := s.result()
	s.Equal(models.RefundStatusRejected, state.Status)
}

func (s *RefundWorkflowTestSuite) TestWorkflow_DefaultTimeout() {
	input := testInput()
	input.AuthorizationTimeout = 0

	s.env.RegisterDelayedCallback(func() {
		val, err := s.env.QueryWorkflow(models.QueryGetState)
		s.NoError(err)
		var state models.RefundWorkflowState
		s.NoError(val.Get(&state))
		s.Equal(models.RefundStatusAwaitingAuthorization, state.Status)
	}, 6*24*time.Hour)
	s.env.ExecuteWorkflow(RefundSettlementWorkflow, input)

	state := s.result()
	s.Equal(models.RefundStatusExpired, state.Status)
}
