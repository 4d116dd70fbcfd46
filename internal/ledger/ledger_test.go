package ledger

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

func TestNew_SeedsDemoFlight(t *testing.T) {
	f := newFixture(t, Config{DemoFlight: DemoFlightConfig{Enabled: true, Capacity: 10}})
	ctx := context.Background()

	airlines := f.ledger.GetActiveAirlines(ctx)
	require.Len(t, airlines, 1)
	assert.Equal(t, f.admin.Address(), airlines[0])

	ids := f.ledger.GetFlightIDsForAirline(ctx, f.admin.Address())
	require.Len(t, ids, 1)

	flight, err := f.ledger.GetFlight(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "BA125", flight.FlightNumber)
	assert.Equal(t, "LHR", flight.Origin)
	assert.Equal(t, "JFK", flight.Destination)
	assert.Equal(t, 10, flight.Capacity)
	assert.Equal(t, testNow.Add(demoOffset).Unix(), flight.Departure)

	// the airline that registers next comes after the administrator
	f.createFlight(t, "DL555", 3)
	airlines = f.ledger.GetActiveAirlines(ctx)
	assert.Equal(t, []wallet.Address{f.admin.Address(), f.airline.Address()}, airlines)
}

func TestNew_LoadsStoredStateWithoutReseeding(t *testing.T) {
	f := newFixture(t, Config{DemoFlight: DemoFlightConfig{Enabled: true}})
	flight := f.createFlight(t, "DL555", 3)

	reloaded, err := New(context.Background(),
		Config{Admin: f.admin.Address(), DemoFlight: DemoFlightConfig{Enabled: true}},
		WithStore(f.store), WithClock(&fixedClock{t: testNow.Add(time.Hour)}), WithLogger(quietLogger()))
	require.NoError(t, err)

	got, err := reloaded.GetFlight(context.Background(), flight.ID)
	require.NoError(t, err)
	assert.Equal(t, flight.FlightNumber, got.FlightNumber)
	assert.Len(t, reloaded.GetFlightIDsForAirline(context.Background(), f.admin.Address()), 1)
	assert.Equal(t, f.ledger.Status(context.Background()).Version, reloaded.Status(context.Background()).Version)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(context.Background(), Config{Admin: "nope"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	w := newWallet(t)
	_, err = New(context.Background(), Config{Admin: w.Address(), OverpaymentPolicy: "donate"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCommit_PersistFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, Config{})
	flight := f.createFlight(t, "DL555", 3)
	before := f.ledger.Snapshot()

	f.store.setFailing(true)
	_, err := f.ledger.AddSeatInventoryToFlightCabin(context.Background(), f.airline.Address(),
		flight.FlightNumber, flight.Departure, []string{"1A"}, []*big.Int{ether(1)}, models.CabinClassEconomy)
	require.Error(t, err)

	assert.Equal(t, before, f.ledger.Snapshot())
	assert.False(t, f.ledger.Exists(context.Background(), 1))
}

func TestEndToEnd_DL555(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	airline := f.airline.Address()
	passenger := f.passenger.Address()
	second := newWallet(t).Address()
	f.fund(t, second)

	flight := f.createFlight(t, "DL555", 3)
	seats := f.addSeats(t, flight, 1, 2, 3)
	require.Len(t, seats, 3)

	// book seat 1 for exactly its price
	booked, err := f.ledger.BookSeat(ctx, passenger, seats[0].ID, ether(1))
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusOccupied, booked.Status)
	assert.Equal(t, passenger, booked.Owner)

	// the airline collects exactly one unit
	paid, err := f.ledger.WithdrawFlightFees(ctx, airline, airline)
	require.NoError(t, err)
	assert.Equal(t, 0, ether(1).Cmp(paid))
	assertNet(t, f, passenger, ether(-1))
	assertNet(t, f, airline, ether(1))

	// check-in destroys the seat claim and mints a boarding pass
	params, err := f.ledger.GetBarcodeStringParametersForBoardingPass(ctx, seats[0].ID)
	require.NoError(t, err)
	pass, err := f.ledger.CheckinPassenger(ctx, passenger, seats[0].ID, params.Assemble(), "ipfs://passport")
	require.NoError(t, err)
	assert.Equal(t, passenger, pass.Passenger)
	_, err = f.ledger.GetSeat(ctx, seats[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
	owner, err := f.ledger.OwnerOf(ctx, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, passenger, owner)

	// seat 2 is booked by a second passenger, then cancelled by the airline
	_, err = f.ledger.BookSeat(ctx, second, seats[1].ID, ether(2))
	require.NoError(t, err)
	refund, err := f.ledger.CancelSeatBooking(ctx, airline, seats[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, ether(2).Cmp(refund.Amount))

	seat2, err := f.ledger.GetSeat(ctx, seats[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusVacant, seat2.Status)
	assert.Equal(t, airline, seat2.Owner)

	// the airline signs the refund and anyone submits it
	sig := f.refundSignature(t, f.airline, ether(2), refund.Nonce)
	_, err = f.ledger.ProcessAirlineRefunds(ctx, airline, ether(2), refund.Nonce, sig, ether(2))
	require.NoError(t, err)
	assertNet(t, f, second, ether(0))
	// the airline paid the refund out of its own account
	assertNet(t, f, airline, ether(-1))

	_, err = f.ledger.ProcessAirlineRefunds(ctx, airline, ether(2), refund.Nonce, sig, ether(2))
	assert.ErrorIs(t, err, ErrNonceReplayed)
	assertNet(t, f, second, ether(0))
	assertNet(t, f, airline, ether(-1))

	// seat 2's fee is still escrowed and backed by the bank reserve
	escrow, err := f.ledger.EscrowBalance(ctx, airline, airline)
	require.NoError(t, err)
	assert.Equal(t, 0, ether(2).Cmp(escrow))
	assertCustody(t, f)

	assert.Equal(t, []models.EventType{
		models.EventFlightCreated,
		models.EventSeatsAdded,
		models.EventSeatBooked,
		models.EventFeesWithdrawn,
		models.EventBoardingPassGenerated,
		models.EventSeatBooked,
		models.EventSeatBookingCancelled,
		models.EventRefundProcessed,
	}, f.events.types())
}
