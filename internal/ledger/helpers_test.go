package ledger

import (
	"context"
	"errors"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Publish(e models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []models.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recorder) last() models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type memStore struct {
	mu      sync.Mutex
	state   *State
	saves   int
	failing bool
}

func (s *memStore) Load(ctx context.Context) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, nil
	}
	return s.state.clone(), nil
}

func (s *memStore) Save(ctx context.Context, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("disk full")
	}
	s.saves++
	s.state = state.clone()
	return nil
}

func (s *memStore) setFailing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = v
}

// switchBank delegates to a MemoryBank, failing the next failTransfers
// payouts.
type switchBank struct {
	*MemoryBank
	failTransfers int
}

func (b *switchBank) Transfer(ctx context.Context, to wallet.Address, amount *big.Int) error {
	if b.failTransfers > 0 {
		b.failTransfers--
		return errors.New("bank offline")
	}
	return b.MemoryBank.Transfer(ctx, to, amount)
}

func sequentialNonces(start uint64) NonceSource {
	var mu sync.Mutex
	n := start
	return func() (uint64, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return n, nil
	}
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

type fixture struct {
	ledger    *Ledger
	admin     *wallet.Wallet
	airline   *wallet.Wallet
	passenger *wallet.Wallet
	hacker    *wallet.Wallet
	bank      *MemoryBank
	clock     *fixedClock
	events    *recorder
	store     *memStore
	nonce     uint64
}

func newWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	w, err := wallet.NewWallet()
	require.NoError(t, err)
	return w
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newFixture(t *testing.T, cfg Config, opts ...Option) *fixture {
	t.Helper()
	bank := NewMemoryBank()
	return buildFixture(t, cfg, bank, bank, opts...)
}

// newSwitchFixture runs the ledger on a bank whose payouts can be made to fail.
func newSwitchFixture(t *testing.T, cfg Config) (*fixture, *switchBank) {
	t.Helper()
	bank := &switchBank{MemoryBank: NewMemoryBank()}
	return buildFixture(t, cfg, bank.MemoryBank, bank), bank
}

func buildFixture(t *testing.T, cfg Config, accounts *MemoryBank, bank Bank, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		admin:     newWallet(t),
		airline:   newWallet(t),
		passenger: newWallet(t),
		hacker:    newWallet(t),
		bank:      accounts,
		clock:     &fixedClock{t: testNow},
		events:    &recorder{},
		store:     &memStore{},
	}
	cfg.Admin = f.admin.Address()
	f.fund(t, f.airline.Address(), f.passenger.Address(), f.hacker.Address())

	base := []Option{
		WithBank(bank),
		WithClock(f.clock),
		WithStore(f.store),
		WithLogger(quietLogger()),
		WithNonceSource(sequentialNonces(1000)),
		WithPublisher(f.events),
	}
	l, err := New(context.Background(), cfg, append(base, opts...)...)
	require.NoError(t, err)
	f.ledger = l
	return f
}

// startingFunds is deposited into every funded test account.
var startingFunds = ether(100)

func (f *fixture) fund(t *testing.T, addrs ...wallet.Address) {
	t.Helper()
	for _, addr := range addrs {
		require.NoError(t, f.bank.Deposit(addr, startingFunds))
	}
}

// net is how far a funded account has moved from its starting funds.
func (f *fixture) net(addr wallet.Address) *big.Int {
	return new(big.Int).Sub(f.bank.BalanceOf(addr), startingFunds)
}

func assertNet(t *testing.T, f *fixture, addr wallet.Address, want *big.Int) {
	t.Helper()
	got := f.net(addr)
	assert.Equal(t, 0, want.Cmp(got), "net balance of %s: want %s, got %s", addr, want, got)
}

// assertCustody checks the bank reserve backs exactly what the ledger holds.
func assertCustody(t *testing.T, f *fixture) {
	t.Helper()
	holdings := f.ledger.Status(context.Background()).Holdings
	assert.Equal(t, 0, holdings.Cmp(f.bank.Reserve()), "holdings %s, reserve %s", holdings, f.bank.Reserve())
}

func (f *fixture) flightParams(t *testing.T, number string, departure int64, capacity int) CreateFlightParams {
	t.Helper()
	f.nonce++
	id, err := GetFlightID(number, departure)
	require.NoError(t, err)
	digest, err := wallet.CreateFlightDigest([32]byte(id), f.airline.Address(), f.nonce)
	require.NoError(t, err)
	sig, err := f.airline.Sign(digest)
	require.NoError(t, err)

	return CreateFlightParams{
		FlightNumber: number,
		Origin:       "LHR",
		Destination:  "JFK",
		Departure:    departure,
		AirlineCode:  "DL",
		AirlineName:  "Delta",
		Capacity:     capacity,
		Airline:      f.airline.Address(),
		Signature:    sig,
		Nonce:        f.nonce,
	}
}

func (f *fixture) createFlight(t *testing.T, number string, capacity int) models.Flight {
	t.Helper()
	departure := testNow.Add(100 * 24 * time.Hour).Unix()
	flight, err := f.ledger.CreateFlight(context.Background(), f.airline.Address(), f.flightParams(t, number, departure, capacity))
	require.NoError(t, err)
	return flight
}

func (f *fixture) addSeats(t *testing.T, flight models.Flight, prices ...int64) []models.Seat {
	t.Helper()
	numbers := make([]string, len(prices))
	amounts := make([]*big.Int, len(prices))
	for i, p := range prices {
		numbers[i] = string(rune('A'+len(flight.SeatIDs)+i)) + "1"
		amounts[i] = ether(p)
	}
	seats, err := f.ledger.AddSeatInventoryToFlightCabin(context.Background(), f.airline.Address(),
		flight.FlightNumber, flight.Departure, numbers, amounts, models.CabinClassEconomy)
	require.NoError(t, err)
	return seats
}

func (f *fixture) refundSignature(t *testing.T, signer *wallet.Wallet, amount *big.Int, nonce uint64) []byte {
	t.Helper()
	digest, err := wallet.RefundDigest(signer.Address(), amount, nonce)
	require.NoError(t, err)
	sig, err := signer.Sign(digest)
	require.NoError(t, err)
	return sig
}

func mustCreateDigest(t *testing.T, id models.FlightID, p CreateFlightParams) [32]byte {
	t.Helper()
	digest, err := wallet.CreateFlightDigest([32]byte(id), p.Airline, p.Nonce)
	require.NoError(t, err)
	return digest
}
