// Package ledger is the authoritative state machine for flights, seat claims,
// escrowed fees, boarding passes and refunds. Every operation is serialized
// and either commits all of its effects or none of them.
package ledger

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

// Store persists ledger snapshots. Load returns nil, nil when nothing has
// been stored yet.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
}

// Publisher receives events after the operation producing them commits.
type Publisher interface {
	Publish(event models.Event)
}

type PublisherFunc func(event models.Event)

func (f PublisherFunc) Publish(event models.Event) { f(event) }

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// NonceSource allocates refund nonces.
type NonceSource func() (uint64, error)

func randomNonce() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

type OverpaymentPolicy string

const (
	// OverpaymentRetain keeps any excess over the seat price as ledger surplus.
	OverpaymentRetain OverpaymentPolicy = "retain"
	// OverpaymentRefund collects only the seat price, leaving the excess with
	// the payer.
	OverpaymentRefund OverpaymentPolicy = "refund"
)

type DemoFlightConfig struct {
	Enabled         bool
	DepartureOffset time.Duration
	Capacity        int
}

type Config struct {
	Admin             wallet.Address
	OverpaymentPolicy OverpaymentPolicy
	DemoFlight        DemoFlightConfig
}

type Option func(*Ledger)

func WithStore(store Store) Option {
	return func(l *Ledger) { l.store = store }
}

func WithBank(bank Bank) Option {
	return func(l *Ledger) { l.bank = bank }
}

func WithClock(clock Clock) Option {
	return func(l *Ledger) { l.clock = clock }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func WithNonceSource(source NonceSource) Option {
	return func(l *Ledger) { l.nonces = source }
}

func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publishers = append(l.publishers, p) }
}

type Ledger struct {
	mu         sync.Mutex
	state      *State
	cfg        Config
	store      Store
	bank       Bank
	clock      Clock
	nonces     NonceSource
	logger     logrus.FieldLogger
	publishers []Publisher
	pubMu      sync.RWMutex
}

// New loads the ledger from the configured store, or initializes a fresh
// one owned by cfg.Admin.
func New(ctx context.Context, cfg Config, opts ...Option) (*Ledger, error) {
	if err := cfg.Admin.Validate(); err != nil {
		return nil, fmt.Errorf("%w: admin: %v", ErrInvalidArgument, err)
	}
	switch cfg.OverpaymentPolicy {
	case "":
		cfg.OverpaymentPolicy = OverpaymentRetain
	case OverpaymentRetain, OverpaymentRefund:
	default:
		return nil, fmt.Errorf("%w: unknown overpayment policy %q", ErrInvalidArgument, cfg.OverpaymentPolicy)
	}

	l := &Ledger{
		cfg:    cfg,
		clock:  systemClock{},
		nonces: randomNonce,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.bank == nil {
		l.bank = NewMemoryBank()
	}

	if l.store != nil {
		loaded, err := l.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load ledger state: %w", err)
		}
		if loaded != nil {
			loaded.normalize()
			if loaded.Admin != cfg.Admin {
				l.logger.WithFields(logrus.Fields{
					"stored": loaded.Admin,
					"config": cfg.Admin,
				}).Warn("Configured admin differs from stored ledger, keeping stored admin")
			}
			l.state = loaded
			l.logger.WithField("version", loaded.Version).Info("Ledger state loaded")
			return l, nil
		}
	}

	l.state = newState(cfg.Admin)
	if cfg.DemoFlight.Enabled {
		next := l.state.clone()
		if err := l.seedDemoFlight(next); err != nil {
			return nil, err
		}
		if err := l.commit(ctx, next); err != nil {
			return nil, err
		}
	} else if l.store != nil {
		if err := l.commit(ctx, l.state.clone()); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Subscribe registers an additional publisher after construction.
func (l *Ledger) Subscribe(p Publisher) {
	l.pubMu.Lock()
	defer l.pubMu.Unlock()
	l.publishers = append(l.publishers, p)
}

// commit persists next and makes it the live state. The live state is left
// untouched if persisting fails.
func (l *Ledger) commit(ctx context.Context, next *State) error {
	next.Version = l.state.Version + 1
	if l.store != nil {
		if err := l.store.Save(ctx, next); err != nil {
			return fmt.Errorf("failed to persist ledger state: %w", err)
		}
	}
	l.state = next
	return nil
}

// payout transfers value after a commit. On failure the state that was live
// before the commit is restored.
func (l *Ledger) payout(ctx context.Context, prev *State, to wallet.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	err := l.bank.Transfer(ctx, to, amount)
	if err == nil {
		return nil
	}

	restored := prev.clone()
	if cerr := l.commit(ctx, restored); cerr != nil {
		l.logger.WithError(cerr).Error("Failed to persist rollback after transfer failure")
		restored.Version = l.state.Version + 1
		l.state = restored
	}
	return fmt.Errorf("transfer of %s to %s failed: %w", amount, to, err)
}

// collect takes value from the payer before the operation commits.
func (l *Ledger) collect(ctx context.Context, from wallet.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	err := l.bank.Collect(ctx, from, amount)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInsufficientFunds):
		return fmt.Errorf("%w: %s cannot fund %s", ErrInsufficientPayment, from, amount)
	default:
		return fmt.Errorf("collection of %s from %s failed: %w", amount, from, err)
	}
}

// release returns collected value to the payer when the operation that took
// it did not take effect.
func (l *Ledger) release(ctx context.Context, to wallet.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	if err := l.bank.Transfer(context.WithoutCancel(ctx), to, amount); err != nil {
		l.logger.WithError(err).WithFields(logrus.Fields{
			"payer":  to,
			"amount": amount.String(),
		}).Error("Failed to return collected value")
	}
}

func (l *Ledger) publish(event models.Event) {
	event.ID = uuid.New().String()
	event.Timestamp = l.clock.Now().Unix()

	l.pubMu.RLock()
	defer l.pubMu.RUnlock()
	for _, p := range l.publishers {
		p.Publish(event)
	}
}

func (l *Ledger) now() int64 {
	return l.clock.Now().Unix()
}

// Snapshot returns a deep copy of the live state.
func (l *Ledger) Snapshot() *State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.clone()
}

type Status struct {
	Admin             wallet.Address    `json:"admin"`
	Paused            bool              `json:"paused"`
	Version           uint64            `json:"version"`
	Holdings          *big.Int          `json:"holdings"`
	Surplus           *big.Int          `json:"surplus"`
	OverpaymentPolicy OverpaymentPolicy `json:"overpaymentPolicy"`
	Flights           int               `json:"flights"`
	PendingRefunds    int               `json:"pendingRefunds"`
}

func (l *Ledger) Status(ctx context.Context) Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	pending := 0
	for _, r := range l.state.Refunds {
		if !r.Consumed {
			pending++
		}
	}
	return Status{
		Admin:             l.state.Admin,
		Paused:            l.state.Paused,
		Version:           l.state.Version,
		Holdings:          new(big.Int).Set(l.state.Holdings),
		Surplus:           new(big.Int).Set(l.state.Surplus),
		OverpaymentPolicy: l.cfg.OverpaymentPolicy,
		Flights:           len(l.state.Flights),
		PendingRefunds:    pending,
	}
}

func validateCaller(caller wallet.Address) error {
	if err := caller.Validate(); err != nil {
		return fmt.Errorf("%w: caller: %v", ErrUnauthorized, err)
	}
	return nil
}
