package ledger

import (
	"context"
	"fmt"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

func (l *Ledger) Pause(ctx context.Context, caller wallet.Address) error {
	return l.setPaused(ctx, caller, true)
}

func (l *Ledger) Unpause(ctx context.Context, caller wallet.Address) error {
	return l.setPaused(ctx, caller, false)
}

func (l *Ledger) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Paused
}

func (l *Ledger) Admin() wallet.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Admin
}

func (l *Ledger) setPaused(ctx context.Context, caller wallet.Address, paused bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.state.Admin {
		return fmt.Errorf("%w: only the administrator may toggle the pause flag", ErrUnauthorized)
	}
	if l.state.Paused == paused {
		return fmt.Errorf("%w: paused=%t", ErrAlreadyInState, paused)
	}

	next := l.state.clone()
	next.Paused = paused
	if err := l.commit(ctx, next); err != nil {
		return err
	}

	eventType := models.EventUnpaused
	if paused {
		eventType = models.EventPaused
	}
	l.logger.WithField("caller", caller).Infof("Ledger %s", eventType)
	l.publish(models.Event{Type: eventType, Caller: caller})
	return nil
}

// requireNotPaused must be called with l.mu held.
func (l *Ledger) requireNotPaused() error {
	if l.state.Paused {
		return ErrContractPaused
	}
	return nil
}
