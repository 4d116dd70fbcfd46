package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
)

// ErrInsufficientFunds is returned by a Bank when an account cannot cover a
// debit.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Bank moves value into and out of the ledger's custody. Implementations must
// not call back into the ledger.
type Bank interface {
	// Collect debits amount from the payer into custody. It fails with
	// ErrInsufficientFunds when the payer cannot cover it.
	Collect(ctx context.Context, from wallet.Address, amount *big.Int) error
	// Transfer pays amount out of custody.
	Transfer(ctx context.Context, to wallet.Address, amount *big.Int) error
}

// Accounts is implemented by banks whose balances live in this process.
type Accounts interface {
	Deposit(to wallet.Address, amount *big.Int) error
	BalanceOf(addr wallet.Address) *big.Int
}

// MemoryBank keeps account balances and the ledger's reserve in memory.
type MemoryBank struct {
	mu       sync.Mutex
	balances map[wallet.Address]*big.Int
	reserve  *big.Int
}

var (
	_ Bank     = (*MemoryBank)(nil)
	_ Accounts = (*MemoryBank)(nil)
)

func NewMemoryBank() *MemoryBank {
	return &MemoryBank{
		balances: make(map[wallet.Address]*big.Int),
		reserve:  new(big.Int),
	}
}

// Deposit credits an account from outside the ledger.
func (b *MemoryBank) Deposit(to wallet.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: deposit must be positive", ErrInvalidArgument)
	}
	if err := to.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.account(to).Add(b.account(to), amount)
	return nil
}

// FundReserve backs value the ledger already holds, such as holdings
// restored from a snapshot when the process restarts.
func (b *MemoryBank) FundReserve(amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reserve.Add(b.reserve, amount)
}

func (b *MemoryBank) Collect(ctx context.Context, from wallet.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: negative collection", ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	bal := b.account(from)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientFunds, from, bal, amount)
	}
	bal.Sub(bal, amount)
	b.reserve.Add(b.reserve, amount)
	return nil
}

func (b *MemoryBank) Transfer(ctx context.Context, to wallet.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: negative transfer", ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.reserve.Cmp(amount) < 0 {
		return fmt.Errorf("%w: reserve holds %s, needs %s", ErrInsufficientFunds, b.reserve, amount)
	}
	b.reserve.Sub(b.reserve, amount)
	b.account(to).Add(b.account(to), amount)
	return nil
}

func (b *MemoryBank) BalanceOf(addr wallet.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if bal, ok := b.balances[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Reserve returns the value currently in the ledger's custody.
func (b *MemoryBank) Reserve() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.reserve)
}

// account must be called with mu held.
func (b *MemoryBank) account(addr wallet.Address) *big.Int {
	bal, ok := b.balances[addr]
	if !ok {
		bal = new(big.Int)
		b.balances[addr] = bal
	}
	return bal
}
