package ledger

import (
	"context"
	"strconv"

	"questHuntAPI/internal/fault"
	"questHuntAPI/internal/storage"
)

// StoreLedger is a balance-map ledger kept in the entity store. It stands in
// for the real chain token in development and tests; production wires a chain
// adapter behind the same interface.
type StoreLedger struct{}

func NewStoreLedger() *StoreLedger { return &StoreLedger{} }

func balanceKey(addr string) string { return storage.Key("token", "balance", addr) }

func (l *StoreLedger) BalanceOf(ctx context.Context, tx storage.Tx, addr string) (int64, error) {
	raw, ok, err := tx.Get(ctx, balanceKey(addr))
	if err != nil {
		return 0, fault.External("balance lookup failed", err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fault.External("corrupt balance record", err)
	}
	return n, nil
}

func (l *StoreLedger) Transfer(ctx context.Context, tx storage.Tx, from, to string, amount int64) error {
	if amount <= 0 {
		return fault.Validationf("transfer amount must be positive")
	}

	fromBal, err := l.BalanceOf(ctx, tx, from)
	if err != nil {
		return err
	}
	if fromBal < amount {
		return fault.Statef("insufficient balance: %s has %d, needs %d", from, fromBal, amount)
	}
	toBal, err := l.BalanceOf(ctx, tx, to)
	if err != nil {
		return err
	}

	if err := l.put(ctx, tx, from, fromBal-amount); err != nil {
		return err
	}
	return l.put(ctx, tx, to, toBal+amount)
}

// TransferFrom matches the allowance-style entry point of the external token;
// the dev ledger treats it as a plain transfer.
func (l *StoreLedger) TransferFrom(ctx context.Context, tx storage.Tx, from, to string, amount int64) error {
	return l.Transfer(ctx, tx, from, to, amount)
}

// Credit funds an account out of thin air. Development faucet only; the real
// collaborator has no equivalent.
func (l *StoreLedger) Credit(ctx context.Context, tx storage.Tx, addr string, amount int64) error {
	bal, err := l.BalanceOf(ctx, tx, addr)
	if err != nil {
		return err
	}
	return l.put(ctx, tx, addr, bal+amount)
}

func (l *StoreLedger) put(ctx context.Context, tx storage.Tx, addr string, amount int64) error {
	if err := tx.Put(ctx, balanceKey(addr), []byte(strconv.FormatInt(amount, 10))); err != nil {
		return fault.External("balance write failed", err)
	}
	return nil
}
