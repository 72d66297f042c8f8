// Package ledger defines the token collaborators the game core calls but
// does not implement: a fungible ledger for referral payouts and an NFT
// registry for achievement rewards. Calls take the caller's storage
// transaction because a nested collaborator call shares the enclosing call's
// atomic unit; its failure aborts the whole operation.
package ledger

import (
	"context"

	"questHuntAPI/internal/storage"
)

type TokenLedger interface {
	BalanceOf(ctx context.Context, tx storage.Tx, addr string) (int64, error)
	// Transfer moves amount from -> to and fails (aborting the enclosing
	// call) when the balance is insufficient.
	Transfer(ctx context.Context, tx storage.Tx, from, to string, amount int64) error
	TransferFrom(ctx context.Context, tx storage.Tx, from, to string, amount int64) error
}

type NFTMinter interface {
	Mint(ctx context.Context, tx storage.Tx, to string, tokenID uint64) error
	OwnerOf(ctx context.Context, tx storage.Tx, tokenID uint64) (string, error)
	Exists(ctx context.Context, tx storage.Tx, tokenID uint64) (bool, error)
}
