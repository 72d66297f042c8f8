package ledger

import (
	"context"
	"strconv"

	"questHuntAPI/internal/fault"
	"questHuntAPI/internal/storage"
)

func u64(n uint64) string { return strconv.FormatUint(n, 10) }

// StoreNFT is the development NFT registry: token id -> owner in the entity
// store. Ownership semantics only; metadata lives with the reward service.
type StoreNFT struct{}

func NewStoreNFT() *StoreNFT { return &StoreNFT{} }

func nftKey(tokenID uint64) string {
	return storage.Key("nft", u64(tokenID))
}

func (n *StoreNFT) Mint(ctx context.Context, tx storage.Tx, to string, tokenID uint64) error {
	if to == "" {
		return fault.Validationf("cannot mint to the zero address")
	}
	_, ok, err := tx.Get(ctx, nftKey(tokenID))
	if err != nil {
		return fault.External("nft lookup failed", err)
	}
	if ok {
		return fault.Statef("token %d already minted", tokenID)
	}
	if err := tx.Put(ctx, nftKey(tokenID), []byte(to)); err != nil {
		return fault.External("nft write failed", err)
	}
	return nil
}

func (n *StoreNFT) OwnerOf(ctx context.Context, tx storage.Tx, tokenID uint64) (string, error) {
	raw, ok, err := tx.Get(ctx, nftKey(tokenID))
	if err != nil {
		return "", fault.External("nft lookup failed", err)
	}
	if !ok {
		return "", fault.NotFoundf("token %d does not exist", tokenID)
	}
	return string(raw), nil
}

func (n *StoreNFT) Exists(ctx context.Context, tx storage.Tx, tokenID uint64) (bool, error) {
	_, ok, err := tx.Get(ctx, nftKey(tokenID))
	if err != nil {
		return false, fault.External("nft lookup failed", err)
	}
	return ok, nil
}
