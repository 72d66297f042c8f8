package services

import (
	"context"
	"time"

	"questHuntAPI/internal/access"
	"questHuntAPI/internal/fault"
	"questHuntAPI/internal/ledger"
	"questHuntAPI/internal/storage"
	"questHuntAPI/internal/types/event"
	"questHuntAPI/internal/types/reward"
)

// RewardService mints achievement NFTs for challenge completions and runs
// the Bronze -> Silver -> Gold upgrade ladder. A guard record per
// (hunt, challenge, user) makes minting exactly-once; mint and upgrade
// authority are separate roles, provisioned together but checked apart.
type RewardService struct {
	store  storage.Store
	access *access.Service
	nft    ledger.NFTMinter
	events event.Sink
	now    func() time.Time

	// engineID is the challenge engine's own identity, allowed to mint
	// without holding the minter role.
	engineID string
}

func NewRewardService(store storage.Store, accessSvc *access.Service, nft ledger.NFTMinter, events event.Sink, engineID string) *RewardService {
	return &RewardService{
		store:    store,
		access:   accessSvc,
		nft:      nft,
		events:   events,
		now:      time.Now,
		engineID: engineID,
	}
}

func rewardGuardKey(huntID, challengeID uint64, userID string) string {
	return storage.Key("reward", "guard", u64(huntID), u64(challengeID), userID)
}

func tokenKey(tokenID uint64) string      { return storage.Key("reward", "token", u64(tokenID)) }
func ownerTokensKey(userID string) string { return storage.Key("reward", "owner", userID) }

const tokenSeqKey = "reward/seq"

// MintReward is the external mint entry point.
func (s *RewardService) MintReward(ctx context.Context, caller, userID string, huntID, challengeID uint64) (*reward.Token, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.requireMinter(ctx, tx, caller); err != nil {
		return nil, err
	}

	t, err := s.mint(ctx, tx, userID, huntID, challengeID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.emitMinted(caller, t)
	return t, nil
}

func (s *RewardService) requireMinter(ctx context.Context, tx storage.Tx, caller string) error {
	if caller == s.engineID && caller != "" {
		return nil
	}
	ok, err := s.access.HasRole(ctx, tx, access.RoleMinter, caller)
	if err != nil {
		return err
	}
	if !ok {
		return fault.Authorizationf("caller %s may not mint rewards", caller)
	}
	return nil
}

// mint performs the guarded mint inside the caller's transaction. The
// challenge engine calls this directly so a completion and its reward commit
// together.
func (s *RewardService) mint(ctx context.Context, tx storage.Tx, userID string, huntID, challengeID uint64) (*reward.Token, error) {
	guard := rewardGuardKey(huntID, challengeID, userID)
	_, rewarded, err := tx.Get(ctx, guard)
	if err != nil {
		return nil, err
	}
	if rewarded {
		return nil, fault.Statef("user %s already rewarded for hunt %d challenge %d", userID, huntID, challengeID)
	}

	seq, err := nextSeq(ctx, tx, tokenSeqKey)
	if err != nil {
		return nil, err
	}
	t := &reward.Token{
		TokenID:     seq + 1,
		HuntID:      huntID,
		ChallengeID: challengeID,
		Owner:       userID,
		Level:       reward.LevelBronze,
		MintedAt:    s.now().Unix(),
	}

	if err := s.nft.Mint(ctx, tx, userID, t.TokenID); err != nil {
		return nil, err
	}
	if err := tx.Put(ctx, guard, []byte("1")); err != nil {
		return nil, err
	}
	if err := putJSON(ctx, tx, tokenKey(t.TokenID), t); err != nil {
		return nil, err
	}
	if err := tx.Append(ctx, ownerTokensKey(userID), []byte(u64(t.TokenID))); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *RewardService) emitMinted(actor string, t *reward.Token) {
	e := event.New(event.TypeRewardMinted, actor)
	e.Subject = t.Owner
	e.HuntID = t.HuntID
	e.ChallengeID = t.ChallengeID
	e.Data = map[string]any{"tokenId": t.TokenID, "level": t.Level}
	s.events.Emit(e)
}

// UpgradeReward advances a token one level. Gold is terminal.
func (s *RewardService) UpgradeReward(ctx context.Context, caller string, tokenID uint64) (*reward.Token, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ok, err := s.access.HasRole(ctx, tx, access.RoleUpgrader, caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fault.Authorizationf("caller %s may not upgrade rewards", caller)
	}

	t := &reward.Token{}
	found, err := getJSON(ctx, tx, tokenKey(tokenID), t)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fault.NotFoundf("token %d does not exist", tokenID)
	}

	next, ok := t.Level.Next()
	if !ok {
		return nil, fault.Statef("token %d is already at max level", tokenID)
	}
	t.Level = next

	if err := putJSON(ctx, tx, tokenKey(tokenID), t); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	e := event.New(event.TypeRewardUpgraded, caller)
	e.Subject = t.Owner
	e.Data = map[string]any{"tokenId": t.TokenID, "level": t.Level}
	s.events.Emit(e)
	return t, nil
}

func (s *RewardService) CanUpgrade(ctx context.Context, tokenID uint64) (bool, error) {
	t, err := s.GetToken(ctx, tokenID)
	if err != nil {
		return false, err
	}
	return t.CanUpgrade(), nil
}

func (s *RewardService) GetToken(ctx context.Context, tokenID uint64) (*reward.Token, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	t := &reward.Token{}
	ok, err := getJSON(ctx, tx, tokenKey(tokenID), t)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fault.NotFoundf("token %d does not exist", tokenID)
	}
	return t, nil
}

// GetUserTokens lists a player's reward tokens in mint order.
func (s *RewardService) GetUserTokens(ctx context.Context, userID string) ([]*reward.Token, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids, err := tx.List(ctx, ownerTokensKey(userID))
	if err != nil {
		return nil, err
	}
	tokens := make([]*reward.Token, 0, len(ids))
	for _, raw := range ids {
		id, err := parseU64(string(raw))
		if err != nil {
			continue
		}
		t := &reward.Token{}
		if ok, err := getJSON(ctx, tx, tokenKey(id), t); err == nil && ok {
			tokens = append(tokens, t)
		}
	}
	return tokens, nil
}
