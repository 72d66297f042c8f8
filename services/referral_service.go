package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/skip2/go-qrcode"

	"questHuntAPI/internal/access"
	"questHuntAPI/internal/fault"
	"questHuntAPI/internal/ledger"
	"questHuntAPI/internal/storage"
	"questHuntAPI/internal/types/event"
	"questHuntAPI/internal/types/referral"
)

const defaultRequiredCompletions = 3

// referralPoolAccount holds the funded reward balance the claims pay out of.
const referralPoolAccount = "referral:pool"

// ReferralService binds invitees to referrers (once, ever) and pays the
// referrer a configured token amount after the invitee clears the completion
// threshold in a hunt. Claims are at-most-once per (referrer, invitee) pair.
type ReferralService struct {
	store      storage.Store
	access     *access.Service
	tokens     ledger.TokenLedger
	challenges *ChallengeService
	events     event.Sink
	now        func() time.Time
}

func NewReferralService(store storage.Store, accessSvc *access.Service, tokens ledger.TokenLedger, challenges *ChallengeService, events event.Sink) *ReferralService {
	return &ReferralService{
		store:      store,
		access:     accessSvc,
		tokens:     tokens,
		challenges: challenges,
		events:     events,
		now:        time.Now,
	}
}

func referralKey(invitee string) string {
	return storage.Key("referral", "by", invitee)
}

func claimKey(referrer, invitee string) string {
	return storage.Key("referral", "claim", referrer, invitee)
}

const referralConfigKey = "referral/config"

// RegisterWithReferral records the caller's referrer. One shot: there is no
// update path, and a second registration fails whatever referrer it names.
func (s *ReferralService) RegisterWithReferral(ctx context.Context, invitee, referrer string) error {
	if invitee == "" {
		return fault.Authorizationf("caller identity is required")
	}
	if referrer == "" {
		return fault.Validationf("referrer cannot be the zero address")
	}
	if referrer == invitee {
		return fault.Validationf("cannot refer yourself")
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	existing := &referral.Referral{}
	ok, err := getJSON(ctx, tx, referralKey(invitee), existing)
	if err != nil {
		return err
	}
	if ok {
		return fault.Statef("user %s is already registered with referrer %s", invitee, existing.Referrer)
	}

	r := &referral.Referral{
		Invitee:      invitee,
		Referrer:     referrer,
		RegisteredAt: s.now().Unix(),
	}
	if err := putJSON(ctx, tx, referralKey(invitee), r); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	e := event.New(event.TypeReferralRegistered, invitee)
	e.Subject = referrer
	s.events.Emit(e)
	return nil
}

// ClaimReferralReward pays the stored referrer once the invitee has enough
// completions in the target hunt. The token transfer shares the claim's
// transaction: an underfunded pool aborts the whole claim.
func (s *ReferralService) ClaimReferralReward(ctx context.Context, caller, invitee string, huntID uint64) (*referral.Claim, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	r := &referral.Referral{}
	ok, err := getJSON(ctx, tx, referralKey(invitee), r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fault.NotFoundf("no referral registered for user %s", invitee)
	}
	if caller != r.Referrer {
		return nil, fault.Authorizationf("caller %s is not the referrer of %s", caller, invitee)
	}

	_, claimed, err := tx.Get(ctx, claimKey(r.Referrer, invitee))
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, fault.Statef("referral reward for %s already claimed", invitee)
	}

	cfg, err := s.config(ctx, tx)
	if err != nil {
		return nil, err
	}
	completions, err := s.challenges.completionCount(ctx, tx, invitee, huntID)
	if err != nil {
		return nil, err
	}
	if completions < cfg.RequiredCompletions {
		return nil, fault.Statef("invitee %s has %d of %d required completions in hunt %d",
			invitee, completions, cfg.RequiredCompletions, huntID)
	}

	if cfg.RewardAmount > 0 {
		if err := s.tokens.Transfer(ctx, tx, referralPoolAccount, r.Referrer, cfg.RewardAmount); err != nil {
			return nil, err
		}
	}

	c := &referral.Claim{
		Referrer:  r.Referrer,
		Invitee:   invitee,
		HuntID:    huntID,
		Amount:    cfg.RewardAmount,
		ClaimedAt: s.now().Unix(),
	}
	if err := putJSON(ctx, tx, claimKey(r.Referrer, invitee), c); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	e := event.New(event.TypeReferralClaimed, caller)
	e.Subject = invitee
	e.HuntID = huntID
	e.Data = map[string]any{"amount": c.Amount}
	s.events.Emit(e)
	return c, nil
}

func (s *ReferralService) GetReferral(ctx context.Context, invitee string) (*referral.Referral, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	r := &referral.Referral{}
	ok, err := getJSON(ctx, tx, referralKey(invitee), r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fault.NotFoundf("no referral registered for user %s", invitee)
	}
	return r, nil
}

func (s *ReferralService) SetRequiredCompletions(ctx context.Context, caller string, n uint64) error {
	if n == 0 {
		return fault.Validationf("required completions must be at least 1")
	}
	return s.updateConfig(ctx, caller, func(cfg *referral.Config) {
		cfg.RequiredCompletions = n
	})
}

func (s *ReferralService) SetRewardAmount(ctx context.Context, caller string, amount int64) error {
	if amount < 0 {
		return fault.Validationf("reward amount cannot be negative")
	}
	return s.updateConfig(ctx, caller, func(cfg *referral.Config) {
		cfg.RewardAmount = amount
	})
}

func (s *ReferralService) updateConfig(ctx context.Context, caller string, apply func(*referral.Config)) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ok, err := s.access.HasRole(ctx, tx, access.RoleAdmin, caller)
	if err != nil {
		return err
	}
	if !ok {
		return fault.Authorizationf("only admins may change referral settings")
	}

	cfg, err := s.config(ctx, tx)
	if err != nil {
		return err
	}
	apply(cfg)
	if err := putJSON(ctx, tx, referralConfigKey, cfg); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Fund moves tokens from the admin caller into the reward pool.
func (s *ReferralService) Fund(ctx context.Context, caller string, amount int64) error {
	return s.moveBalance(ctx, caller, amount, func(tx storage.Tx) error {
		return s.tokens.TransferFrom(ctx, tx, caller, referralPoolAccount, amount)
	})
}

// Withdraw drains pool balance back to the admin caller.
func (s *ReferralService) Withdraw(ctx context.Context, caller string, amount int64) error {
	return s.moveBalance(ctx, caller, amount, func(tx storage.Tx) error {
		return s.tokens.Transfer(ctx, tx, referralPoolAccount, caller, amount)
	})
}

func (s *ReferralService) moveBalance(ctx context.Context, caller string, amount int64, move func(storage.Tx) error) error {
	if amount <= 0 {
		return fault.Validationf("amount must be positive")
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ok, err := s.access.HasRole(ctx, tx, access.RoleAdmin, caller)
	if err != nil {
		return err
	}
	if !ok {
		return fault.Authorizationf("only admins may move pool balance")
	}

	if err := move(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// PoolBalance reports the funded reward balance.
func (s *ReferralService) PoolBalance(ctx context.Context) (int64, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)
	return s.tokens.BalanceOf(ctx, tx, referralPoolAccount)
}

// InviteCode renders the caller's shareable referral link with a QR code, so
// a referrer can be scanned in person.
func (s *ReferralService) InviteCode(ctx context.Context, referrer string) (*referral.InviteCode, error) {
	if referrer == "" {
		return nil, fault.Authorizationf("caller identity is required")
	}

	link := fmt.Sprintf("questhunt://register?referrer=%s", referrer)
	pngBytes, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR png: %w", err)
	}

	return &referral.InviteCode{
		Referrer:     referrer,
		ShareLink:    link,
		QrCodeBase64: base64.StdEncoding.EncodeToString(pngBytes),
	}, nil
}

func (s *ReferralService) config(ctx context.Context, tx storage.Tx) (*referral.Config, error) {
	cfg := &referral.Config{RequiredCompletions: defaultRequiredCompletions}
	if _, err := getJSON(ctx, tx, referralConfigKey, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
