package services

import (
	"context"
	"testing"
	"time"

	"questHuntAPI/internal/access"
	"questHuntAPI/internal/fault"
	"questHuntAPI/internal/ledger"
	"questHuntAPI/internal/storage"
	"questHuntAPI/internal/types/event"
	"questHuntAPI/internal/verifier"
)

// Fixed wall clock for tests. Hunts are created around this instant so the
// activity window checks are deterministic.
const testNow int64 = 1_700_000_000

const (
	superAdminID = "root"
	engineID     = "engine"
)

// testEnv wires the full service graph over an in-memory store with a
// controllable clock and a synchronous recording event sink.
type testEnv struct {
	store       *storage.MemoryStore
	access      *access.Service
	hunts       *HuntService
	streaks     *StreakService
	leaderboard *LeaderboardService
	rewards     *RewardService
	challenges  *ChallengeService
	referrals   *ReferralService
	integration *IntegrationService
	ledger      *ledger.StoreLedger

	nowUnix int64
	events  []event.Event
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:   storage.NewMemoryStore(),
		nowUnix: testNow,
		ledger:  ledger.NewStoreLedger(),
	}
	clock := func() time.Time { return time.Unix(env.nowUnix, 0) }
	sink := event.SinkFunc(func(e event.Event) { env.events = append(env.events, e) })

	env.access = access.NewService(env.store, superAdminID)
	env.hunts = NewHuntService(env.store, env.access, sink)
	env.streaks = NewStreakService(env.store)
	env.leaderboard = NewLeaderboardService(env.store, env.access, sink)
	env.rewards = NewRewardService(env.store, env.access, ledger.NewStoreNFT(), sink, engineID)
	env.challenges = NewChallengeService(
		env.store, env.access, env.hunts, env.streaks, env.leaderboard,
		verifier.Digest(), sink,
		ChallengeServiceConfig{EngineID: engineID},
	)
	env.challenges.SetRewardIssuer(env.rewards)
	env.referrals = NewReferralService(env.store, env.access, env.ledger, env.challenges, sink)
	env.integration = NewIntegrationService(env.store, env.access, env.rewards, env.leaderboard, 16, 8)

	env.hunts.now = clock
	env.streaks.now = clock
	env.rewards.now = clock
	env.challenges.now = clock
	env.referrals.now = clock

	return env
}

func (env *testEnv) advance(seconds int64) { env.nowUnix += seconds }

func (env *testEnv) grant(t *testing.T, role access.Role, id string) {
	t.Helper()
	if err := env.access.GrantRole(context.Background(), superAdminID, role, id); err != nil {
		t.Fatalf("Failed to grant role %s to %s: %v", role, id, err)
	}
}

// creditBalance is the test faucet for the referral pool flows.
func (env *testEnv) creditBalance(t *testing.T, addr string, amount int64) {
	t.Helper()
	ctx := context.Background()
	tx, err := env.store.Begin(ctx)
	if err != nil {
		t.Fatalf("Failed to begin tx: %v", err)
	}
	if err := env.ledger.Credit(ctx, tx, addr, amount); err != nil {
		tx.Rollback(ctx)
		t.Fatalf("Failed to credit %s: %v", addr, err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Failed to commit credit: %v", err)
	}
}

// makeHunt creates a hunt that is active at testNow.
func (env *testEnv) makeHunt(t *testing.T, admin string) uint64 {
	t.Helper()
	h, err := env.hunts.CreateHunt(context.Background(), admin, "City Quest", testNow-3600, testNow+7*86400)
	if err != nil {
		t.Fatalf("Failed to create hunt: %v", err)
	}
	return h.ID
}

func expectKind(t *testing.T, err error, kind fault.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %s fault, got nil", kind)
	}
	if got := fault.KindOf(err); got != kind {
		t.Fatalf("Expected %s fault, got %s (%v)", kind, got, err)
	}
}
