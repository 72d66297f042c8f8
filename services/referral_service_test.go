package services

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"questHuntAPI/internal/fault"
)

func TestRegisterWithReferralOneShot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.referrals.RegisterWithReferral(ctx, "bob", "alice"); err != nil {
		t.Fatalf("Registration failed: %v", err)
	}

	r, err := env.referrals.GetReferral(ctx, "bob")
	if err != nil {
		t.Fatalf("Failed to read referral: %v", err)
	}
	if r.Referrer != "alice" {
		t.Errorf("Expected referrer alice, got %s", r.Referrer)
	}

	// Binding is permanent, whatever referrer the retry names
	err = env.referrals.RegisterWithReferral(ctx, "bob", "carol")
	expectKind(t, err, fault.KindState)
	err = env.referrals.RegisterWithReferral(ctx, "bob", "alice")
	expectKind(t, err, fault.KindState)
}

func TestRegisterWithReferralValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.referrals.RegisterWithReferral(ctx, "bob", "")
	expectKind(t, err, fault.KindValidation)

	err = env.referrals.RegisterWithReferral(ctx, "bob", "bob")
	expectKind(t, err, fault.KindValidation)
}

// completeChallenges walks the invitee through n real hash challenges.
func completeChallenges(t *testing.T, env *testEnv, user string, huntID uint64, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		answer := strings.Repeat("x", i+1)
		id := addHashChallenge(t, env, "alice", huntID, answer, 10)
		if _, err := env.challenges.SubmitAnswer(ctx, user, huntID, id, answer); err != nil {
			t.Fatalf("Completion %d failed: %v", i, err)
		}
	}
}

func TestClaimReferralReward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	huntID := env.makeHunt(t, "alice")
	if err := env.referrals.RegisterWithReferral(ctx, "bob", "carol"); err != nil {
		t.Fatalf("Registration failed: %v", err)
	}

	if err := env.referrals.SetRewardAmount(ctx, superAdminID, 500); err != nil {
		t.Fatalf("Failed to set reward amount: %v", err)
	}
	env.creditBalance(t, superAdminID, 1_000)
	if err := env.referrals.Fund(ctx, superAdminID, 1_000); err != nil {
		t.Fatalf("Failed to fund pool: %v", err)
	}

	// 1. Only the stored referrer may claim
	_, err := env.referrals.ClaimReferralReward(ctx, "mallory", "bob", huntID)
	expectKind(t, err, fault.KindAuthorization)

	// 2. Not enough completions yet
	completeChallenges(t, env, "bob", huntID, 2)
	_, err = env.referrals.ClaimReferralReward(ctx, "carol", "bob", huntID)
	expectKind(t, err, fault.KindState)

	// 3. Threshold reached: the claim pays out of the pool
	completeChallenges(t, env, "bob", huntID, 1)
	claim, err := env.referrals.ClaimReferralReward(ctx, "carol", "bob", huntID)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if claim.Amount != 500 {
		t.Errorf("Expected payout 500, got %d", claim.Amount)
	}

	pool, err := env.referrals.PoolBalance(ctx)
	if err != nil {
		t.Fatalf("Failed to read pool: %v", err)
	}
	if pool != 500 {
		t.Errorf("Expected pool 500 after payout, got %d", pool)
	}

	// 4. Claims are at-most-once per pair
	_, err = env.referrals.ClaimReferralReward(ctx, "carol", "bob", huntID)
	expectKind(t, err, fault.KindState)
}

func TestClaimAbortsOnUnderfundedPool(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	huntID := env.makeHunt(t, "alice")
	if err := env.referrals.RegisterWithReferral(ctx, "bob", "carol"); err != nil {
		t.Fatalf("Registration failed: %v", err)
	}
	if err := env.referrals.SetRewardAmount(ctx, superAdminID, 500); err != nil {
		t.Fatalf("Failed to set reward amount: %v", err)
	}
	completeChallenges(t, env, "bob", huntID, 3)

	// Pool is empty; the transfer fails and the claim rolls back with it
	_, err := env.referrals.ClaimReferralReward(ctx, "carol", "bob", huntID)
	expectKind(t, err, fault.KindState)

	// The claim guard was not written: funding the pool lets the retry succeed
	env.creditBalance(t, superAdminID, 500)
	if err := env.referrals.Fund(ctx, superAdminID, 500); err != nil {
		t.Fatalf("Failed to fund pool: %v", err)
	}
	if _, err := env.referrals.ClaimReferralReward(ctx, "carol", "bob", huntID); err != nil {
		t.Fatalf("Retry after funding failed: %v", err)
	}
}

func TestClaimWithoutRegistration(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.referrals.ClaimReferralReward(context.Background(), "carol", "ghost", 1)
	expectKind(t, err, fault.KindNotFound)
}

func TestReferralConfigIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.referrals.SetRequiredCompletions(ctx, "rando", 5)
	expectKind(t, err, fault.KindAuthorization)
	err = env.referrals.SetRequiredCompletions(ctx, superAdminID, 0)
	expectKind(t, err, fault.KindValidation)

	if err := env.referrals.SetRequiredCompletions(ctx, superAdminID, 1); err != nil {
		t.Fatalf("Admin config change failed: %v", err)
	}

	// The lowered threshold takes effect
	huntID := env.makeHunt(t, "alice")
	if err := env.referrals.RegisterWithReferral(ctx, "bob", "carol"); err != nil {
		t.Fatalf("Registration failed: %v", err)
	}
	completeChallenges(t, env, "bob", huntID, 1)
	if _, err := env.referrals.ClaimReferralReward(ctx, "carol", "bob", huntID); err != nil {
		t.Fatalf("Claim at lowered threshold failed: %v", err)
	}
}

func TestInviteCode(t *testing.T) {
	env := newTestEnv(t)

	code, err := env.referrals.InviteCode(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Failed to build invite code: %v", err)
	}
	if !strings.Contains(code.ShareLink, "referrer=alice") {
		t.Errorf("Share link missing referrer: %s", code.ShareLink)
	}
	png, err := base64.StdEncoding.DecodeString(code.QrCodeBase64)
	if err != nil {
		t.Fatalf("QR payload is not valid base64: %v", err)
	}
	if len(png) == 0 || png[1] != 'P' || png[2] != 'N' || png[3] != 'G' {
		t.Error("QR payload is not a PNG")
	}
}
