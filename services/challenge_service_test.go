package services

import (
	"context"
	"crypto/sha256"
	"testing"

	"questHuntAPI/internal/access"
	"questHuntAPI/internal/fault"
	"questHuntAPI/internal/types/challenge"
	"questHuntAPI/internal/types/event"
	"questHuntAPI/internal/verifier"
)

func addHashChallenge(t *testing.T, env *testEnv, admin string, huntID uint64, answer string, points uint64) uint64 {
	t.Helper()
	c, err := env.challenges.AddChallenge(context.Background(), admin, huntID, &challenge.AddChallengeRequest{
		Question: "Where does the river bend?",
		Answer:   answer,
		Points:   points,
	})
	if err != nil {
		t.Fatalf("Failed to add challenge: %v", err)
	}
	return c.ID
}

func TestSubmitAnswerCompletesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	huntID := env.makeHunt(t, "alice")
	chID := addHashChallenge(t, env, "alice", huntID, "harbor", 50)

	// 1. Correct submission completes the challenge
	res, err := env.challenges.SubmitAnswer(ctx, "bob", huntID, chID, "harbor")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !res.Correct {
		t.Fatal("Expected a correct submission")
	}
	if res.Completed != 1 {
		t.Errorf("Expected 1 completed challenge, got %d", res.Completed)
	}

	// 2. Completion is terminal: resubmitting aborts, even with the right answer
	_, err = env.challenges.SubmitAnswer(ctx, "bob", huntID, chID, "harbor")
	expectKind(t, err, fault.KindState)

	// 3. Points, streak and reward all landed in one commit
	stats, err := env.leaderboard.GetUserStats(ctx, "bob")
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if stats.Points != 50 || stats.CompletedChallenges != 1 {
		t.Errorf("Expected 50 points / 1 completion, got %d / %d", stats.Points, stats.CompletedChallenges)
	}
	count, err := env.streaks.GetUserStreak(ctx, "bob")
	if err != nil {
		t.Fatalf("Failed to read streak: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected streak 1, got %d", count)
	}
	tokens, err := env.rewards.GetUserTokens(ctx, "bob")
	if err != nil {
		t.Fatalf("Failed to read tokens: %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("Expected 1 minted token, got %d", len(tokens))
	}
}

func TestWrongAnswerIsNotAFault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	huntID := env.makeHunt(t, "alice")
	chID := addHashChallenge(t, env, "alice", huntID, "harbor", 50)

	res, err := env.challenges.SubmitAnswer(ctx, "bob", huntID, chID, "lighthouse")
	if err != nil {
		t.Fatalf("Wrong answer must not abort: %v", err)
	}
	if res.Correct {
		t.Fatal("Expected an incorrect result")
	}

	// Nothing was written: no points, no streak, no completion
	stats, err := env.leaderboard.GetUserStats(ctx, "bob")
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if stats.Points != 0 || stats.CompletedChallenges != 0 {
		t.Errorf("Expected untouched stats, got %d points / %d completions", stats.Points, stats.CompletedChallenges)
	}
	count, err := env.challenges.CompletionCount(ctx, "bob", huntID)
	if err != nil {
		t.Fatalf("Failed to read completion count: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no completions, got %d", count)
	}

	// The same player can still solve it afterwards
	res, err = env.challenges.SubmitAnswer(ctx, "bob", huntID, chID, "harbor")
	if err != nil || !res.Correct {
		t.Fatalf("Retry after a miss should succeed, got %v (correct=%v)", err, res != nil && res.Correct)
	}
}

func TestSubmitOutsideHuntWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	huntID := env.makeHunt(t, "alice")
	chID := addHashChallenge(t, env, "alice", huntID, "harbor", 10)

	// Move past the hunt's end time
	env.advance(8 * 86400)

	_, err := env.challenges.SubmitAnswer(ctx, "bob", huntID, chID, "harbor")
	expectKind(t, err, fault.KindState)
}

func TestSubmitInactiveChallengeAndHunt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	huntID := env.makeHunt(t, "alice")
	chID := addHashChallenge(t, env, "alice", huntID, "harbor", 10)

	if err := env.challenges.SetChallengeActive(ctx, "alice", huntID, chID, false); err != nil {
		t.Fatalf("Failed to deactivate challenge: %v", err)
	}
	_, err := env.challenges.SubmitAnswer(ctx, "bob", huntID, chID, "harbor")
	expectKind(t, err, fault.KindState)

	if err := env.challenges.SetChallengeActive(ctx, "alice", huntID, chID, true); err != nil {
		t.Fatalf("Failed to reactivate challenge: %v", err)
	}
	if err := env.hunts.SetHuntActive(ctx, "alice", huntID, false); err != nil {
		t.Fatalf("Failed to deactivate hunt: %v", err)
	}
	_, err = env.challenges.SubmitAnswer(ctx, "bob", huntID, chID, "harbor")
	expectKind(t, err, fault.KindState)
}

func TestPuzzleAssignmentPinsPlayer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	huntID := env.makeHunt(t, "alice")
	first := addHashChallenge(t, env, "alice", huntID, "harbor", 10)
	second := addHashChallenge(t, env, "alice", huntID, "bridge", 10)

	env.grant(t, access.RoleModerator, "mod")
	if err := env.challenges.AssignPuzzle(ctx, "mod", "bob", huntID, second); err != nil {
		t.Fatalf("Failed to assign puzzle: %v", err)
	}

	// 1. Submitting for a different challenge is blocked while assigned
	_, err := env.challenges.SubmitAnswer(ctx, "bob", huntID, first, "harbor")
	expectKind(t, err, fault.KindState)

	// 2. Solving the assigned challenge clears the pin
	res, err := env.challenges.SubmitAnswer(ctx, "bob", huntID, second, "bridge")
	if err != nil || !res.Correct {
		t.Fatalf("Assigned submission failed: %v", err)
	}
	res, err = env.challenges.SubmitAnswer(ctx, "bob", huntID, first, "harbor")
	if err != nil || !res.Correct {
		t.Fatalf("Submission after clearing the pin failed: %v", err)
	}

	// 3. Only admins or moderators may assign
	err = env.challenges.AssignPuzzle(ctx, "bob", "carol", huntID, first)
	expectKind(t, err, fault.KindAuthorization)
}

func TestProofSubmissionPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	huntID := env.makeHunt(t, "alice")
	c, err := env.challenges.AddChallenge(ctx, "alice", huntID, &challenge.AddChallengeRequest{
		Question:    "Prove you found the hidden marker",
		Points:      75,
		UsesZKProof: true,
	})
	if err != nil {
		t.Fatalf("Failed to add proof challenge: %v", err)
	}

	witness := []byte("marker-7-witness")
	digest := sha256.Sum256(witness)

	// 1. A proof challenge rejects plain answers
	_, err = env.challenges.SubmitAnswer(ctx, "bob", huntID, c.ID, "anything")
	expectKind(t, err, fault.KindState)

	// 2. No verification key stored yet
	_, err = env.challenges.SubmitProof(ctx, "bob", huntID, c.ID, verifier.Proof{Data: witness})
	expectKind(t, err, fault.KindNotFound)

	vk := verifier.VerificationKey{Scheme: verifier.DigestScheme, Data: digest[:]}
	if err := env.challenges.SetVerificationKey(ctx, "alice", huntID, c.ID, vk); err != nil {
		t.Fatalf("Failed to set verification key: %v", err)
	}

	// 3. A bad proof is a plain miss, not a fault
	res, err := env.challenges.SubmitProof(ctx, "bob", huntID, c.ID, verifier.Proof{Data: []byte("bogus")})
	if err != nil {
		t.Fatalf("Bad proof must not abort: %v", err)
	}
	if res.Correct {
		t.Fatal("Expected the bad proof to miss")
	}

	// 4. The valid proof completes
	res, err = env.challenges.SubmitProof(ctx, "bob", huntID, c.ID, verifier.Proof{Data: witness})
	if err != nil || !res.Correct {
		t.Fatalf("Valid proof failed: %v", err)
	}

	// 5. A hash challenge rejects proofs
	plain := addHashChallenge(t, env, "alice", huntID, "harbor", 10)
	_, err = env.challenges.SubmitProof(ctx, "bob", huntID, plain, verifier.Proof{Data: witness})
	expectKind(t, err, fault.KindState)
}

func TestAddChallengeAuthoringPolicy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	huntID := env.makeHunt(t, "alice")
	env.grant(t, access.RoleModerator, "mod")

	req := &challenge.AddChallengeRequest{Question: "Q", Answer: "a", Points: 5}

	// Default policy: creator only, even for moderators
	_, err := env.challenges.AddChallenge(ctx, "mod", huntID, req)
	expectKind(t, err, fault.KindAuthorization)

	// OpenAuthoring admits admins and moderators
	open := NewChallengeService(
		env.store, env.access, env.hunts, env.streaks, env.leaderboard,
		verifier.Digest(), event.SinkFunc(func(event.Event) {}),
		ChallengeServiceConfig{OpenAuthoring: true, EngineID: engineID},
	)
	if _, err := open.AddChallenge(ctx, "mod", huntID, req); err != nil {
		t.Fatalf("Moderator should author under open policy: %v", err)
	}
	_, err = open.AddChallenge(ctx, "carol", huntID, req)
	expectKind(t, err, fault.KindAuthorization)
}

func TestGetChallengeByIndexBounds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	huntID := env.makeHunt(t, "alice")
	addHashChallenge(t, env, "alice", huntID, "harbor", 10)
	addHashChallenge(t, env, "alice", huntID, "bridge", 20)

	c, err := env.challenges.GetChallengeByIndex(ctx, huntID, 1)
	if err != nil {
		t.Fatalf("Index lookup failed: %v", err)
	}
	if c.ID != 1 {
		t.Errorf("Expected challenge id 1, got %d", c.ID)
	}

	_, err = env.challenges.GetChallengeByIndex(ctx, huntID, 2)
	expectKind(t, err, fault.KindValidation)
}

func TestCompletedChallengesInOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	huntID := env.makeHunt(t, "alice")
	first := addHashChallenge(t, env, "alice", huntID, "harbor", 10)
	second := addHashChallenge(t, env, "alice", huntID, "bridge", 10)

	if _, err := env.challenges.SubmitAnswer(ctx, "bob", huntID, second, "bridge"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := env.challenges.SubmitAnswer(ctx, "bob", huntID, first, "harbor"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	ids, err := env.challenges.GetCompletedChallenges(ctx, "bob", huntID)
	if err != nil {
		t.Fatalf("Failed to list completions: %v", err)
	}
	if len(ids) != 2 || ids[0] != second || ids[1] != first {
		t.Errorf("Expected completion order [%d %d], got %v", second, first, ids)
	}
}
