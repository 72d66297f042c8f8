package services

import (
	"context"
	"testing"

	"questHuntAPI/internal/access"
	"questHuntAPI/internal/fault"
	"questHuntAPI/internal/types/event"
	"questHuntAPI/utils"
)

func TestBatchMintRewards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.grant(t, access.RoleMinter, "minty")

	tokens, err := env.integration.BatchMintRewards(ctx, "minty",
		[]string{"bob", "carol"}, []uint64{1, 1}, []uint64{0, 1})
	if err != nil {
		t.Fatalf("Batch mint failed: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("Expected 2 tokens, got %d", len(tokens))
	}
	if tokens[0].TokenID == tokens[1].TokenID {
		t.Error("Batch minted duplicate token ids")
	}
}

func TestBatchMintLengthMismatch(t *testing.T) {
	env := newTestEnv(t)

	env.grant(t, access.RoleMinter, "minty")
	_, err := env.integration.BatchMintRewards(context.Background(), "minty",
		[]string{"bob", "carol"}, []uint64{1}, []uint64{0, 1})
	expectKind(t, err, fault.KindValidation)
}

func TestBatchMintIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.grant(t, access.RoleMinter, "minty")

	// Pre-mint the second triple so the batch fails mid-way
	if _, err := env.rewards.MintReward(ctx, "minty", "carol", 1, 1); err != nil {
		t.Fatalf("Setup mint failed: %v", err)
	}

	_, err := env.integration.BatchMintRewards(ctx, "minty",
		[]string{"bob", "carol"}, []uint64{1, 1}, []uint64{0, 1})
	expectKind(t, err, fault.KindState)

	// The first element must not have survived the failed batch
	tokens, err := env.rewards.GetUserTokens(ctx, "bob")
	if err != nil {
		t.Fatalf("Failed to list tokens: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("Failed batch leaked %d tokens to bob", len(tokens))
	}
}

func TestBatchUpdateProgressIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.integration.BatchUpdateProgress(ctx, "rando", []string{"bob"}, []uint64{10})
	expectKind(t, err, fault.KindAuthorization)

	env.grant(t, access.RoleScorekeeper, "keeper")
	err = env.integration.BatchUpdateProgress(ctx, "keeper", []string{"bob", "carol"}, []uint64{10})
	expectKind(t, err, fault.KindValidation)

	if err := env.integration.BatchUpdateProgress(ctx, "keeper",
		[]string{"bob", "carol"}, []uint64{10, 20}); err != nil {
		t.Fatalf("Batch progress failed: %v", err)
	}

	stats, err := env.leaderboard.GetUserStats(ctx, "carol")
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if stats.Points != 20 {
		t.Errorf("Expected 20 points, got %d", stats.Points)
	}
}

func TestBatchVerifySolutions(t *testing.T) {
	env := newTestEnv(t)

	hashes := []string{utils.HashAnswer("harbor"), utils.HashAnswer("bridge")}
	results, err := env.integration.BatchVerifySolutions([]string{"harbor", "wrong"}, hashes)
	if err != nil {
		t.Fatalf("Batch verify failed: %v", err)
	}
	if !results[0] || results[1] {
		t.Errorf("Expected [true false], got %v", results)
	}

	_, err = env.integration.BatchVerifySolutions([]string{"a"}, []string{})
	expectKind(t, err, fault.KindValidation)
}

func TestActivityLogsAreBoundedAndNewestFirst(t *testing.T) {
	env := newTestEnv(t)

	// playerCap is 8 in the test env; push past it for one player
	for i := 0; i < 12; i++ {
		e := event.New(event.TypePointsAdded, "engine")
		e.Subject = "bob"
		e.Points = uint64(i)
		env.integration.Record(e)
	}

	feed := env.integration.PlayerActivityFeed("bob", 100)
	if len(feed) != 8 {
		t.Fatalf("Expected the feed capped at 8, got %d", len(feed))
	}
	// Newest first: points 11, 10, ...
	if feed[0].Points != 11 || feed[7].Points != 4 {
		t.Errorf("Feed not newest-first: first=%d last=%d", feed[0].Points, feed[7].Points)
	}

	limited := env.integration.PlayerActivityFeed("bob", 3)
	if len(limited) != 3 || limited[0].Points != 11 {
		t.Errorf("Limit not applied from the newest end")
	}

	if got := env.integration.PlayerActivityFeed("ghost", 5); len(got) != 0 {
		t.Errorf("Unknown player must have an empty feed, got %d events", len(got))
	}

	system := env.integration.RecentSystemEvents(100)
	if len(system) != 12 {
		t.Errorf("Expected all 12 events in the system log (cap 16), got %d", len(system))
	}
}
