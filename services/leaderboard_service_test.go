package services

import (
	"context"
	"testing"

	"questHuntAPI/internal/access"
	"questHuntAPI/internal/fault"
)

func TestAddPointsRequiresScorekeeper(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.leaderboard.AddPoints(ctx, "rando", "bob", 1, 0, 100)
	expectKind(t, err, fault.KindAuthorization)

	env.grant(t, access.RoleScorekeeper, "keeper")
	if err := env.leaderboard.AddPoints(ctx, "keeper", "bob", 1, 0, 100); err != nil {
		t.Fatalf("Scorekeeper add failed: %v", err)
	}

	stats, err := env.leaderboard.GetUserStats(ctx, "bob")
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if stats.Points != 100 || stats.CompletedChallenges != 1 {
		t.Errorf("Expected 100 points / 1 completion, got %d / %d", stats.Points, stats.CompletedChallenges)
	}
}

func TestLeaderboardBoundAndOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.grant(t, access.RoleScorekeeper, "keeper")
	for _, p := range []struct {
		user   string
		points uint64
	}{
		{"low", 100},
		{"mid", 300},
		{"top", 600},
	} {
		if err := env.leaderboard.AddPoints(ctx, "keeper", p.user, 1, 0, p.points); err != nil {
			t.Fatalf("Failed to add points for %s: %v", p.user, err)
		}
	}

	env.grant(t, access.RoleModerator, "mod")
	if err := env.leaderboard.SetMaxSize(ctx, "mod", 2); err != nil {
		t.Fatalf("Failed to set max size: %v", err)
	}

	board, err := env.leaderboard.GetLeaderboard(ctx)
	if err != nil {
		t.Fatalf("Failed to read leaderboard: %v", err)
	}
	if board.TotalUsers != 3 {
		t.Errorf("Expected 3 total users, got %d", board.TotalUsers)
	}
	if len(board.Entries) != 2 {
		t.Fatalf("Expected the view truncated to 2, got %d entries", len(board.Entries))
	}
	if board.Entries[0].UserID != "top" || board.Entries[1].UserID != "mid" {
		t.Errorf("Expected [top mid], got [%s %s]", board.Entries[0].UserID, board.Entries[1].UserID)
	}
	if board.Entries[0].Rank != 1 || board.Entries[1].Rank != 2 {
		t.Errorf("Ranks not assigned in view order")
	}
}

func TestLeaderboardTieBreakByRegistration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.grant(t, access.RoleScorekeeper, "keeper")
	// "early" earns its points first and must stay ahead of "late" on a tie
	if err := env.leaderboard.AddPoints(ctx, "keeper", "early", 1, 0, 200); err != nil {
		t.Fatalf("Failed to add points: %v", err)
	}
	if err := env.leaderboard.AddPoints(ctx, "keeper", "late", 1, 0, 200); err != nil {
		t.Fatalf("Failed to add points: %v", err)
	}

	board, err := env.leaderboard.GetLeaderboard(ctx)
	if err != nil {
		t.Fatalf("Failed to read leaderboard: %v", err)
	}
	if board.Entries[0].UserID != "early" || board.Entries[1].UserID != "late" {
		t.Errorf("Tie must keep registration order, got [%s %s]", board.Entries[0].UserID, board.Entries[1].UserID)
	}
}

func TestSetMaxSizeValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.leaderboard.SetMaxSize(ctx, superAdminID, 0)
	expectKind(t, err, fault.KindValidation)

	err = env.leaderboard.SetMaxSize(ctx, "rando", 5)
	expectKind(t, err, fault.KindAuthorization)

	if err := env.leaderboard.SetMaxSize(ctx, superAdminID, 5); err != nil {
		t.Fatalf("Admin resize failed: %v", err)
	}
}

func TestUserStatsOutsideTopN(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.grant(t, access.RoleScorekeeper, "keeper")
	env.grant(t, access.RoleModerator, "mod")
	if err := env.leaderboard.SetMaxSize(ctx, "mod", 1); err != nil {
		t.Fatalf("Failed to set max size: %v", err)
	}
	if err := env.leaderboard.AddPoints(ctx, "keeper", "top", 1, 0, 500); err != nil {
		t.Fatalf("Failed to add points: %v", err)
	}
	if err := env.leaderboard.AddPoints(ctx, "keeper", "below", 1, 0, 10); err != nil {
		t.Fatalf("Failed to add points: %v", err)
	}

	// The per-user lookup works even when the user fell off the bounded view
	stats, err := env.leaderboard.GetUserStats(ctx, "below")
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if stats.Points != 10 {
		t.Errorf("Expected 10 points, got %d", stats.Points)
	}
}
