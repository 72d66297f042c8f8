package services

import (
	"context"
	"time"

	"questHuntAPI/internal/storage"
	"questHuntAPI/internal/types/streak"
)

// StreakService tracks per-player daily solving streaks. Mutation happens
// only through challenge completion; reads never write.
type StreakService struct {
	store storage.Store
	now   func() time.Time
}

func NewStreakService(store storage.Store) *StreakService {
	return &StreakService{
		store: store,
		now:   time.Now,
	}
}

func streakKey(userID string) string {
	return storage.Key("streak", userID)
}

// updateStreak applies the streak transition inside the caller's transaction.
// First solve starts at 1; a solve within the two-day grace window increments
// (so the "next calendar day" still counts past the 24h mark); anything later
// resets to 1. The last-solve timestamp is always overwritten.
func (s *StreakService) updateStreak(ctx context.Context, tx storage.Tx, userID string, now int64) (*streak.Streak, error) {
	st := &streak.Streak{UserID: userID}
	if _, err := getJSON(ctx, tx, streakKey(userID), st); err != nil {
		return nil, err
	}

	switch {
	case st.LastSolveTS == 0:
		st.StreakCount = 1
	case now-st.LastSolveTS <= 2*streak.SecondsInDay:
		st.StreakCount++
	default:
		st.StreakCount = 1
	}
	st.LastSolveTS = now

	if st.StreakCount > st.LongestStreak {
		st.LongestStreak = st.StreakCount
	}

	if err := putJSON(ctx, tx, streakKey(userID), st); err != nil {
		return nil, err
	}
	return st, nil
}

// GetUserStreak is the read-only view. It reports 0 once more than a day has
// passed since the last solve, without persisting the reset; the stored
// counter only changes on the next real solve. The view can therefore
// disagree with what a subsequent update computes — that asymmetry is
// deliberate, a query must not mutate state.
func (s *StreakService) GetUserStreak(ctx context.Context, userID string) (uint64, error) {
	st, err := s.GetStreak(ctx, userID)
	if err != nil {
		return 0, err
	}
	if st.LastSolveTS != 0 && s.now().Unix()-st.LastSolveTS > streak.SecondsInDay {
		return 0, nil
	}
	return st.StreakCount, nil
}

// GetStreak returns the raw persisted record.
func (s *StreakService) GetStreak(ctx context.Context, userID string) (*streak.Streak, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	st := &streak.Streak{UserID: userID}
	if _, err := getJSON(ctx, tx, streakKey(userID), st); err != nil {
		return nil, err
	}
	return st, nil
}
