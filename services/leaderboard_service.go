package services

import (
	"context"
	"sort"
	"strconv"

	"questHuntAPI/internal/access"
	"questHuntAPI/internal/fault"
	"questHuntAPI/internal/storage"
	"questHuntAPI/internal/types/event"
	"questHuntAPI/internal/types/leaderboard"
)

const defaultLeaderboardMaxSize = 10

// LeaderboardService accumulates points per player and serves the bounded
// ranked view. Only the challenge engine (or an identity holding the
// scorekeeper role) may push points in.
type LeaderboardService struct {
	store  storage.Store
	access *access.Service
	events event.Sink
}

func NewLeaderboardService(store storage.Store, accessSvc *access.Service, events event.Sink) *LeaderboardService {
	return &LeaderboardService{
		store:  store,
		access: accessSvc,
		events: events,
	}
}

func statsKey(userID string) string { return storage.Key("leaderboard", "stats", userID) }

const (
	lbUsersKey   = "leaderboard/users"
	lbMaxSizeKey = "leaderboard/max_size"
)

// AddPoints is the external, role-gated entry point for score changes.
func (s *LeaderboardService) AddPoints(ctx context.Context, caller, userID string, huntID, challengeID uint64, points uint64) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ok, err := s.access.HasRole(ctx, tx, access.RoleScorekeeper, caller)
	if err != nil {
		return err
	}
	if !ok {
		return fault.Authorizationf("caller %s lacks the scorekeeper role", caller)
	}

	if err := s.addPoints(ctx, tx, userID, points); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	e := event.New(event.TypePointsAdded, caller)
	e.Subject = userID
	e.HuntID = huntID
	e.ChallengeID = challengeID
	e.Points = points
	s.events.Emit(e)
	return nil
}

// addPoints registers the user on first points (idempotent, registration
// order preserved for the tie-break) and accumulates totals. Runs inside the
// caller's transaction so a failed submission leaves no score behind.
func (s *LeaderboardService) addPoints(ctx context.Context, tx storage.Tx, userID string, points uint64) error {
	stats := &leaderboard.Stats{UserID: userID}
	if _, err := getJSON(ctx, tx, statsKey(userID), stats); err != nil {
		return err
	}

	if !stats.Registered {
		stats.Registered = true
		if err := tx.Append(ctx, lbUsersKey, []byte(userID)); err != nil {
			return err
		}
	}
	stats.Points += points
	stats.CompletedChallenges++

	return putJSON(ctx, tx, statsKey(userID), stats)
}

// GetLeaderboard computes the ranked view: all registered users, stable sort
// descending by points, truncated to the configured size. Equal points keep
// earliest-registration order.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context) (*leaderboard.Leaderboard, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	users, err := tx.List(ctx, lbUsersKey)
	if err != nil {
		return nil, err
	}

	entries := make([]*leaderboard.Entry, 0, len(users))
	for _, u := range users {
		stats := &leaderboard.Stats{}
		if _, err := getJSON(ctx, tx, statsKey(string(u)), stats); err != nil {
			return nil, err
		}
		entries = append(entries, &leaderboard.Entry{
			UserID:              stats.UserID,
			Points:              stats.Points,
			CompletedChallenges: stats.CompletedChallenges,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Points > entries[j].Points
	})

	maxSize, err := s.maxSize(ctx, tx)
	if err != nil {
		return nil, err
	}
	total := len(entries)
	if len(entries) > maxSize {
		entries = entries[:maxSize]
	}
	for i, e := range entries {
		e.Rank = i + 1
	}

	return &leaderboard.Leaderboard{
		Entries:    entries,
		TotalUsers: total,
		MaxSize:    maxSize,
	}, nil
}

// GetUserStats is an O(1) lookup, independent of the bounded top-N view.
func (s *LeaderboardService) GetUserStats(ctx context.Context, userID string) (*leaderboard.Stats, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	stats := &leaderboard.Stats{UserID: userID}
	if _, err := getJSON(ctx, tx, statsKey(userID), stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *LeaderboardService) SetMaxSize(ctx context.Context, caller string, size int) error {
	if size < 1 {
		return fault.Validationf("leaderboard size must be at least 1")
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ok, err := s.access.IsAdminOrModerator(ctx, tx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return fault.Authorizationf("only admins or moderators may resize the leaderboard")
	}

	if err := tx.Put(ctx, lbMaxSizeKey, []byte(strconv.Itoa(size))); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *LeaderboardService) maxSize(ctx context.Context, tx storage.Tx) (int, error) {
	raw, ok, err := tx.Get(ctx, lbMaxSizeKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return defaultLeaderboardMaxSize, nil
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil || n < 1 {
		return defaultLeaderboardMaxSize, nil
	}
	return n, nil
}
