package services

import (
	"context"
	"sync"

	"questHuntAPI/internal/access"
	"questHuntAPI/internal/fault"
	"questHuntAPI/internal/ringlog"
	"questHuntAPI/internal/storage"
	"questHuntAPI/internal/types/event"
	"questHuntAPI/internal/types/reward"
	"questHuntAPI/utils"
)

// IntegrationService is the batch façade over the game services plus the
// bounded activity logs. Batch inputs are parallel arrays; a length mismatch
// fails the whole batch before any element runs, and element processing
// shares one transaction so a mid-batch failure leaves nothing behind.
type IntegrationService struct {
	store       storage.Store
	access      *access.Service
	rewards     *RewardService
	leaderboard *LeaderboardService

	systemLog *ringlog.Ring[event.Event]

	mu         sync.RWMutex
	playerLogs map[string]*ringlog.Ring[event.Event]
	playerCap  int
}

func NewIntegrationService(store storage.Store, accessSvc *access.Service, rewards *RewardService, lb *LeaderboardService, systemLogCap, playerLogCap int) *IntegrationService {
	return &IntegrationService{
		store:       store,
		access:      accessSvc,
		rewards:     rewards,
		leaderboard: lb,
		systemLog:   ringlog.New[event.Event](systemLogCap),
		playerLogs:  make(map[string]*ringlog.Ring[event.Event]),
		playerCap:   playerLogCap,
	}
}

// BatchMintRewards mints one reward per (user, hunt, challenge) triple.
func (s *IntegrationService) BatchMintRewards(ctx context.Context, caller string, users []string, huntIDs, challengeIDs []uint64) ([]*reward.Token, error) {
	if len(users) != len(huntIDs) || len(users) != len(challengeIDs) {
		return nil, fault.Validationf("batch length mismatch: %d users, %d hunts, %d challenges",
			len(users), len(huntIDs), len(challengeIDs))
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.rewards.requireMinter(ctx, tx, caller); err != nil {
		return nil, err
	}

	tokens := make([]*reward.Token, 0, len(users))
	for i := range users {
		t, err := s.rewards.mint(ctx, tx, users[i], huntIDs[i], challengeIDs[i])
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	for _, t := range tokens {
		s.rewards.emitMinted(caller, t)
	}
	return tokens, nil
}

// BatchUpdateProgress pushes score deltas for many players at once.
func (s *IntegrationService) BatchUpdateProgress(ctx context.Context, caller string, users []string, points []uint64) error {
	if len(users) != len(points) {
		return fault.Validationf("batch length mismatch: %d users, %d point values", len(users), len(points))
	}

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

	for i := range users {
		if err := s.leaderboard.addPoints(ctx, tx, users[i], points[i]); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// BatchVerifySolutions checks answers against stored digests without touching
// state. Pure read; the result order matches the input order.
func (s *IntegrationService) BatchVerifySolutions(answers, expectedHashes []string) ([]bool, error) {
	if len(answers) != len(expectedHashes) {
		return nil, fault.Validationf("batch length mismatch: %d answers, %d hashes", len(answers), len(expectedHashes))
	}
	out := make([]bool, len(answers))
	for i := range answers {
		out[i] = utils.HashMatches(answers[i], expectedHashes[i])
	}
	return out, nil
}

// Record feeds a committed event into the bounded logs. Registered as an
// event-dispatcher provider.
func (s *IntegrationService) Record(e event.Event) {
	s.systemLog.Push(e)
	if e.Actor != "" {
		s.playerLog(e.Actor).Push(e)
	}
	if e.Subject != "" && e.Subject != e.Actor {
		s.playerLog(e.Subject).Push(e)
	}
}

func (s *IntegrationService) playerLog(player string) *ringlog.Ring[event.Event] {
	s.mu.RLock()
	r, ok := s.playerLogs[player]
	s.mu.RUnlock()
	if ok {
		return r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok = s.playerLogs[player]; ok {
		return r
	}
	r = ringlog.New[event.Event](s.playerCap)
	s.playerLogs[player] = r
	return r
}

// RecentSystemEvents returns the newest events first, capped at the ring's
// stored length.
func (s *IntegrationService) RecentSystemEvents(limit int) []event.Event {
	return s.systemLog.Recent(limit)
}

func (s *IntegrationService) PlayerActivityFeed(player string, limit int) []event.Event {
	s.mu.RLock()
	r, ok := s.playerLogs[player]
	s.mu.RUnlock()
	if !ok {
		return []event.Event{}
	}
	return r.Recent(limit)
}
