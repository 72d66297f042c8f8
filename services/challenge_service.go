package services

import (
	"context"
	"time"

	"questHuntAPI/internal/access"
	"questHuntAPI/internal/fault"
	"questHuntAPI/internal/storage"
	"questHuntAPI/internal/types/challenge"
	"questHuntAPI/internal/types/event"
	"questHuntAPI/internal/types/reward"
	"questHuntAPI/internal/verifier"
	"questHuntAPI/utils"
)

// ChallengeServiceConfig carries the deployment's policy choices.
type ChallengeServiceConfig struct {
	// OpenAuthoring widens AddChallenge from the hunt creator to
	// admin/moderator role holders as well.
	OpenAuthoring bool
	// EngineID is the identity the engine acts under when it pushes points
	// and mints rewards on a player's behalf.
	EngineID string
}

// ChallengeService runs the per-(user, hunt, challenge) completion state
// machine: Unattempted -> Completed, terminal, no way back. All side effects
// of a successful submission (completion record, streak, points, reward)
// commit in one transaction.
type ChallengeService struct {
	store       storage.Store
	access      *access.Service
	hunts       *HuntService
	streaks     *StreakService
	leaderboard *LeaderboardService
	rewards     *RewardService // optional; nil means completions mint nothing
	verify      verifier.ProofVerifier
	events      event.Sink
	now         func() time.Time
	cfg         ChallengeServiceConfig
}

func NewChallengeService(
	store storage.Store,
	accessSvc *access.Service,
	hunts *HuntService,
	streaks *StreakService,
	lb *LeaderboardService,
	verify verifier.ProofVerifier,
	events event.Sink,
	cfg ChallengeServiceConfig,
) *ChallengeService {
	return &ChallengeService{
		store:       store,
		access:      accessSvc,
		hunts:       hunts,
		streaks:     streaks,
		leaderboard: lb,
		verify:      verify,
		events:      events,
		now:         time.Now,
		cfg:         cfg,
	}
}

// SetRewardIssuer wires minting into successful submissions. Optional.
func (s *ChallengeService) SetRewardIssuer(rewards *RewardService) {
	s.rewards = rewards
}

func challengeKey(huntID, id uint64) string {
	return storage.Key("challenge", u64(huntID), u64(id))
}

func challengeSeqKey(huntID uint64) string {
	return storage.Key("challenge", u64(huntID), "seq")
}

func completionKey(userID string, huntID, id uint64) string {
	return storage.Key("completion", userID, u64(huntID), u64(id))
}

func completedListKey(userID string, huntID uint64) string {
	return storage.Key("completed", userID, u64(huntID))
}

func puzzleKey(userID string, huntID uint64) string {
	return storage.Key("puzzle", userID, u64(huntID))
}

func vkeyKey(huntID, id uint64) string {
	return storage.Key("vkey", u64(huntID), u64(id))
}

// AddChallenge creates a challenge in a hunt. Challenge ids are scoped to the
// hunt and count up from 0. Default policy restricts authoring to the hunt's
// creator; OpenAuthoring admits admins and moderators too.
func (s *ChallengeService) AddChallenge(ctx context.Context, caller string, huntID uint64, req *challenge.AddChallengeRequest) (*challenge.Challenge, error) {
	if req.Question == "" {
		return nil, fault.Validationf("challenge question is required")
	}
	answerHash := req.AnswerHash
	if answerHash == "" && req.Answer != "" {
		answerHash = utils.HashAnswer(req.Answer)
	}
	if !req.UsesZKProof && answerHash == "" {
		return nil, fault.Validationf("a hash-based challenge needs an answer or answer hash")
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	h, err := s.hunts.getHunt(ctx, tx, huntID)
	if err != nil {
		return nil, err
	}
	allowed := caller == h.AdminID
	if !allowed && s.cfg.OpenAuthoring {
		allowed, err = s.access.IsAdminOrModerator(ctx, tx, caller)
		if err != nil {
			return nil, err
		}
	}
	if !allowed {
		return nil, fault.Authorizationf("caller %s may not add challenges to hunt %d", caller, huntID)
	}

	seq, err := nextSeq(ctx, tx, challengeSeqKey(huntID))
	if err != nil {
		return nil, err
	}
	c := &challenge.Challenge{
		ID:          seq,
		HuntID:      huntID,
		Question:    req.Question,
		AnswerHash:  answerHash,
		Points:      req.Points,
		Active:      true,
		UsesZKProof: req.UsesZKProof,
	}
	if err := putJSON(ctx, tx, challengeKey(huntID, c.ID), c); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	e := event.New(event.TypeChallengeAdded, caller)
	e.HuntID = huntID
	e.ChallengeID = c.ID
	e.Points = c.Points
	s.events.Emit(e)
	return c, nil
}

// SubmitAnswer runs the hash-based submission path. A wrong answer is a
// normal false result, not a fault; only state violations abort.
func (s *ChallengeService) SubmitAnswer(ctx context.Context, caller string, huntID, challengeID uint64, answer string) (*challenge.SubmissionResult, error) {
	return s.submit(ctx, caller, huntID, challengeID, func(c *challenge.Challenge, tx storage.Tx) (bool, error) {
		if c.UsesZKProof {
			return false, fault.Statef("challenge %d of hunt %d requires a proof submission", challengeID, huntID)
		}
		return utils.HashMatches(answer, c.AnswerHash), nil
	})
}

// SubmitProof runs the zero-knowledge submission path. The stored
// verification key is a precondition; the verifier's boolean verdict decides
// the match exactly like a hash comparison would.
func (s *ChallengeService) SubmitProof(ctx context.Context, caller string, huntID, challengeID uint64, proof verifier.Proof) (*challenge.SubmissionResult, error) {
	return s.submit(ctx, caller, huntID, challengeID, func(c *challenge.Challenge, tx storage.Tx) (bool, error) {
		if !c.UsesZKProof {
			return false, fault.Statef("challenge %d of hunt %d expects a plain answer, not a proof", challengeID, huntID)
		}
		vk := &verifier.VerificationKey{}
		ok, err := getJSON(ctx, tx, vkeyKey(huntID, challengeID), vk)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, fault.NotFoundf("no verification key set for hunt %d challenge %d", huntID, challengeID)
		}
		return s.verify.Verify(*vk, proof), nil
	})
}

// submit evaluates the guard chain in order, each stage with its own abort
// reason, then applies the completion and its side effects atomically.
func (s *ChallengeService) submit(ctx context.Context, caller string, huntID, challengeID uint64, match func(*challenge.Challenge, storage.Tx) (bool, error)) (*challenge.SubmissionResult, error) {
	if caller == "" {
		return nil, fault.Authorizationf("caller identity is required")
	}
	now := s.now().Unix()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 1. hunt must be active
	h, err := s.hunts.getHunt(ctx, tx, huntID)
	if err != nil {
		return nil, err
	}
	if !h.ActiveAt(now) {
		return nil, fault.Statef("hunt %d is not active", huntID)
	}

	// 2. challenge must be active
	c, err := s.getChallenge(ctx, tx, huntID, challengeID)
	if err != nil {
		return nil, err
	}
	if !c.Active {
		return nil, fault.Statef("challenge %d of hunt %d is not active", challengeID, huntID)
	}

	// 3. an open puzzle assignment pins the player to one challenge
	assignment := &challenge.PuzzleAssignment{}
	if _, err := getJSON(ctx, tx, puzzleKey(caller, huntID), assignment); err != nil {
		return nil, err
	}
	if assignment.Assigned && assignment.ChallengeID != challengeID {
		return nil, fault.Statef("user %s must solve assigned puzzle %d first", caller, assignment.ChallengeID)
	}

	// 4. completion is terminal
	_, done, err := tx.Get(ctx, completionKey(caller, huntID, challengeID))
	if err != nil {
		return nil, err
	}
	if done {
		return nil, fault.Statef("user %s already completed challenge %d of hunt %d", caller, challengeID, huntID)
	}

	// 5+6. submission mode and answer criterion
	correct, err := match(c, tx)
	if err != nil {
		return nil, err
	}
	if !correct {
		// no writes happened; report the miss without a fault
		return &challenge.SubmissionResult{Correct: false}, nil
	}

	if err := tx.Put(ctx, completionKey(caller, huntID, challengeID), []byte("1")); err != nil {
		return nil, err
	}
	if err := tx.Append(ctx, completedListKey(caller, huntID), []byte(u64(challengeID))); err != nil {
		return nil, err
	}
	if assignment.Assigned {
		if err := tx.Delete(ctx, puzzleKey(caller, huntID)); err != nil {
			return nil, err
		}
	}

	st, err := s.streaks.updateStreak(ctx, tx, caller, now)
	if err != nil {
		return nil, err
	}
	if err := s.leaderboard.addPoints(ctx, tx, caller, c.Points); err != nil {
		return nil, err
	}
	var minted *reward.Token
	if s.rewards != nil {
		minted, err = s.rewards.mint(ctx, tx, caller, huntID, challengeID)
		if err != nil {
			return nil, err
		}
	}

	completed, err := tx.List(ctx, completedListKey(caller, huntID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	done1 := event.New(event.TypeChallengeCompleted, caller)
	done1.HuntID = huntID
	done1.ChallengeID = challengeID
	done1.Points = c.Points
	s.events.Emit(done1)

	se := event.New(event.TypeStreakUpdated, s.cfg.EngineID)
	se.Subject = caller
	se.Data = map[string]any{"streak": st.StreakCount}
	s.events.Emit(se)

	pe := event.New(event.TypePointsAdded, s.cfg.EngineID)
	pe.Subject = caller
	pe.HuntID = huntID
	pe.ChallengeID = challengeID
	pe.Points = c.Points
	s.events.Emit(pe)

	if minted != nil {
		s.rewards.emitMinted(s.cfg.EngineID, minted)
	}

	return &challenge.SubmissionResult{Correct: true, Completed: uint64(len(completed))}, nil
}

// SetChallengeActive toggles a single challenge without touching the hunt.
func (s *ChallengeService) SetChallengeActive(ctx context.Context, caller string, huntID, challengeID uint64, active bool) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	h, err := s.hunts.getHunt(ctx, tx, huntID)
	if err != nil {
		return err
	}
	if err := s.hunts.requireManager(ctx, tx, caller, h); err != nil {
		return err
	}

	c, err := s.getChallenge(ctx, tx, huntID, challengeID)
	if err != nil {
		return err
	}
	c.Active = active
	if err := putJSON(ctx, tx, challengeKey(huntID, challengeID), c); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SetVerificationKey stores the proof parameters for a ZK challenge.
func (s *ChallengeService) SetVerificationKey(ctx context.Context, caller string, huntID, challengeID uint64, vk verifier.VerificationKey) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	h, err := s.hunts.getHunt(ctx, tx, huntID)
	if err != nil {
		return err
	}
	if err := s.hunts.requireManager(ctx, tx, caller, h); err != nil {
		return err
	}

	c, err := s.getChallenge(ctx, tx, huntID, challengeID)
	if err != nil {
		return err
	}
	if !c.UsesZKProof {
		return fault.Statef("challenge %d of hunt %d does not use proofs", challengeID, huntID)
	}

	if err := putJSON(ctx, tx, vkeyKey(huntID, challengeID), &vk); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AssignPuzzle pins a player to one challenge of a hunt until they solve it.
func (s *ChallengeService) AssignPuzzle(ctx context.Context, caller, userID string, huntID, challengeID uint64) error {
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
		return fault.Authorizationf("only admins or moderators may assign puzzles")
	}

	if _, err := s.getChallenge(ctx, tx, huntID, challengeID); err != nil {
		return err
	}

	a := &challenge.PuzzleAssignment{ChallengeID: challengeID, Assigned: true}
	if err := putJSON(ctx, tx, puzzleKey(userID, huntID), a); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	e := event.New(event.TypePuzzleAssigned, caller)
	e.Subject = userID
	e.HuntID = huntID
	e.ChallengeID = challengeID
	s.events.Emit(e)
	return nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, huntID, challengeID uint64) (*challenge.Challenge, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	return s.getChallenge(ctx, tx, huntID, challengeID)
}

// GetChallengeByIndex resolves a challenge by position. Ids count up from 0
// with no gaps, so the index is the id once bounds-checked.
func (s *ChallengeService) GetChallengeByIndex(ctx context.Context, huntID uint64, index uint64) (*challenge.Challenge, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	count, err := s.challengeCount(ctx, tx, huntID)
	if err != nil {
		return nil, err
	}
	if index >= count {
		return nil, fault.Validationf("invalid index %d: hunt %d has %d challenges", index, huntID, count)
	}
	return s.getChallenge(ctx, tx, huntID, index)
}

// GetCompletedChallenges lists the challenge ids a user solved in a hunt, in
// completion order.
func (s *ChallengeService) GetCompletedChallenges(ctx context.Context, userID string, huntID uint64) ([]uint64, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	raw, err := tx.List(ctx, completedListKey(userID, huntID))
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(raw))
	for _, r := range raw {
		id, err := parseU64(string(r))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CompletionCount reports how many challenges of a hunt the user completed.
func (s *ChallengeService) CompletionCount(ctx context.Context, userID string, huntID uint64) (uint64, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)
	return s.completionCount(ctx, tx, userID, huntID)
}

func (s *ChallengeService) completionCount(ctx context.Context, tx storage.Tx, userID string, huntID uint64) (uint64, error) {
	raw, err := tx.List(ctx, completedListKey(userID, huntID))
	if err != nil {
		return 0, err
	}
	return uint64(len(raw)), nil
}

func (s *ChallengeService) getChallenge(ctx context.Context, tx storage.Tx, huntID, challengeID uint64) (*challenge.Challenge, error) {
	c := &challenge.Challenge{}
	ok, err := getJSON(ctx, tx, challengeKey(huntID, challengeID), c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fault.NotFoundf("challenge %d does not exist in hunt %d", challengeID, huntID)
	}
	return c, nil
}

func (s *ChallengeService) challengeCount(ctx context.Context, tx storage.Tx, huntID uint64) (uint64, error) {
	raw, ok, err := tx.Get(ctx, challengeSeqKey(huntID))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return parseU64(string(raw))
}
