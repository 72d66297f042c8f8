package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeHuntCreated        Type = "hunt_created"
	TypeHuntUpdated        Type = "hunt_updated"
	TypeHuntStatusChanged  Type = "hunt_status_changed"
	TypeChallengeAdded     Type = "challenge_added"
	TypeChallengeCompleted Type = "challenge_completed"
	TypePointsAdded        Type = "points_added"
	TypeStreakUpdated      Type = "streak_updated"
	TypeRewardMinted       Type = "reward_minted"
	TypeRewardUpgraded     Type = "reward_upgraded"
	TypeReferralRegistered Type = "referral_registered"
	TypeReferralClaimed    Type = "referral_claimed"
	TypePuzzleAssigned     Type = "puzzle_assigned"
)

// Event is the structured notification emitted once per committed state
// transition, carrying post-write values.
type Event struct {
	ID          uuid.UUID      `json:"id"`
	Type        Type           `json:"type"`
	Actor       string         `json:"actor"`
	Subject     string         `json:"subject,omitempty"`
	HuntID      uint64         `json:"huntId,omitempty"`
	ChallengeID uint64         `json:"challengeId,omitempty"`
	Points      uint64         `json:"points,omitempty"`
	OccurredAt  time.Time      `json:"occurredAt"`
	Data        map[string]any `json:"data,omitempty"`
}

func New(t Type, actor string) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	}
}

// Sink receives events after the transition that produced them has been
// committed. Implementations must not mutate game state.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Event)

func (f SinkFunc) Emit(e Event) { f(e) }
