package reward

type Level string

const (
	LevelBronze Level = "BRONZE"
	LevelSilver Level = "SILVER"
	LevelGold   Level = "GOLD" // terminal
)

// Next returns the level above l; ok is false at the top of the ladder.
func (l Level) Next() (Level, bool) {
	switch l {
	case LevelBronze:
		return LevelSilver, true
	case LevelSilver:
		return LevelGold, true
	default:
		return l, false
	}
}

type Token struct {
	TokenID     uint64 `json:"tokenId" db:"token_id"`
	HuntID      uint64 `json:"huntId" db:"hunt_id"`
	ChallengeID uint64 `json:"challengeId" db:"challenge_id"`
	Owner       string `json:"owner" db:"owner"`
	Level       Level  `json:"level" db:"level"`
	MintedAt    int64  `json:"mintedAt" db:"minted_at"`
}

func (t *Token) CanUpgrade() bool { return t.Level != LevelGold }

type MintRequest struct {
	UserID      string `json:"userId"`
	HuntID      uint64 `json:"huntId"`
	ChallengeID uint64 `json:"challengeId"`
}
