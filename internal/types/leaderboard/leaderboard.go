package leaderboard

type Entry struct {
	UserID              string `json:"userId" db:"user_id"`
	Points              uint64 `json:"points" db:"points"`
	CompletedChallenges uint64 `json:"completedChallenges" db:"completed_challenges"`
	Rank                int    `json:"rank"`
}

// Stats is the per-user accumulator the ranked view is derived from.
type Stats struct {
	UserID              string `json:"userId" db:"user_id"`
	Points              uint64 `json:"points" db:"points"`
	CompletedChallenges uint64 `json:"completedChallenges" db:"completed_challenges"`
	Registered          bool   `json:"registered" db:"registered"`
}

type Leaderboard struct {
	Entries    []*Entry `json:"entries"`
	TotalUsers int      `json:"totalUsers"`
	MaxSize    int      `json:"maxSize"`
}

type SetMaxSizeRequest struct {
	MaxSize int `json:"maxSize"`
}
