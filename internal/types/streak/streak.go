package streak

// SecondsInDay is the streak window unit. A solve within one day of the last
// one continues the streak; the grace window stretches to two days so a solve
// on the next calendar day still counts even past the 24h mark.
const SecondsInDay int64 = 86400

type Streak struct {
	UserID        string `json:"userId" db:"user_id"`
	StreakCount   uint64 `json:"streakCount" db:"streak_count"`
	LongestStreak uint64 `json:"longestStreak" db:"longest_streak"`
	LastSolveTS   int64  `json:"lastSolveTs" db:"last_solve_ts"`
}
