package challenge

type Challenge struct {
	ID          uint64 `json:"id" db:"id"`
	HuntID      uint64 `json:"huntId" db:"hunt_id"`
	Question    string `json:"question" db:"question"`
	AnswerHash  string `json:"answerHash" db:"answer_hash"`
	Points      uint64 `json:"points" db:"points"`
	Active      bool   `json:"active" db:"active"`
	UsesZKProof bool   `json:"usesZkProof" db:"uses_zk_proof"`
}

// PuzzleAssignment pins a player to one challenge of a hunt. While set, the
// player may only submit for the assigned challenge; solving it clears the
// assignment.
type PuzzleAssignment struct {
	ChallengeID uint64 `json:"challengeId" db:"challenge_id"`
	Assigned    bool   `json:"assigned" db:"assigned"`
}

type AddChallengeRequest struct {
	Question    string `json:"question"`
	Answer      string `json:"answer,omitempty"`
	AnswerHash  string `json:"answerHash,omitempty"`
	Points      uint64 `json:"points"`
	UsesZKProof bool   `json:"usesZkProof"`
}

type SubmitAnswerRequest struct {
	Answer string `json:"answer"`
}

type SubmitProofRequest struct {
	Proof []byte `json:"proof"`
}

type AssignPuzzleRequest struct {
	UserID      string `json:"userId"`
	ChallengeID uint64 `json:"challengeId"`
}

type SubmissionResult struct {
	Correct   bool   `json:"correct"`
	Completed uint64 `json:"completedInHunt"`
}
