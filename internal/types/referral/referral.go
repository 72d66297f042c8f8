package referral

type Referral struct {
	Invitee      string `json:"invitee" db:"invitee"`
	Referrer     string `json:"referrer" db:"referrer"`
	RegisteredAt int64  `json:"registeredAt" db:"registered_at"`
}

type Claim struct {
	Referrer  string `json:"referrer" db:"referrer"`
	Invitee   string `json:"invitee" db:"invitee"`
	HuntID    uint64 `json:"huntId" db:"hunt_id"`
	Amount    int64  `json:"amount" db:"amount"`
	ClaimedAt int64  `json:"claimedAt" db:"claimed_at"`
}

type Config struct {
	RequiredCompletions uint64 `json:"requiredCompletions" db:"required_completions"`
	RewardAmount        int64  `json:"rewardAmount" db:"reward_amount"`
}

type RegisterRequest struct {
	Referrer string `json:"referrer"`
}

type ClaimRequest struct {
	Invitee string `json:"invitee"`
	HuntID  uint64 `json:"huntId"`
}

// InviteCode is the shareable referral payload: deep link plus a QR render
// of it for scanning at in-person events.
type InviteCode struct {
	Referrer     string `json:"referrer"`
	ShareLink    string `json:"shareLink"`
	QrCodeBase64 string `json:"qrCodeBase64"`
}
