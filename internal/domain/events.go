package domain

import "time"

// TapEvent is one row of the append-only tap log.
type TapEvent struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Amount    int64     `db:"amount" json:"amount"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DailyClaim is one row of the append-only daily bonus log. The streak is
// derived by scanning recent claims, never stored.
type DailyClaim struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Amount    int64     `db:"amount" json:"amount"`
	ClaimedAt time.Time `db:"claimed_at" json:"claimed_at"`
}

// ReferralReward is one per-tap cascade credit paid to a referrer.
type ReferralReward struct {
	ID           int64     `db:"id" json:"id"`
	ReferrerID   int64     `db:"referrer_id" json:"referrer_id"`
	ReferredID   int64     `db:"referred_id" json:"referred_id"`
	RewardAmount int64     `db:"reward_amount" json:"reward_amount"`
	TapReward    int64     `db:"tap_reward" json:"tap_reward"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
