package domain

import "time"

type User struct {
	UserID      int64      `db:"user_id" json:"user_id"`
	Username    string     `db:"username" json:"username"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	Balance     int64      `db:"balance" json:"balance"`
	Energy      int        `db:"energy" json:"energy"`
	LastTapTime *time.Time `db:"last_tap_time" json:"last_tap_time,omitempty"`
	InvitedBy   *int64     `db:"invited_by" json:"invited_by,omitempty"`
	Referrals   int        `db:"referrals" json:"referrals"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Snapshot is the profile view returned to the presentation layer.
// Energy is live-computed through the energy ledger rather than read
// straight from the stored column.
type Snapshot struct {
	User      User           `json:"user"`
	Energy    int            `json:"energy"`
	MaxEnergy int            `json:"max_energy"`
	Upgrades  map[string]int `json:"upgrades"`
	Streak    int            `json:"streak"`
}
