package models

import (
	"time"
)

// UserProgress tracks gamified progression for each user (denormalized for performance).
// TotalXP is only ever moved by atomic increments; Level and Title are derived
// from TotalXP at read time so no read-modify-write on the row is needed.
type UserProgress struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`

	TotalXP int64 `json:"total_xp" gorm:"default:0"`

	// Login streak, maintained by the activity service (not the engine).
	CurrentStreak int64      `json:"current_streak" gorm:"default:0"`
	LongestStreak int64      `json:"longest_streak" gorm:"default:0"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`

	// Derived, filled on read
	Level int    `json:"level" gorm:"-"`
	Title string `json:"title" gorm:"-"`

	Timestamps
}

// RewardProgress is one row per (user, reward definition) pair once progress
// is nonzero. Progress is monotonically non-decreasing; GrantedAt is set
// exactly once, when progress first reaches 1.0. Rows are never deleted.
type RewardProgress struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string     `gorm:"not null;uniqueIndex:idx_user_reward" json:"user_id"`
	RewardID  string     `gorm:"not null;uniqueIndex:idx_user_reward" json:"reward_id"`
	Progress  float64    `json:"progress" gorm:"default:0"`
	GrantedAt *time.Time `json:"granted_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Granted reports whether the pair has completed (grant is permanent).
func (p *RewardProgress) Granted() bool {
	return p.GrantedAt != nil || p.Progress >= 1.0
}
