package models

import (
	"time"

	"gorm.io/datatypes"
)

// XPLedgerEntry is the append-only audit trail for XP credits. Exactly one
// row is written per reward grant; rows are never updated or deleted.
type XPLedgerEntry struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string         `gorm:"index;not null" json:"user_id"`
	Amount      int64          `gorm:"not null" json:"amount"`
	Category    Category       `gorm:"not null" json:"category"`
	RewardID    string         `gorm:"index" json:"reward_id"`
	Description string         `json:"description"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// ActivityLog records every dispatched activity event with its raw payload.
// Append-only; used for audit and the weekly-activity window queries.
type ActivityLog struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string         `gorm:"index;not null" json:"user_id"`
	EventType EventType      `gorm:"index;not null" json:"event_type"`
	Payload   datatypes.JSON `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
}
