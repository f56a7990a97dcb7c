package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the local identity row. Profile/auth concerns live in the
// surrounding application; we only need enough to resolve a user id.
type User struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Profile holds the contact/bio fields that feed completeness scoring.
type Profile struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   string `gorm:"uniqueIndex;not null" json:"user_id"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	About    string `gorm:"type:text" json:"about"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Website  string `json:"website"`

	Timestamps
}

// Experience is one work-history entry on a profile.
type Experience struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string     `gorm:"index;not null" json:"user_id"`
	Company     string     `json:"company"`
	Role        string     `json:"role"`
	Description string     `gorm:"type:text" json:"description"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`

	Timestamps
}

type Education struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string `gorm:"index;not null" json:"user_id"`
	Institution string `json:"institution"`
	Degree      string `json:"degree"`

	Timestamps
}

type Skill struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"index;not null" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`
	Level  string `json:"level"` // beginner, intermediate, advanced

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
