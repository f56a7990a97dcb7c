package models

import "time"

// CVDocument is one uploaded CV revision. Storage of the file itself is
// handled by the surrounding application; we keep the row for counting.
type CVDocument struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   string `gorm:"index;not null" json:"user_id"`
	FileName string `json:"file_name"`
	Version  int    `json:"version"`

	Timestamps
}

// CVAnalysis is one completed analysis run with its 0-100 quality score.
type CVAnalysis struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"index;not null" json:"user_id"`
	CVID   string `gorm:"index" json:"cv_id"`
	Score  int    `json:"score"` // 0-100
	Model  string `json:"model"` // which analyzer produced it

	Timestamps
}

type ApplicationStatus string

const (
	ApplicationSubmitted    ApplicationStatus = "submitted"
	ApplicationInterviewing ApplicationStatus = "interviewing"
	ApplicationOffered      ApplicationStatus = "offered"
	ApplicationRejected     ApplicationStatus = "rejected"
)

// Application is one job application submitted by the user.
type Application struct {
	ID        string            `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string            `gorm:"index;not null" json:"user_id"`
	Company   string            `json:"company"`
	Role      string            `json:"role"`
	Status    ApplicationStatus `gorm:"default:'submitted'" json:"status"`
	AppliedAt time.Time         `json:"applied_at"`

	Timestamps
}

// ChallengeCompletion records one finished challenge.
type ChallengeCompletion struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string    `gorm:"index;not null" json:"user_id"`
	ChallengeID string    `gorm:"index;not null" json:"challenge_id"`
	CompletedAt time.Time `json:"completed_at"`

	Timestamps
}
