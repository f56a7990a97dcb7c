package models

import "time"

// Criteria describes how progress toward a RewardDefinition is computed.
// It is a closed set: the engine type-switches over the concrete kinds and
// treats anything else as a catalog defect.
type Criteria interface {
	Kind() string
}

// ProfileCompleteness: weighted facet sum over the user's profile,
// normalized to [0,1]. Weights live in services (fixed constants, sum 100).
type ProfileCompleteness struct{}

func (ProfileCompleteness) Kind() string { return "profile_completeness" }

type Metric string

const (
	MetricAnalyses     Metric = "analyses"
	MetricApplications Metric = "applications"
	MetricSkills       Metric = "skills"
	MetricCVs          Metric = "cvs"
	MetricChallenges   Metric = "challenges"
)

// ActivityCount: min(current/target, 1). The count is read fresh from the
// stats collaborator at evaluation time, never tracked incrementally, so
// replayed or lost events cannot skew it.
type ActivityCount struct {
	Metric Metric
	Target int64
}

func (ActivityCount) Kind() string { return "activity_count" }

// LoginStreak: min(currentStreak/target, 1), streak read fresh each time.
type LoginStreak struct {
	Target int64
}

func (LoginStreak) Kind() string { return "login_streak" }

type Condition string

const (
	// CondWeeklyActivity counts activity rows inside the trailing Window.
	CondWeeklyActivity Condition = "weekly_activity"
	// CondQualityScore compares the mean analysis score against Target.
	CondQualityScore Condition = "quality_score"
)

// Conditional carries a sub-kind plus its parameters. Window only applies
// to time-bounded conditions.
type Conditional struct {
	Cond   Condition
	Window time.Duration
	Target float64
}

func (Conditional) Kind() string { return "conditional" }
