package models

// EventType is the fixed enumeration of user-activity kinds that can move
// reward progress.
type EventType string

const (
	EventCVUploaded           EventType = "cv_uploaded"
	EventAnalysisCompleted    EventType = "analysis_completed"
	EventApplicationSubmitted EventType = "application_submitted"
	EventProfileUpdated       EventType = "profile_updated"
	EventSkillAdded           EventType = "skill_added"
	EventDailyLogin           EventType = "daily_login"
	EventChallengeCompleted   EventType = "challenge_completed"
	EventStreakMilestone      EventType = "streak_milestone"
)

// EventCategories maps each event to the reward categories it can affect
// (many-to-many: skill_added also feeds profile completeness).
var EventCategories = map[EventType][]Category{
	EventCVUploaded:           {CategoryDocuments, CategoryMomentum},
	EventAnalysisCompleted:    {CategoryAnalysis, CategoryMomentum},
	EventApplicationSubmitted: {CategoryApplication, CategoryMomentum},
	EventProfileUpdated:       {CategoryProfile},
	EventSkillAdded:           {CategorySkills, CategoryProfile},
	EventDailyLogin:           {CategoryStreak},
	EventChallengeCompleted:   {CategoryChallenge, CategoryMomentum},
	EventStreakMilestone:      {CategoryStreak},
}

// KnownEvent reports whether t is part of the enumeration.
func KnownEvent(t EventType) bool {
	_, ok := EventCategories[t]
	return ok
}

// ActivityEvent is what the dispatcher carries: who did what, plus
// event-specific auxiliary data (not validated beyond being present).
type ActivityEvent struct {
	UserID  string                 `json:"user_id"`
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}
