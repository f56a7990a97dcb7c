package models

import "time"

type Category string

const (
	CategoryProfile     Category = "profile"
	CategoryAnalysis    Category = "analysis"
	CategoryApplication Category = "application"
	CategorySkills      Category = "skills"
	CategoryDocuments   Category = "documents"
	CategoryStreak      Category = "streak"
	CategoryChallenge   Category = "challenge"
	CategoryMomentum    Category = "momentum"
)

// RewardDefinition: static catalog entry (in-code, never mutated at runtime).
// ID is assigned by the registry as a slug of Name.
type RewardDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Rarity      string   `json:"rarity"` // common, rare, epic, legendary
	Criteria    Criteria `json:"-"`
	XP          int64    `json:"xp"`
}

// RewardCatalog is the deploy-time definition set. The registry validates it
// on load (unique names, positive XP, criteria present).
var RewardCatalog = []RewardDefinition{
	{
		Name:        "Profile Pioneer",
		Description: "Completed your developer profile",
		Category:    CategoryProfile,
		Rarity:      "rare",
		Criteria:    ProfileCompleteness{},
		XP:          150,
	},
	{
		Name:        "First Impressions",
		Description: "Ran your first CV analysis",
		Category:    CategoryAnalysis,
		Rarity:      "common",
		Criteria:    ActivityCount{Metric: MetricAnalyses, Target: 1},
		XP:          50,
	},
	{
		Name:        "Feedback Loop",
		Description: "Completed 5 CV analyses",
		Category:    CategoryAnalysis,
		Rarity:      "common",
		Criteria:    ActivityCount{Metric: MetricAnalyses, Target: 5},
		XP:          150,
	},
	{
		Name:        "Resume Scientist",
		Description: "Completed 25 CV analyses",
		Category:    CategoryAnalysis,
		Rarity:      "epic",
		Criteria:    ActivityCount{Metric: MetricAnalyses, Target: 25},
		XP:          500,
	},
	{
		Name:        "Quality Craftsman",
		Description: "Kept an average analysis score of 85 or better",
		Category:    CategoryAnalysis,
		Rarity:      "epic",
		Criteria:    Conditional{Cond: CondQualityScore, Target: 85},
		XP:          300,
	},
	{
		Name:        "Hat in the Ring",
		Description: "Submitted your first application",
		Category:    CategoryApplication,
		Rarity:      "common",
		Criteria:    ActivityCount{Metric: MetricApplications, Target: 1},
		XP:          50,
	},
	{
		Name:        "Persistent Applicant",
		Description: "Submitted 10 applications",
		Category:    CategoryApplication,
		Rarity:      "rare",
		Criteria:    ActivityCount{Metric: MetricApplications, Target: 10},
		XP:          200,
	},
	{
		Name:        "Application Machine",
		Description: "Submitted 50 applications",
		Category:    CategoryApplication,
		Rarity:      "legendary",
		Criteria:    ActivityCount{Metric: MetricApplications, Target: 50},
		XP:          750,
	},
	{
		Name:        "Skill Collector",
		Description: "Listed 10 skills on your profile",
		Category:    CategorySkills,
		Rarity:      "rare",
		Criteria:    ActivityCount{Metric: MetricSkills, Target: 10},
		XP:          100,
	},
	{
		Name:        "Version Control",
		Description: "Uploaded 3 CV revisions",
		Category:    CategoryDocuments,
		Rarity:      "common",
		Criteria:    ActivityCount{Metric: MetricCVs, Target: 3},
		XP:          100,
	},
	{
		Name:        "Weekly Regular",
		Description: "Logged in 7 days in a row",
		Category:    CategoryStreak,
		Rarity:      "rare",
		Criteria:    LoginStreak{Target: 7},
		XP:          150,
	},
	{
		Name:        "Monthly Devotee",
		Description: "Logged in 30 days in a row",
		Category:    CategoryStreak,
		Rarity:      "epic",
		Criteria:    LoginStreak{Target: 30},
		XP:          600,
	},
	{
		Name:        "Challenge Accepted",
		Description: "Finished your first challenge",
		Category:    CategoryChallenge,
		Rarity:      "common",
		Criteria:    ActivityCount{Metric: MetricChallenges, Target: 1},
		XP:          75,
	},
	{
		Name:        "Challenge Conqueror",
		Description: "Finished 10 challenges",
		Category:    CategoryChallenge,
		Rarity:      "epic",
		Criteria:    ActivityCount{Metric: MetricChallenges, Target: 10},
		XP:          400,
	},
	{
		Name:        "Weekly Warrior",
		Description: "15 activities inside a single week",
		Category:    CategoryMomentum,
		Rarity:      "rare",
		Criteria:    Conditional{Cond: CondWeeklyActivity, Window: 7 * 24 * time.Hour, Target: 15},
		XP:          250,
	},
}
