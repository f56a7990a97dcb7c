package services

// Profile completeness weights. The total across all facet maxima must sum
// to exactly 100 — the registry re-checks this at load and the test suite
// asserts it.
const (
	WeightName     = 5
	WeightTitle    = 5
	WeightAbout    = 10
	WeightPhone    = 3
	WeightAddress  = 11
	WeightLinkedIn = 5
	WeightGitHub   = 8
	WeightWebsite  = 3

	// Experience tiers (max 20)
	WeightExperienceOne  = 8  // >= 1 entry
	WeightExperienceTwo  = 15 // >= 2 entries
	WeightExperienceFour = 20 // >= 4 entries

	WeightDetailedExperience = 5

	// Skill tiers (max 15)
	WeightSkillsOne  = 4  // >= 1
	WeightSkillsFive = 10 // >= 5
	WeightSkillsTen  = 15 // >= 10

	WeightEducation = 10

	AboutMinChars              = 50
	DetailedExperienceMinChars = 80
)

// CompletenessWeightTotal is the attainable maximum; it must equal 100.
const CompletenessWeightTotal = WeightName + WeightTitle + WeightAbout +
	WeightPhone + WeightAddress + WeightLinkedIn + WeightGitHub + WeightWebsite +
	WeightExperienceFour + WeightDetailedExperience + WeightSkillsTen + WeightEducation

// CompletenessScore computes the 0-100 profile score from the facts.
func CompletenessScore(facts *ProfileFacts) int {
	score := 0
	if facts.Name != "" {
		score += WeightName
	}
	if facts.Title != "" {
		score += WeightTitle
	}
	if len(facts.About) >= AboutMinChars {
		score += WeightAbout
	}
	if facts.Phone != "" {
		score += WeightPhone
	}
	if facts.Address != "" {
		score += WeightAddress
	}
	if facts.LinkedIn != "" {
		score += WeightLinkedIn
	}
	if facts.GitHub != "" {
		score += WeightGitHub
	}
	if facts.Website != "" {
		score += WeightWebsite
	}
	score += experienceTier(facts.ExperienceCount)
	if facts.HasDetailedExperience {
		score += WeightDetailedExperience
	}
	score += skillTier(facts.SkillCount)
	if facts.EducationCount > 0 {
		score += WeightEducation
	}
	return score
}

func experienceTier(count int64) int {
	switch {
	case count >= 4:
		return WeightExperienceFour
	case count >= 2:
		return WeightExperienceTwo
	case count >= 1:
		return WeightExperienceOne
	default:
		return 0
	}
}

func skillTier(count int64) int {
	switch {
	case count >= 10:
		return WeightSkillsTen
	case count >= 5:
		return WeightSkillsFive
	case count >= 1:
		return WeightSkillsOne
	default:
		return 0
	}
}
