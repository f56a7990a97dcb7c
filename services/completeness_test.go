package services

import (
	"strings"
	"testing"
)

func TestCompletenessWeightsSumToOneHundred(t *testing.T) {
	if CompletenessWeightTotal != 100 {
		t.Fatalf("weight total = %d, want 100", CompletenessWeightTotal)
	}
}

func TestCompletenessScoreEmptyProfile(t *testing.T) {
	if got := CompletenessScore(&ProfileFacts{}); got != 0 {
		t.Fatalf("empty profile score = %d, want 0", got)
	}
}

func TestCompletenessScoreFullProfile(t *testing.T) {
	facts := &ProfileFacts{
		Name:                  "Ada",
		Title:                 "Engineer",
		About:                 strings.Repeat("x", AboutMinChars),
		Phone:                 "555",
		Address:               "Somewhere",
		LinkedIn:              "in/ada",
		GitHub:                "ada",
		Website:               "ada.dev",
		ExperienceCount:       4,
		HasDetailedExperience: true,
		SkillCount:            10,
		EducationCount:        1,
	}
	if got := CompletenessScore(facts); got != 100 {
		t.Fatalf("full profile score = %d, want 100", got)
	}
}

// The worked example: name, title, about(60 chars), phone, linkedin set,
// 2 experience entries (one detailed), 6 skills, 1 education entry.
// 5+5+10+3+5+15+5+10+10 = 68.
func TestCompletenessScoreWorkedExample(t *testing.T) {
	facts := &ProfileFacts{
		Name:                  "Ada",
		Title:                 "Engineer",
		About:                 strings.Repeat("a", 60),
		Phone:                 "555-0100",
		LinkedIn:              "in/ada",
		ExperienceCount:       2,
		HasDetailedExperience: true,
		SkillCount:            6,
		EducationCount:        1,
	}
	if got := CompletenessScore(facts); got != 68 {
		t.Fatalf("worked example score = %d, want 68", got)
	}
}

func TestExperienceAndSkillTiers(t *testing.T) {
	cases := []struct {
		exp, skills int64
		wantExp     int
		wantSkills  int
	}{
		{0, 0, 0, 0},
		{1, 1, WeightExperienceOne, WeightSkillsOne},
		{2, 4, WeightExperienceTwo, WeightSkillsOne},
		{3, 5, WeightExperienceTwo, WeightSkillsFive},
		{4, 9, WeightExperienceFour, WeightSkillsFive},
		{7, 10, WeightExperienceFour, WeightSkillsTen},
	}
	for _, tc := range cases {
		if got := experienceTier(tc.exp); got != tc.wantExp {
			t.Fatalf("experienceTier(%d) = %d, want %d", tc.exp, got, tc.wantExp)
		}
		if got := skillTier(tc.skills); got != tc.wantSkills {
			t.Fatalf("skillTier(%d) = %d, want %d", tc.skills, got, tc.wantSkills)
		}
	}
}

func TestAboutLengthBoundary(t *testing.T) {
	short := &ProfileFacts{About: strings.Repeat("a", AboutMinChars-1)}
	long := &ProfileFacts{About: strings.Repeat("a", AboutMinChars)}
	if CompletenessScore(short) != 0 {
		t.Fatalf("about below threshold should score 0")
	}
	if CompletenessScore(long) != WeightAbout {
		t.Fatalf("about at threshold should score %d", WeightAbout)
	}
}
