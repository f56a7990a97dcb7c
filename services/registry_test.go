package services

import (
	"testing"

	"career-progress-system/models"
)

func TestRegistryLoadsCatalog(t *testing.T) {
	reg, err := NewRewardRegistry(models.RewardCatalog)
	if err != nil {
		t.Fatalf("catalog failed to load: %v", err)
	}
	if len(reg.All()) != len(models.RewardCatalog) {
		t.Fatalf("registry has %d defs, want %d", len(reg.All()), len(models.RewardCatalog))
	}
	for _, def := range reg.All() {
		if def.ID == "" {
			t.Fatalf("definition %q has empty id", def.Name)
		}
	}
}

func TestRegistrySlugIDs(t *testing.T) {
	reg, err := NewRewardRegistry(models.RewardCatalog)
	if err != nil {
		t.Fatalf("catalog failed to load: %v", err)
	}
	def, ok := reg.ByID("profile-pioneer")
	if !ok {
		t.Fatalf("expected profile-pioneer in registry")
	}
	if def.Name != "Profile Pioneer" {
		t.Fatalf("unexpected name %q", def.Name)
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	catalog := []models.RewardDefinition{
		{Name: "Twin", Category: models.CategoryAnalysis, Criteria: models.ProfileCompleteness{}, XP: 10},
		{Name: "Twin", Category: models.CategoryProfile, Criteria: models.ProfileCompleteness{}, XP: 10},
	}
	if _, err := NewRewardRegistry(catalog); err == nil {
		t.Fatalf("expected duplicate-id error")
	}
}

func TestRegistryRejectsMissingCriteria(t *testing.T) {
	catalog := []models.RewardDefinition{
		{Name: "Broken", Category: models.CategoryAnalysis, XP: 10},
	}
	if _, err := NewRewardRegistry(catalog); err == nil {
		t.Fatalf("expected missing-criteria error")
	}
}

func TestRegistryRejectsNonPositiveXP(t *testing.T) {
	catalog := []models.RewardDefinition{
		{Name: "Free", Category: models.CategoryAnalysis, Criteria: models.ProfileCompleteness{}, XP: 0},
	}
	if _, err := NewRewardRegistry(catalog); err == nil {
		t.Fatalf("expected non-positive XP error")
	}
}

func TestForEventResolvesCategories(t *testing.T) {
	reg, err := NewRewardRegistry(models.RewardCatalog)
	if err != nil {
		t.Fatalf("catalog failed to load: %v", err)
	}

	defs := reg.ForEvent(models.EventAnalysisCompleted)
	ids := make(map[string]bool)
	for _, def := range defs {
		if ids[def.ID] {
			t.Fatalf("definition %s returned twice", def.ID)
		}
		ids[def.ID] = true
	}
	// analysis category (4 defs) + momentum (1 def)
	if len(defs) != 5 {
		t.Fatalf("analysis_completed resolved %d defs, want 5", len(defs))
	}
	if !ids["feedback-loop"] || !ids["weekly-warrior"] {
		t.Fatalf("expected feedback-loop and weekly-warrior among %v", ids)
	}

	// skill_added maps to both skills and profile
	defs = reg.ForEvent(models.EventSkillAdded)
	found := map[string]bool{}
	for _, def := range defs {
		found[def.ID] = true
	}
	if !found["skill-collector"] || !found["profile-pioneer"] {
		t.Fatalf("skill_added should touch skills and profile categories, got %v", found)
	}

	if defs := reg.ForEvent(models.EventType("bogus")); len(defs) != 0 {
		t.Fatalf("unknown event resolved %d defs, want 0", len(defs))
	}
}
