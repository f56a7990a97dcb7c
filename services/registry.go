package services

import (
	"fmt"

	"career-progress-system/models"

	"github.com/gosimple/slug"
)

// RewardRegistry is the static, enumerable definition catalog, loaded once
// per process. Definition IDs are slugs of their display names.
type RewardRegistry struct {
	defs       []models.RewardDefinition
	byID       map[string]models.RewardDefinition
	byCategory map[models.Category][]models.RewardDefinition
}

// NewRewardRegistry validates and indexes the catalog. It fails loudly on a
// malformed catalog since that is a deploy-time defect, not a runtime one.
func NewRewardRegistry(catalog []models.RewardDefinition) (*RewardRegistry, error) {
	if CompletenessWeightTotal != 100 {
		return nil, fmt.Errorf("completeness weights sum to %d, want 100", CompletenessWeightTotal)
	}

	r := &RewardRegistry{
		byID:       make(map[string]models.RewardDefinition),
		byCategory: make(map[models.Category][]models.RewardDefinition),
	}
	for _, def := range catalog {
		if def.Name == "" {
			return nil, fmt.Errorf("reward definition with empty name")
		}
		if def.Criteria == nil {
			return nil, fmt.Errorf("reward %q has no criteria", def.Name)
		}
		if def.XP <= 0 {
			return nil, fmt.Errorf("reward %q has non-positive XP %d", def.Name, def.XP)
		}
		def.ID = slug.Make(def.Name)
		if _, dup := r.byID[def.ID]; dup {
			return nil, fmt.Errorf("duplicate reward id %q", def.ID)
		}
		r.byID[def.ID] = def
		r.byCategory[def.Category] = append(r.byCategory[def.Category], def)
		r.defs = append(r.defs, def)
	}
	return r, nil
}

// All returns every definition in catalog order.
func (r *RewardRegistry) All() []models.RewardDefinition {
	return r.defs
}

// ByID looks a definition up by its slug id.
func (r *RewardRegistry) ByID(id string) (models.RewardDefinition, bool) {
	def, ok := r.byID[id]
	return def, ok
}

// ForEvent resolves the definitions affected by an event via the static
// event-to-category table. Results are grouped by the event's categories,
// catalog order within each; a definition appears at most once even if the
// event maps to its category twice.
func (r *RewardRegistry) ForEvent(eventType models.EventType) []models.RewardDefinition {
	seen := make(map[string]bool)
	var defs []models.RewardDefinition
	for _, cat := range models.EventCategories[eventType] {
		for _, def := range r.byCategory[cat] {
			if !seen[def.ID] {
				seen[def.ID] = true
				defs = append(defs, def)
			}
		}
	}
	return defs
}
