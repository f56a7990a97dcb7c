package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"career-progress-system/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUserNotFound aborts an evaluation before any write happens.
var ErrUserNotFound = errors.New("user not found")

// ErrUnknownEvent is returned for event types outside the enumeration.
var ErrUnknownEvent = errors.New("unknown event type")

// computeConcurrency bounds the per-definition fan-out inside one call.
const computeConcurrency = 4

type ProgressDelta struct {
	RewardID string  `json:"reward_id"`
	Progress float64 `json:"progress"`
}

// EvaluationFailure records a definition whose computation or write failed.
// Failures never abort sibling definitions.
type EvaluationFailure struct {
	RewardID string `json:"reward_id"`
	Err      error  `json:"-"`
}

type EvaluationResult struct {
	Granted []models.RewardDefinition `json:"granted"`
	Deltas  []ProgressDelta           `json:"deltas"`
	Failed  []EvaluationFailure       `json:"failed,omitempty"`
}

// ProgressEngine computes reward progress from fresh activity stats and is
// the sole writer of RewardProgress and XPLedgerEntry rows. It only ever
// increments the aggregate XP total.
type ProgressEngine struct {
	DB       *gorm.DB
	Stats    ActivityStats
	Registry *RewardRegistry
}

func NewProgressEngine(db *gorm.DB, stats ActivityStats, registry *RewardRegistry) *ProgressEngine {
	return &ProgressEngine{DB: db, Stats: stats, Registry: registry}
}

// EnsureProgressRecord ensures a UserProgress row exists (idempotent).
func (e *ProgressEngine) EnsureProgressRecord(ctx context.Context, userID string) (*models.UserProgress, error) {
	var prog models.UserProgress
	err := e.DB.WithContext(ctx).Where("user_id = ?", userID).First(&prog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prog = models.UserProgress{
			ID:     uuid.NewString(),
			UserID: userID,
		}
		if err := e.DB.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
			Create(&prog).Error; err != nil {
			return nil, err
		}
		// Re-read in case a concurrent caller created it first.
		if err := e.DB.WithContext(ctx).Where("user_id = ?", userID).First(&prog).Error; err != nil {
			return nil, err
		}
		return &prog, nil
	}
	if err != nil {
		return nil, err
	}
	return &prog, nil
}

// RewardProgressRows returns the user's progress rows, most recently moved
// first.
func (e *ProgressEngine) RewardProgressRows(ctx context.Context, userID string) ([]models.RewardProgress, error) {
	var rows []models.RewardProgress
	err := e.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&rows).Error
	return rows, err
}

// GrantedRewards returns only the completed pairs, newest grant first.
func (e *ProgressEngine) GrantedRewards(ctx context.Context, userID string) ([]models.RewardProgress, error) {
	var rows []models.RewardProgress
	err := e.DB.WithContext(ctx).
		Where("user_id = ? AND granted_at IS NOT NULL", userID).
		Order("granted_at DESC").
		Find(&rows).Error
	return rows, err
}

// LedgerPage returns one page of the user's XP ledger plus the total row
// count for pagination.
func (e *ProgressEngine) LedgerPage(ctx context.Context, userID string, page, size int) ([]models.XPLedgerEntry, int64, error) {
	var total int64
	if err := e.DB.WithContext(ctx).Model(&models.XPLedgerEntry{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var entries []models.XPLedgerEntry
	err := e.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&entries).Error
	return entries, total, err
}

// Evaluate resolves the definitions affected by one activity event, computes
// fresh progress for each, persists forward movement, and grants XP the
// first time a definition reaches 1.0. The payload is event-specific and is
// not inspected here; it travels with the event for audit.
func (e *ProgressEngine) Evaluate(ctx context.Context, userID string, eventType models.EventType, payload map[string]interface{}) (*EvaluationResult, error) {
	if !models.KnownEvent(eventType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, eventType)
	}
	if err := e.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return e.run(ctx, userID, e.Registry.ForEvent(eventType))
}

// RecalculateAll re-evaluates every definition in the registry for one user.
// Used for backfills and drift repair; idempotent because grants are guarded
// and all formulas read fresh.
func (e *ProgressEngine) RecalculateAll(ctx context.Context, userID string) (*EvaluationResult, error) {
	if err := e.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return e.run(ctx, userID, e.Registry.All())
}

func (e *ProgressEngine) requireUser(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUserNotFound
	}
	exists, err := e.Stats.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return nil
}

// candidate is one definition whose fresh progress moved forward.
type candidate struct {
	idx      int
	def      models.RewardDefinition
	existing float64
	next     float64
}

func (e *ProgressEngine) run(ctx context.Context, userID string, defs []models.RewardDefinition) (*EvaluationResult, error) {
	if _, err := e.EnsureProgressRecord(ctx, userID); err != nil {
		return nil, err
	}

	result := &EvaluationResult{}
	var mu sync.Mutex
	var cands []candidate

	// Compute phase: read-only per definition, bounded fan-out. A failure
	// here only skips that definition.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(computeConcurrency)
	for i, def := range defs {
		i, def := i, def
		g.Go(func() error {
			existing := 0.0
			var row models.RewardProgress
			err := e.DB.WithContext(gctx).
				Where("user_id = ? AND reward_id = ?", userID, def.ID).
				First(&row).Error
			switch {
			case err == nil:
				if row.Granted() {
					return nil // already granted, event has no further effect
				}
				existing = row.Progress
			case errors.Is(err, gorm.ErrRecordNotFound):
				// first progress for this pair
			default:
				mu.Lock()
				result.Failed = append(result.Failed, EvaluationFailure{RewardID: def.ID, Err: err})
				mu.Unlock()
				log.Printf("[ProgressEngine] read failed for %s/%s: %v", userID, def.ID, err)
				return nil
			}

			next, err := e.computeProgress(gctx, userID, def)
			if err != nil {
				mu.Lock()
				result.Failed = append(result.Failed, EvaluationFailure{RewardID: def.ID, Err: err})
				mu.Unlock()
				log.Printf("[ProgressEngine] compute failed for %s/%s: %v", userID, def.ID, err)
				return nil
			}
			if next <= existing {
				return nil // no forward movement, no writes
			}
			mu.Lock()
			cands = append(cands, candidate{idx: i, def: def, existing: existing, next: next})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // goroutines report via result.Failed, never abort the group

	// Apply phase: sequential writes in catalog order.
	sort.Slice(cands, func(a, b int) bool { return cands[a].idx < cands[b].idx })
	for _, c := range cands {
		if c.next >= 1.0 {
			granted, err := e.grant(ctx, userID, c.def)
			if err != nil {
				result.Failed = append(result.Failed, EvaluationFailure{RewardID: c.def.ID, Err: fmt.Errorf("grant transaction: %w", err)})
				log.Printf("[ProgressEngine] grant failed for %s/%s: %v", userID, c.def.ID, err)
				continue
			}
			if granted {
				result.Granted = append(result.Granted, c.def)
			}
			continue
		}
		applied, err := e.upsertProgress(ctx, userID, c.def.ID, c.next)
		if err != nil {
			result.Failed = append(result.Failed, EvaluationFailure{RewardID: c.def.ID, Err: err})
			log.Printf("[ProgressEngine] upsert failed for %s/%s: %v", userID, c.def.ID, err)
			continue
		}
		if applied {
			result.Deltas = append(result.Deltas, ProgressDelta{RewardID: c.def.ID, Progress: c.next})
		}
	}
	return result, nil
}

// computeProgress evaluates one criteria kind against fresh stats and clamps
// the result to [0,1].
func (e *ProgressEngine) computeProgress(ctx context.Context, userID string, def models.RewardDefinition) (float64, error) {
	var p float64
	switch c := def.Criteria.(type) {
	case models.ProfileCompleteness:
		facts, err := e.Stats.ProfileFacts(ctx, userID)
		if err != nil {
			return 0, err
		}
		p = float64(CompletenessScore(facts)) / 100.0
	case models.ActivityCount:
		if c.Target <= 0 {
			return 0, fmt.Errorf("reward %s: non-positive target", def.ID)
		}
		n, err := e.Stats.MetricCount(ctx, userID, c.Metric)
		if err != nil {
			return 0, err
		}
		p = float64(n) / float64(c.Target)
	case models.LoginStreak:
		if c.Target <= 0 {
			return 0, fmt.Errorf("reward %s: non-positive target", def.ID)
		}
		n, err := e.Stats.StreakLength(ctx, userID)
		if err != nil {
			return 0, err
		}
		p = float64(n) / float64(c.Target)
	case models.Conditional:
		if c.Target <= 0 {
			return 0, fmt.Errorf("reward %s: non-positive target", def.ID)
		}
		switch c.Cond {
		case models.CondWeeklyActivity:
			n, err := e.Stats.ActivitySince(ctx, userID, time.Now().Add(-c.Window))
			if err != nil {
				return 0, err
			}
			p = float64(n) / c.Target
		case models.CondQualityScore:
			avg, err := e.Stats.AverageAnalysisScore(ctx, userID)
			if err != nil {
				return 0, err
			}
			p = avg / c.Target
		default:
			return 0, fmt.Errorf("reward %s: unknown condition %q", def.ID, c.Cond)
		}
	default:
		return 0, fmt.Errorf("reward %s: unknown criteria kind %T", def.ID, def.Criteria)
	}

	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p, nil
}

// upsertProgress writes a sub-1.0 progress value with a monotonic guard:
// the DO UPDATE only fires while the stored value is lower. Returns whether
// the write landed (a concurrent higher write makes this a no-op).
func (e *ProgressEngine) upsertProgress(ctx context.Context, userID, rewardID string, progress float64) (bool, error) {
	row := models.RewardProgress{
		ID:       uuid.NewString(),
		UserID:   userID,
		RewardID: rewardID,
		Progress: progress,
	}
	res := e.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "reward_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"progress":   progress,
			"updated_at": time.Now(),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Lt{Column: clause.Column{Name: "progress"}, Value: progress},
		}},
	}).Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// grant performs the atomic three-part grant: progress to 1.0 with a
// timestamp, one ledger entry, one XP increment. The conditional write on
// the progress row is the concurrency control — of two racing grants for
// the same (user, reward) pair exactly one sees an affected row and credits
// XP; the other commits nothing.
func (e *ProgressEngine) grant(ctx context.Context, userID string, def models.RewardDefinition) (bool, error) {
	granted := false
	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		res := tx.Model(&models.RewardProgress{}).
			Where("user_id = ? AND reward_id = ? AND progress < ?", userID, def.ID, 1.0).
			Updates(map[string]interface{}{"progress": 1.0, "granted_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// No row yet, or it is already granted. Try the insert; DO
			// NOTHING on the composite key settles the race.
			row := models.RewardProgress{
				ID:        uuid.NewString(),
				UserID:    userID,
				RewardID:  def.ID,
				Progress:  1.0,
				GrantedAt: &now,
			}
			ins := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "reward_id"}},
				DoNothing: true,
			}).Create(&row)
			if ins.Error != nil {
				return ins.Error
			}
			if ins.RowsAffected == 0 {
				return nil // lost the race: already granted elsewhere
			}
		}

		meta, _ := json.Marshal(map[string]string{
			"reward_name": def.Name,
			"rarity":      def.Rarity,
		})
		entry := models.XPLedgerEntry{
			ID:          uuid.NewString(),
			UserID:      userID,
			Amount:      def.XP,
			Category:    def.Category,
			RewardID:    def.ID,
			Description: fmt.Sprintf("Reward granted: %s", def.Name),
			Metadata:    datatypes.JSON(meta),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		inc := tx.Model(&models.UserProgress{}).
			Where("user_id = ?", userID).
			UpdateColumn("total_xp", gorm.Expr("total_xp + ?", def.XP))
		if inc.Error != nil {
			return inc.Error
		}
		if inc.RowsAffected == 0 {
			return fmt.Errorf("no aggregate row for user %s", userID)
		}

		granted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if granted {
		log.Printf("🎖️ Reward granted: %s → %s (+%d XP)", def.Name, userID, def.XP)
	}
	return granted, nil
}
