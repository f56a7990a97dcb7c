package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"career-progress-system/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection keeps the shared in-memory DB alive and serializes
	// writers the way the production store's row locks would.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Experience{},
		&models.Education{},
		&models.Skill{},
		&models.CVDocument{},
		&models.CVAnalysis{},
		&models.Application{},
		&models.ChallengeCompletion{},
		&models.UserProgress{},
		&models.RewardProgress{},
		&models.XPLedgerEntry{},
		&models.ActivityLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestEngine(t *testing.T, db *gorm.DB) *ProgressEngine {
	t.Helper()
	reg, err := NewRewardRegistry(models.RewardCatalog)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return NewProgressEngine(db, NewGormActivityStats(db), reg)
}

func seedUser(t *testing.T, db *gorm.DB) string {
	t.Helper()
	user := models.User{ID: uuid.NewString(), Email: uuid.NewString() + "@example.com", Name: "Test User"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user.ID
}

func seedAnalyses(t *testing.T, db *gorm.DB, userID string, n, score int) {
	t.Helper()
	for i := 0; i < n; i++ {
		a := models.CVAnalysis{ID: uuid.NewString(), UserID: userID, Score: score}
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("seed analysis: %v", err)
		}
	}
}

func seedApplications(t *testing.T, db *gorm.DB, userID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		a := models.Application{ID: uuid.NewString(), UserID: userID, Company: "Acme", Role: "Dev", AppliedAt: time.Now()}
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("seed application: %v", err)
		}
	}
}

func ledgerCount(t *testing.T, db *gorm.DB, userID, rewardID string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.XPLedgerEntry{}).
		Where("user_id = ? AND reward_id = ?", userID, rewardID).
		Count(&n).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	return n
}

func totalXP(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	var prog models.UserProgress
	if err := db.Where("user_id = ?", userID).First(&prog).Error; err != nil {
		t.Fatalf("load aggregate: %v", err)
	}
	return prog.TotalXP
}

func deltaFor(result *EvaluationResult, rewardID string) (float64, bool) {
	for _, d := range result.Deltas {
		if d.RewardID == rewardID {
			return d.Progress, true
		}
	}
	return 0, false
}

func grantedIDs(result *EvaluationResult) map[string]bool {
	ids := make(map[string]bool)
	for _, def := range result.Granted {
		ids[def.ID] = true
	}
	return ids
}

func TestEvaluateUserNotFound(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)

	_, err := engine.Evaluate(context.Background(), uuid.NewString(), models.EventAnalysisCompleted, nil)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	var n int64
	db.Model(&models.RewardProgress{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected zero writes, found %d progress rows", n)
	}
}

func TestEvaluateUnknownEvent(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	userID := seedUser(t, db)

	_, err := engine.Evaluate(context.Background(), userID, models.EventType("bogus"), nil)
	if !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestThresholdFormulaExact(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	userID := seedUser(t, db)
	seedAnalyses(t, db, userID, 3, 70)

	result, err := engine.Evaluate(context.Background(), userID, models.EventAnalysisCompleted, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	// 3 analyses toward a target of 5 is exactly 0.6
	p, ok := deltaFor(result, "feedback-loop")
	if !ok {
		t.Fatalf("expected a delta for feedback-loop, got %+v", result.Deltas)
	}
	if p != 0.6 {
		t.Fatalf("feedback-loop progress = %v, want 0.6", p)
	}

	// target 1 is crossed, so first-impressions grants rather than deltas
	if !grantedIDs(result)["first-impressions"] {
		t.Fatalf("expected first-impressions grant, got %+v", result.Granted)
	}
}

func TestThresholdFormulaClampsAtOne(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	userID := seedUser(t, db)
	seedAnalyses(t, db, userID, 10, 70) // 10/5 clamps to 1.0

	result, err := engine.Evaluate(context.Background(), userID, models.EventAnalysisCompleted, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !grantedIDs(result)["feedback-loop"] {
		t.Fatalf("expected feedback-loop grant, got %+v", result.Granted)
	}

	var row models.RewardProgress
	if err := db.Where("user_id = ? AND reward_id = ?", userID, "feedback-loop").First(&row).Error; err != nil {
		t.Fatalf("load progress row: %v", err)
	}
	if row.Progress != 1.0 || row.GrantedAt == nil {
		t.Fatalf("progress row = %+v, want progress 1.0 with grant timestamp", row)
	}
}

func TestGrantIdempotency(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	userID := seedUser(t, db)
	seedApplications(t, db, userID, 1)

	first, err := engine.Evaluate(context.Background(), userID, models.EventApplicationSubmitted, nil)
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	if !grantedIDs(first)["hat-in-the-ring"] {
		t.Fatalf("expected hat-in-the-ring grant, got %+v", first.Granted)
	}

	second, err := engine.Evaluate(context.Background(), userID, models.EventApplicationSubmitted, nil)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if len(second.Granted) != 0 {
		t.Fatalf("second evaluate granted %+v, want none", second.Granted)
	}
	if len(second.Deltas) != 0 {
		t.Fatalf("second evaluate produced deltas %+v, want none (no forward movement)", second.Deltas)
	}

	if n := ledgerCount(t, db, userID, "hat-in-the-ring"); n != 1 {
		t.Fatalf("ledger entries = %d, want exactly 1", n)
	}
	if xp := totalXP(t, db, userID); xp != 50 {
		t.Fatalf("total XP = %d, want 50", xp)
	}
}

func TestSkipOnAlreadyGranted(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	userID := seedUser(t, db)
	seedApplications(t, db, userID, 1)

	if _, err := engine.Evaluate(context.Background(), userID, models.EventApplicationSubmitted, nil); err != nil {
		t.Fatalf("first evaluate: %v", err)
	}

	var before models.RewardProgress
	if err := db.Where("user_id = ? AND reward_id = ?", userID, "hat-in-the-ring").First(&before).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}

	result, err := engine.Evaluate(context.Background(), userID, models.EventApplicationSubmitted, nil)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if _, ok := deltaFor(result, "hat-in-the-ring"); ok {
		t.Fatalf("granted definition should contribute nothing")
	}

	var after models.RewardProgress
	if err := db.Where("user_id = ? AND reward_id = ?", userID, "hat-in-the-ring").First(&after).Error; err != nil {
		t.Fatalf("reload row: %v", err)
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("row was rewritten: %v → %v", before.UpdatedAt, after.UpdatedAt)
	}
}

func TestProgressMonotonicity(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	userID := seedUser(t, db)
	seedAnalyses(t, db, userID, 3, 70)

	if _, err := engine.Evaluate(context.Background(), userID, models.EventAnalysisCompleted, nil); err != nil {
		t.Fatalf("first evaluate: %v", err)
	}

	// Remove one analysis: the fresh count drops to 2 (0.4) but the stored
	// progress must never move backwards.
	var victim models.CVAnalysis
	if err := db.Where("user_id = ?", userID).First(&victim).Error; err != nil {
		t.Fatalf("pick analysis: %v", err)
	}
	if err := db.Delete(&victim).Error; err != nil {
		t.Fatalf("delete analysis: %v", err)
	}

	result, err := engine.Evaluate(context.Background(), userID, models.EventAnalysisCompleted, nil)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if _, ok := deltaFor(result, "feedback-loop"); ok {
		t.Fatalf("backward movement must not produce a delta")
	}

	var row models.RewardProgress
	if err := db.Where("user_id = ? AND reward_id = ?", userID, "feedback-loop").First(&row).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}
	if row.Progress != 0.6 {
		t.Fatalf("progress = %v, want 0.6 (monotonic)", row.Progress)
	}
}

func TestUpsertProgressGuardRejectsLowerValues(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	userID := seedUser(t, db)
	ctx := context.Background()

	applied, err := engine.upsertProgress(ctx, userID, "feedback-loop", 0.6)
	if err != nil {
		t.Fatalf("initial upsert: %v", err)
	}
	if !applied {
		t.Fatalf("first write should land")
	}

	applied, err = engine.upsertProgress(ctx, userID, "feedback-loop", 0.4)
	if err != nil {
		t.Fatalf("lower upsert: %v", err)
	}
	if applied {
		t.Fatalf("lower value must be a no-op under the conflict guard")
	}

	applied, err = engine.upsertProgress(ctx, userID, "feedback-loop", 0.8)
	if err != nil {
		t.Fatalf("higher upsert: %v", err)
	}
	if !applied {
		t.Fatalf("higher value should land")
	}

	var row models.RewardProgress
	if err := db.Where("user_id = ? AND reward_id = ?", userID, "feedback-loop").First(&row).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}
	if row.Progress != 0.8 {
		t.Fatalf("progress = %v, want 0.8", row.Progress)
	}
}

func TestGrantAtomicityUnderFault(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	userID := seedUser(t, db)
	seedApplications(t, db, userID, 1)

	// Fail the ledger insert inside the grant transaction; everything must
	// roll back together.
	injected := errors.New("injected ledger failure")
	ledgerType := reflect.TypeOf(models.XPLedgerEntry{})
	err := db.Callback().Create().Before("gorm:create").Register("fail_ledger", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.ModelType == ledgerType {
			tx.AddError(injected)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	result, err := engine.Evaluate(context.Background(), userID, models.EventApplicationSubmitted, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(result.Granted) != 0 {
		t.Fatalf("grant reported despite ledger failure: %+v", result.Granted)
	}
	foundFailure := false
	for _, f := range result.Failed {
		if f.RewardID == "hat-in-the-ring" {
			foundFailure = true
		}
	}
	if !foundFailure {
		t.Fatalf("expected hat-in-the-ring in failures, got %+v", result.Failed)
	}

	// No partial state: no progress row at 1.0 without its ledger entry.
	var n int64
	db.Model(&models.RewardProgress{}).
		Where("user_id = ? AND reward_id = ? AND progress >= ?", userID, "hat-in-the-ring", 1.0).
		Count(&n)
	if n != 0 {
		t.Fatalf("progress row reached 1.0 without a ledger entry")
	}
	if c := ledgerCount(t, db, userID, "hat-in-the-ring"); c != 0 {
		t.Fatalf("ledger entries = %d, want 0", c)
	}
	if xp := totalXP(t, db, userID); xp != 0 {
		t.Fatalf("XP credited despite rollback: %d", xp)
	}

	// Retry after the fault clears: the grant lands exactly once.
	if err := db.Callback().Create().Remove("fail_ledger"); err != nil {
		t.Fatalf("remove callback: %v", err)
	}
	retry, err := engine.Evaluate(context.Background(), userID, models.EventApplicationSubmitted, nil)
	if err != nil {
		t.Fatalf("retry evaluate: %v", err)
	}
	if !grantedIDs(retry)["hat-in-the-ring"] {
		t.Fatalf("retry should grant, got %+v", retry.Granted)
	}
	if c := ledgerCount(t, db, userID, "hat-in-the-ring"); c != 1 {
		t.Fatalf("ledger entries after retry = %d, want 1", c)
	}
}

func TestDuplicateEventRace(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	userID := seedUser(t, db)
	seedApplications(t, db, userID, 1)

	var wg sync.WaitGroup
	grants := make([]int, 2)
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := engine.Evaluate(context.Background(), userID, models.EventApplicationSubmitted, nil)
			if err != nil {
				t.Errorf("concurrent evaluate: %v", err)
				return
			}
			if grantedIDs(result)["hat-in-the-ring"] {
				grants[i] = 1
			}
		}()
	}
	wg.Wait()

	if grants[0]+grants[1] != 1 {
		t.Fatalf("expected exactly one reported grant, got %d", grants[0]+grants[1])
	}
	if n := ledgerCount(t, db, userID, "hat-in-the-ring"); n != 1 {
		t.Fatalf("ledger entries = %d, want exactly 1", n)
	}
	if xp := totalXP(t, db, userID); xp != 50 {
		t.Fatalf("total XP = %d, want 50 (single credit)", xp)
	}
}

func TestRecalculateAllIdempotent(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	userID := seedUser(t, db)

	seedAnalyses(t, db, userID, 5, 90)
	seedApplications(t, db, userID, 1)
	for i := 0; i < 10; i++ {
		if err := db.Create(&models.Skill{ID: uuid.NewString(), UserID: userID, Name: fmt.Sprintf("skill-%d", i)}).Error; err != nil {
			t.Fatalf("seed skill: %v", err)
		}
	}

	first, err := engine.RecalculateAll(context.Background(), userID)
	if err != nil {
		t.Fatalf("first recalculate: %v", err)
	}
	if len(first.Granted) == 0 {
		t.Fatalf("expected grants on first recalculation")
	}
	xpAfterFirst := totalXP(t, db, userID)

	second, err := engine.RecalculateAll(context.Background(), userID)
	if err != nil {
		t.Fatalf("second recalculate: %v", err)
	}
	if len(second.Granted) != 0 {
		t.Fatalf("second recalculation granted %+v, want none", second.Granted)
	}
	if xp := totalXP(t, db, userID); xp != xpAfterFirst {
		t.Fatalf("XP changed on idempotent rerun: %d → %d", xpAfterFirst, xp)
	}

	var ledgerTotal int64
	db.Model(&models.XPLedgerEntry{}).Where("user_id = ?", userID).Count(&ledgerTotal)
	if int(ledgerTotal) != len(first.Granted) {
		t.Fatalf("ledger rows = %d, want %d (one per grant)", ledgerTotal, len(first.Granted))
	}
}

func TestReadMethodsAfterGrant(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	userID := seedUser(t, db)
	seedAnalyses(t, db, userID, 3, 70)
	ctx := context.Background()

	if _, err := engine.Evaluate(ctx, userID, models.EventAnalysisCompleted, nil); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	rows, err := engine.RewardProgressRows(ctx, userID)
	if err != nil {
		t.Fatalf("progress rows: %v", err)
	}
	if len(rows) == 0 {
		t.Fatalf("expected progress rows after evaluation")
	}

	granted, err := engine.GrantedRewards(ctx, userID)
	if err != nil {
		t.Fatalf("granted rewards: %v", err)
	}
	if len(granted) != 1 || granted[0].RewardID != "first-impressions" {
		t.Fatalf("granted = %+v, want just first-impressions", granted)
	}

	entries, total, err := engine.LedgerPage(ctx, userID, 1, 20)
	if err != nil {
		t.Fatalf("ledger page: %v", err)
	}
	if total != 1 || len(entries) != 1 || entries[0].RewardID != "first-impressions" {
		t.Fatalf("ledger = %+v (total %d), want one first-impressions entry", entries, total)
	}
}

func TestRecalculateAllUserNotFound(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)

	_, err := engine.RecalculateAll(context.Background(), uuid.NewString())
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// fakeStats lets tests fail individual reads without touching the store.
type fakeStats struct {
	exists        bool
	counts        map[models.Metric]int64
	countErr      map[models.Metric]error
	streak        int64
	facts         ProfileFacts
	activitySince int64
	avgScore      float64
}

func (f *fakeStats) UserExists(ctx context.Context, userID string) (bool, error) {
	return f.exists, nil
}

func (f *fakeStats) MetricCount(ctx context.Context, userID string, metric models.Metric) (int64, error) {
	if err := f.countErr[metric]; err != nil {
		return 0, err
	}
	return f.counts[metric], nil
}

func (f *fakeStats) StreakLength(ctx context.Context, userID string) (int64, error) {
	return f.streak, nil
}

func (f *fakeStats) ProfileFacts(ctx context.Context, userID string) (*ProfileFacts, error) {
	facts := f.facts
	return &facts, nil
}

func (f *fakeStats) ActivitySince(ctx context.Context, userID string, since time.Time) (int64, error) {
	return f.activitySince, nil
}

func (f *fakeStats) AverageAnalysisScore(ctx context.Context, userID string) (float64, error) {
	return f.avgScore, nil
}

func TestPerDefinitionFailureIsolation(t *testing.T) {
	db := newTestDB(t)
	reg, err := NewRewardRegistry(models.RewardCatalog)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	stats := &fakeStats{
		exists:   true,
		counts:   map[models.Metric]int64{},
		countErr: map[models.Metric]error{models.MetricAnalyses: errors.New("replica down")},
		avgScore: 90, // clears the quality target of 85
	}
	engine := NewProgressEngine(db, stats, reg)

	result, err := engine.Evaluate(context.Background(), uuid.NewString(), models.EventAnalysisCompleted, nil)
	if err != nil {
		t.Fatalf("evaluate must not abort on per-definition failures: %v", err)
	}

	// The three analysis-count definitions fail; the conditional ones still run.
	if len(result.Failed) != 3 {
		t.Fatalf("failed = %d definitions, want 3: %+v", len(result.Failed), result.Failed)
	}
	if !grantedIDs(result)["quality-craftsman"] {
		t.Fatalf("quality-craftsman should still be evaluated and granted, got %+v", result.Granted)
	}
}
