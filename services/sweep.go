// services/sweep.go
package services

import (
	"context"
	"log"
	"time"

	"career-progress-system/models"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"
)

// sweepConcurrency bounds how many users are recalculated at once.
const sweepConcurrency = 8

// StartSweepScheduler runs a daily drift-repair pass: RecalculateAll for
// every user. Grants stay exactly-once because the engine's guards make the
// sweep idempotent.
func (e *ProgressEngine) StartSweepScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			if err := e.SweepAllUsers(context.Background()); err != nil {
				log.Printf("[Sweep] failed: %v", err)
			}
		}),
	)
}

// SweepAllUsers recalculates every user's reward progress with bounded
// fan-out. One user's failure does not stop the others.
func (e *ProgressEngine) SweepAllUsers(ctx context.Context) error {
	var userIDs []string
	if err := e.DB.WithContext(ctx).Model(&models.User{}).Pluck("id", &userIDs).Error; err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, id := range userIDs {
		id := id
		g.Go(func() error {
			if _, err := e.RecalculateAll(gctx, id); err != nil {
				log.Printf("[Sweep] recalculate failed for %s: %v", id, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	log.Printf("✅ Sweep finished for %d users", len(userIDs))
	return nil
}
