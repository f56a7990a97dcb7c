package services

import (
	"context"
	"time"

	"career-progress-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventQueue is where recorded activity goes to be evaluated asynchronously.
type EventQueue interface {
	Enqueue(event models.ActivityEvent)
}

// ActivityService records domain activity rows and enqueues the matching
// events. The engine never writes these tables; it only counts them.
type ActivityService struct {
	DB    *gorm.DB
	Queue EventQueue
}

func NewActivityService(db *gorm.DB, queue EventQueue) *ActivityService {
	return &ActivityService{DB: db, Queue: queue}
}

func (s *ActivityService) enqueue(userID string, t models.EventType, payload map[string]interface{}) {
	if s.Queue != nil {
		s.Queue.Enqueue(models.ActivityEvent{UserID: userID, Type: t, Payload: payload})
	}
}

// UploadCV records a CV revision and emits cv_uploaded.
func (s *ActivityService) UploadCV(ctx context.Context, userID, fileName string) (*models.CVDocument, error) {
	var version int64
	if err := s.DB.WithContext(ctx).Model(&models.CVDocument{}).
		Where("user_id = ?", userID).Count(&version).Error; err != nil {
		return nil, err
	}
	doc := &models.CVDocument{
		ID:       uuid.NewString(),
		UserID:   userID,
		FileName: fileName,
		Version:  int(version) + 1,
	}
	if err := s.DB.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, err
	}
	s.enqueue(userID, models.EventCVUploaded, map[string]interface{}{"cv_id": doc.ID, "version": doc.Version})
	return doc, nil
}

// CompleteAnalysis records an analysis run with its score and emits
// analysis_completed.
func (s *ActivityService) CompleteAnalysis(ctx context.Context, userID, cvID string, score int, model string) (*models.CVAnalysis, error) {
	analysis := &models.CVAnalysis{
		ID:     uuid.NewString(),
		UserID: userID,
		CVID:   cvID,
		Score:  score,
		Model:  model,
	}
	if err := s.DB.WithContext(ctx).Create(analysis).Error; err != nil {
		return nil, err
	}
	s.enqueue(userID, models.EventAnalysisCompleted, map[string]interface{}{"analysis_id": analysis.ID, "score": score})
	return analysis, nil
}

// SubmitApplication records an application and emits application_submitted.
func (s *ActivityService) SubmitApplication(ctx context.Context, userID, company, role string) (*models.Application, error) {
	app := &models.Application{
		ID:        uuid.NewString(),
		UserID:    userID,
		Company:   company,
		Role:      role,
		Status:    models.ApplicationSubmitted,
		AppliedAt: time.Now(),
	}
	if err := s.DB.WithContext(ctx).Create(app).Error; err != nil {
		return nil, err
	}
	s.enqueue(userID, models.EventApplicationSubmitted, map[string]interface{}{"application_id": app.ID, "company": company})
	return app, nil
}

// AddSkill records a skill and emits skill_added.
func (s *ActivityService) AddSkill(ctx context.Context, userID, name, level string) (*models.Skill, error) {
	skill := &models.Skill{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   name,
		Level:  level,
	}
	if err := s.DB.WithContext(ctx).Create(skill).Error; err != nil {
		return nil, err
	}
	s.enqueue(userID, models.EventSkillAdded, map[string]interface{}{"skill": name})
	return skill, nil
}

// CompleteChallenge records a finished challenge and emits challenge_completed.
func (s *ActivityService) CompleteChallenge(ctx context.Context, userID, challengeID string) (*models.ChallengeCompletion, error) {
	cc := &models.ChallengeCompletion{
		ID:          uuid.NewString(),
		UserID:      userID,
		ChallengeID: challengeID,
		CompletedAt: time.Now(),
	}
	if err := s.DB.WithContext(ctx).Create(cc).Error; err != nil {
		return nil, err
	}
	s.enqueue(userID, models.EventChallengeCompleted, map[string]interface{}{"challenge_id": challengeID})
	return cc, nil
}

// streakMilestones are the streak lengths that emit streak_milestone on top
// of the daily_login event.
var streakMilestones = map[int64]bool{7: true, 30: true, 100: true}

// RecordLogin rolls the login streak forward and emits daily_login (and
// streak_milestone when a milestone is crossed). Second login on the same
// calendar day is a no-op. Streak maintenance lives here, outside the
// engine: the engine only reads the streak.
func (s *ActivityService) RecordLogin(ctx context.Context, userID string) (*models.UserProgress, error) {
	var prog models.UserProgress
	var milestone int64
	advanced := false

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&prog).Error
		if err == gorm.ErrRecordNotFound {
			prog = models.UserProgress{ID: uuid.NewString(), UserID: userID}
			if err := tx.Create(&prog).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		now := time.Now()
		today := now.Truncate(24 * time.Hour)
		if prog.LastLoginAt != nil {
			last := prog.LastLoginAt.Truncate(24 * time.Hour)
			switch {
			case last.Equal(today):
				return nil // already counted today
			case today.Sub(last) == 24*time.Hour:
				prog.CurrentStreak++
			default:
				prog.CurrentStreak = 1
			}
		} else {
			prog.CurrentStreak = 1
		}
		if prog.CurrentStreak > prog.LongestStreak {
			prog.LongestStreak = prog.CurrentStreak
		}
		prog.LastLoginAt = &now
		if streakMilestones[prog.CurrentStreak] {
			milestone = prog.CurrentStreak
		}
		advanced = true
		return tx.Save(&prog).Error
	})
	if err != nil {
		return nil, err
	}

	if advanced {
		s.enqueue(userID, models.EventDailyLogin, map[string]interface{}{"streak": prog.CurrentStreak})
		if milestone > 0 {
			s.enqueue(userID, models.EventStreakMilestone, map[string]interface{}{"streak": milestone})
		}
	}
	return &prog, nil
}

// UpsertProfile creates or updates the profile row and emits profile_updated.
func (s *ActivityService) UpsertProfile(ctx context.Context, userID string, in models.Profile) (*models.Profile, error) {
	var profile models.Profile
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		profile = models.Profile{ID: uuid.NewString(), UserID: userID}
	} else if err != nil {
		return nil, err
	}

	profile.Name = in.Name
	profile.Title = in.Title
	profile.About = in.About
	profile.Phone = in.Phone
	profile.Address = in.Address
	profile.LinkedIn = in.LinkedIn
	profile.GitHub = in.GitHub
	profile.Website = in.Website

	if err := s.DB.WithContext(ctx).Save(&profile).Error; err != nil {
		return nil, err
	}
	s.enqueue(userID, models.EventProfileUpdated, nil)
	return &profile, nil
}
