package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"career-progress-system/models"

	"gorm.io/gorm"
)

// ProfileFacts are the completeness inputs, read in one shot.
type ProfileFacts struct {
	Name     string
	Title    string
	About    string
	Phone    string
	Address  string
	LinkedIn string
	GitHub   string
	Website  string

	ExperienceCount       int64
	HasDetailedExperience bool
	SkillCount            int64
	EducationCount        int64
}

// ActivityStats is the read-only data-access collaborator the engine
// computes progress from. Passed in explicitly so tests can substitute a
// fake; there is no package-level client.
type ActivityStats interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	MetricCount(ctx context.Context, userID string, metric models.Metric) (int64, error)
	StreakLength(ctx context.Context, userID string) (int64, error)
	ProfileFacts(ctx context.Context, userID string) (*ProfileFacts, error)
	ActivitySince(ctx context.Context, userID string, since time.Time) (int64, error)
	AverageAnalysisScore(ctx context.Context, userID string) (float64, error)
}

// GormActivityStats answers stats queries straight from the store. All
// reads are fresh (no caching) so evaluation stays idempotent under replay.
type GormActivityStats struct {
	DB *gorm.DB
}

func NewGormActivityStats(db *gorm.DB) *GormActivityStats {
	return &GormActivityStats{DB: db}
}

func (s *GormActivityStats) UserExists(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormActivityStats) MetricCount(ctx context.Context, userID string, metric models.Metric) (int64, error) {
	db := s.DB.WithContext(ctx)
	var count int64
	var err error
	switch metric {
	case models.MetricAnalyses:
		err = db.Model(&models.CVAnalysis{}).Where("user_id = ?", userID).Count(&count).Error
	case models.MetricApplications:
		err = db.Model(&models.Application{}).Where("user_id = ?", userID).Count(&count).Error
	case models.MetricSkills:
		err = db.Model(&models.Skill{}).Where("user_id = ?", userID).Count(&count).Error
	case models.MetricCVs:
		err = db.Model(&models.CVDocument{}).Where("user_id = ?", userID).Count(&count).Error
	case models.MetricChallenges:
		err = db.Model(&models.ChallengeCompletion{}).Where("user_id = ?", userID).Count(&count).Error
	default:
		return 0, fmt.Errorf("unknown metric %q", metric)
	}
	return count, err
}

func (s *GormActivityStats) StreakLength(ctx context.Context, userID string) (int64, error) {
	var prog models.UserProgress
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&prog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return prog.CurrentStreak, nil
}

func (s *GormActivityStats) ProfileFacts(ctx context.Context, userID string) (*ProfileFacts, error) {
	db := s.DB.WithContext(ctx)
	facts := &ProfileFacts{}

	var profile models.Profile
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// No profile row yet: counts below may still be nonzero.
	} else {
		facts.Name = profile.Name
		facts.Title = profile.Title
		facts.About = profile.About
		facts.Phone = profile.Phone
		facts.Address = profile.Address
		facts.LinkedIn = profile.LinkedIn
		facts.GitHub = profile.GitHub
		facts.Website = profile.Website
	}

	if err := db.Model(&models.Experience{}).Where("user_id = ?", userID).Count(&facts.ExperienceCount).Error; err != nil {
		return nil, err
	}
	var detailed int64
	if err := db.Model(&models.Experience{}).
		Where("user_id = ? AND length(description) >= ?", userID, DetailedExperienceMinChars).
		Count(&detailed).Error; err != nil {
		return nil, err
	}
	facts.HasDetailedExperience = detailed > 0

	if err := db.Model(&models.Skill{}).Where("user_id = ?", userID).Count(&facts.SkillCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Education{}).Where("user_id = ?", userID).Count(&facts.EducationCount).Error; err != nil {
		return nil, err
	}
	return facts, nil
}

func (s *GormActivityStats) ActivitySince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.ActivityLog{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

func (s *GormActivityStats) AverageAnalysisScore(ctx context.Context, userID string) (float64, error) {
	var avg *float64
	err := s.DB.WithContext(ctx).Model(&models.CVAnalysis{}).
		Where("user_id = ?", userID).
		Select("AVG(score)").
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
