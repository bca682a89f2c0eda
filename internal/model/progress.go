package model

import (
	"math"
	"time"
)

type Level string

const (
	Beginner     Level = "beginner"
	Intermediate Level = "intermediate"
	Advanced     Level = "advanced"
	Expert       Level = "expert"
	Professional Level = "professional"
)

// Levels is the ordered progression sequence. Professional is terminal.
var Levels = []Level{Beginner, Intermediate, Advanced, Expert, Professional}

// Next returns the level after l, or l itself when l is terminal or unknown.
func (l Level) Next() Level {
	for i, lv := range Levels {
		if lv == l && i < len(Levels)-1 {
			return Levels[i+1]
		}
	}
	return l
}

type ActivityStatus string

const (
	ActivityPassed    ActivityStatus = "Passed"
	ActivityCompleted ActivityStatus = "Completed"
	ActivityPending   ActivityStatus = "Pending"
)

// Activity is a single entry of a user's recent-activity feed.
type Activity struct {
	Title  string         `json:"title"`
	Status ActivityStatus `json:"status"`
	Time   string         `json:"time"`
	Type   string         `json:"type"` // success | info | warning
}

// LevelProgress counts completions inside the current level; it is a
// level-up trigger, not persisted progress, and resets on advancement.
type LevelProgress struct {
	Videos  int `json:"videos"`
	Quizzes int `json:"quizzes"`
}

// RecentActivityLimit caps the recent-activity feed, newest first.
const RecentActivityLimit = 5

// swagger:model TrainingProgress
type TrainingProgress struct {
	UserID             string        `gorm:"primaryKey;size:64;column:user_id" json:"user_id"`
	VideosCompleted    int           `gorm:"not null" json:"videos_completed"`
	TotalVideos        int           `gorm:"not null" json:"total_videos"`
	QuizzesPassed      int           `gorm:"not null" json:"quizzes_passed"`
	TotalQuizzes       int           `gorm:"not null" json:"total_quizzes"`
	OverallProgress    int           `gorm:"not null" json:"overall_progress"`
	CertificatesEarned int           `gorm:"not null" json:"certificates_earned"`
	CurrentLevel       Level         `gorm:"size:20;default:'beginner'" json:"current_level"`
	LevelProgress      LevelProgress `gorm:"-" json:"level_progress"`
	RecentActivities   []Activity    `gorm:"-" json:"recentActivities,omitempty"`
	LastUpdated        time.Time     `json:"last_updated"`
}

func (TrainingProgress) TableName() string {
	return "training_progress"
}

// ClampCounts keeps completed counts inside [0, total]. Replaying the same
// completion event therefore never pushes a count past its total.
func (p *TrainingProgress) ClampCounts() {
	if p.VideosCompleted < 0 {
		p.VideosCompleted = 0
	}
	if p.QuizzesPassed < 0 {
		p.QuizzesPassed = 0
	}
	if p.TotalVideos > 0 && p.VideosCompleted > p.TotalVideos {
		p.VideosCompleted = p.TotalVideos
	}
	if p.TotalQuizzes > 0 && p.QuizzesPassed > p.TotalQuizzes {
		p.QuizzesPassed = p.TotalQuizzes
	}
}

// RecomputeOverall derives the overall percentage as the mean of the video
// and quiz completion fractions. A zero total contributes zero instead of
// dividing by zero; totals are positive in normal operation but a bad
// config must not crash the portal.
func (p *TrainingProgress) RecomputeOverall() {
	var videos, quizzes float64
	if p.TotalVideos > 0 {
		videos = float64(p.VideosCompleted) / float64(p.TotalVideos)
	}
	if p.TotalQuizzes > 0 {
		quizzes = float64(p.QuizzesPassed) / float64(p.TotalQuizzes)
	}
	p.OverallProgress = int(math.Round((videos + quizzes) / 2 * 100))
}

// UserProgress is the roster row consumed by the manager dashboard: a user
// joined with their training progress (nil when none was ever written).
type UserProgress struct {
	User
	TrainingProgress *TrainingProgress `json:"training_progress"`
}
