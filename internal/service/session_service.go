package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"sky266_backend/internal/config"
	"sky266_backend/internal/model"
	"sky266_backend/internal/repository"
	"sky266_backend/internal/util"
	"sky266_backend/pkg/logger"
	"sky266_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// SessionService is the authoritative in-memory view of the active
// session: the signed-in user plus their live training progress. All
// progress mutations funnel through it one at a time; each mutation
// re-derives the overall percentage, re-evaluates level-up, flushes the
// full record to the store and broadcasts an event on the bus.
//
// Unauthenticated until SetUser; a persisted active-session marker found
// at construction restores the previous session.
type SessionService struct {
	mu   sync.Mutex
	repo *repository.TrainingRepository
	cfg  *config.Config
	bus  *ProgressBus

	user     *model.User
	progress model.TrainingProgress
	language string // en | st
}

func NewSessionService(repo *repository.TrainingRepository, cfg *config.Config, bus *ProgressBus) *SessionService {
	s := &SessionService{
		repo:     repo,
		cfg:      cfg,
		bus:      bus,
		progress: defaultProgress(cfg),
		language: "en",
	}

	if user, err := repo.CurrentUser(); err == nil {
		if err := s.SetUser(user); err != nil {
			logger.Log.Warn("failed to restore persisted session", zap.Error(err))
		}
	}
	return s
}

func defaultProgress(cfg *config.Config) model.TrainingProgress {
	return model.TrainingProgress{
		TotalVideos:  cfg.Training.TotalVideos,
		TotalQuizzes: cfg.Training.TotalQuizzes,
		CurrentLevel: model.Beginner,
	}
}

// SetUser transitions the session. A non-nil user loads (or lazily
// creates) their progress and moves to Authenticated; nil resets to the
// Unauthenticated defaults.
func (s *SessionService) SetUser(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user == nil {
		s.user = nil
		s.progress = defaultProgress(s.cfg)
		return nil
	}

	progress, err := s.repo.GetTrainingProgress(user.ID)
	if err != nil {
		return err
	}
	s.user = user
	s.progress = *progress
	return nil
}

// User returns the active user, or nil while Unauthenticated.
func (s *SessionService) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Progress returns a copy of the live progress.
func (s *SessionService) Progress() model.TrainingProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *SessionService) CurrentLevel() model.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.CurrentLevel
}

// UpdateProgress merges a partial update into the active session's
// progress. Merges are never full replacements; clamping, the overall
// derivation and a single-step level-up check run on every call. On
// persistence failure the prior state is left untouched.
func (s *SessionService) UpdateProgress(updates repository.ProgressUpdate) (model.TrainingProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return model.TrainingProgress{}, util.ErrNoActiveSession
	}
	return s.mutateLocked(s.user.ID, func(p *model.TrainingProgress) {
		updates.Apply(p)
	})
}

// UpdateProgressFor merges a partial update into userID's record. A caller
// whose token outlives their session mutates their own stored record, never
// whoever signed in after them.
func (s *SessionService) UpdateProgressFor(userID string, updates repository.ProgressUpdate) (model.TrainingProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLocked(userID, func(p *model.TrainingProgress) {
		updates.Apply(p)
	})
}

// mutateLocked runs fn against userID's progress, derives, persists and
// broadcasts, all inside one critical section. The in-memory session copy
// is read and written only when userID is the active user; any other
// user's stored record is loaded and flushed directly.
func (s *SessionService) mutateLocked(userID string, fn func(*model.TrainingProgress)) (model.TrainingProgress, error) {
	active := s.user != nil && s.user.ID == userID

	var next model.TrainingProgress
	if active {
		next = s.progress
		next.UserID = userID
	} else {
		stored, err := s.repo.GetTrainingProgress(userID)
		if err != nil {
			return model.TrainingProgress{}, err
		}
		next = *stored
	}

	fn(&next)
	s.deriveLocked(&next)

	if err := s.repo.SaveProgressLocal(&next); err != nil {
		return model.TrainingProgress{}, err
	}

	if active {
		s.progress = next
	}
	monitoring.ProgressUpdates.Inc()
	s.bus.Publish(ProgressEvent{UserID: userID, Progress: next})
	return next, nil
}

// deriveLocked applies the derivation rules: level advancement (at most
// one level per mutation, both thresholds met, never past the terminal
// level, counters reset exactly on advancement), count clamping and the
// overall percentage.
func (s *SessionService) deriveLocked(p *model.TrainingProgress) {
	videoThreshold := s.cfg.Training.LevelVideoThreshold
	quizThreshold := s.cfg.Training.LevelQuizThreshold

	if p.LevelProgress.Videos >= videoThreshold && p.LevelProgress.Quizzes >= quizThreshold {
		if next := p.CurrentLevel.Next(); next != p.CurrentLevel {
			p.CurrentLevel = next
			p.LevelProgress = model.LevelProgress{}
			monitoring.LevelUps.WithLabelValues(string(next)).Inc()
			logger.Log.Info("level up",
				zap.String("user_id", p.UserID),
				zap.String("level", string(next)))
		}
	}

	p.ClampCounts()
	p.RecomputeOverall()
	p.LastUpdated = time.Now()
}

// MarkVideoCompleted is MarkVideoCompletedFor for the active user.
func (s *SessionService) MarkVideoCompleted(title string) (model.TrainingProgress, error) {
	user := s.User()
	if user == nil {
		return model.TrainingProgress{}, util.ErrNoActiveSession
	}
	return s.MarkVideoCompletedFor(user.ID, title)
}

// MarkVideoCompletedFor is the "watched a training video" mutation: bumps
// the completed count and the in-level counter and records the activity,
// atomically.
func (s *SessionService) MarkVideoCompletedFor(userID, title string) (model.TrainingProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLocked(userID, func(p *model.TrainingProgress) {
		p.VideosCompleted++
		p.LevelProgress.Videos++
		p.RecentActivities = prependActivity(p.RecentActivities, model.Activity{
			Title:  title,
			Status: model.ActivityCompleted,
			Time:   time.Now().Format("15:04"),
			Type:   "info",
		})
	})
}

// MarkQuizPassed is MarkQuizPassedFor for the active user.
func (s *SessionService) MarkQuizPassed(ctx context.Context, title, category string, score int) (*model.Certificate, error) {
	user := s.User()
	if user == nil {
		return nil, util.ErrNoActiveSession
	}
	return s.MarkQuizPassedFor(ctx, user.ID, title, category, score)
}

// MarkQuizPassedFor records a passed quiz for userID and issues the
// certificate for it.
func (s *SessionService) MarkQuizPassedFor(ctx context.Context, userID, title, category string, score int) (*model.Certificate, error) {
	s.mu.Lock()
	_, err := s.mutateLocked(userID, func(p *model.TrainingProgress) {
		p.QuizzesPassed++
		p.LevelProgress.Quizzes++
	})
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// the lock must not be held here: AddCertificate notifies the progress
	// listener, which re-enters the session
	cert, err := s.repo.AddCertificate(ctx, model.Certificate{
		UserID:      userID,
		Title:       title,
		Description: fmt.Sprintf("Awarded for passing the %s quiz with a score of %d%%.", title, score),
		Score:       score,
		Category:    category,
	})
	if err != nil {
		return nil, err
	}

	// certificates_earned is the list length, re-read so the progress
	// record agrees with what AddCertificate derived
	certs, err := s.repo.GetCertificates(userID)
	if err != nil {
		return nil, err
	}
	count := len(certs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.mutateLocked(userID, func(p *model.TrainingProgress) {
		p.CertificatesEarned = count
		p.RecentActivities = prependActivity(p.RecentActivities, model.Activity{
			Title:  title,
			Status: model.ActivityPassed,
			Time:   time.Now().Format("15:04"),
			Type:   "success",
		})
	}); err != nil {
		return nil, err
	}
	return cert, nil
}

// AddActivity is AddActivityFor for the active user.
func (s *SessionService) AddActivity(activity model.Activity) (model.TrainingProgress, error) {
	user := s.User()
	if user == nil {
		return model.TrainingProgress{}, util.ErrNoActiveSession
	}
	return s.AddActivityFor(user.ID, activity)
}

// AddActivityFor prepends to userID's recent-activity feed, truncated to
// the five newest entries.
func (s *SessionService) AddActivityFor(userID string, activity model.Activity) (model.TrainingProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLocked(userID, func(p *model.TrainingProgress) {
		p.RecentActivities = prependActivity(p.RecentActivities, activity)
	})
}

func prependActivity(feed []model.Activity, activity model.Activity) []model.Activity {
	feed = append([]model.Activity{activity}, feed...)
	if len(feed) > model.RecentActivityLimit {
		feed = feed[:model.RecentActivityLimit]
	}
	return feed
}

// Certificates lists the active user's certificates, newest first.
func (s *SessionService) Certificates() ([]model.Certificate, error) {
	user := s.User()
	if user == nil {
		return nil, util.ErrNoActiveSession
	}
	return s.repo.GetCertificates(user.ID)
}

// RenderCertificate produces the plain-text certificate document and its
// download filename. Pure formatting; no persistence effect.
func RenderCertificate(cert *model.Certificate) (filename, content string) {
	content = fmt.Sprintf(
		"Sky266 Cybersecurity Certificate\n\nTitle: %s\nDescription: %s\nDate Earned: %s\nScore: %d%%\nValid Until: %s\nCategory: %s\n\n---\nThis is to certify that the holder has completed the required training.",
		cert.Title,
		cert.Description,
		cert.DateEarned.Format("2006-01-02"),
		cert.Score,
		cert.ValidUntil.Format("2006-01-02"),
		cert.Category,
	)
	filename = strings.Join(strings.Fields(cert.Title), "_") + "_certificate.txt"
	return filename, content
}

// HandleExternalUpdate reconciles the in-memory copy when a repository
// path (not this session) mutated the active user's progress.
func (s *SessionService) HandleExternalUpdate(userID string, p *model.TrainingProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user != nil && s.user.ID == userID {
		s.progress = *p
	}
}

// Subscribe registers a progress listener; the caller owns the handle and
// must Close it when the view unmounts.
func (s *SessionService) Subscribe() *Subscription {
	return s.bus.Subscribe()
}

func (s *SessionService) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// ToggleLanguage flips the portal language between English and Sesotho.
func (s *SessionService) ToggleLanguage() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.language == "en" {
		s.language = "st"
	} else {
		s.language = "en"
	}
	return s.language
}
