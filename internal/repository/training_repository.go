package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"sky266_backend/internal/config"
	"sky266_backend/internal/model"
	"sky266_backend/internal/util"
	"sky266_backend/pkg/kvstore"
	"sky266_backend/pkg/logger"
	"sky266_backend/pkg/monitoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TrainingRepository is the single seam between the portal and durable
// state: users, training progress, certificates, the manager counter and
// the active-session marker. When a Backend is configured it is tried
// first; any backend failure falls through to the local store exactly once
// and is never surfaced to the caller.
type TrainingRepository struct {
	store   kvstore.Store
	backend Backend
	cfg     *config.Config

	// mu serializes the check-then-write account mutations (sign-up,
	// deletion) so the duplicate-email check and the manager counter
	// cannot race under concurrent requests.
	mu sync.Mutex

	// onProgress is invoked after every successful progress mutation.
	// The session context wires this to its broadcast bus.
	onProgress func(userID string, p *model.TrainingProgress)
}

func NewTrainingRepository(store kvstore.Store, backend Backend, cfg *config.Config) *TrainingRepository {
	return &TrainingRepository{
		store:   store,
		backend: backend,
		cfg:     cfg,
	}
}

func (r *TrainingRepository) SetProgressListener(fn func(userID string, p *model.TrainingProgress)) {
	r.onProgress = fn
}

func (r *TrainingRepository) getJSON(key string, v interface{}) error {
	raw, err := r.store.Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), v)
}

func (r *TrainingRepository) setJSON(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.store.Set(key, string(raw))
}

// ProgressUpdate is a partial merge; nil fields are left untouched.
type ProgressUpdate struct {
	VideosCompleted    *int
	TotalVideos        *int
	QuizzesPassed      *int
	TotalQuizzes       *int
	CertificatesEarned *int
	CurrentLevel       *model.Level
	LevelProgress      *model.LevelProgress
	RecentActivities   []model.Activity
}

func (u *ProgressUpdate) Apply(p *model.TrainingProgress) {
	if u.VideosCompleted != nil {
		p.VideosCompleted = *u.VideosCompleted
	}
	if u.TotalVideos != nil {
		p.TotalVideos = *u.TotalVideos
	}
	if u.QuizzesPassed != nil {
		p.QuizzesPassed = *u.QuizzesPassed
	}
	if u.TotalQuizzes != nil {
		p.TotalQuizzes = *u.TotalQuizzes
	}
	if u.CertificatesEarned != nil {
		p.CertificatesEarned = *u.CertificatesEarned
	}
	if u.CurrentLevel != nil {
		p.CurrentLevel = *u.CurrentLevel
	}
	if u.LevelProgress != nil {
		p.LevelProgress = *u.LevelProgress
	}
	if u.RecentActivities != nil {
		p.RecentActivities = u.RecentActivities
	}
}

// SignUp creates the user and a zero-initialized progress record locally
// and marks the new user as the active session. Email/password validation
// is the caller's concern.
func (r *TrainingRepository) SignUp(ctx context.Context, email, password, name string, role model.UserRole, department string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.store.Get(userKey(email)); err == nil {
		return nil, util.ErrDuplicateEmail
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	managerCount := 0
	if role == model.Manager {
		count, err := r.GetManagerCount()
		if err != nil {
			return nil, fmt.Errorf("sign up: %w", err)
		}
		if count >= model.ManagerLimit {
			return nil, util.ErrManagerLimit
		}
		managerCount = count
	}

	now := time.Now()
	user := &model.User{
		ID:         "user_" + uuid.NewString(),
		Email:      email,
		Name:       name,
		Role:       role,
		Department: department,
		CreatedAt:  now,
		LastActive: now,
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	written := make([]string, 0, 4)
	rollback := func() {
		for _, k := range written {
			r.store.Remove(k)
		}
	}

	if err := r.store.Set(credKey(email), string(hash)); err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	written = append(written, credKey(email))

	if err := r.setJSON(userKey(email), user); err != nil {
		rollback()
		return nil, fmt.Errorf("sign up: %w", err)
	}
	written = append(written, userKey(email))

	if err := r.setJSON(progressKey(user.ID), r.zeroProgress(user.ID)); err != nil {
		rollback()
		return nil, fmt.Errorf("sign up: %w", err)
	}
	written = append(written, progressKey(user.ID))

	if role == model.Manager {
		if err := r.store.Set(managerCountKey, strconv.Itoa(managerCount+1)); err != nil {
			rollback()
			return nil, fmt.Errorf("sign up: %w", err)
		}
	}

	if err := r.setJSON(currentUserKey, user); err != nil {
		logger.Log.Warn("failed to persist active session marker", zap.Error(err))
	}

	return user, nil
}

// SignIn authenticates remote-first. Unverified remote accounts map to a
// distinct error; any other remote failure falls back to the local path.
// Locally, the password is verified against the stored hash when one
// exists; users mirrored from the remote backend carry no local hash and
// authenticate by lookup alone, which is logged as a known gap.
func (r *TrainingRepository) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	if r.backend != nil {
		user, err := r.backend.SignIn(ctx, email, password)
		if err == nil {
			user.LastActive = time.Now()
			if err := r.setJSON(userKey(email), user); err != nil {
				logger.Log.Warn("failed to mirror remote user locally", zap.Error(err))
			}
			if err := r.setJSON(currentUserKey, user); err != nil {
				logger.Log.Warn("failed to persist active session marker", zap.Error(err))
			}
			return user, nil
		}
		if errors.Is(err, util.ErrEmailNotVerified) {
			return nil, err
		}
		monitoring.RemoteFallbacks.WithLabelValues("sign_in").Inc()
		logger.Log.Warn("remote sign-in failed, using local store", zap.Error(err))
	}

	var user model.User
	if err := r.getJSON(userKey(email), &user); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}

	if hash, err := r.store.Get(credKey(email)); err == nil {
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
			return nil, util.ErrInvalidCredentials
		}
	} else {
		logger.Log.Warn("no local credential for user, authenticating by lookup only",
			zap.String("email", email))
	}

	user.LastActive = time.Now()
	if err := r.setJSON(userKey(email), &user); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if err := r.setJSON(currentUserKey, &user); err != nil {
		logger.Log.Warn("failed to persist active session marker", zap.Error(err))
	}

	return &user, nil
}

// SignOut clears the active-session marker. The remote sign-out is best
// effort and its failure is ignored.
func (r *TrainingRepository) SignOut(ctx context.Context) error {
	if r.backend != nil {
		if err := r.backend.SignOut(ctx); err != nil {
			logger.Log.Warn("remote sign-out failed", zap.Error(err))
		}
	}
	return r.store.Remove(currentUserKey)
}

// CurrentUser returns the persisted active-session user, if any.
func (r *TrainingRepository) CurrentUser() (*model.User, error) {
	var user model.User
	if err := r.getJSON(currentUserKey, &user); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, util.ErrNoActiveSession
		}
		return nil, err
	}
	return &user, nil
}

// GetUser finds a user by id with a full scan; there is no id index.
func (r *TrainingRepository) GetUser(userID string) (*model.User, error) {
	users, err := r.GetAllUsers()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == userID {
			return &users[i], nil
		}
	}
	return nil, util.ErrUserNotFound
}

// UserUpdate is a partial user mutation. Role and email are immutable.
type UserUpdate struct {
	Name       *string
	Department *string
}

func (r *TrainingRepository) UpdateUser(userID string, updates UserUpdate) (*model.User, error) {
	user, err := r.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if updates.Name != nil {
		user.Name = *updates.Name
	}
	if updates.Department != nil {
		user.Department = *updates.Department
	}
	user.LastActive = time.Now()

	if err := r.setJSON(userKey(user.Email), user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if current, err := r.CurrentUser(); err == nil && current.ID == userID {
		if err := r.setJSON(currentUserKey, user); err != nil {
			logger.Log.Warn("failed to refresh active session marker", zap.Error(err))
		}
	}

	return user, nil
}

func (r *TrainingRepository) zeroProgress(userID string) *model.TrainingProgress {
	return &model.TrainingProgress{
		UserID:       userID,
		TotalVideos:  r.cfg.Training.TotalVideos,
		TotalQuizzes: r.cfg.Training.TotalQuizzes,
		CurrentLevel: model.Beginner,
		LastUpdated:  time.Now(),
	}
}

// GetTrainingProgress returns the stored record, lazily creating and
// persisting a zero-initialized one for users that never trained.
func (r *TrainingRepository) GetTrainingProgress(userID string) (*model.TrainingProgress, error) {
	var p model.TrainingProgress
	err := r.getJSON(progressKey(userID), &p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, kvstore.ErrNotFound) {
		return nil, fmt.Errorf("get progress: %w", err)
	}

	fresh := r.zeroProgress(userID)
	if err := r.setJSON(progressKey(userID), fresh); err != nil {
		return nil, fmt.Errorf("init progress: %w", err)
	}
	return fresh, nil
}

// SaveProgressLocal persists the full progress object to the local store
// without remote traffic or notification. The session context flushes its
// in-memory copy through here after each derivation.
func (r *TrainingRepository) SaveProgressLocal(p *model.TrainingProgress) error {
	return r.setJSON(progressKey(p.UserID), p)
}

// UpdateTrainingProgress merges the partial update, clamps counts,
// recomputes the overall percentage, persists remote-first and notifies
// listeners. The prior record is untouched when persistence fails.
func (r *TrainingRepository) UpdateTrainingProgress(ctx context.Context, userID string, updates ProgressUpdate) (*model.TrainingProgress, error) {
	current, err := r.GetTrainingProgress(userID)
	if err != nil {
		return nil, err
	}

	merged := *current
	updates.Apply(&merged)
	merged.ClampCounts()
	merged.RecomputeOverall()
	merged.LastUpdated = time.Now()

	if r.backend != nil {
		stored, err := r.backend.UpsertProgress(ctx, &merged)
		if err == nil {
			// keep session-local fields the mirror does not carry
			stored.LevelProgress = merged.LevelProgress
			stored.RecentActivities = merged.RecentActivities
			merged = *stored
		} else {
			monitoring.RemoteFallbacks.WithLabelValues("update_progress").Inc()
			logger.Log.Warn("remote progress update failed, using local store", zap.Error(err))
		}
	}

	if err := r.SaveProgressLocal(&merged); err != nil {
		return nil, fmt.Errorf("update progress: %w", err)
	}

	monitoring.ProgressUpdates.Inc()
	if r.onProgress != nil {
		r.onProgress(userID, &merged)
	}
	return &merged, nil
}

// RecordVideoCompletion bumps videos_completed, clamped at the total.
func (r *TrainingRepository) RecordVideoCompletion(ctx context.Context, userID string) (*model.TrainingProgress, error) {
	current, err := r.GetTrainingProgress(userID)
	if err != nil {
		return nil, err
	}
	next := current.VideosCompleted + 1
	if next > current.TotalVideos {
		next = current.TotalVideos
	}
	return r.UpdateTrainingProgress(ctx, userID, ProgressUpdate{VideosCompleted: &next})
}

// RecordQuizCompletion bumps quizzes_passed when the quiz was passed;
// a failed quiz leaves progress unchanged.
func (r *TrainingRepository) RecordQuizCompletion(ctx context.Context, userID string, passed bool) (*model.TrainingProgress, error) {
	current, err := r.GetTrainingProgress(userID)
	if err != nil {
		return nil, err
	}
	if !passed {
		return current, nil
	}
	next := current.QuizzesPassed + 1
	if next > current.TotalQuizzes {
		next = current.TotalQuizzes
	}
	return r.UpdateTrainingProgress(ctx, userID, ProgressUpdate{QuizzesPassed: &next})
}

func (r *TrainingRepository) GetCertificates(userID string) ([]model.Certificate, error) {
	var certs []model.Certificate
	err := r.getJSON(certsKey(userID), &certs)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []model.Certificate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get certificates: %w", err)
	}
	return certs, nil
}

// AddCertificate generates an id, prepends the certificate to the user's
// list and recomputes certificates_earned from the new list length rather
// than incrementing, so the counter can never double-count.
func (r *TrainingRepository) AddCertificate(ctx context.Context, cert model.Certificate) (*model.Certificate, error) {
	cert.ID = "cert_" + uuid.NewString()
	if cert.DateEarned.IsZero() {
		cert.DateEarned = time.Now()
	}
	if cert.ValidUntil.IsZero() {
		cert.ValidUntil = cert.DateEarned.Add(model.CertificateValidity)
	}

	if r.backend != nil {
		if count, err := r.backend.InsertCertificate(ctx, &cert); err == nil {
			if err := r.mirrorCertificateLocal(ctx, cert, count); err != nil {
				logger.Log.Warn("failed to mirror certificate locally", zap.Error(err))
			}
			monitoring.CertificatesIssued.Inc()
			return &cert, nil
		} else {
			monitoring.RemoteFallbacks.WithLabelValues("add_certificate").Inc()
			logger.Log.Warn("remote certificate insert failed, using local store", zap.Error(err))
		}
	}

	certs, err := r.GetCertificates(cert.UserID)
	if err != nil {
		return nil, err
	}
	certs = append([]model.Certificate{cert}, certs...)
	if err := r.setJSON(certsKey(cert.UserID), certs); err != nil {
		return nil, fmt.Errorf("add certificate: %w", err)
	}

	count := len(certs)
	if _, err := r.UpdateTrainingProgress(ctx, cert.UserID, ProgressUpdate{CertificatesEarned: &count}); err != nil {
		return nil, err
	}

	monitoring.CertificatesIssued.Inc()
	return &cert, nil
}

func (r *TrainingRepository) mirrorCertificateLocal(ctx context.Context, cert model.Certificate, count int) error {
	certs, err := r.GetCertificates(cert.UserID)
	if err != nil {
		return err
	}
	certs = append([]model.Certificate{cert}, certs...)
	if err := r.setJSON(certsKey(cert.UserID), certs); err != nil {
		return err
	}
	_, err = r.UpdateTrainingProgress(ctx, cert.UserID, ProgressUpdate{CertificatesEarned: &count})
	return err
}

// GetAllUsersProgress returns every non-manager user joined with their
// progress; the manager roster view renders from this.
func (r *TrainingRepository) GetAllUsersProgress(ctx context.Context) ([]model.UserProgress, error) {
	if r.backend != nil {
		rows, err := r.backend.ListProgress(ctx)
		if err == nil {
			return rows, nil
		}
		monitoring.RemoteFallbacks.WithLabelValues("list_progress").Inc()
		logger.Log.Warn("remote roster fetch failed, using local store", zap.Error(err))
	}

	users, err := r.GetAllUsers()
	if err != nil {
		return nil, err
	}

	rows := make([]model.UserProgress, 0, len(users))
	for _, u := range users {
		if u.Role == model.Manager {
			continue
		}
		var p *model.TrainingProgress
		var stored model.TrainingProgress
		if err := r.getJSON(progressKey(u.ID), &stored); err == nil {
			p = &stored
		}
		rows = append(rows, model.UserProgress{User: u, TrainingProgress: p})
	}
	return rows, nil
}

// GetManagerCount reads the manager counter entity; absent means zero.
func (r *TrainingRepository) GetManagerCount() (int, error) {
	raw, err := r.store.Get(managerCountKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("corrupt manager counter %q: %w", raw, err)
	}
	return count, nil
}

func (r *TrainingRepository) GetAllUsers() ([]model.User, error) {
	keys, err := r.store.Keys()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]model.User, 0)
	for _, k := range keys {
		if !strings.HasPrefix(k, userKeyPrefix) {
			continue
		}
		var u model.User
		if err := r.getJSON(k, &u); err != nil {
			logger.Log.Warn("skipping unreadable user record", zap.String("key", k), zap.Error(err))
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

// DeleteAllUsers removes every user, credential, progress record and
// certificate list plus the manager counter and the active-session marker.
// Irreversible; confirmation is the caller's concern.
func (r *TrainingRepository) DeleteAllUsers() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, err := r.store.Keys()
	if err != nil {
		return fmt.Errorf("delete all users: %w", err)
	}

	for _, k := range keys {
		if strings.HasPrefix(k, userKeyPrefix) ||
			strings.HasPrefix(k, credKeyPrefix) ||
			strings.HasPrefix(k, progressKeyPrefix) ||
			strings.HasPrefix(k, certsKeyPrefix) {
			if err := r.store.Remove(k); err != nil {
				return fmt.Errorf("delete all users: %w", err)
			}
		}
	}

	if err := r.store.Remove(managerCountKey); err != nil {
		return fmt.Errorf("delete all users: %w", err)
	}
	return r.store.Remove(currentUserKey)
}

// DeleteUserByID cascades: user record, credential, progress, certificate
// list; decrements the manager counter for managers and clears the
// active-session marker when it referenced this user.
func (r *TrainingRepository) DeleteUserByID(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.GetUser(userID)
	if err != nil {
		return err
	}

	if user.Role == model.Manager {
		count, err := r.GetManagerCount()
		if err != nil {
			return err
		}
		if count > 0 {
			count--
		}
		if err := r.store.Set(managerCountKey, strconv.Itoa(count)); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
	}

	for _, k := range []string{userKey(user.Email), credKey(user.Email), progressKey(userID), certsKey(userID)} {
		if err := r.store.Remove(k); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
	}

	if current, err := r.CurrentUser(); err == nil && current.ID == userID {
		if err := r.store.Remove(currentUserKey); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
	}
	return nil
}

// GetSecurityAlerts returns the informational alert feed, newest first.
func (r *TrainingRepository) GetSecurityAlerts() ([]model.SecurityAlert, error) {
	var alerts []model.SecurityAlert
	err := r.getJSON(alertsKey, &alerts)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []model.SecurityAlert{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get alerts: %w", err)
	}
	return alerts, nil
}

// AddSecurityAlert prepends a manager-published alert to the feed.
func (r *TrainingRepository) AddSecurityAlert(alert model.SecurityAlert) (*model.SecurityAlert, error) {
	alert.ID = "alert_" + uuid.NewString()
	now := time.Now()
	if alert.Date == "" {
		alert.Date = now.Format("2006-01-02")
	}
	if alert.Time == "" {
		alert.Time = now.Format("15:04")
	}

	alerts, err := r.GetSecurityAlerts()
	if err != nil {
		return nil, err
	}
	alerts = append([]model.SecurityAlert{alert}, alerts...)
	if err := r.setJSON(alertsKey, alerts); err != nil {
		return nil, fmt.Errorf("add alert: %w", err)
	}
	return &alert, nil
}
