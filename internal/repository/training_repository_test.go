package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"sky266_backend/internal/config"
	"sky266_backend/internal/model"
	"sky266_backend/internal/util"
	"sky266_backend/pkg/kvstore"
	"sky266_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Training: config.TrainingConfig{
			TotalVideos:         25,
			TotalQuizzes:        25,
			LevelVideoThreshold: 5,
			LevelQuizThreshold:  5,
		},
	}
}

func newTestRepo(t *testing.T) *TrainingRepository {
	t.Helper()
	return NewTrainingRepository(kvstore.NewMemStore(), nil, testConfig())
}

func TestSignUpDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SignUp(ctx, "thabo@sky266.example", "pa55word!", "Thabo", model.Driver, "Fleet")
	require.NoError(t, err)

	_, err = repo.SignUp(ctx, "thabo@sky266.example", "another", "Thabo II", model.Driver, "Fleet")
	assert.ErrorIs(t, err, util.ErrDuplicateEmail)
}

func TestSignUpManagerLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < model.ManagerLimit; i++ {
		_, err := repo.SignUp(ctx, fmt.Sprintf("mgr%d@sky266.example", i), "pa55word!", "Manager", model.Manager, "Ops")
		require.NoError(t, err)
	}

	_, err := repo.SignUp(ctx, "mgr4@sky266.example", "pa55word!", "One Too Many", model.Manager, "Ops")
	assert.ErrorIs(t, err, util.ErrManagerLimit)

	count, err := repo.GetManagerCount()
	require.NoError(t, err)
	assert.Equal(t, model.ManagerLimit, count)

	// the rejected account left nothing behind
	_, err = repo.SignIn(ctx, "mgr4@sky266.example", "pa55word!")
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestSignUpInitializesProgressAndSession(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.SignUp(ctx, "lerato@sky266.example", "pa55word!", "Lerato", model.BookingAgent, "Bookings")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	p, err := repo.GetTrainingProgress(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.VideosCompleted)
	assert.Equal(t, 25, p.TotalVideos)
	assert.Equal(t, 25, p.TotalQuizzes)
	assert.Equal(t, model.Beginner, p.CurrentLevel)

	current, err := repo.CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)
}

func TestSignInVerifiesPassword(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SignUp(ctx, "neo@sky266.example", "correct-horse", "Neo", model.Driver, "")
	require.NoError(t, err)
	require.NoError(t, repo.SignOut(ctx))

	_, err = repo.SignIn(ctx, "neo@sky266.example", "wrong-horse")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	user, err := repo.SignIn(ctx, "neo@sky266.example", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "neo@sky266.example", user.Email)

	current, err := repo.CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)
}

func TestSignInUnknownEmail(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.SignIn(context.Background(), "ghost@sky266.example", "whatever")
	assert.ErrorIs(t, err, util.ErrUserNotFound)
	assert.Equal(t, "User not found. Please sign up.", err.Error())
}

func TestSignOutClearsSession(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SignUp(ctx, "karabo@sky266.example", "pa55word!", "Karabo", model.Driver, "")
	require.NoError(t, err)

	require.NoError(t, repo.SignOut(ctx))

	_, err = repo.CurrentUser()
	assert.ErrorIs(t, err, util.ErrNoActiveSession)
}

func TestUpdateProgressDerivesOverall(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.SignUp(ctx, "palesa@sky266.example", "pa55word!", "Palesa", model.Driver, "")
	require.NoError(t, err)

	one := 1
	p, err := repo.UpdateTrainingProgress(ctx, user.ID, ProgressUpdate{VideosCompleted: &one})
	require.NoError(t, err)
	// round((1/25 + 0/25) / 2 * 100) = 2
	assert.Equal(t, 2, p.OverallProgress)
	assert.Equal(t, 1, p.VideosCompleted)

	// untouched fields survive the partial merge
	assert.Equal(t, 25, p.TotalQuizzes)
	assert.Equal(t, model.Beginner, p.CurrentLevel)
}

func TestUpdateProgressClampsCounts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.SignUp(ctx, "tumelo@sky266.example", "pa55word!", "Tumelo", model.Driver, "")
	require.NoError(t, err)

	over := 40
	negative := -3
	p, err := repo.UpdateTrainingProgress(ctx, user.ID, ProgressUpdate{
		VideosCompleted: &over,
		QuizzesPassed:   &negative,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, p.VideosCompleted)
	assert.Equal(t, 0, p.QuizzesPassed)
	assert.Equal(t, 50, p.OverallProgress)
}

func TestRecordVideoCompletionClampsAtTotal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.SignUp(ctx, "dikeledi@sky266.example", "pa55word!", "Dikeledi", model.Driver, "")
	require.NoError(t, err)

	full := 25
	_, err = repo.UpdateTrainingProgress(ctx, user.ID, ProgressUpdate{VideosCompleted: &full})
	require.NoError(t, err)

	p, err := repo.RecordVideoCompletion(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, p.VideosCompleted)
}

func TestRecordQuizCompletionFailedIsNoop(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.SignUp(ctx, "mpho@sky266.example", "pa55word!", "Mpho", model.Driver, "")
	require.NoError(t, err)

	p, err := repo.RecordQuizCompletion(ctx, user.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, p.QuizzesPassed)

	p, err = repo.RecordQuizCompletion(ctx, user.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, p.QuizzesPassed)
}

func TestAddCertificateCountsFromListLength(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.SignUp(ctx, "refiloe@sky266.example", "pa55word!", "Refiloe", model.Driver, "")
	require.NoError(t, err)

	first, err := repo.AddCertificate(ctx, model.Certificate{
		UserID: user.ID,
		Title:  "Phishing Awareness",
		Score:  90,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.ValidUntil.IsZero())

	second, err := repo.AddCertificate(ctx, model.Certificate{
		UserID: user.ID,
		Title:  "Password Hygiene",
		Score:  85,
	})
	require.NoError(t, err)

	certs, err := repo.GetCertificates(user.ID)
	require.NoError(t, err)
	require.Len(t, certs, 2)
	// newest first
	assert.Equal(t, second.ID, certs[0].ID)
	assert.Equal(t, first.ID, certs[1].ID)

	p, err := repo.GetTrainingProgress(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.CertificatesEarned)
}

func TestGetAllUsersProgressExcludesManagers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	driver, err := repo.SignUp(ctx, "driver@sky266.example", "pa55word!", "Driver", model.Driver, "")
	require.NoError(t, err)
	_, err = repo.SignUp(ctx, "boss@sky266.example", "pa55word!", "Boss", model.Manager, "Ops")
	require.NoError(t, err)

	rows, err := repo.GetAllUsersProgress(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, driver.ID, rows[0].User.ID)
	require.NotNil(t, rows[0].TrainingProgress)
	assert.Equal(t, model.Beginner, rows[0].TrainingProgress.CurrentLevel)
}

func TestDeleteUserByIDCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mgr, err := repo.SignUp(ctx, "boss@sky266.example", "pa55word!", "Boss", model.Manager, "Ops")
	require.NoError(t, err)
	_, err = repo.AddCertificate(ctx, model.Certificate{UserID: mgr.ID, Title: "Phishing Awareness", Score: 80})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteUserByID(mgr.ID))

	_, err = repo.GetUser(mgr.ID)
	assert.ErrorIs(t, err, util.ErrUserNotFound)

	certs, err := repo.GetCertificates(mgr.ID)
	require.NoError(t, err)
	assert.Empty(t, certs)

	count, err := repo.GetManagerCount()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// the deleted user was the active session
	_, err = repo.CurrentUser()
	assert.ErrorIs(t, err, util.ErrNoActiveSession)
}

func TestDeleteAllUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SignUp(ctx, "a@sky266.example", "pa55word!", "A", model.Driver, "")
	require.NoError(t, err)
	_, err = repo.SignUp(ctx, "b@sky266.example", "pa55word!", "B", model.Manager, "Ops")
	require.NoError(t, err)

	require.NoError(t, repo.DeleteAllUsers())

	users, err := repo.GetAllUsers()
	require.NoError(t, err)
	assert.Empty(t, users)

	count, err := repo.GetManagerCount()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = repo.CurrentUser()
	assert.ErrorIs(t, err, util.ErrNoActiveSession)
}

func TestUpdateUserPartialFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.SignUp(ctx, "kea@sky266.example", "pa55word!", "Kea", model.BookingAgent, "Bookings")
	require.NoError(t, err)

	name := "Keabetswe"
	updated, err := repo.UpdateUser(user.ID, UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Keabetswe", updated.Name)
	assert.Equal(t, "Bookings", updated.Department)
	assert.Equal(t, model.BookingAgent, updated.Role)

	current, err := repo.CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, "Keabetswe", current.Name)
}

func TestSecurityAlertFeed(t *testing.T) {
	repo := newTestRepo(t)

	alerts, err := repo.GetSecurityAlerts()
	require.NoError(t, err)
	assert.Empty(t, alerts)

	first, err := repo.AddSecurityAlert(model.SecurityAlert{Type: "warning", Title: "Phishing wave", Description: "Fake invoice mails"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, first.Date)

	second, err := repo.AddSecurityAlert(model.SecurityAlert{Type: "info", Title: "Patch window", Description: "Friday 18:00"})
	require.NoError(t, err)

	alerts, err = repo.GetSecurityAlerts()
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, second.ID, alerts[0].ID)
}

// fakeBackend drives the remote-first paths without a database.
type fakeBackend struct {
	signInUser *model.User
	signInErr  error
	upsertErr  error
	calls      int
}

func (f *fakeBackend) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	f.calls++
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.signInUser, nil
}

func (f *fakeBackend) SignOut(ctx context.Context) error { return nil }

func (f *fakeBackend) UpsertProgress(ctx context.Context, p *model.TrainingProgress) (*model.TrainingProgress, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	stored := *p
	return &stored, nil
}

func (f *fakeBackend) InsertCertificate(ctx context.Context, cert *model.Certificate) (int, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeBackend) ListProgress(ctx context.Context) ([]model.UserProgress, error) {
	return nil, errors.New("not implemented")
}

func TestSignInFallsBackToLocalOnBackendError(t *testing.T) {
	store := kvstore.NewMemStore()
	repo := NewTrainingRepository(store, nil, testConfig())
	ctx := context.Background()

	_, err := repo.SignUp(ctx, "local@sky266.example", "pa55word!", "Local", model.Driver, "")
	require.NoError(t, err)

	backend := &fakeBackend{signInErr: errors.New("connection refused")}
	repo = NewTrainingRepository(store, backend, testConfig())

	user, err := repo.SignIn(ctx, "local@sky266.example", "pa55word!")
	require.NoError(t, err)
	assert.Equal(t, "local@sky266.example", user.Email)
	assert.Equal(t, 1, backend.calls)
}

func TestSignInEmailNotVerifiedDoesNotFallBack(t *testing.T) {
	store := kvstore.NewMemStore()
	repo := NewTrainingRepository(store, nil, testConfig())
	ctx := context.Background()

	_, err := repo.SignUp(ctx, "pending@sky266.example", "pa55word!", "Pending", model.Driver, "")
	require.NoError(t, err)

	backend := &fakeBackend{signInErr: util.ErrEmailNotVerified}
	repo = NewTrainingRepository(store, backend, testConfig())

	_, err = repo.SignIn(ctx, "pending@sky266.example", "pa55word!")
	assert.ErrorIs(t, err, util.ErrEmailNotVerified)
}

func TestUpdateProgressNotifiesListener(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.SignUp(ctx, "listen@sky266.example", "pa55word!", "Listen", model.Driver, "")
	require.NoError(t, err)

	var gotID string
	var gotVideos int
	repo.SetProgressListener(func(userID string, p *model.TrainingProgress) {
		gotID = userID
		gotVideos = p.VideosCompleted
	})

	three := 3
	_, err = repo.UpdateTrainingProgress(ctx, user.ID, ProgressUpdate{VideosCompleted: &three})
	require.NoError(t, err)

	assert.Equal(t, user.ID, gotID)
	assert.Equal(t, 3, gotVideos)
}

func TestConcurrentManagerSignUpsHonorLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.SignUp(ctx, fmt.Sprintf("race-mgr%d@sky266.example", i), "pa55word!", "Manager", model.Manager, "Ops")
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
		} else {
			assert.ErrorIs(t, err, util.ErrManagerLimit)
		}
	}
	assert.Equal(t, model.ManagerLimit, created)

	count, err := repo.GetManagerCount()
	require.NoError(t, err)
	assert.Equal(t, model.ManagerLimit, count)
}

func TestConcurrentSignUpsSameEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.SignUp(ctx, "shared@sky266.example", "pa55word!", "Shared", model.Driver, "Fleet")
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
		} else {
			assert.ErrorIs(t, err, util.ErrDuplicateEmail)
		}
	}
	assert.Equal(t, 1, created)

	users, err := repo.GetAllUsers()
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

// countingStore counts reads of the manager counter.
type countingStore struct {
	kvstore.Store
	counterReads int
}

func (s *countingStore) Get(key string) (string, error) {
	if key == managerCountKey {
		s.counterReads++
	}
	return s.Store.Get(key)
}

func TestSignUpReadsManagerCounterOnce(t *testing.T) {
	store := &countingStore{Store: kvstore.NewMemStore()}
	repo := NewTrainingRepository(store, nil, testConfig())
	ctx := context.Background()

	_, err := repo.SignUp(ctx, "mgr@sky266.example", "pa55word!", "Manager", model.Manager, "Ops")
	require.NoError(t, err)

	// the limit check and the increment share one read, so a failed
	// re-read can never reset the counter
	assert.Equal(t, 1, store.counterReads)

	count, err := repo.GetManagerCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
