package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"sky266_backend/internal/config"
	"sky266_backend/internal/model"
	"sky266_backend/internal/repository"
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

func newTestSession(t *testing.T) (*SessionService, *repository.TrainingRepository) {
	t.Helper()
	cfg := testConfig()
	repo := repository.NewTrainingRepository(kvstore.NewMemStore(), nil, cfg)

	_, err := repo.SignUp(context.Background(), "thabo@sky266.example", "pa55word!", "Thabo", model.Driver, "Fleet")
	require.NoError(t, err)

	// sign-up persisted the active-session marker; construction restores it
	session := NewSessionService(repo, cfg, NewProgressBus())
	require.NotNil(t, session.User())
	return session, repo
}

func TestSessionStartsUnauthenticated(t *testing.T) {
	cfg := testConfig()
	repo := repository.NewTrainingRepository(kvstore.NewMemStore(), nil, cfg)
	session := NewSessionService(repo, cfg, NewProgressBus())

	assert.Nil(t, session.User())
	assert.Equal(t, model.Beginner, session.CurrentLevel())
	assert.Equal(t, 25, session.Progress().TotalVideos)

	_, err := session.UpdateProgress(repository.ProgressUpdate{})
	assert.ErrorIs(t, err, util.ErrNoActiveSession)
}

func TestUpdateProgressOverallFormula(t *testing.T) {
	session, _ := newTestSession(t)

	one := 1
	p, err := session.UpdateProgress(repository.ProgressUpdate{VideosCompleted: &one})
	require.NoError(t, err)
	// round((1/25 + 0/25) / 2 * 100) = 2
	assert.Equal(t, 2, p.OverallProgress)

	full := 25
	p, err = session.UpdateProgress(repository.ProgressUpdate{
		VideosCompleted: &full,
		QuizzesPassed:   &full,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, p.OverallProgress)
}

func TestUpdateProgressZeroTotalsDoNotDivide(t *testing.T) {
	session, _ := newTestSession(t)

	zero := 0
	five := 5
	p, err := session.UpdateProgress(repository.ProgressUpdate{
		TotalVideos:   &zero,
		TotalQuizzes:  &zero,
		QuizzesPassed: &five,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, p.OverallProgress)
}

func TestLevelUpSingleStepAndReset(t *testing.T) {
	session, _ := newTestSession(t)

	lp := model.LevelProgress{Videos: 5, Quizzes: 5}
	p, err := session.UpdateProgress(repository.ProgressUpdate{LevelProgress: &lp})
	require.NoError(t, err)
	assert.Equal(t, model.Intermediate, p.CurrentLevel)
	assert.Equal(t, model.LevelProgress{}, p.LevelProgress)

	// well past both thresholds still advances exactly one level
	lp = model.LevelProgress{Videos: 20, Quizzes: 20}
	p, err = session.UpdateProgress(repository.ProgressUpdate{LevelProgress: &lp})
	require.NoError(t, err)
	assert.Equal(t, model.Advanced, p.CurrentLevel)
	assert.Equal(t, model.LevelProgress{}, p.LevelProgress)
}

func TestLevelUpRequiresBothThresholds(t *testing.T) {
	session, _ := newTestSession(t)

	lp := model.LevelProgress{Videos: 5, Quizzes: 4}
	p, err := session.UpdateProgress(repository.ProgressUpdate{LevelProgress: &lp})
	require.NoError(t, err)
	assert.Equal(t, model.Beginner, p.CurrentLevel)
	assert.Equal(t, lp, p.LevelProgress)
}

func TestProfessionalIsTerminal(t *testing.T) {
	session, _ := newTestSession(t)

	pro := model.Professional
	lp := model.LevelProgress{Videos: 5, Quizzes: 5}
	p, err := session.UpdateProgress(repository.ProgressUpdate{
		CurrentLevel:  &pro,
		LevelProgress: &lp,
	})
	require.NoError(t, err)
	assert.Equal(t, model.Professional, p.CurrentLevel)
	// no advancement happened, so the counters were not reset
	assert.Equal(t, lp, p.LevelProgress)
}

func TestMarkVideoCompletedRecordsActivity(t *testing.T) {
	session, _ := newTestSession(t)

	p, err := session.MarkVideoCompleted("Spotting Phishing Mails")
	require.NoError(t, err)
	assert.Equal(t, 1, p.VideosCompleted)
	assert.Equal(t, 1, p.LevelProgress.Videos)
	require.NotEmpty(t, p.RecentActivities)
	assert.Equal(t, "Spotting Phishing Mails", p.RecentActivities[0].Title)
	assert.Equal(t, model.ActivityCompleted, p.RecentActivities[0].Status)
}

func TestMarkQuizPassedIssuesCertificate(t *testing.T) {
	session, _ := newTestSession(t)

	cert, err := session.MarkQuizPassed(context.Background(), "Password Hygiene", "passwords", 92)
	require.NoError(t, err)
	require.NotNil(t, cert)
	assert.Equal(t, "Password Hygiene", cert.Title)
	assert.Equal(t, 92, cert.Score)
	assert.False(t, cert.ValidUntil.IsZero())

	p := session.Progress()
	assert.Equal(t, 1, p.QuizzesPassed)
	assert.Equal(t, 1, p.LevelProgress.Quizzes)
	assert.Equal(t, 1, p.CertificatesEarned)
	require.NotEmpty(t, p.RecentActivities)
	assert.Equal(t, model.ActivityPassed, p.RecentActivities[0].Status)

	certs, err := session.Certificates()
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, cert.ID, certs[0].ID)
}

func TestRecentActivitiesCappedNewestFirst(t *testing.T) {
	session, _ := newTestSession(t)

	titles := []string{"one", "two", "three", "four", "five", "six", "seven"}
	for _, title := range titles {
		_, err := session.AddActivity(model.Activity{
			Title:  title,
			Status: model.ActivityCompleted,
			Type:   "info",
		})
		require.NoError(t, err)
	}

	p := session.Progress()
	require.Len(t, p.RecentActivities, model.RecentActivityLimit)
	assert.Equal(t, "seven", p.RecentActivities[0].Title)
	assert.Equal(t, "three", p.RecentActivities[4].Title)
}

func TestProgressBroadcast(t *testing.T) {
	session, _ := newTestSession(t)

	sub := session.Subscribe()
	defer sub.Close()

	one := 1
	_, err := session.UpdateProgress(repository.ProgressUpdate{VideosCompleted: &one})
	require.NoError(t, err)

	select {
	case ev := <-sub.C:
		assert.Equal(t, session.User().ID, ev.UserID)
		assert.Equal(t, 1, ev.Progress.VideosCompleted)
	case <-time.After(time.Second):
		t.Fatal("no progress event received")
	}
}

func TestLateSubscriberMissesEarlierEvents(t *testing.T) {
	session, _ := newTestSession(t)

	one := 1
	_, err := session.UpdateProgress(repository.ProgressUpdate{VideosCompleted: &one})
	require.NoError(t, err)

	sub := session.Subscribe()
	defer sub.Close()

	select {
	case <-sub.C:
		t.Fatal("late subscriber should not see earlier events")
	default:
	}
}

func TestHandleExternalUpdateReconciles(t *testing.T) {
	session, _ := newTestSession(t)
	userID := session.User().ID

	session.HandleExternalUpdate(userID, &model.TrainingProgress{
		UserID:          userID,
		VideosCompleted: 7,
		TotalVideos:     25,
		TotalQuizzes:    25,
	})
	assert.Equal(t, 7, session.Progress().VideosCompleted)

	// a different user's event leaves the session untouched
	session.HandleExternalUpdate("user_other", &model.TrainingProgress{VideosCompleted: 99})
	assert.Equal(t, 7, session.Progress().VideosCompleted)
}

func TestSetUserNilResetsSession(t *testing.T) {
	session, _ := newTestSession(t)

	one := 1
	_, err := session.UpdateProgress(repository.ProgressUpdate{VideosCompleted: &one})
	require.NoError(t, err)

	require.NoError(t, session.SetUser(nil))
	assert.Nil(t, session.User())
	assert.Equal(t, 0, session.Progress().VideosCompleted)
	assert.Equal(t, model.Beginner, session.CurrentLevel())
}

func TestProgressSurvivesSessionSwitch(t *testing.T) {
	session, repo := newTestSession(t)
	first := session.User()

	three := 3
	_, err := session.UpdateProgress(repository.ProgressUpdate{VideosCompleted: &three})
	require.NoError(t, err)

	second, err := repo.SignUp(context.Background(), "lerato@sky266.example", "pa55word!", "Lerato", model.BookingAgent, "Bookings")
	require.NoError(t, err)
	require.NoError(t, session.SetUser(second))
	assert.Equal(t, 0, session.Progress().VideosCompleted)

	require.NoError(t, session.SetUser(first))
	assert.Equal(t, 3, session.Progress().VideosCompleted)
}

func TestToggleLanguage(t *testing.T) {
	session, _ := newTestSession(t)

	assert.Equal(t, "en", session.Language())
	assert.Equal(t, "st", session.ToggleLanguage())
	assert.Equal(t, "en", session.ToggleLanguage())
}

func TestRenderCertificate(t *testing.T) {
	earned := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	filename, content := RenderCertificate(&model.Certificate{
		Title:       "Phishing Awareness",
		Description: "Awarded for passing the Phishing Awareness quiz with a score of 90%.",
		DateEarned:  earned,
		Score:       90,
		ValidUntil:  earned.Add(model.CertificateValidity),
		Category:    "phishing",
	})

	assert.Equal(t, "Phishing_Awareness_certificate.txt", filename)
	assert.Contains(t, content, "Sky266 Cybersecurity Certificate")
	assert.Contains(t, content, "Title: Phishing Awareness")
	assert.Contains(t, content, "Score: 90%")
	assert.Contains(t, content, "Valid Until: 2027-03-10")
	assert.Contains(t, content, "This is to certify that the holder has completed the required training.")
}

func TestMutationForOtherUserLeavesSessionUntouched(t *testing.T) {
	session, repo := newTestSession(t)
	active := session.User()

	other, err := repo.SignUp(context.Background(), "lerato@sky266.example", "pa55word!", "Lerato", model.BookingAgent, "Bookings")
	require.NoError(t, err)

	p, err := session.MarkVideoCompletedFor(other.ID, "Phishing Basics")
	require.NoError(t, err)
	assert.Equal(t, other.ID, p.UserID)
	assert.Equal(t, 1, p.VideosCompleted)

	// the signed-in user's session and stored record are untouched
	assert.Equal(t, active.ID, session.User().ID)
	assert.Equal(t, 0, session.Progress().VideosCompleted)
	stored, err := repo.GetTrainingProgress(active.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.VideosCompleted)

	// the other user's stored record carries the mutation
	stored, err = repo.GetTrainingProgress(other.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.VideosCompleted)
	require.Len(t, stored.RecentActivities, 1)
	assert.Equal(t, "Phishing Basics", stored.RecentActivities[0].Title)
}

func TestUpdateProgressForDerivesLikeActiveUser(t *testing.T) {
	session, repo := newTestSession(t)

	other, err := repo.SignUp(context.Background(), "sipho@sky266.example", "pa55word!", "Sipho", model.Driver, "Fleet")
	require.NoError(t, err)

	five := 5
	p, err := session.UpdateProgressFor(other.ID, repository.ProgressUpdate{
		VideosCompleted: &five,
		QuizzesPassed:   &five,
		LevelProgress:   &model.LevelProgress{Videos: 5, Quizzes: 5},
	})
	require.NoError(t, err)

	// the level-up and overall derivation apply off-session too
	assert.Equal(t, model.Intermediate, p.CurrentLevel)
	assert.Equal(t, model.LevelProgress{}, p.LevelProgress)
	// round((5/25 + 5/25) / 2 * 100) = 20
	assert.Equal(t, 20, p.OverallProgress)
	assert.Equal(t, model.Beginner, session.CurrentLevel())
}

func TestConcurrentVideoCompletionsCountEachOne(t *testing.T) {
	session, repo := newTestSession(t)
	user := session.User()

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := session.MarkVideoCompletedFor(user.ID, "Password Hygiene")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, n, session.Progress().VideosCompleted)
	stored, err := repo.GetTrainingProgress(user.ID)
	require.NoError(t, err)
	assert.Equal(t, n, stored.VideosCompleted)
}
