package service

import (
	"sky266_backend/internal/model"
	"sky266_backend/internal/repository"
	"sky266_backend/pkg/logger"

	"go.uber.org/zap"
)

// AdminService wraps the destructive and roster-wide operations reserved
// for managers. Confirmation prompts are the frontend's concern; these are
// irreversible once called.
type AdminService struct {
	Repo    *repository.TrainingRepository
	Session *SessionService
}

func NewAdminService(repo *repository.TrainingRepository, session *SessionService) *AdminService {
	return &AdminService{Repo: repo, Session: session}
}

func (s *AdminService) GetAllUsers() ([]model.User, error) {
	return s.Repo.GetAllUsers()
}

func (s *AdminService) DeleteAllUsers() error {
	if err := s.Repo.DeleteAllUsers(); err != nil {
		return err
	}
	logger.Log.Info("all users deleted")
	return s.Session.SetUser(nil)
}

func (s *AdminService) DeleteUserByID(userID string) error {
	if err := s.Repo.DeleteUserByID(userID); err != nil {
		return err
	}
	logger.Log.Info("user deleted", zap.String("user_id", userID))

	if current := s.Session.User(); current != nil && current.ID == userID {
		return s.Session.SetUser(nil)
	}
	return nil
}

func (s *AdminService) GetSecurityAlerts() ([]model.SecurityAlert, error) {
	return s.Repo.GetSecurityAlerts()
}

func (s *AdminService) PublishSecurityAlert(alert model.SecurityAlert) (*model.SecurityAlert, error) {
	return s.Repo.AddSecurityAlert(alert)
}
