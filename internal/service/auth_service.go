package service

import (
	"context"

	"sky266_backend/internal/config"
	"sky266_backend/internal/model"
	"sky266_backend/internal/repository"
	"sky266_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthService struct {
	Repo    *repository.TrainingRepository
	Session *SessionService
	Cfg     *config.Config
}

func NewAuthService(repo *repository.TrainingRepository, session *SessionService, cfg *config.Config) *AuthService {
	return &AuthService{
		Repo:    repo,
		Session: session,
		Cfg:     cfg,
	}
}

// SignUp registers the account, activates the session and issues a token.
func (s *AuthService) SignUp(ctx context.Context, email, password, name string, role model.UserRole, department string) (*model.User, string, error) {
	user, err := s.Repo.SignUp(ctx, email, password, name, role, department)
	if err != nil {
		return nil, "", err
	}

	if err := s.Session.SetUser(user); err != nil {
		return nil, "", err
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.Repo.SignIn(ctx, email, password)
	if err != nil {
		return nil, "", err
	}

	if err := s.Session.SetUser(user); err != nil {
		return nil, "", err
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) SignOut(ctx context.Context) error {
	if err := s.Repo.SignOut(ctx); err != nil {
		return err
	}
	return s.Session.SetUser(nil)
}

func (s *AuthService) GetCurrentUser(c *gin.Context) *model.User {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		return nil
	}

	user, err := s.Repo.GetUser(claims.UserID)
	if err != nil {
		return nil
	}
	return user
}
