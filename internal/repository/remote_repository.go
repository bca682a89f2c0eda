package repository

import (
	"context"
	"errors"
	"time"

	"sky266_backend/internal/model"
	"sky266_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RemoteRepository implements Backend over the company mirror database.
type RemoteRepository struct {
	DB *gorm.DB
}

func NewRemoteRepository(db *gorm.DB) *RemoteRepository {
	return &RemoteRepository{DB: db}
}

func (r *RemoteRepository) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if !user.EmailVerified {
		return nil, util.ErrEmailNotVerified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	user.LastActive = time.Now()
	if err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("last_active", user.LastActive).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *RemoteRepository) SignOut(ctx context.Context) error {
	// Remote sessions are owned by the identity provider; nothing to do.
	return nil
}

func (r *RemoteRepository) UpsertProgress(ctx context.Context, p *model.TrainingProgress) (*model.TrainingProgress, error) {
	p.LastUpdated = time.Now()
	if err := r.DB.WithContext(ctx).Save(p).Error; err != nil {
		return nil, err
	}

	var stored model.TrainingProgress
	if err := r.DB.WithContext(ctx).Where("user_id = ?", p.UserID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *RemoteRepository) InsertCertificate(ctx context.Context, cert *model.Certificate) (int, error) {
	var count int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(cert).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Certificate{}).
			Where("user_id = ?", cert.UserID).
			Count(&count).Error; err != nil {
			return err
		}
		return tx.Model(&model.TrainingProgress{}).
			Where("user_id = ?", cert.UserID).
			Update("certificates_earned", count).Error
	})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *RemoteRepository) ListProgress(ctx context.Context) ([]model.UserProgress, error) {
	var users []model.User
	if err := r.DB.WithContext(ctx).
		Where("role <> ?", model.Manager).
		Find(&users).Error; err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	var rows []model.TrainingProgress
	if len(ids) > 0 {
		if err := r.DB.WithContext(ctx).
			Where("user_id IN ?", ids).
			Find(&rows).Error; err != nil {
			return nil, err
		}
	}

	byUser := make(map[string]*model.TrainingProgress, len(rows))
	for i := range rows {
		byUser[rows[i].UserID] = &rows[i]
	}

	result := make([]model.UserProgress, 0, len(users))
	for _, u := range users {
		result = append(result, model.UserProgress{
			User:             u,
			TrainingProgress: byUser[u.ID],
		})
	}
	return result, nil
}
