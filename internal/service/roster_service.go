package service

import (
	"context"
	"encoding/json"
	"time"

	"sky266_backend/internal/config"
	"sky266_backend/internal/model"
	"sky266_backend/internal/repository"
	"sky266_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const rosterCacheKey = "sky266:roster"

// RosterService serves the manager dashboard: every non-manager user
// joined with their training progress. The roster is cached in Redis for a
// short TTL and invalidated whenever a progress event is broadcast, so an
// open dashboard stays close to live without hammering the store.
type RosterService struct {
	Repo     *repository.TrainingRepository
	Redis    *redis.Client // nil disables caching
	cacheTTL time.Duration
}

func NewRosterService(repo *repository.TrainingRepository, rdb *redis.Client, cfg *config.Config, bus *ProgressBus) *RosterService {
	s := &RosterService{
		Repo:     repo,
		Redis:    rdb,
		cacheTTL: time.Duration(cfg.Training.RosterCacheSeconds) * time.Second,
	}

	if rdb != nil {
		sub := bus.Subscribe()
		go func() {
			for range sub.C {
				if err := rdb.Del(context.Background(), rosterCacheKey).Err(); err != nil {
					logger.Log.Warn("roster cache invalidation failed", zap.Error(err))
				}
			}
		}()
	}
	return s
}

func (s *RosterService) GetAllUsersProgress(ctx context.Context) ([]model.UserProgress, error) {
	if s.Redis != nil {
		if raw, err := s.Redis.Get(ctx, rosterCacheKey).Result(); err == nil {
			var rows []model.UserProgress
			if err := json.Unmarshal([]byte(raw), &rows); err == nil {
				return rows, nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("roster cache read failed", zap.Error(err))
		}
	}

	rows, err := s.Repo.GetAllUsersProgress(ctx)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if raw, err := json.Marshal(rows); err == nil {
			if err := s.Redis.Set(ctx, rosterCacheKey, raw, s.cacheTTL).Err(); err != nil {
				logger.Log.Warn("roster cache write failed", zap.Error(err))
			}
		}
	}
	return rows, nil
}

func (s *RosterService) GetManagerCount() (int, error) {
	return s.Repo.GetManagerCount()
}
