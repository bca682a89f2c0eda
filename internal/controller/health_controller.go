package controller

import (
	"net/http"

	"sky266_backend/internal/util"
	"sky266_backend/pkg/kvstore"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	Store kvstore.Store
	DB    *gorm.DB
	Redis *redis.Client
}

func NewHealthController(store kvstore.Store, db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{Store: store, DB: db, Redis: rdb}
}

// HealthCheck godoc
// @Summary Service health
// @Description Probes the key-value store and, when configured, the remote mirror and cache
// @Tags system
// @Produce  json
// @Success 200 {object} util.Response "component status"
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	components := gin.H{}

	if _, err := c.Store.Keys(); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Store unavailable")
		return
	}
	components["store"] = "up"

	if c.DB != nil {
		components["database"] = "up"
		if sqlDB, err := c.DB.DB(); err != nil || sqlDB.Ping() != nil {
			components["database"] = "down"
		}
	}

	if c.Redis != nil {
		components["cache"] = "up"
		if err := c.Redis.Ping(ctx.Request.Context()).Err(); err != nil {
			components["cache"] = "down"
		}
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
