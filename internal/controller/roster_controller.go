package controller

import (
	"sky266_backend/internal/service"
	"sky266_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RosterController struct {
	Roster *service.RosterService
}

func NewRosterController(roster *service.RosterService) *RosterController {
	return &RosterController{Roster: roster}
}

// GetRoster godoc
// @Summary Progress roster of all non-manager users
// @Description Manager accounts are excluded from the listing
// @Tags roster
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.UserProgress} "roster"
// @Security ApiKeyAuth
// @Router /api/roster [get]
func (c *RosterController) GetRoster(ctx *gin.Context) {
	roster, err := c.Roster.GetAllUsersProgress(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, roster)
}

// GetManagerCount godoc
// @Summary Number of registered manager accounts
// @Tags roster
// @Produce  json
// @Success 200 {object} util.Response{data=object} "count"
// @Router /api/managers/count [get]
func (c *RosterController) GetManagerCount(ctx *gin.Context) {
	count, err := c.Roster.GetManagerCount()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"count": count})
}
