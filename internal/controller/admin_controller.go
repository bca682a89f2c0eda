package controller

import (
	"errors"
	"net/http"

	"sky266_backend/internal/model"
	"sky266_backend/internal/service"
	"sky266_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Admin *service.AdminService
}

func NewAdminController(admin *service.AdminService) *AdminController {
	return &AdminController{Admin: admin}
}

// GetAllUsers godoc
// @Summary Every registered account, managers included
// @Tags admin
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.User} "users"
// @Security ApiKeyAuth
// @Router /api/admin/users [get]
func (c *AdminController) GetAllUsers(ctx *gin.Context) {
	users, err := c.Admin.GetAllUsers()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

// DeleteAllUsers godoc
// @Summary Remove every account and all associated training data
// @Description Resets the manager counter and clears the active session
// @Tags admin
// @Produce  json
// @Success 200 {object} util.Response "deleted"
// @Security ApiKeyAuth
// @Router /api/admin/users [delete]
func (c *AdminController) DeleteAllUsers(ctx *gin.Context) {
	if err := c.Admin.DeleteAllUsers(); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// DeleteUser godoc
// @Summary Remove a single account and its training data
// @Tags admin
// @Produce  json
// @Param   id path string true "user id"
// @Success 200 {object} util.Response "deleted"
// @Security ApiKeyAuth
// @Router /api/admin/users/{id} [delete]
func (c *AdminController) DeleteUser(ctx *gin.Context) {
	if err := c.Admin.DeleteUserByID(ctx.Param("id")); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.Error(ctx, http.StatusNotFound, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// GetSecurityAlerts godoc
// @Summary Active security alerts
// @Tags admin
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.SecurityAlert} "alerts"
// @Security ApiKeyAuth
// @Router /api/alerts [get]
func (c *AdminController) GetSecurityAlerts(ctx *gin.Context) {
	alerts, err := c.Admin.GetSecurityAlerts()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, alerts)
}

type SecurityAlertRequest struct {
	Type        string `json:"type" binding:"required,oneof=critical warning info success"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// PublishSecurityAlert godoc
// @Summary Publish a security alert to all users
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   body body SecurityAlertRequest true "alert"
// @Success 201 {object} util.Response{data=model.SecurityAlert} "published alert"
// @Security ApiKeyAuth
// @Router /api/alerts [post]
func (c *AdminController) PublishSecurityAlert(ctx *gin.Context) {
	var req SecurityAlertRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	alert, err := c.Admin.PublishSecurityAlert(model.SecurityAlert{
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, alert)
}
