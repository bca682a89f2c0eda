package controller

import (
	"errors"

	"sky266_backend/internal/model"
	"sky266_backend/internal/repository"
	"sky266_backend/internal/service"
	"sky266_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
	Session     *service.SessionService
}

func NewAuthController(authService *service.AuthService, session *service.SessionService) *AuthController {
	return &AuthController{
		AuthService: authService,
		Session:     session,
	}
}

// swagger:model RegisterRequest
type RegisterRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Role       string `json:"role" binding:"required,oneof=driver booking-agent manager"`
	Department string `json:"department"`
}

// Register godoc
// @Summary Sign up a new employee
// @Description Creates the account with a zero-initialized training record and starts a session
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   body body RegisterRequest true "registration details"
// @Success 201 {object} util.Response{data=object} "created"
// @Failure 400 {object} util.Response "invalid request"
// @Failure 409 {object} util.Response "email already registered or manager limit reached"
// @Router /api/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, token, err := c.AuthService.SignUp(ctx.Request.Context(), req.Email, req.Password, req.Name, model.UserRole(req.Role), req.Department)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrDuplicateEmail), errors.Is(err, util.ErrManagerLimit):
			util.Error(ctx, 409, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"user": user, "token": token})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary Sign in
// @Description Remote-first authentication with transparent local fallback
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "credentials"
// @Success 200 {object} util.Response{data=object} "signed in"
// @Failure 401 {object} util.Response "invalid credentials"
// @Failure 403 {object} util.Response "email not verified"
// @Failure 404 {object} util.Response "unknown account"
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, token, err := c.AuthService.SignIn(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUserNotFound):
			util.Error(ctx, 404, err.Error())
		case errors.Is(err, util.ErrInvalidCredentials):
			util.Error(ctx, 401, err.Error())
		case errors.Is(err, util.ErrEmailNotVerified):
			util.Error(ctx, 403, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"user": user, "token": token})
}

// Logout godoc
// @Summary Sign out
// @Description Best-effort remote sign-out, then clears the active session
// @Tags auth
// @Produce  json
// @Success 200 {object} util.Response "signed out"
// @Security ApiKeyAuth
// @Router /api/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	if err := c.AuthService.SignOut(ctx.Request.Context()); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GetProfile godoc
// @Summary Current user profile with live training progress
// @Tags auth
// @Produce  json
// @Success 200 {object} util.Response{data=object} "profile"
// @Failure 401 {object} util.Response "unauthorized"
// @Security ApiKeyAuth
// @Router /api/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.AuthService.Repo.GetTrainingProgress(user.ID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	language := "en"
	if active := c.Session.User(); active != nil && active.ID == user.ID {
		language = c.Session.Language()
	}
	util.Success(ctx, gin.H{
		"user":     user,
		"progress": progress,
		"language": language,
	})
}

type UpdateProfileRequest struct {
	Name       *string `json:"name"`
	Department *string `json:"department"`
}

// UpdateProfile godoc
// @Summary Update profile fields
// @Description Name and department only; email and role are immutable
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   body body UpdateProfileRequest true "fields to change"
// @Success 200 {object} util.Response{data=model.User} "updated"
// @Security ApiKeyAuth
// @Router /api/profile [put]
func (c *AuthController) UpdateProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.AuthService.Repo.UpdateUser(claims.UserID, repository.UserUpdate{
		Name:       req.Name,
		Department: req.Department,
	})
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, user)
}

// ToggleLanguage godoc
// @Summary Toggle the portal language between en and st
// @Tags auth
// @Produce  json
// @Success 200 {object} util.Response{data=object} "new language"
// @Security ApiKeyAuth
// @Router /api/language [post]
func (c *AuthController) ToggleLanguage(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	// The language preference lives on the active session; a stale token
	// from an earlier sign-in must not flip it for the current user.
	if active := c.Session.User(); active == nil || active.ID != claims.UserID {
		util.Forbidden(ctx)
		return
	}
	util.Success(ctx, gin.H{"language": c.Session.ToggleLanguage()})
}
