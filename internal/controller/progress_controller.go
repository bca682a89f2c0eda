package controller

import (
	"io"

	"sky266_backend/internal/model"
	"sky266_backend/internal/repository"
	"sky266_backend/internal/service"
	"sky266_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	Session *service.SessionService
	Repo    *repository.TrainingRepository
}

func NewProgressController(session *service.SessionService, repo *repository.TrainingRepository) *ProgressController {
	return &ProgressController{Session: session, Repo: repo}
}

// GetProgress godoc
// @Summary Training progress of the signed-in user
// @Tags progress
// @Produce  json
// @Success 200 {object} util.Response{data=model.TrainingProgress} "progress"
// @Security ApiKeyAuth
// @Router /api/progress [get]
func (c *ProgressController) GetProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.Repo.GetTrainingProgress(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// UpdateProgressRequest is a partial merge; omitted fields stay untouched.
type UpdateProgressRequest struct {
	VideosCompleted *int                 `json:"videos_completed"`
	TotalVideos     *int                 `json:"total_videos"`
	QuizzesPassed   *int                 `json:"quizzes_passed"`
	TotalQuizzes    *int                 `json:"total_quizzes"`
	CurrentLevel    *model.Level         `json:"current_level"`
	LevelProgress   *model.LevelProgress `json:"level_progress"`
}

// UpdateProgress godoc
// @Summary Merge a partial progress update
// @Description Counts are clamped, the overall percentage is re-derived and a level-up is evaluated
// @Tags progress
// @Accept  json
// @Produce  json
// @Param   body body UpdateProgressRequest true "partial update"
// @Success 200 {object} util.Response{data=model.TrainingProgress} "merged progress"
// @Security ApiKeyAuth
// @Router /api/progress [patch]
func (c *ProgressController) UpdateProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UpdateProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	progress, err := c.Session.UpdateProgressFor(claims.UserID, repository.ProgressUpdate{
		VideosCompleted: req.VideosCompleted,
		TotalVideos:     req.TotalVideos,
		QuizzesPassed:   req.QuizzesPassed,
		TotalQuizzes:    req.TotalQuizzes,
		CurrentLevel:    req.CurrentLevel,
		LevelProgress:   req.LevelProgress,
	})
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

type VideoCompletionRequest struct {
	Title string `json:"title" binding:"required"`
}

// CompleteVideo godoc
// @Summary Mark a training video as watched
// @Tags progress
// @Accept  json
// @Produce  json
// @Param   body body VideoCompletionRequest true "video"
// @Success 200 {object} util.Response{data=model.TrainingProgress} "updated progress"
// @Security ApiKeyAuth
// @Router /api/progress/videos [post]
func (c *ProgressController) CompleteVideo(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req VideoCompletionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	progress, err := c.Session.MarkVideoCompletedFor(claims.UserID, req.Title)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

type QuizCompletionRequest struct {
	Title    string `json:"title" binding:"required"`
	Category string `json:"category"`
	Score    *int   `json:"score" binding:"required,min=0,max=100"`
	Passed   bool   `json:"passed"`
}

// CompleteQuiz godoc
// @Summary Record a quiz attempt
// @Description A passed quiz bumps quizzes_passed and issues a certificate; a failed one leaves progress unchanged
// @Tags progress
// @Accept  json
// @Produce  json
// @Param   body body QuizCompletionRequest true "quiz result"
// @Success 200 {object} util.Response{data=object} "progress and certificate"
// @Security ApiKeyAuth
// @Router /api/progress/quizzes [post]
func (c *ProgressController) CompleteQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req QuizCompletionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if !req.Passed {
		progress, err := c.Repo.GetTrainingProgress(claims.UserID)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		util.Success(ctx, gin.H{"progress": progress, "certificate": nil})
		return
	}

	cert, err := c.Session.MarkQuizPassedFor(ctx.Request.Context(), claims.UserID, req.Title, req.Category, *req.Score)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	progress, err := c.Repo.GetTrainingProgress(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"progress": progress, "certificate": cert})
}

type ActivityRequest struct {
	Title  string `json:"title" binding:"required"`
	Status string `json:"status" binding:"required,oneof=Passed Completed Pending"`
	Time   string `json:"time"`
	Type   string `json:"type" binding:"required,oneof=success info warning"`
}

// AddActivity godoc
// @Summary Append to the recent-activity feed
// @Description The feed keeps the five newest entries, newest first
// @Tags progress
// @Accept  json
// @Produce  json
// @Param   body body ActivityRequest true "activity"
// @Success 200 {object} util.Response{data=model.TrainingProgress} "updated progress"
// @Security ApiKeyAuth
// @Router /api/progress/activities [post]
func (c *ProgressController) AddActivity(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ActivityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	progress, err := c.Session.AddActivityFor(claims.UserID, model.Activity{
		Title:  req.Title,
		Status: model.ActivityStatus(req.Status),
		Time:   req.Time,
		Type:   req.Type,
	})
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// StreamProgress godoc
// @Summary Server-sent progress events
// @Description Streams every progress mutation broadcast in this process; a late subscriber misses earlier events
// @Tags progress
// @Produce  text/event-stream
// @Security ApiKeyAuth
// @Router /api/progress/stream [get]
func (c *ProgressController) StreamProgress(ctx *gin.Context) {
	sub := c.Session.Subscribe()
	defer sub.Close()

	ctx.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return false
			}
			ctx.SSEvent("progress", ev)
			return true
		case <-ctx.Request.Context().Done():
			return false
		}
	})
}
