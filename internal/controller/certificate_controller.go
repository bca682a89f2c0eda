package controller

import (
	"net/http"

	"sky266_backend/internal/repository"
	"sky266_backend/internal/service"
	"sky266_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	Repo    *repository.TrainingRepository
	Storage *service.StorageService
}

func NewCertificateController(repo *repository.TrainingRepository, storage *service.StorageService) *CertificateController {
	return &CertificateController{Repo: repo, Storage: storage}
}

// ListCertificates godoc
// @Summary Certificates earned by the signed-in user
// @Tags certificates
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Certificate} "certificates, newest first"
// @Security ApiKeyAuth
// @Router /api/certificates [get]
func (c *CertificateController) ListCertificates(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	certs, err := c.Repo.GetCertificates(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, certs)
}

// DownloadCertificate godoc
// @Summary Download a certificate as a text document
// @Tags certificates
// @Produce  text/plain
// @Param   id path string true "certificate id"
// @Success 200 {string} string "certificate document"
// @Security ApiKeyAuth
// @Router /api/certificates/{id}/download [get]
func (c *CertificateController) DownloadCertificate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	certs, err := c.Repo.GetCertificates(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	id := ctx.Param("id")
	for i := range certs {
		if certs[i].ID != id {
			continue
		}
		filename, content := service.RenderCertificate(&certs[i])
		ctx.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
		ctx.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
		return
	}
	util.Error(ctx, http.StatusNotFound, "Certificate not found")
}

// ExportCertificate godoc
// @Summary Export a certificate document to configured storage
// @Description Writes the rendered document to local or object storage and returns its URL
// @Tags certificates
// @Produce  json
// @Param   id path string true "certificate id"
// @Success 200 {object} util.Response{data=object} "export url"
// @Security ApiKeyAuth
// @Router /api/certificates/{id}/export [post]
func (c *CertificateController) ExportCertificate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	certs, err := c.Repo.GetCertificates(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	id := ctx.Param("id")
	for i := range certs {
		if certs[i].ID != id {
			continue
		}
		filename, content := service.RenderCertificate(&certs[i])
		url, err := c.Storage.ExportDocument(ctx.Request.Context(), filename, content)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		util.Success(ctx, gin.H{"filename": filename, "url": url})
		return
	}
	util.Error(ctx, http.StatusNotFound, "Certificate not found")
}
