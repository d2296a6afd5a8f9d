// Package controller exposes the drive over HTTP and maps the service
// error taxonomy onto status codes.
package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-drive/internal/web/drive/service"
)

type Type struct {
	auth        *service.Auth
	writer      *service.Writer
	reader      *service.Reader
	transporter *service.Transporter
}

func New(auth *service.Auth, writer *service.Writer, reader *service.Reader, transporter *service.Transporter) *Type {
	return &Type{
		auth:        auth,
		writer:      writer,
		reader:      reader,
		transporter: transporter,
	}
}

var Instance *Type

func Initialize(ctx context.Context) {
	service.Initialize(ctx)

	Instance = New(
		service.InstanceAuth,
		service.InstanceWriter,
		service.InstanceReader,
		service.InstanceTransporter,
	)
}

// RegisterRoutes mounts the drive API under grp.
func RegisterRoutes(grp *gin.RouterGroup) {
	grp.POST("/auth/signup", Instance.Signup)
	grp.POST("/auth/signin", Instance.Signin)

	authed := grp.Group("", Instance.RequireUser)
	authed.GET("/entries", Instance.ListEntries)
	authed.POST("/directories", Instance.CreateDirectory)
	authed.POST("/entries/:id/rename", Instance.RenameEntry)
	authed.DELETE("/entries", Instance.DeleteEntries)
	authed.POST("/upload", Instance.UploadFile)
	authed.POST("/download", Instance.DownloadArchive)
	authed.GET("/entries/:id/url", Instance.FileURL)
}

const codeSuccess = "SUCCESS"

// response is the uniform result envelope of every drive endpoint.
type response struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, response{Code: codeSuccess, Data: data})
}

func respondErr(c *gin.Context, err error) {
	code := service.CodeOf(err)
	c.AbortWithStatusJSON(httpStatusOf(code), response{
		Code:    string(code),
		Message: err.Error(),
	})
}

func respondBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, response{
		Code:    string(service.ErrCodeInvalidArguments),
		Message: err.Error(),
	})
}

func httpStatusOf(code service.ErrorCode) int {
	switch code {
	case service.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case service.ErrCodeInvalidArguments:
		return http.StatusBadRequest
	case service.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
