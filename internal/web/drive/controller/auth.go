package controller

import (
	"strconv"
	"strings"

	errors "github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-drive/internal/web/drive/dto"
	"github.com/Laisky/laisky-drive/internal/web/drive/service"
	"github.com/Laisky/laisky-drive/library/jwt"
)

const ctxKeyUserID = "drive_user_id"

// RequireUser validates the bearer token and stores the resolved owner
// id for the handlers downstream.
func (t *Type) RequireUser(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		respondErr(c, service.NewError(service.ErrCodeUnauthorized, "missing bearer token"))
		return
	}

	uc := new(jwt.UserClaims)
	if err := jwt.ParseClaims(token, uc); err != nil {
		respondErr(c, service.NewError(service.ErrCodeUnauthorized, "invalid token"))
		return
	}

	uid, err := strconv.ParseUint(uc.Subject, 10, 64)
	if err != nil {
		respondErr(c, service.NewError(service.ErrCodeUnauthorized, "invalid token subject"))
		return
	}

	c.Set(ctxKeyUserID, uid)
	c.Next()
}

// currentUserID returns the owner id resolved by RequireUser.
func currentUserID(c *gin.Context) (uint64, error) {
	uid, ok := c.Get(ctxKeyUserID)
	if !ok {
		return 0, errors.WithStack(service.NewError(service.ErrCodeUnauthorized, "request is not authenticated"))
	}

	return uid.(uint64), nil
}

func (t *Type) Signup(c *gin.Context) {
	req := new(dto.SignupRequest)
	if err := c.ShouldBindJSON(req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user, err := t.auth.Signup(c, req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, gin.H{"id": user.ID})
}

func (t *Type) Signin(c *gin.Context) {
	req := new(dto.SigninRequest)
	if err := c.ShouldBindJSON(req); err != nil {
		respondBadRequest(c, err)
		return
	}

	token, err := t.auth.Signin(c, req.Email, req.Password)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, dto.TokenResponse{Token: token})
}
