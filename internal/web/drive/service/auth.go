package service

import (
	"context"
	"strconv"

	errors "github.com/Laisky/errors/v2"
	jwtLib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-drive/internal/web/drive/dao"
	"github.com/Laisky/laisky-drive/internal/web/drive/model"
	"github.com/Laisky/laisky-drive/library/jwt"
)

// Auth registers accounts and exchanges credentials for bearer tokens.
// Token validation itself happens at the HTTP boundary; the drive core
// only ever sees resolved owner ids.
type Auth struct {
	users *dao.Users
}

func NewAuth(users *dao.Users) *Auth {
	return &Auth{users: users}
}

// Signup creates an account with a bcrypt password hash.
func (s *Auth) Signup(ctx context.Context, email, password, displayName string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := &model.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.WithStack(NewError(ErrCodeInvalidArguments,
				"email already registered"))
		}
		return nil, errors.WithStack(err)
	}

	return user, nil
}

// Signin verifies credentials and issues a signed token whose subject
// is the user id.
func (s *Auth) Signin(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errors.WithStack(NewError(ErrCodeUnauthorized, "invalid credentials"))
		}
		return "", errors.WithStack(err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", errors.WithStack(NewError(ErrCodeUnauthorized, "invalid credentials"))
	}

	token, err := jwt.Sign(&jwt.UserClaims{
		RegisteredClaims: jwtLib.RegisteredClaims{
			Subject: strconv.FormatUint(user.ID, 10),
		},
		DisplayName: user.DisplayName,
	})
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	return token, nil
}
