package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/xxxsen/accord/internal/collab"
	"github.com/xxxsen/accord/internal/model"
	appErr "github.com/xxxsen/accord/internal/pkg/errors"
	"github.com/xxxsen/accord/internal/pkg/jwt"
	"github.com/xxxsen/accord/internal/pkg/password"
	"github.com/xxxsen/accord/internal/pkg/timeutil"
)

type AuthService struct {
	users     UserStore
	jwtSecret []byte
	jwtTTL    time.Duration
	validate  *validator.Validate
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func NewAuthService(users UserStore, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{users: users, jwtSecret: secret, jwtTTL: ttl, validate: newValidator()}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, string, error) {
	input.Email = collab.NormalizeIdentity(input.Email)
	if err := validateStruct(s.validate, input); err != nil {
		return nil, "", err
	}
	hash, err := password.Hash(input.Password)
	if err != nil {
		return nil, "", err
	}
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           newID(),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hash,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*model.User, string, error) {
	input.Email = collab.NormalizeIdentity(input.Email)
	if err := validateStruct(s.validate, input); err != nil {
		return nil, "", err
	}
	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			return nil, "", appErr.ErrUnauthorized
		}
		return nil, "", err
	}
	if err := password.Compare(user.PasswordHash, input.Password); err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}
