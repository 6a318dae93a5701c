package services

import (
	"context"
	"strings"

	"github.com/markdave123-py/studybuddy/internal/core"
	"github.com/markdave123-py/studybuddy/internal/core/apperr"
	"github.com/markdave123-py/studybuddy/internal/models"
)

type UserService struct {
	db core.UserStore
}

func NewUserService(db core.UserStore) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Create(ctx context.Context, u *models.User) error {
	if u == nil || strings.TrimSpace(u.Email) == "" || u.PasswordHash == "" {
		return apperr.Input("invalid user payload")
	}
	existing, err := s.db.GetUserByEmail(ctx, u.Email)
	if err != nil {
		return apperr.Internal("could not check email", err)
	}
	if existing != nil {
		return apperr.Input("an account with this email already exists")
	}
	if err := s.db.CreateUser(ctx, u); err != nil {
		return apperr.Internal("could not create user", err)
	}
	return nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal("could not load user", err)
	}
	return u, nil
}
