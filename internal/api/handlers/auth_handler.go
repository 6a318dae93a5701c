package handlers

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	middleware "github.com/markdave123-py/studybuddy/internal/api/middlewares"
	"github.com/markdave123-py/studybuddy/internal/core/apperr"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
	"github.com/markdave123-py/studybuddy/internal/models"
)

const minPasswordLen = 8

// UserAccounts is what the auth endpoints need from the user service.
type UserAccounts interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type AuthHandler struct {
	users  UserAccounts
	secret string
	log    *logger.Logger
}

func NewAuthHandler(users UserAccounts, jwtSecret string, log *logger.Logger) *AuthHandler {
	return &AuthHandler{users: users, secret: jwtSecret, log: log}
}

type signupRequest struct {
	FirstName string `json:"firstName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		writeError(w, r, h.log, apperr.Input("a valid email is required"))
		return
	}
	if len(req.Password) < minPasswordLen {
		writeError(w, r, h.log, apperr.Inputf("password must be at least %d characters", minPasswordLen))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, h.log, apperr.Internal("could not hash password", err))
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		FirstName:    strings.TrimSpace(req.FirstName),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	token, err := middleware.IssueToken(h.secret, user.ID, now)
	if err != nil {
		writeError(w, r, h.log, apperr.Internal("could not issue token", err))
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user}, "account created")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, nil, "invalid credentials")
		return
	}

	token, err := middleware.IssueToken(h.secret, user.ID, time.Now())
	if err != nil {
		writeError(w, r, h.log, apperr.Internal("could not issue token", err))
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user}, "login successful")
}
