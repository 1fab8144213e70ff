package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emilythestrangee/qa-forum/backend/internal/auth"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

type UserService struct {
	users  store.UserStore
	issuer *auth.Issuer
	log    *slog.Logger
}

func NewUserService(users store.UserStore, issuer *auth.Issuer, log *slog.Logger) *UserService {
	return &UserService{users: users, issuer: issuer, log: log}
}

// Register creates an account with zero reputation and returns a session token.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if name == "" || email == "" || len(req.Password) < 6 {
		return nil, "", invalidf("name, email and a password of at least 6 characters are required")
	}
	if len(req.Password) > auth.MaxPasswordBytes {
		return nil, "", invalidf("password must be at most %d bytes", auth.MaxPasswordBytes)
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{Name: name, Email: email, Password: hashed}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, "", fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, "", storeError(err)
	}

	token, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login checks credentials and returns a fresh session token.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if err != nil {
		return nil, "", storeError(err)
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	token, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, invalidf("user id is required")
	}
	user, err := s.users.GetUser(ctx, id)
	return user, storeError(err)
}
