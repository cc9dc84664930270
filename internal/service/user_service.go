package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"lpotracker/internal/apperr"
	"lpotracker/internal/auth"
	"lpotracker/internal/model"
	"lpotracker/internal/repository"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// UpdateUserRequest is a partial update; nil fields are left unchanged
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// UserResponse is a User without its password hash
type UserResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Me(ctx context.Context, session auth.Session) (*UserResponse, error)
	ListUsers(ctx context.Context, session auth.Session, page repository.Page) ([]UserResponse, int64, error)
	CreateUser(ctx context.Context, session auth.Session, req CreateUserRequest) (*UserResponse, error)
	UpdateUser(ctx context.Context, session auth.Session, id uint, req UpdateUserRequest) (*UserResponse, error)
	ResetPassword(ctx context.Context, session auth.Session, id uint, req ResetPasswordRequest) error
}

type userService struct {
	repo   repository.UserRepository
	tokens *auth.TokenManager
	logger *slog.Logger
}

func NewUserService(repo repository.UserRepository, tokens *auth.TokenManager, logger *slog.Logger) UserService {
	return &userService{repo: repo, tokens: tokens, logger: orDefault(logger)}
}

func mapUser(user *model.User) UserResponse {
	return UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	at := strings.LastIndex(email, "@")
	if at <= 0 || !strings.Contains(email[at+1:], ".") {
		return apperr.Validation("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < auth.MinPasswordLength {
		return apperr.Validation("password must be at least %d characters", auth.MinPasswordLength)
	}
	return nil
}

func validateRole(role string) error {
	if !model.ValidRole(role) {
		return apperr.Validation("invalid role %q: must be %s or %s", role, model.RoleUser, model.RoleAdmin)
	}
	return nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	user, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthenticated("invalid email or password")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperr.Unauthenticated("invalid email or password")
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return &TokenResponse{AccessToken: token}, nil
}

func (s *userService) Me(ctx context.Context, session auth.Session) (*UserResponse, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, session.UserID)
	if err != nil {
		// the account was removed after the token was issued
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthenticated("account no longer exists")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	resp := mapUser(user)
	return &resp, nil
}

func (s *userService) ListUsers(ctx context.Context, session auth.Session, page repository.Page) ([]UserResponse, int64, error) {
	if err := requireAdmin(session); err != nil {
		return nil, 0, err
	}

	users, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, mapUser(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) CreateUser(ctx context.Context, session auth.Session, req CreateUserRequest) (*UserResponse, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if err := validateRole(req.Role); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{Name: name, Email: email, Password: hash, Role: req.Role}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("email %s is already registered", email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created", "user_id", user.ID, "role", user.Role, "by", session.UserID)
	resp := mapUser(user)
	return &resp, nil
}

func (s *userService) UpdateUser(ctx context.Context, session auth.Session, id uint, req UpdateUserRequest) (*UserResponse, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "find user", "user %d not found", id)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		user.Name = name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if req.Role != nil {
		if err := validateRole(*req.Role); err != nil {
			return nil, err
		}
		user.Role = *req.Role
	}

	if err := s.repo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperr.Conflict("email %s is already registered", user.Email)
		default:
			return nil, notFoundOr(err, "update user", "user %d not found", id)
		}
	}

	s.logger.Info("user updated", "user_id", user.ID, "by", session.UserID)
	resp := mapUser(user)
	return &resp, nil
}

func (s *userService) ResetPassword(ctx context.Context, session auth.Session, id uint, req ResetPasswordRequest) error {
	if err := requireAdmin(session); err != nil {
		return err
	}
	if req.Password == "" {
		return apperr.Validation("password is required")
	}
	if err := validatePassword(req.Password); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return notFoundOr(err, "reset password", "user %d not found", id)
	}

	s.logger.Info("password reset", "user_id", id, "by", session.UserID)
	return nil
}
