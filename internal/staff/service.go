// Package staff manages the venue's users and their roles. Promoters created
// here own the guest lists.
package staff

import (
	"context"
	"fmt"
	"strings"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/pricing"
)

type DBLayer interface {
	ListRoles(ctx context.Context) ([]models.Role, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, id int64, patch UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type UserRequest struct {
	Name   string `json:"name" validate:"required"`
	Phone  string `json:"phone" validate:"required"`
	Email  string `json:"email" validate:"omitempty,email"`
	RoleID int64  `json:"role_id" validate:"required,gt=0"`
	Active *bool  `json:"active"`
}

type UserUpdate struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Email  *string `json:"email" validate:"omitempty,email"`
	RoleID *int64  `json:"role_id" validate:"omitempty,gt=0"`
	Active *bool   `json:"active"`
}

type Service struct {
	DB     DBLayer
	Clock  pricing.Clock
	Logger *logger.Logger
}

func NewService(database DBLayer, clock pricing.Clock, log *logger.Logger) *Service {
	return &Service{DB: database, Clock: clock, Logger: log}
}

func (s *Service) ListRoles(ctx context.Context) ([]models.Role, error) {
	return s.DB.ListRoles(ctx)
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.DB.ListUsers(ctx)
}

func (s *Service) CreateUser(ctx context.Context, req UserRequest) (*models.User, error) {
	name, phone := strings.TrimSpace(req.Name), strings.TrimSpace(req.Phone)
	if name == "" || phone == "" {
		return nil, fmt.Errorf("%w: name and phone are required", apperrors.ErrInvalidInput)
	}
	u := &models.User{
		Name:      name,
		Phone:     phone,
		Email:     strings.TrimSpace(req.Email),
		RoleID:    req.RoleID,
		Active:    req.Active == nil || *req.Active,
		CreatedAt: s.Clock.Now(),
	}
	if err := s.DB.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.Logger.Info("STAFF", fmt.Sprintf("user #%d %s created with role %d", u.ID, u.Name, u.RoleID))
	return s.DB.GetUser(ctx, u.ID)
}

func (s *Service) UpdateUser(ctx context.Context, id int64, req UserUpdate) (*models.User, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", apperrors.ErrInvalidInput)
	}
	return s.DB.UpdateUser(ctx, id, UserPatch{
		Name:   req.Name,
		Phone:  req.Phone,
		Email:  req.Email,
		RoleID: req.RoleID,
		Active: req.Active,
	})
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.DB.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.Logger.Info("STAFF", fmt.Sprintf("user #%d deleted", id))
	return nil
}
