package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AminArria/sponsorly/internal/domain"
	"github.com/AminArria/sponsorly/internal/dto"
	"github.com/AminArria/sponsorly/internal/repository"
	"github.com/AminArria/sponsorly/pkg/logger"
)

// UserService defines the interface for user operations
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	GetBySlug(ctx context.Context, slug string) (*dto.UserResponse, error)
}

// userService implements UserService
type userService struct {
	store repository.Store
	opts  *options
	log   *logger.Logger
}

// NewUserService creates a new UserService
func NewUserService(store repository.Store, opts ...Option) UserService {
	return &userService{
		store: store,
		opts:  newOptions(opts),
		log:   logger.Get().Named("user-service"),
	}
}

// Create registers a user
func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	verr := req.Validate()
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := s.opts.now()
	user := &domain.User{
		ID:        uuid.New().String(),
		Slug:      req.Slug,
		Email:     req.Email,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			verr.Add("slug", domain.MsgTaken)
			return nil, verr
		}
		return nil, err
	}

	s.log.InfoContext(ctx, "user created", zap.String("user_id", user.ID), zap.String("slug", user.Slug))
	resp := dto.ToUserResponse(user)
	return &resp, nil
}

// GetByID returns a user or domain.ErrUserNotFound
func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	resp := dto.ToUserResponse(user)
	return &resp, nil
}

// GetBySlug returns a user or domain.ErrUserNotFound
func (s *userService) GetBySlug(ctx context.Context, slug string) (*dto.UserResponse, error) {
	user, err := s.store.Users().GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	resp := dto.ToUserResponse(user)
	return &resp, nil
}
