package user

import (
	"context"
	"fmt"

	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/repository"
	"github.com/jwalitptl/intake-api/internal/validation"
	"github.com/jwalitptl/intake-api/pkg/errors"
	"github.com/jwalitptl/intake-api/pkg/logger"
)

type UserServicer interface {
	// CreateUser returns created=false when the email was already registered.
	CreateUser(ctx context.Context, req model.CreateUserRequest) (user *model.User, created bool, err error)
	GetUser(ctx context.Context, id string) (*model.User, error)
}

type Service struct {
	repo   repository.UserRepository
	schema *validation.Schema
	log    *logger.Logger
}

func NewService(repo repository.UserRepository, schema *validation.Schema, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		schema: schema,
		log:    log,
	}
}

func (s *Service) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, bool, error) {
	newUser, fieldErrs := s.schema.ValidateUser(req)
	if len(fieldErrs) > 0 {
		return nil, false, errors.Validation(fieldErrs)
	}

	user, err := s.repo.CreateUser(ctx, newUser)
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, errors.ErrConflict) {
		s.log.Error(err, "failed to create user")
		return nil, false, errors.FromGateway("user", "failed to create user", err)
	}

	s.log.Warn("user already exists, returning existing user")
	existing, err := s.repo.FindUserByEmail(ctx, newUser.Email)
	if err != nil {
		s.log.Error(err, "failed to look up existing user")
		return nil, false, errors.Persistence("failed to create user", fmt.Errorf("recover conflict: %w", err))
	}
	return existing, false, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.log.Error(err, "failed to get user", "user_id", id)
		}
		return nil, errors.FromGateway("user", "failed to get user", err)
	}
	return user, nil
}
