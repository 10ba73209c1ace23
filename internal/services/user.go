package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/voicescript/apiserver/internal/store"
	"github.com/voicescript/apiserver/types"
)

// asyncTimeout bounds fire-and-forget database work dispatched after a
// response has already been sent.
const asyncTimeout = 10 * time.Second

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	Create(ctx context.Context, user types.User) (int, error)
	Update(ctx context.Context, id int, update store.UserUpdate) error
	TouchLastLogin(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo   UserRepository
	logger *slog.Logger
}

func NewUserService(repo UserRepository, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{repo: repo, logger: logger}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	return s.repo.ExistsByEmailOrUsername(ctx, email, username)
}

func (s *UserService) Create(ctx context.Context, user types.User) (int, error) {
	user.Role = types.NormalizeRole(user.Role)
	return s.repo.Create(ctx, user)
}

func (s *UserService) Update(ctx context.Context, id int, update store.UserUpdate) error {
	return s.repo.Update(ctx, id, update)
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// RecordLogin updates last_login without blocking the login response.
// Failure is logged, never surfaced.
func (s *UserService) RecordLogin(id int) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()
		if err := s.repo.TouchLastLogin(ctx, id); err != nil {
			s.logger.Error("failed to update last login", "user_id", id, "error", err)
		}
	}()
}
