package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/occ-console-api/internal/auth"
	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/repository"
)

// ErrSelfDelete is returned when an admin tries to delete their own account.
var ErrSelfDelete = errors.New("you cannot delete your own account")

// UserService administers console accounts. Every operation requires ADMIN.
type UserService interface {
	List(ctx context.Context, actor Actor) ([]dto.UserResponse, error)
	Create(ctx context.Context, actor Actor, req dto.UserCreateRequest) (dto.UserResponse, error)
	UpdateRole(ctx context.Context, actor Actor, id string, req dto.UserRoleUpdateRequest) (dto.UserResponse, error)
	UpdateName(ctx context.Context, actor Actor, id string, req dto.UserNameUpdateRequest) (dto.UserResponse, error)
	UpdatePassword(ctx context.Context, actor Actor, id string, req dto.UserPasswordUpdateRequest) error
	Delete(ctx context.Context, actor Actor, id string) error
	EnsureBootstrapAdmin(ctx context.Context, email, password, name string) (bool, error)
}

// SessionRevoker applies account changes to sessions that are already live.
type SessionRevoker interface {
	EndUserSessions(ctx context.Context, userID string) int
	RefreshUser(ctx context.Context, userID string) error
}

type userService struct {
	users     repository.UserRepository
	audit     auth.ActivityLogger
	sessions  SessionRevoker
	validator *validator.Validate
	logger    zerolog.Logger
	hashCost  int
}

// NewUserService constructs the user administration service.
func NewUserService(users repository.UserRepository, audit auth.ActivityLogger, validate *validator.Validate, sessions SessionRevoker, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		audit:     audit,
		sessions:  sessions,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
		hashCost:  bcrypt.DefaultCost,
	}
}

func (s *userService) authorize(actor Actor) error {
	if !auth.HasPermission(actor.Profile(), models.RoleAdmin) {
		return ErrForbidden
	}
	return nil
}

func (s *userService) List(ctx context.Context, actor Actor) ([]dto.UserResponse, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponseSlice(users), nil
}

func (s *userService) Create(ctx context.Context, actor Actor, req dto.UserCreateRequest) (dto.UserResponse, error) {
	if err := s.authorize(actor); err != nil {
		return dto.UserResponse{}, err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.Role = strings.ToUpper(strings.TrimSpace(req.Role))
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.create(ctx, req.Email, req.Password, req.Name, models.Role(req.Role))
	if err != nil {
		return dto.UserResponse{}, err
	}

	s.audit.LogActivity(ctx, actor.UserID, actor.Email, models.ActionCreateUser, "",
		fmt.Sprintf("Created user: %s with role: %s", user.Email, user.Role))
	return dto.NewUserResponse(*user), nil
}

func (s *userService) create(ctx context.Context, email, password, name string, role models.Role) (*models.UserProfile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.UserProfile{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: %s", ErrConflict, email)
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateRole(ctx context.Context, actor Actor, id string, req dto.UserRoleUpdateRequest) (dto.UserResponse, error) {
	if err := s.authorize(actor); err != nil {
		return dto.UserResponse{}, err
	}
	req.Role = strings.ToUpper(strings.TrimSpace(req.Role))
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	if err := s.users.UpdateRole(ctx, id, models.Role(req.Role)); err != nil {
		return dto.UserResponse{}, mapRepoError(err)
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return dto.UserResponse{}, mapRepoError(err)
	}

	if s.sessions != nil {
		if err := s.sessions.RefreshUser(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("user_id", id).Msg("ended sessions that could not be refreshed")
		}
	}

	s.audit.LogActivity(ctx, actor.UserID, actor.Email, models.ActionUpdateUserRole, "",
		fmt.Sprintf("Updated %s role to: %s", user.Email, user.Role))
	return dto.NewUserResponse(*user), nil
}

func (s *userService) UpdateName(ctx context.Context, actor Actor, id string, req dto.UserNameUpdateRequest) (dto.UserResponse, error) {
	if err := s.authorize(actor); err != nil {
		return dto.UserResponse{}, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	if err := s.users.UpdateName(ctx, id, req.Name); err != nil {
		return dto.UserResponse{}, mapRepoError(err)
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return dto.UserResponse{}, mapRepoError(err)
	}

	s.audit.LogActivity(ctx, actor.UserID, actor.Email, models.ActionUpdateName, "",
		fmt.Sprintf("Updated name for user to: %s", user.Name))
	return dto.NewUserResponse(*user), nil
}

func (s *userService) UpdatePassword(ctx context.Context, actor Actor, id string, req dto.UserPasswordUpdateRequest) error {
	if err := s.authorize(actor); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return mapRepoError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, id, string(hash)); err != nil {
		return mapRepoError(err)
	}
	s.endSessions(ctx, id)

	s.audit.LogActivity(ctx, actor.UserID, actor.Email, models.ActionUpdatePassword, "",
		fmt.Sprintf("Updated password for: %s", user.Email))
	return nil
}

func (s *userService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := s.authorize(actor); err != nil {
		return err
	}
	if id == actor.UserID {
		return ErrSelfDelete
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return mapRepoError(err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}
	s.endSessions(ctx, id)

	s.audit.LogActivity(ctx, actor.UserID, actor.Email, models.ActionDeleteUser, "",
		fmt.Sprintf("Deleted user: %s", user.Email))
	return nil
}

func (s *userService) endSessions(ctx context.Context, userID string) {
	if s.sessions == nil {
		return
	}
	s.sessions.EndUserSessions(ctx, userID)
}

// EnsureBootstrapAdmin creates the first ADMIN account when no user exists.
func (s *userService) EnsureBootstrapAdmin(ctx context.Context, email, password, name string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, nil
	}
	if len(password) < 6 {
		return false, validationError("bootstrap admin password must be at least 6 characters")
	}

	total, err := s.users.Count(ctx)
	if err != nil {
		return false, err
	}
	if total > 0 {
		return false, nil
	}

	if _, err := s.create(ctx, email, password, strings.TrimSpace(name), models.RoleAdmin); err != nil {
		return false, err
	}
	s.logger.Info().Str("email", email).Msg("bootstrap admin created")
	return true, nil
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	default:
		return err
	}
}
