package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/peopledesk/directory-system/internal/core/domain"
	"github.com/peopledesk/directory-system/internal/core/ports"
)

// UserService implements the account roster and all account mutations.
// Every permission rule is enforced here, regardless of what the
// transport or any client-side policy already checked.
type UserService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

func (s *UserService) List(ctx context.Context, search string) ([]*domain.User, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

// Create handles the three creation paths of the directory:
//   - the very first account in an empty store becomes admin,
//   - an authenticated admin may choose the new account's role,
//   - unauthenticated self-registration is forced to member.
//
// A nil actor means the request carried no (valid) credential.
func (s *UserService) Create(ctx context.Context, actor *ports.Actor, input ports.CreateUserInput) (*domain.User, error) {
	if input.Username == "" || input.FirstName == "" || input.LastName == "" ||
		input.Password == "" || input.Address == "" || input.Phone == "" {
		return nil, domain.ErrInvalidCredentials
	}

	role := domain.RoleMember
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case total == 0:
		role = domain.RoleAdmin
	case actor != nil:
		if !actor.IsAdmin() {
			return nil, domain.ErrForbidden
		}
		if domain.ValidRole(input.Role) {
			role = input.Role
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     input.Username,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hash),
		Address:      input.Address,
		Phone:        input.Phone,
		Role:         role,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("username", created.Username).Str("role", created.Role).Msg("account created")
	return created, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actor ports.Actor, id string, update domain.ProfileUpdate) (*domain.User, error) {
	if !actor.IsAdmin() && actor.UserID != id {
		return nil, domain.ErrForbidden
	}

	updated, err := s.repo.UpdateProfile(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", id).Str("actor", actor.UserID).Msg("profile updated")
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, actor ports.Actor, id string) error {
	if !actor.IsAdmin() && actor.UserID != id {
		return domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", id).Str("actor", actor.UserID).Msg("account deleted")
	return nil
}

func (s *UserService) Promote(ctx context.Context, actor ports.Actor, id string) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Role == domain.RoleAdmin {
		return nil, domain.ErrAlreadyAdmin
	}

	updated, err := s.repo.UpdateRole(ctx, id, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", id).Str("actor", actor.UserID).Msg("account promoted to admin")
	return updated, nil
}

func (s *UserService) Demote(ctx context.Context, actor ports.Actor, id string) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if actor.UserID == id {
		return nil, domain.ErrSelfDemotion
	}

	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Role != domain.RoleAdmin {
		return nil, domain.ErrNotAdmin
	}

	updated, err := s.repo.UpdateRole(ctx, id, domain.RoleMember)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", id).Str("actor", actor.UserID).Msg("account demoted to member")
	return updated, nil
}

// ChangePassword applies the asymmetric rule set: a user changing their
// own password must present the old one; an admin resetting another
// account's password does not (recovery path, old password unknowable).
func (s *UserService) ChangePassword(ctx context.Context, actor ports.Actor, id, oldPassword, newPassword string) error {
	if newPassword == "" {
		return domain.ErrInvalidCredentials
	}

	self := actor.UserID == id
	if !self && !actor.IsAdmin() {
		return domain.ErrForbidden
	}

	if self {
		if oldPassword == "" {
			return domain.ErrInvalidCredentials
		}
		target, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(target.PasswordHash), []byte(oldPassword)) != nil {
			return domain.ErrWrongPassword
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", id).Str("actor", actor.UserID).Bool("self", self).Msg("password changed")
	return nil
}
