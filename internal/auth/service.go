package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// AdminStore is satisfied by *AdminRepo.
type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (Admin, error)
	GetByID(ctx context.Context, id string) (Admin, error)
	Create(ctx context.Context, email, name, hash string) (Admin, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

type Service struct {
	Admins   AdminStore
	Sessions *SessionStore
}

// Login verifies the credentials and opens a session. Unknown email and wrong
// password are reported the same way.
func (s *Service) Login(ctx context.Context, email, password string) (string, Identity, error) {
	a, err := s.Admins.GetByEmail(ctx, email)
	if errors.Is(err, ErrAdminNotFound) {
		return "", Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", Identity{}, err
	}
	if !CheckPassword(a.PasswordHash, password) {
		return "", Identity{}, ErrInvalidCredentials
	}
	token, err := s.Sessions.Create(ctx, a.Identity())
	if err != nil {
		return "", Identity{}, err
	}
	return token, a.Identity(), nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.Sessions.Delete(ctx, token)
}

// ChangePassword re-verifies current before storing a hash of next. On any
// error the stored hash is left as it was.
func (s *Service) ChangePassword(ctx context.Context, adminID, current, next string) error {
	a, err := s.Admins.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if !CheckPassword(a.PasswordHash, current) {
		return ErrPasswordMismatch
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.Admins.UpdatePasswordHash(ctx, a.ID, hash)
}

func (s *Service) CreateAdmin(ctx context.Context, email, name, password string) (Admin, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return Admin{}, fmt.Errorf("invalid email %q", email)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return Admin{}, err
	}
	return s.Admins.Create(ctx, email, name, hash)
}

// ResetPassword sets a new password without the current one and signs the
// admin out everywhere.
func (s *Service) ResetPassword(ctx context.Context, email, password string) error {
	a, err := s.Admins.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.Admins.UpdatePasswordHash(ctx, a.ID, hash); err != nil {
		return err
	}
	if s.Sessions == nil {
		return nil
	}
	return s.Sessions.DeleteFor(ctx, a.ID)
}
