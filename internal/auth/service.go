package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rsvphq/firstaccess/pkg"

	log "github.com/sirupsen/logrus"
)

const DefaultResetTokenTTL = time.Hour

type AdminsRepo interface {
	Add(ctx context.Context, admin *Admin) (*Admin, error)
	GetByID(ctx context.Context, id string) (*Admin, error)
	GetByUsername(ctx context.Context, username string) (*Admin, error)
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	GetByResetToken(ctx context.Context, token string) (*Admin, error)
	SetResetToken(ctx context.Context, adminID, token string, expiry time.Time) error
	UpdatePassword(ctx context.Context, adminID, passwordHash, resetToken string) error
	List(ctx context.Context) ([]Admin, error)
}

// Service is the authorization boundary: admin handlers go through
// RequireAuth, credential changes go through the reset token flow.
type Service struct {
	admins        AdminsRepo
	sessions      SessionStore
	resetTokenTTL time.Duration
	// injectable for unit and dev testing
	NowFunc        func() time.Time
	RandStringFunc func(s int) (string, error)
}

func NewService(admins AdminsRepo, sessions SessionStore) *Service {
	return &Service{
		admins:         admins,
		sessions:       sessions,
		resetTokenTTL:  DefaultResetTokenTTL,
		NowFunc:        time.Now,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (s *Service) Login(ctx context.Context, creds Credentials) (string, error) {
	admin, err := s.admins.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return "", ErrWrongCredentials
		}
		return "", fmt.Errorf("get admin: %w", err)
	}

	if !pkg.CheckPasswordHash(creds.Password, admin.PasswordHash) {
		return "", ErrWrongCredentials
	}

	token, err := s.sessions.Create(ctx, admin.ID)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	return token, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if _, err := s.RequireAuth(ctx, token); err != nil {
		return err
	}
	return s.sessions.Revoke(ctx, token)
}

// RequireAuth resolves the session token to an admin id. All failure modes
// (never issued, revoked, expired, store error) collapse into ErrUnauthorized,
// so probing tokens reveals nothing about session existence.
func (s *Service) RequireAuth(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}

	adminID, found, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		log.Errorf("require auth, resolve session: %s", err)
		return "", ErrUnauthorized
	}
	if !found {
		return "", ErrUnauthorized
	}

	return adminID, nil
}

func (s *Service) CreateAdmin(ctx context.Context, username, email, password string) (*Admin, error) {
	passwordHash, err := pkg.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.RandStringFunc(21)
	if err != nil {
		return nil, fmt.Errorf("generate admin id: %w", err)
	}

	now := s.NowFunc()
	return s.admins.Add(ctx, &Admin{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// IssueResetToken sets a fresh single-use token on the admin record,
// overwriting a stale one if present. ErrAdminNotFound for an unknown email is
// for the caller to mask, not to expose.
func (s *Service) IssueResetToken(ctx context.Context, email string) (string, *Admin, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return "", nil, ErrAdminNotFound
		}
		return "", nil, fmt.Errorf("get admin: %w", err)
	}

	token, err := s.RandStringFunc(35)
	if err != nil {
		return "", nil, fmt.Errorf("generate reset token: %w", err)
	}

	expiry := s.NowFunc().Add(s.resetTokenTTL)
	if err := s.admins.SetResetToken(ctx, admin.ID, token, expiry); err != nil {
		return "", nil, fmt.Errorf("set reset token: %w", err)
	}

	return token, admin, nil
}

// ConsumeResetToken changes the password and clears the token in one guarded
// update. An expired token behaves exactly like an unknown one.
func (s *Service) ConsumeResetToken(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return ErrResetTokenInvalid
	}

	admin, err := s.admins.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("get admin by reset token: %w", err)
	}

	// expired tokens are treated as absent, evaluated lazily here
	if admin.ResetTokenExpiry == nil || !s.NowFunc().Before(*admin.ResetTokenExpiry) {
		return ErrResetTokenInvalid
	}

	passwordHash, err := pkg.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// the update is guarded by the token value, so of two racing consumers
	// only the first one can succeed
	if err := s.admins.UpdatePassword(ctx, admin.ID, passwordHash, token); err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}
