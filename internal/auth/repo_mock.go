package auth

import (
	"context"
	"time"
)

type mockRepo struct {
	Admins []*Admin
}

func NewMockAdminsRepo() *mockRepo {
	return &mockRepo{}
}

func (m *mockRepo) Add(_ context.Context, admin *Admin) (*Admin, error) {
	for _, a := range m.Admins {
		if a.Username == admin.Username || a.Email == admin.Email {
			return nil, ErrAdminExists
		}
	}
	m.Admins = append(m.Admins, admin)
	return admin, nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Admin, error) {
	for _, a := range m.Admins {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, ErrAdminNotFound
}

func (m *mockRepo) GetByUsername(_ context.Context, username string) (*Admin, error) {
	for _, a := range m.Admins {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, ErrAdminNotFound
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*Admin, error) {
	for _, a := range m.Admins {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, ErrAdminNotFound
}

func (m *mockRepo) GetByResetToken(_ context.Context, token string) (*Admin, error) {
	for _, a := range m.Admins {
		if a.ResetToken != nil && *a.ResetToken == token {
			return a, nil
		}
	}
	return nil, ErrAdminNotFound
}

func (m *mockRepo) SetResetToken(_ context.Context, adminID, token string, expiry time.Time) error {
	for _, a := range m.Admins {
		if a.ID == adminID {
			a.ResetToken = &token
			a.ResetTokenExpiry = &expiry
			a.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrAdminNotFound
}

func (m *mockRepo) UpdatePassword(_ context.Context, adminID, passwordHash, resetToken string) error {
	for _, a := range m.Admins {
		if a.ID == adminID && a.ResetToken != nil && *a.ResetToken == resetToken {
			a.PasswordHash = passwordHash
			a.ResetToken = nil
			a.ResetTokenExpiry = nil
			a.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrAdminNotFound
}

func (m *mockRepo) List(_ context.Context) ([]Admin, error) {
	admins := make([]Admin, 0, len(m.Admins))
	for _, a := range m.Admins {
		admins = append(admins, *a)
	}
	return admins, nil
}
