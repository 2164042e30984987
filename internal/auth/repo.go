package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rsvphq/firstaccess/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ AdminsRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const adminColumns = `id, username, email, password_hash, reset_token, reset_token_expiry, created_at, updated_at`

func (r *Repo) Add(ctx context.Context, admin *Admin) (*Admin, error) {
	_, err := r.db.Exec(
		ctx,
		`INSERT INTO admin (id, username, email, password_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6);`,
		admin.ID, admin.Username, admin.Email, admin.PasswordHash, admin.CreatedAt, admin.UpdatedAt,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrAdminExists
		}
		return nil, err
	}

	return admin, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admin WHERE id = $1;`, id)
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admin WHERE username = $1;`, username)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admin WHERE email = $1;`, email)
}

func (r *Repo) GetByResetToken(ctx context.Context, token string) (*Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admin WHERE reset_token = $1;`, token)
}

func (r *Repo) getOne(ctx context.Context, query string, arg any) (*Admin, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrAdminNotFound
	}

	admin, err := scanAdmin(rows)
	if err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	return admin, nil
}

func (r *Repo) SetResetToken(ctx context.Context, adminID, token string, expiry time.Time) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE admin SET reset_token = $1, reset_token_expiry = $2, updated_at = NOW() WHERE id = $3;`,
		token, expiry, adminID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}

// UpdatePassword sets the new hash and clears the reset token in a single
// statement, guarded by the token value: a concurrent consumer of the same
// token sees zero rows affected.
func (r *Repo) UpdatePassword(ctx context.Context, adminID, passwordHash, resetToken string) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE admin
			SET password_hash = $1, reset_token = NULL, reset_token_expiry = NULL, updated_at = NOW()
			WHERE id = $2 AND reset_token = $3;`,
		passwordHash, adminID, resetToken,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}

func (r *Repo) List(ctx context.Context) ([]Admin, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+adminColumns+` FROM admin ORDER BY created_at;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var admins []Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, *admin)
	}

	return admins, nil
}

func scanAdmin(rows pgx.Rows) (*Admin, error) {
	var admin Admin
	if err := rows.Scan(
		&admin.ID,
		&admin.Username,
		&admin.Email,
		&admin.PasswordHash,
		&admin.ResetToken,
		&admin.ResetTokenExpiry,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &admin, nil
}
