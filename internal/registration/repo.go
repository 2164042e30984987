package registration

import (
	"context"
	"errors"
	"fmt"

	"github.com/rsvphq/firstaccess/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, submission *Submission) (_ *Submission, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "submissionsRepo.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if submission.CreatedAt.IsZero() {
		return nil, errors.New("submission timestamp empty")
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO form_submission
			(first_name, last_name, email, phone, shirt_size, sneaker_size, checked_in, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id;`,
		submission.FirstName, submission.LastName, submission.Email,
		submission.Phone, submission.ShirtSize, submission.SneakerSize,
		submission.CheckedIn, submission.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	submission.ID = id
	return submission, nil
}

func (r *Repo) Get(ctx context.Context, id int) (*Submission, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT
			id, first_name, last_name, email, phone, shirt_size, sneaker_size, checked_in, created_at
		FROM form_submission WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrSubmissionNotFound
	}

	var s Submission
	if err := rows.Scan(
		&s.ID, &s.FirstName, &s.LastName, &s.Email,
		&s.Phone, &s.ShirtSize, &s.SneakerSize, &s.CheckedIn, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "submissionsRepo.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM form_submission WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

func (r *Repo) List(ctx context.Context) ([]Submission, error) {
	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, first_name, last_name, email, phone, shirt_size, sneaker_size, checked_in, created_at
			FROM form_submission
			ORDER BY created_at DESC;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var submissions []Submission
	for rows.Next() {
		var s Submission
		if err := rows.Scan(
			&s.ID, &s.FirstName, &s.LastName, &s.Email,
			&s.Phone, &s.ShirtSize, &s.SneakerSize, &s.CheckedIn, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}

	return submissions, nil
}

// Count is read fresh by the gate on every registration attempt
func (r *Repo) Count(ctx context.Context) (int, error) {
	rows, err := r.db.Query(ctx, `SELECT COUNT(*) FROM form_submission;`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return 0, err
	}

	if !rows.Next() {
		return 0, errors.New("unexpected error [no rows next]")
	}

	var count int
	if err := rows.Scan(&count); err != nil {
		return 0, fmt.Errorf("rows scan: %w", err)
	}
	return count, nil
}

func (r *Repo) UpdateCheckIn(ctx context.Context, id int, checkedIn bool) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE form_submission SET checked_in = $1 WHERE id = $2;`,
		checkedIn, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}
