package registration

import (
	"context"
)

type mockRepo struct {
	Submissions []Submission

	CountErr error
	AddErr   error
}

func NewMockSubmissionsRepo() *mockRepo {
	return &mockRepo{
		Submissions: make([]Submission, 0),
	}
}

func (m *mockRepo) Add(_ context.Context, submission *Submission) (*Submission, error) {
	if m.AddErr != nil {
		return nil, m.AddErr
	}
	submission.ID = len(m.Submissions) + 1
	m.Submissions = append(m.Submissions, *submission)
	return submission, nil
}

func (m *mockRepo) Get(_ context.Context, id int) (*Submission, error) {
	for i := range m.Submissions {
		if m.Submissions[i].ID == id {
			return &m.Submissions[i], nil
		}
	}
	return nil, ErrSubmissionNotFound
}

func (m *mockRepo) Delete(_ context.Context, id int) error {
	for i, s := range m.Submissions {
		if s.ID == id {
			m.Submissions = append(m.Submissions[:i], m.Submissions[i+1:]...)
			return nil
		}
	}
	return ErrSubmissionNotFound
}

func (m *mockRepo) List(_ context.Context) ([]Submission, error) {
	return m.Submissions, nil
}

func (m *mockRepo) Count(_ context.Context) (int, error) {
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	return len(m.Submissions), nil
}

func (m *mockRepo) UpdateCheckIn(_ context.Context, id int, checkedIn bool) error {
	for i := range m.Submissions {
		if m.Submissions[i].ID == id {
			m.Submissions[i].CheckedIn = checkedIn
			return nil
		}
	}
	return ErrSubmissionNotFound
}
