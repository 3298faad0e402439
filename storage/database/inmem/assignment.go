package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/assignment"
)

type assignmentRepository struct {
	assignment *assignmentTable
	submission *submissionTable
	user       *userTable
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{
		assignment: db.assignment,
		submission: db.submission,
		user:       db.user,
	}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.assignment.Lock()
	defer repo.assignment.Unlock()

	a.ID = uuid.New().String()
	repo.assignment.table[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	repo.assignment.RLock()
	defer repo.assignment.RUnlock()

	if a, ok := repo.assignment.table[id]; ok {
		return *a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryAssignmentsByClass(ctx context.Context, classID string) ([]assignment.Assignment, error) {
	return repo.QueryAssignmentsByClasses(ctx, []string{classID})
}

func (repo *assignmentRepository) QueryAssignmentsByClasses(ctx context.Context, classIDs []string) ([]assignment.Assignment, error) {
	repo.assignment.RLock()
	defer repo.assignment.RUnlock()

	wanted := make(map[string]struct{}, len(classIDs))
	for _, id := range classIDs {
		wanted[id] = struct{}{}
	}

	assignments := make([]assignment.Assignment, 0)
	for _, a := range repo.assignment.table {
		if _, ok := wanted[a.ClassID]; ok {
			assignments = append(assignments, *a)
		}
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].DueDate.Before(assignments[j].DueDate) })
	return assignments, nil
}

func (repo *assignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	repo.assignment.Lock()
	defer repo.assignment.Unlock()

	if _, ok := repo.assignment.table[id]; !ok {
		return assignment.ErrNotFound
	}

	repo.submission.Lock()
	defer repo.submission.Unlock()
	for sid, s := range repo.submission.table {
		if s.AssignmentID == id {
			delete(repo.submission.table, sid)
		}
	}

	delete(repo.assignment.table, id)
	return nil
}

func (repo *assignmentRepository) UpsertSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	repo.submission.Lock()
	defer repo.submission.Unlock()

	for _, s := range repo.submission.table {
		if s.AssignmentID == sub.AssignmentID && s.StudentID == sub.StudentID {
			// a graded row is never overwritten, matching the SQL guard
			if s.IsGraded() {
				return assignment.Submission{}, core.NewValidationError(assignment.ErrAlreadyGraded)
			}
			s.Content = sub.Content
			s.FileURL = sub.FileURL
			s.SubmittedAt = sub.SubmittedAt
			s.Status = sub.Status
			return *s, nil
		}
	}

	sub.ID = uuid.New().String()
	repo.submission.table[sub.ID] = &sub
	return sub, nil
}

func (repo *assignmentRepository) GetSubmission(ctx context.Context, filter assignment.SubmissionGetFilter) (assignment.Submission, error) {
	repo.submission.RLock()
	defer repo.submission.RUnlock()

	if filter.ID != "" {
		if s, ok := repo.submission.table[filter.ID]; ok {
			return *s, nil
		}
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	for _, s := range repo.submission.table {
		if s.AssignmentID == filter.AssignmentID && s.StudentID == filter.StudentID {
			return *s, nil
		}
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo *assignmentRepository) QuerySubmissions(ctx context.Context, assignmentID string) ([]assignment.StudentSubmission, error) {
	repo.submission.RLock()
	rows := make([]assignment.Submission, 0)
	for _, s := range repo.submission.table {
		if s.AssignmentID == assignmentID {
			rows = append(rows, *s)
		}
	}
	repo.submission.RUnlock()

	repo.user.RLock()
	defer repo.user.RUnlock()

	subs := make([]assignment.StudentSubmission, 0, len(rows))
	for _, s := range rows {
		sub := assignment.StudentSubmission{Submission: s}
		if usr, ok := repo.user.table[s.StudentID]; ok {
			sub.StudentName = usr.Name
			sub.StudentEmail = usr.Email
		}
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.Before(subs[j].SubmittedAt) })
	return subs, nil
}

func (repo *assignmentRepository) QuerySubmissionsByStudent(ctx context.Context, studentID string, assignmentIDs []string) ([]assignment.Submission, error) {
	repo.submission.RLock()
	defer repo.submission.RUnlock()

	wanted := make(map[string]struct{}, len(assignmentIDs))
	for _, id := range assignmentIDs {
		wanted[id] = struct{}{}
	}

	subs := make([]assignment.Submission, 0)
	for _, s := range repo.submission.table {
		if s.StudentID != studentID {
			continue
		}
		if _, ok := wanted[s.AssignmentID]; ok {
			subs = append(subs, *s)
		}
	}
	return subs, nil
}

func (repo *assignmentRepository) UpdateSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	repo.submission.Lock()
	defer repo.submission.Unlock()

	if _, ok := repo.submission.table[sub.ID]; !ok {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	repo.submission.table[sub.ID] = &sub
	return sub, nil
}
