package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
)

var (
	// errors
	ErrNotFound           = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadyGraded      = errors.New("this submission has been graded and can no longer be changed")
)

var NowFunc = time.Now // mockable

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		QueryAssignmentsByClass(ctx context.Context, classID string) ([]Assignment, error)
		QueryAssignmentsByClasses(ctx context.Context, classIDs []string) ([]Assignment, error)
		// DeleteAssignment removes the assignment and all of its
		// submissions in a single transaction.
		DeleteAssignment(ctx context.Context, id string) error

		// UpsertSubmission inserts the submission or, if one already
		// exists for (assignment, student), updates its content, file,
		// status and submitted_at in place. Backed by the database's
		// uniqueness constraint on the pair. A graded row is never
		// overwritten: the update is guarded at the storage level and
		// surfaces ErrAlreadyGraded as a validation error.
		UpsertSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmission(ctx context.Context, filter SubmissionGetFilter) (Submission, error)
		QuerySubmissions(ctx context.Context, assignmentID string) ([]StudentSubmission, error)
		QuerySubmissionsByStudent(ctx context.Context, studentID string, assignmentIDs []string) ([]Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission) (Submission, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, classID, teacherID string, na NewAssignment) (Assignment, error)
		GetByID(ctx context.Context, id string) (Assignment, error)
		QueryByClass(ctx context.Context, classID string) ([]Assignment, error)
		QueryByClasses(ctx context.Context, classIDs []string) ([]Assignment, error)
		Delete(ctx context.Context, id string) error

		Submit(ctx context.Context, assignmentID, studentID string, ns NewSubmission) (Submission, error)
		GetSubmission(ctx context.Context, id string) (Submission, error)
		GetStudentSubmission(ctx context.Context, assignmentID, studentID string) (Submission, error)
		QuerySubmissions(ctx context.Context, assignmentID string) ([]StudentSubmission, error)
		QueryStudentSubmissions(ctx context.Context, studentID string, assignmentIDs []string) ([]Submission, error)
		GradeSubmission(ctx context.Context, sub Submission, teacherID string, g Grade) (Submission, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, classID, teacherID string, na NewAssignment) (Assignment, error) {
	a := Assignment{
		ClassID:     classID,
		Title:       na.Title,
		Description: na.Description,
		DueDate:     na.DueDate.UTC(),
		MaxScore:    na.MaxScore,
		CreatedBy:   teacherID,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

func (svc *Service) QueryByClass(ctx context.Context, classID string) ([]Assignment, error) {
	return svc.repo.QueryAssignmentsByClass(ctx, classID)
}

func (svc *Service) QueryByClasses(ctx context.Context, classIDs []string) ([]Assignment, error) {
	if len(classIDs) == 0 {
		return []Assignment{}, nil
	}
	return svc.repo.QueryAssignmentsByClasses(ctx, classIDs)
}

// Delete removes the assignment and its submissions; both vanish or neither
// does.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteAssignment(ctx, id)
}

// Submit records or replaces the student's attempt. The persisted status is
// derived here, once: late iff the submission lands strictly after the due
// date (submitting at the exact due date counts as on time). Resubmission
// updates the existing row in place; a graded submission is read-only.
func (svc *Service) Submit(ctx context.Context, assignmentID, studentID string, ns NewSubmission) (Submission, error) {
	a, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}

	existing, err := svc.repo.GetSubmission(ctx, SubmissionGetFilter{
		AssignmentID: assignmentID,
		StudentID:    studentID,
	})
	switch errors.Cause(err) {
	case nil:
		if existing.IsGraded() {
			return Submission{}, core.NewValidationError(ErrAlreadyGraded)
		}
	case ErrSubmissionNotFound:
	default:
		return Submission{}, err
	}

	now := NowFunc().UTC()
	status := StatusSubmitted
	if now.After(a.DueDate) {
		status = StatusLate
	}

	sub := Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Content:      ns.Content,
		SubmittedAt:  now,
		Status:       status,
	}
	if ns.FileURL != "" {
		sub.FileURL.SetValid(ns.FileURL)
	}
	return svc.repo.UpsertSubmission(ctx, sub)
}

func (svc *Service) GetSubmission(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmission(ctx, SubmissionGetFilter{ID: id})
}

func (svc *Service) GetStudentSubmission(ctx context.Context, assignmentID, studentID string) (Submission, error) {
	return svc.repo.GetSubmission(ctx, SubmissionGetFilter{
		AssignmentID: assignmentID,
		StudentID:    studentID,
	})
}

func (svc *Service) QuerySubmissions(ctx context.Context, assignmentID string) ([]StudentSubmission, error) {
	return svc.repo.QuerySubmissions(ctx, assignmentID)
}

func (svc *Service) QueryStudentSubmissions(ctx context.Context, studentID string, assignmentIDs []string) ([]Submission, error) {
	if len(assignmentIDs) == 0 {
		return []Submission{}, nil
	}
	return svc.repo.QuerySubmissionsByStudent(ctx, studentID, assignmentIDs)
}

// GradeSubmission sets score, feedback and flips the status to graded.
// There is no un-grade operation.
func (svc *Service) GradeSubmission(ctx context.Context, sub Submission, teacherID string, g Grade) (Submission, error) {
	now := time.Now().UTC()
	sub.Score.SetValid(g.Score)
	sub.Feedback.SetValid(g.Feedback)
	sub.Status = StatusGraded
	sub.GradedAt.SetValid(now)
	sub.GradedBy.SetValid(teacherID)
	return svc.repo.UpdateSubmission(ctx, sub)
}
