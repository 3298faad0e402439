package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/assignment"
)

type dbAssignment struct {
	ID          string    `db:"id"`
	ClassID     string    `db:"class_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	DueDate     time.Time `db:"due_date"`
	MaxScore    float64   `db:"max_score"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
}

func unwrapAssignments(rows []dbAssignment) []assignment.Assignment {
	assignments := make([]assignment.Assignment, 0, len(rows))
	for _, a := range rows {
		assignments = append(assignments, assignment.Assignment(a))
	}
	return assignments
}

type dbSubmission struct {
	ID           string       `db:"id"`
	AssignmentID string       `db:"assignment_id"`
	StudentID    string       `db:"student_id"`
	Content      string       `db:"content"`
	FileURL      null.String  `db:"file_url"`
	SubmittedAt  time.Time    `db:"submitted_at"`
	Score        null.Float64 `db:"score"`
	Feedback     null.String  `db:"feedback"`
	Status       string       `db:"status"`
	GradedAt     null.Time    `db:"graded_at"`
	GradedBy     null.String  `db:"graded_by"`
}

func (s dbSubmission) unwrap() assignment.Submission {
	return assignment.Submission(s)
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	a.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO assignment (id, class_id, title, description, due_date, max_score, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.ClassID, a.Title, a.Description, a.DueDate.UTC(), a.MaxScore, a.CreatedBy, a.CreatedAt.UTC())
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	var a dbAssignment
	if err := repo.db.GetContext(ctx, &a, `SELECT * FROM assignment WHERE id = $1`, id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "finding assignment")
	}
	return assignment.Assignment(a), nil
}

func (repo assignmentRepository) QueryAssignmentsByClass(ctx context.Context, classID string) ([]assignment.Assignment, error) {
	var rows []dbAssignment
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM assignment WHERE class_id = $1 ORDER BY due_date`, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments by class")
	}
	return unwrapAssignments(rows), nil
}

func (repo assignmentRepository) QueryAssignmentsByClasses(ctx context.Context, classIDs []string) ([]assignment.Assignment, error) {
	var rows []dbAssignment
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM assignment WHERE class_id = ANY($1) ORDER BY due_date`, pqStringArray(classIDs))
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments by classes")
	}
	return unwrapAssignments(rows), nil
}

// DeleteAssignment removes the assignment's submissions and the assignment
// itself in one transaction; a failure of either leaves both in place.
func (repo assignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM submission WHERE assignment_id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting submissions")
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM assignment WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return assignment.ErrNotFound
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// UpsertSubmission relies on the (assignment_id, student_id) uniqueness
// constraint: a resubmission replaces content, file, status and
// submitted_at in place. The conflict update is guarded so a row graded
// between the caller's read and this write is left untouched; the
// resulting empty row set maps to ErrAlreadyGraded.
func (repo assignmentRepository) UpsertSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	sub.ID = uuid.New().String()
	var s dbSubmission
	err := repo.db.GetContext(ctx, &s, `
		INSERT INTO submission (id, assignment_id, student_id, content, file_url, submitted_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ON CONSTRAINT submission_assignment_student_key DO UPDATE
		SET content = EXCLUDED.content, file_url = EXCLUDED.file_url,
			submitted_at = EXCLUDED.submitted_at, status = EXCLUDED.status
		WHERE submission.status <> 'graded'
		RETURNING *`,
		sub.ID, sub.AssignmentID, sub.StudentID, sub.Content, sub.FileURL, sub.SubmittedAt.UTC(), sub.Status)
	if err != nil {
		return assignment.Submission{}, trapNoRowsErr(err,
			core.NewValidationError(assignment.ErrAlreadyGraded), "upserting submission")
	}
	return s.unwrap(), nil
}

func (repo assignmentRepository) GetSubmission(ctx context.Context, filter assignment.SubmissionGetFilter) (assignment.Submission, error) {
	var s dbSubmission
	var err error

	if filter.ID != "" {
		if _, err = uuid.Parse(filter.ID); err != nil {
			return assignment.Submission{}, assignment.ErrSubmissionNotFound
		}
		err = repo.db.GetContext(ctx, &s, `SELECT * FROM submission WHERE id = $1`, filter.ID)
	} else {
		err = repo.db.GetContext(ctx, &s,
			`SELECT * FROM submission WHERE assignment_id = $1 AND student_id = $2`,
			filter.AssignmentID, filter.StudentID)
	}
	if err != nil {
		return assignment.Submission{}, trapNoRowsErr(err, assignment.ErrSubmissionNotFound, "finding submission")
	}
	return s.unwrap(), nil
}

func (repo assignmentRepository) QuerySubmissions(ctx context.Context, assignmentID string) ([]assignment.StudentSubmission, error) {
	type row struct {
		dbSubmission
		StudentName  string `db:"student_name"`
		StudentEmail string `db:"student_email"`
	}
	var rows []row
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT s.*, u.name AS student_name, u.email AS student_email
		FROM submission s
		JOIN "user" u ON u.id = s.student_id
		WHERE s.assignment_id = $1
		ORDER BY s.submitted_at`, assignmentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}

	subs := make([]assignment.StudentSubmission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, assignment.StudentSubmission{
			Submission:   r.dbSubmission.unwrap(),
			StudentName:  r.StudentName,
			StudentEmail: r.StudentEmail,
		})
	}
	return subs, nil
}

func (repo assignmentRepository) QuerySubmissionsByStudent(ctx context.Context, studentID string, assignmentIDs []string) ([]assignment.Submission, error) {
	var rows []dbSubmission
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM submission WHERE student_id = $1 AND assignment_id = ANY($2)`,
		studentID, pqStringArray(assignmentIDs))
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions by student")
	}

	subs := make([]assignment.Submission, 0, len(rows))
	for _, s := range rows {
		subs = append(subs, s.unwrap())
	}
	return subs, nil
}

func (repo assignmentRepository) UpdateSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	s := dbSubmission(sub)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE submission
		SET content = :content, file_url = :file_url, submitted_at = :submitted_at,
			score = :score, feedback = :feedback, status = :status,
			graded_at = :graded_at, graded_by = :graded_by
		WHERE id = :id`, s)
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "updating submission")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	return sub, nil
}
