package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
)

// Submission statuses (persisted).
const (
	StatusSubmitted = "submitted"
	StatusLate      = "late"
	StatusGraded    = "graded"
)

const DefaultMaxScore = 100

type Assignment struct {
	ID          string    `json:"id"`
	ClassID     string    `json:"class_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"` // UTC
	MaxScore    float64   `json:"max_score"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

type Submission struct {
	ID           string       `json:"id"`
	AssignmentID string       `json:"assignment_id"`
	StudentID    string       `json:"student_id"`
	Content      string       `json:"content"`
	FileURL      null.String  `json:"file_url"`
	SubmittedAt  time.Time    `json:"submitted_at"` // UTC
	Score        null.Float64 `json:"score"`
	Feedback     null.String  `json:"feedback"`
	Status       string       `json:"status"`
	GradedAt     null.Time    `json:"graded_at"`
	GradedBy     null.String  `json:"graded_by"`
}

func (s Submission) IsGraded() bool { return s.Status == StatusGraded }

// StudentSubmission is a submission joined with the student's profile for
// the teacher's grading view.
type StudentSubmission struct {
	Submission
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title       string    `json:"title" validate:"required,notblank"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	MaxScore    float64   `json:"max_score" validate:"omitempty,gt=0"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	if na.MaxScore == 0 {
		na.MaxScore = DefaultMaxScore
	}
	return validate.Struct(na)
}

// NewSubmission contains a student's attempt at an assignment.
type NewSubmission struct {
	Content string `json:"content" validate:"required,notblank"`
	FileURL string `json:"file_url" validate:"omitempty,url"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.Content = core.CleanString(ns.Content)
	return validate.Struct(ns)
}

// Grade contains a teacher's assessment of a submission.
type Grade struct {
	Score    float64 `json:"score" validate:"gte=0"`
	Feedback string  `json:"feedback"`
}

func (g *Grade) Validate(validate *validator.Validate, maxScore float64) error {
	g.Feedback = core.CleanString(g.Feedback)
	if err := validate.Struct(g); err != nil {
		return err
	}
	if g.Score > maxScore {
		return core.NewValidationError(nil, core.FieldError{
			Field: "score", Error: "score cannot exceed the assignment's maximum score",
		})
	}
	return nil
}

// SubmissionGetFilter selects a single submission;
// ID wins over (AssignmentID, StudentID).
type SubmissionGetFilter struct {
	ID           string
	AssignmentID string
	StudentID    string
}
