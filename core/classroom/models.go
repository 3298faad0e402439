package classroom

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
)

type Class struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Section     null.String `json:"section"`
	Description string      `json:"description"`
	// Code is the human-shareable join code: 6 uppercase alphanumeric
	// characters, unique across all classes.
	Code      string    `json:"code"`
	TeacherID string    `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type ClassMember struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	StudentID string    `json:"student_id"`
	JoinedAt  time.Time `json:"joined_at"` // UTC
}

// Member is a membership row joined with the student's profile,
// assembled by the repository in a single query.
type Member struct {
	ClassMember
	StudentName      string      `json:"student_name"`
	StudentEmail     string      `json:"student_email"`
	StudentAvatarURL null.String `json:"student_avatar_url"`
}

type Announcement struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Name        string `json:"name" validate:"required,notblank"`
	Section     string `json:"section"`
	Description string `json:"description"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Section = core.CleanString(nc.Section)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

type JoinRequest struct {
	Code string `json:"code" validate:"required,len=6,alphanum"`
}

func (jr *JoinRequest) Validate(validate *validator.Validate) error {
	// join codes are case-insensitive; normalize to the stored form
	jr.Code = strings.ToUpper(core.CleanString(jr.Code))
	return validate.Struct(jr)
}

// NewAnnouncement contains information needed to post an Announcement.
type NewAnnouncement struct {
	Title   string `json:"title" validate:"required,notblank"`
	Message string `json:"message" validate:"required,notblank"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Message = core.CleanString(na.Message)
	return validate.Struct(na)
}

// GetFilter selects a single class; ID wins over Code.
type GetFilter struct {
	ID   string
	Code string
}
