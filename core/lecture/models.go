package lecture

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
)

type Lecture struct {
	ID          string      `json:"id"`
	ClassID     null.String `json:"class_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	// VideoURL is either an external video-host link or the public URL of
	// an uploaded object in the lecture-videos bucket.
	VideoURL  string    `json:"video_url"`
	TeacherID string    `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewLecture contains information needed to publish a Lecture.
type NewLecture struct {
	ClassID     string `json:"class_id"`
	Title       string `json:"title" validate:"required,notblank"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url" validate:"required,url"`
}

func (nl *NewLecture) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	nl.Description = core.CleanString(nl.Description)
	nl.VideoURL = core.CleanString(nl.VideoURL)
	return validate.Struct(nl)
}
