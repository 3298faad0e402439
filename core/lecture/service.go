package lecture

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("lecture not found")

type (
	Repository interface {
		CreateLecture(ctx context.Context, lec Lecture) (Lecture, error)
		GetLecture(ctx context.Context, id string) (Lecture, error)
		QueryLecturesByTeacher(ctx context.Context, teacherID string) ([]Lecture, error)
		// QueryLecturesForClasses returns lectures attached to any of the
		// given classes plus the unassigned (class-less) ones.
		QueryLecturesForClasses(ctx context.Context, classIDs []string) ([]Lecture, error)
		DeleteLecture(ctx context.Context, id string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, teacherID string, nl NewLecture) (Lecture, error)
		GetByID(ctx context.Context, id string) (Lecture, error)
		QueryByTeacher(ctx context.Context, teacherID string) ([]Lecture, error)
		QueryForStudentClasses(ctx context.Context, classIDs []string) ([]Lecture, error)
		Delete(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, teacherID string, nl NewLecture) (Lecture, error) {
	lec := Lecture{
		Title:       nl.Title,
		Description: nl.Description,
		VideoURL:    nl.VideoURL,
		TeacherID:   teacherID,
		CreatedAt:   time.Now().UTC(),
	}
	if nl.ClassID != "" {
		lec.ClassID.SetValid(nl.ClassID)
	}
	return svc.repo.CreateLecture(ctx, lec)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Lecture, error) {
	return svc.repo.GetLecture(ctx, id)
}

func (svc *Service) QueryByTeacher(ctx context.Context, teacherID string) ([]Lecture, error) {
	return svc.repo.QueryLecturesByTeacher(ctx, teacherID)
}

func (svc *Service) QueryForStudentClasses(ctx context.Context, classIDs []string) ([]Lecture, error) {
	return svc.repo.QueryLecturesForClasses(ctx, classIDs)
}

// Delete is destructive and irreversible; callers confirm with the user
// first.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteLecture(ctx, id)
}
