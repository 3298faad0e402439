package classroom

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound      = errors.New("class not found")
	ErrCodeExists    = errors.New("a class with this code already exists")
	ErrAlreadyMember = errors.New("student is already a member of this class")
	ErrNotMember     = errors.New("student is not a member of this class")
)

// codeGenAttempts bounds regenerate-on-collision when persisting join codes.
const codeGenAttempts = 5

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClass(ctx context.Context, filter GetFilter) (Class, error)
		QueryClassesByTeacher(ctx context.Context, teacherID string) ([]Class, error)
		QueryClassesByStudent(ctx context.Context, studentID string) ([]Class, error)
		QueryAllClasses(ctx context.Context) ([]Class, error)

		// AddMember returns ErrAlreadyMember when the (class, student)
		// pair already exists; the uniqueness is backed by a database
		// constraint, not a pre-check.
		AddMember(ctx context.Context, mbr ClassMember) (ClassMember, error)
		RemoveMember(ctx context.Context, classID, studentID string) error
		IsMember(ctx context.Context, classID, studentID string) (bool, error)
		ListMembers(ctx context.Context, classID string) ([]Member, error)

		CreateAnnouncement(ctx context.Context, ann Announcement) (Announcement, error)
		QueryAnnouncements(ctx context.Context, classID string) ([]Announcement, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, teacherID string, nc NewClass) (Class, error)
		GetByID(ctx context.Context, id string) (Class, error)
		GetByCode(ctx context.Context, code string) (Class, error)
		QueryByTeacher(ctx context.Context, teacherID string) ([]Class, error)
		QueryByStudent(ctx context.Context, studentID string) ([]Class, error)
		QueryAll(ctx context.Context) ([]Class, error)
		Join(ctx context.Context, code, studentID string) (Class, error)
		Leave(ctx context.Context, classID, studentID string) error
		IsMember(ctx context.Context, classID, studentID string) (bool, error)
		ListMembers(ctx context.Context, classID string) ([]Member, error)
		Announce(ctx context.Context, classID, teacherID string, na NewAnnouncement) (Announcement, error)
		QueryAnnouncements(ctx context.Context, classID string) ([]Announcement, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, teacherID string, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	cls := Class{
		Name:        nc.Name,
		Description: nc.Description,
		TeacherID:   teacherID,
		CreatedAt:   now,
	}
	if nc.Section != "" {
		cls.Section.SetValid(nc.Section)
	}

	// the code is generated server-side; on a (rare) collision with an
	// existing class we draw a fresh one and retry
	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return Class{}, err
		}
		cls.Code = code

		created, err := svc.repo.CreateClass(ctx, cls)
		if err != nil {
			if errors.Cause(err) == ErrCodeExists {
				continue
			}
			return Class{}, err
		}
		return created, nil
	}
	return Class{}, errors.Wrap(ErrCodeExists, "generating class code")
}

func (svc *Service) GetByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByCode(ctx context.Context, code string) (Class, error) {
	return svc.repo.GetClass(ctx, GetFilter{Code: code})
}

func (svc *Service) QueryByTeacher(ctx context.Context, teacherID string) ([]Class, error) {
	return svc.repo.QueryClassesByTeacher(ctx, teacherID)
}

func (svc *Service) QueryByStudent(ctx context.Context, studentID string) ([]Class, error) {
	return svc.repo.QueryClassesByStudent(ctx, studentID)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryAllClasses(ctx)
}

// Join redeems a join code for the given student. The code must already be
// normalized to uppercase (JoinRequest.Validate does this).
// Returns ErrNotFound for an unknown code and ErrAlreadyMember when the
// student is enrolled already; the membership count for the pair never
// exceeds one.
func (svc *Service) Join(ctx context.Context, code, studentID string) (Class, error) {
	cls, err := svc.repo.GetClass(ctx, GetFilter{Code: code})
	if err != nil {
		return Class{}, err
	}

	mbr := ClassMember{
		ClassID:   cls.ID,
		StudentID: studentID,
		JoinedAt:  time.Now().UTC(),
	}
	if _, err = svc.repo.AddMember(ctx, mbr); err != nil {
		return Class{}, err
	}
	return cls, nil
}

func (svc *Service) Leave(ctx context.Context, classID, studentID string) error {
	return svc.repo.RemoveMember(ctx, classID, studentID)
}

func (svc *Service) IsMember(ctx context.Context, classID, studentID string) (bool, error) {
	return svc.repo.IsMember(ctx, classID, studentID)
}

func (svc *Service) ListMembers(ctx context.Context, classID string) ([]Member, error) {
	return svc.repo.ListMembers(ctx, classID)
}

func (svc *Service) Announce(ctx context.Context, classID, teacherID string, na NewAnnouncement) (Announcement, error) {
	ann := Announcement{
		ClassID:   classID,
		Title:     na.Title,
		Message:   na.Message,
		CreatedBy: teacherID,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateAnnouncement(ctx, ann)
}

func (svc *Service) QueryAnnouncements(ctx context.Context, classID string) ([]Announcement, error) {
	return svc.repo.QueryAnnouncements(ctx, classID)
}
