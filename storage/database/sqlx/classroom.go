package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/classroom"
)

type dbClass struct {
	ID          string      `db:"id"`
	Name        string      `db:"name"`
	Section     null.String `db:"section"`
	Description string      `db:"description"`
	Code        string      `db:"code"`
	TeacherID   string      `db:"teacher_id"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (c dbClass) unwrap() classroom.Class {
	return classroom.Class{
		ID:          c.ID,
		Name:        c.Name,
		Section:     c.Section,
		Description: c.Description,
		Code:        c.Code,
		TeacherID:   c.TeacherID,
		CreatedAt:   c.CreatedAt,
	}
}

func unwrapClasses(rows []dbClass) []classroom.Class {
	classes := make([]classroom.Class, 0, len(rows))
	for _, c := range rows {
		classes = append(classes, c.unwrap())
	}
	return classes
}

type dbMember struct {
	ID               string      `db:"id"`
	ClassID          string      `db:"class_id"`
	StudentID        string      `db:"student_id"`
	JoinedAt         time.Time   `db:"joined_at"`
	StudentName      string      `db:"student_name"`
	StudentEmail     string      `db:"student_email"`
	StudentAvatarURL null.String `db:"student_avatar_url"`
}

type dbAnnouncement struct {
	ID        string    `db:"id"`
	ClassID   string    `db:"class_id"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
}

type classroomRepository struct {
	db *sqlx.DB
}

var _ classroom.Repository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(db *sqlx.DB) *classroomRepository {
	return &classroomRepository{db: db}
}

func (repo classroomRepository) CreateClass(ctx context.Context, cls classroom.Class) (classroom.Class, error) {
	cls.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO class (id, name, section, description, code, teacher_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cls.ID, cls.Name, cls.Section, cls.Description, cls.Code, cls.TeacherID, cls.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err, "class_code_key") {
			return classroom.Class{}, classroom.ErrCodeExists
		}
		return classroom.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo classroomRepository) GetClass(ctx context.Context, filter classroom.GetFilter) (classroom.Class, error) {
	var c dbClass
	var err error

	if filter.ID != "" {
		if _, err = uuid.Parse(filter.ID); err != nil {
			return classroom.Class{}, classroom.ErrNotFound
		}
		err = repo.db.GetContext(ctx, &c, `SELECT * FROM class WHERE id = $1`, filter.ID)
	} else {
		err = repo.db.GetContext(ctx, &c, `SELECT * FROM class WHERE code = $1`, filter.Code)
	}
	if err != nil {
		return classroom.Class{}, trapNoRowsErr(err, classroom.ErrNotFound, "finding class")
	}
	return c.unwrap(), nil
}

func (repo classroomRepository) QueryClassesByTeacher(ctx context.Context, teacherID string) ([]classroom.Class, error) {
	var rows []dbClass
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM class WHERE teacher_id = $1 ORDER BY created_at DESC`, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes by teacher")
	}
	return unwrapClasses(rows), nil
}

func (repo classroomRepository) QueryClassesByStudent(ctx context.Context, studentID string) ([]classroom.Class, error) {
	var rows []dbClass
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT c.* FROM class c
		JOIN class_member m ON m.class_id = c.id
		WHERE m.student_id = $1
		ORDER BY m.joined_at DESC`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes by student")
	}
	return unwrapClasses(rows), nil
}

func (repo classroomRepository) QueryAllClasses(ctx context.Context) ([]classroom.Class, error) {
	var rows []dbClass
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM class ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	return unwrapClasses(rows), nil
}

func (repo classroomRepository) AddMember(ctx context.Context, mbr classroom.ClassMember) (classroom.ClassMember, error) {
	mbr.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO class_member (id, class_id, student_id, joined_at)
		VALUES ($1, $2, $3, $4)`,
		mbr.ID, mbr.ClassID, mbr.StudentID, mbr.JoinedAt.UTC())
	if err != nil {
		if isUniqueViolation(err, "class_member_class_student_key") {
			return classroom.ClassMember{}, classroom.ErrAlreadyMember
		}
		return classroom.ClassMember{}, errors.Wrap(err, "inserting class member")
	}
	return mbr, nil
}

func (repo classroomRepository) RemoveMember(ctx context.Context, classID, studentID string) error {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM class_member WHERE class_id = $1 AND student_id = $2`, classID, studentID)
	if err != nil {
		return errors.Wrap(err, "deleting class member")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return classroom.ErrNotMember
	}
	return nil
}

func (repo classroomRepository) IsMember(ctx context.Context, classID, studentID string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM class_member WHERE class_id = $1 AND student_id = $2)`,
		classID, studentID)
	if err != nil {
		return false, errors.Wrap(err, "checking class membership")
	}
	return exists, nil
}

// ListMembers joins memberships with student profiles in one query; callers
// never assemble the relation themselves.
func (repo classroomRepository) ListMembers(ctx context.Context, classID string) ([]classroom.Member, error) {
	var rows []dbMember
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT m.id, m.class_id, m.student_id, m.joined_at,
			u.name AS student_name, u.email AS student_email, u.avatar_url AS student_avatar_url
		FROM class_member m
		JOIN "user" u ON u.id = m.student_id
		WHERE m.class_id = $1
		ORDER BY u.name`, classID)
	if err != nil {
		return nil, errors.Wrap(err, "listing class members")
	}

	members := make([]classroom.Member, 0, len(rows))
	for _, m := range rows {
		members = append(members, classroom.Member{
			ClassMember: classroom.ClassMember{
				ID:        m.ID,
				ClassID:   m.ClassID,
				StudentID: m.StudentID,
				JoinedAt:  m.JoinedAt,
			},
			StudentName:      m.StudentName,
			StudentEmail:     m.StudentEmail,
			StudentAvatarURL: m.StudentAvatarURL,
		})
	}
	return members, nil
}

func (repo classroomRepository) CreateAnnouncement(ctx context.Context, ann classroom.Announcement) (classroom.Announcement, error) {
	ann.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO announcement (id, class_id, title, message, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ann.ID, ann.ClassID, ann.Title, ann.Message, ann.CreatedBy, ann.CreatedAt.UTC())
	if err != nil {
		return classroom.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return ann, nil
}

func (repo classroomRepository) QueryAnnouncements(ctx context.Context, classID string) ([]classroom.Announcement, error) {
	var rows []dbAnnouncement
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM announcement WHERE class_id = $1 ORDER BY created_at DESC`, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}

	anns := make([]classroom.Announcement, 0, len(rows))
	for _, a := range rows {
		anns = append(anns, classroom.Announcement(a))
	}
	return anns, nil
}
