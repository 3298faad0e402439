package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/lecture"
)

type dbLecture struct {
	ID          string      `db:"id"`
	ClassID     null.String `db:"class_id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	VideoURL    string      `db:"video_url"`
	TeacherID   string      `db:"teacher_id"`
	CreatedAt   time.Time   `db:"created_at"`
}

func unwrapLectures(rows []dbLecture) []lecture.Lecture {
	lectures := make([]lecture.Lecture, 0, len(rows))
	for _, lec := range rows {
		lectures = append(lectures, lecture.Lecture(lec))
	}
	return lectures
}

type lectureRepository struct {
	db *sqlx.DB
}

var _ lecture.Repository = (*lectureRepository)(nil) // interface compliance check

func NewLectureRepository(db *sqlx.DB) *lectureRepository {
	return &lectureRepository{db: db}
}

func (repo lectureRepository) CreateLecture(ctx context.Context, lec lecture.Lecture) (lecture.Lecture, error) {
	lec.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO lecture (id, class_id, title, description, video_url, teacher_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		lec.ID, lec.ClassID, lec.Title, lec.Description, lec.VideoURL, lec.TeacherID, lec.CreatedAt.UTC())
	if err != nil {
		return lecture.Lecture{}, errors.Wrap(err, "inserting lecture")
	}
	return lec, nil
}

func (repo lectureRepository) GetLecture(ctx context.Context, id string) (lecture.Lecture, error) {
	if _, err := uuid.Parse(id); err != nil {
		return lecture.Lecture{}, lecture.ErrNotFound
	}
	var lec dbLecture
	if err := repo.db.GetContext(ctx, &lec, `SELECT * FROM lecture WHERE id = $1`, id); err != nil {
		return lecture.Lecture{}, trapNoRowsErr(err, lecture.ErrNotFound, "finding lecture")
	}
	return lecture.Lecture(lec), nil
}

func (repo lectureRepository) QueryLecturesByTeacher(ctx context.Context, teacherID string) ([]lecture.Lecture, error) {
	var rows []dbLecture
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM lecture WHERE teacher_id = $1 ORDER BY created_at DESC`, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "querying lectures by teacher")
	}
	return unwrapLectures(rows), nil
}

func (repo lectureRepository) QueryLecturesForClasses(ctx context.Context, classIDs []string) ([]lecture.Lecture, error) {
	var rows []dbLecture
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM lecture
		WHERE class_id IS NULL OR class_id = ANY($1)
		ORDER BY created_at DESC`, pqStringArray(classIDs))
	if err != nil {
		return nil, errors.Wrap(err, "querying lectures for classes")
	}
	return unwrapLectures(rows), nil
}

func (repo lectureRepository) DeleteLecture(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM lecture WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting lecture")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return lecture.ErrNotFound
	}
	return nil
}
