package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/lecture"
)

type lectureRepository struct {
	db *lectureTable
}

var _ lecture.Repository = (*lectureRepository)(nil) // interface compliance check

func NewLectureRepository(db *DB) *lectureRepository {
	return &lectureRepository{db: db.lecture}
}

func (repo *lectureRepository) CreateLecture(ctx context.Context, lec lecture.Lecture) (lecture.Lecture, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	lec.ID = uuid.New().String()
	repo.db.table[lec.ID] = &lec
	return lec, nil
}

func (repo *lectureRepository) GetLecture(ctx context.Context, id string) (lecture.Lecture, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if lec, ok := repo.db.table[id]; ok {
		return *lec, nil
	}
	return lecture.Lecture{}, lecture.ErrNotFound
}

func (repo *lectureRepository) QueryLecturesByTeacher(ctx context.Context, teacherID string) ([]lecture.Lecture, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	lectures := make([]lecture.Lecture, 0)
	for _, lec := range repo.db.table {
		if lec.TeacherID == teacherID {
			lectures = append(lectures, *lec)
		}
	}
	sortLectures(lectures)
	return lectures, nil
}

func (repo *lectureRepository) QueryLecturesForClasses(ctx context.Context, classIDs []string) ([]lecture.Lecture, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	wanted := make(map[string]struct{}, len(classIDs))
	for _, id := range classIDs {
		wanted[id] = struct{}{}
	}

	lectures := make([]lecture.Lecture, 0)
	for _, lec := range repo.db.table {
		if !lec.ClassID.Valid {
			lectures = append(lectures, *lec)
			continue
		}
		if _, ok := wanted[lec.ClassID.String]; ok {
			lectures = append(lectures, *lec)
		}
	}
	sortLectures(lectures)
	return lectures, nil
}

func (repo *lectureRepository) DeleteLecture(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return lecture.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func sortLectures(lectures []lecture.Lecture) {
	sort.Slice(lectures, func(i, j int) bool { return lectures[i].CreatedAt.After(lectures[j].CreatedAt) })
}
