package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/classroom"
)

type classroomRepository struct {
	class        *classTable
	member       *memberTable
	announcement *announcementTable
	user         *userTable
}

var _ classroom.Repository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(db *DB) *classroomRepository {
	return &classroomRepository{
		class:        db.class,
		member:       db.member,
		announcement: db.announcement,
		user:         db.user,
	}
}

func (repo *classroomRepository) CreateClass(ctx context.Context, cls classroom.Class) (classroom.Class, error) {
	repo.class.Lock()
	defer repo.class.Unlock()

	for _, c := range repo.class.table {
		if c.Code == cls.Code {
			return classroom.Class{}, classroom.ErrCodeExists
		}
	}

	cls.ID = uuid.New().String()
	repo.class.table[cls.ID] = &cls
	return cls, nil
}

func (repo *classroomRepository) GetClass(ctx context.Context, filter classroom.GetFilter) (classroom.Class, error) {
	repo.class.RLock()
	defer repo.class.RUnlock()

	if filter.ID != "" {
		if cls, ok := repo.class.table[filter.ID]; ok {
			return *cls, nil
		}
		return classroom.Class{}, classroom.ErrNotFound
	}
	for _, cls := range repo.class.table {
		if cls.Code == filter.Code {
			return *cls, nil
		}
	}
	return classroom.Class{}, classroom.ErrNotFound
}

func (repo *classroomRepository) QueryClassesByTeacher(ctx context.Context, teacherID string) ([]classroom.Class, error) {
	repo.class.RLock()
	defer repo.class.RUnlock()

	classes := make([]classroom.Class, 0)
	for _, cls := range repo.class.table {
		if cls.TeacherID == teacherID {
			classes = append(classes, *cls)
		}
	}
	sortClasses(classes)
	return classes, nil
}

func (repo *classroomRepository) QueryClassesByStudent(ctx context.Context, studentID string) ([]classroom.Class, error) {
	repo.member.RLock()
	classIDs := make(map[string]struct{})
	for _, mbr := range repo.member.table {
		if mbr.StudentID == studentID {
			classIDs[mbr.ClassID] = struct{}{}
		}
	}
	repo.member.RUnlock()

	repo.class.RLock()
	defer repo.class.RUnlock()

	classes := make([]classroom.Class, 0, len(classIDs))
	for id := range classIDs {
		if cls, ok := repo.class.table[id]; ok {
			classes = append(classes, *cls)
		}
	}
	sortClasses(classes)
	return classes, nil
}

func (repo *classroomRepository) QueryAllClasses(ctx context.Context) ([]classroom.Class, error) {
	repo.class.RLock()
	defer repo.class.RUnlock()

	classes := make([]classroom.Class, 0, len(repo.class.table))
	for _, cls := range repo.class.table {
		classes = append(classes, *cls)
	}
	sortClasses(classes)
	return classes, nil
}

func (repo *classroomRepository) AddMember(ctx context.Context, mbr classroom.ClassMember) (classroom.ClassMember, error) {
	repo.member.Lock()
	defer repo.member.Unlock()

	for _, m := range repo.member.table {
		if m.ClassID == mbr.ClassID && m.StudentID == mbr.StudentID {
			return classroom.ClassMember{}, classroom.ErrAlreadyMember
		}
	}

	mbr.ID = uuid.New().String()
	repo.member.table[mbr.ID] = &mbr
	return mbr, nil
}

func (repo *classroomRepository) RemoveMember(ctx context.Context, classID, studentID string) error {
	repo.member.Lock()
	defer repo.member.Unlock()

	for id, m := range repo.member.table {
		if m.ClassID == classID && m.StudentID == studentID {
			delete(repo.member.table, id)
			return nil
		}
	}
	return classroom.ErrNotMember
}

func (repo *classroomRepository) IsMember(ctx context.Context, classID, studentID string) (bool, error) {
	repo.member.RLock()
	defer repo.member.RUnlock()

	for _, m := range repo.member.table {
		if m.ClassID == classID && m.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *classroomRepository) ListMembers(ctx context.Context, classID string) ([]classroom.Member, error) {
	repo.member.RLock()
	memberships := make([]classroom.ClassMember, 0)
	for _, m := range repo.member.table {
		if m.ClassID == classID {
			memberships = append(memberships, *m)
		}
	}
	repo.member.RUnlock()

	repo.user.RLock()
	defer repo.user.RUnlock()

	members := make([]classroom.Member, 0, len(memberships))
	for _, m := range memberships {
		mbr := classroom.Member{ClassMember: m}
		if usr, ok := repo.user.table[m.StudentID]; ok {
			mbr.StudentName = usr.Name
			mbr.StudentEmail = usr.Email
			mbr.StudentAvatarURL = usr.AvatarURL
		}
		members = append(members, mbr)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].StudentName < members[j].StudentName })
	return members, nil
}

func (repo *classroomRepository) CreateAnnouncement(ctx context.Context, ann classroom.Announcement) (classroom.Announcement, error) {
	repo.announcement.Lock()
	defer repo.announcement.Unlock()

	ann.ID = uuid.New().String()
	repo.announcement.table[ann.ID] = &ann
	return ann, nil
}

func (repo *classroomRepository) QueryAnnouncements(ctx context.Context, classID string) ([]classroom.Announcement, error) {
	repo.announcement.RLock()
	defer repo.announcement.RUnlock()

	anns := make([]classroom.Announcement, 0)
	for _, ann := range repo.announcement.table {
		if ann.ClassID == classID {
			anns = append(anns, *ann)
		}
	}
	sort.Slice(anns, func(i, j int) bool { return anns[i].CreatedAt.After(anns[j].CreatedAt) })
	return anns, nil
}

func sortClasses(classes []classroom.Class) {
	sort.Slice(classes, func(i, j int) bool { return classes[i].CreatedAt.After(classes[j].CreatedAt) })
}
