// Package inmemdb provides map-backed repositories for tests.
package inmemdb

import (
	"sync"

	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/classroom"
	"github.com/darasahq/darasa/core/lecture"
	"github.com/darasahq/darasa/core/user"
)

type (
	DB struct {
		user         *userTable
		class        *classTable
		member       *memberTable
		announcement *announcementTable
		assignment   *assignmentTable
		submission   *submissionTable
		lecture      *lectureTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	classTable struct {
		sync.RWMutex
		table map[string]*classroom.Class
	}

	memberTable struct {
		sync.RWMutex
		table map[string]*classroom.ClassMember
	}

	announcementTable struct {
		sync.RWMutex
		table map[string]*classroom.Announcement
	}

	assignmentTable struct {
		sync.RWMutex
		table map[string]*assignment.Assignment
	}

	submissionTable struct {
		sync.RWMutex
		table map[string]*assignment.Submission
	}

	lectureTable struct {
		sync.RWMutex
		table map[string]*lecture.Lecture
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:         &userTable{table: make(map[string]*user.User)},
		class:        &classTable{table: make(map[string]*classroom.Class)},
		member:       &memberTable{table: make(map[string]*classroom.ClassMember)},
		announcement: &announcementTable{table: make(map[string]*classroom.Announcement)},
		assignment:   &assignmentTable{table: make(map[string]*assignment.Assignment)},
		submission:   &submissionTable{table: make(map[string]*assignment.Submission)},
		lecture:      &lectureTable{table: make(map[string]*lecture.Lecture)},
	}
	return db, nil
}
