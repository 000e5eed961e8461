package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/class"
)

type classRepository struct {
	db *classTable
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db.class}
}

// copyClass deep-copies the stored record so callers cannot mutate the table.
func copyClass(cls class.Class) class.Class {
	cp := cls
	cp.Weekdays = append([]string(nil), cls.Weekdays...)
	cp.Sessions = append([]class.Session(nil), cls.Sessions...)
	return cp
}

func (repo *classRepository) CreateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls.ID = uuid.New().String()
	stored := copyClass(cls)
	repo.db.classes[cls.ID] = &stored
	return cls, nil
}

func (repo *classRepository) GetClassByID(_ context.Context, id string) (class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return copyClass(*cls), nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) QueryAllClasses(_ context.Context) ([]class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classes := make([]class.Class, 0, len(repo.db.classes))
	for _, cls := range repo.db.classes {
		classes = append(classes, copyClass(*cls))
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].CreatedAt.After(classes[j].CreatedAt) })
	return classes, nil
}

func (repo *classRepository) QueryClassesByCreator(_ context.Context, creatorID string) ([]class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var classes []class.Class
	for _, cls := range repo.db.classes {
		if cls.CreatorID == creatorID {
			classes = append(classes, copyClass(*cls))
		}
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].CreatedAt.After(classes[j].CreatedAt) })
	return classes, nil
}

func (repo *classRepository) querySessions(classID string) []class.Session {
	var sessions []class.Session
	for _, s := range repo.db.sessions {
		if s.ClassID == classID {
			sessions = append(sessions, *s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Number < sessions[j].Number })
	return sessions
}

func (repo *classRepository) QuerySessions(_ context.Context, classID string) ([]class.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.querySessions(classID), nil
}

func (repo *classRepository) GetSessionByID(_ context.Context, id string) (class.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.sessions[id]; ok {
		return *s, nil
	}
	return class.Session{}, class.ErrSessionNotFound
}

func (repo *classRepository) ReplaceSessions(_ context.Context, classID string, version int, sessions []class.Session) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls, ok := repo.db.classes[classID]
	if !ok {
		return class.Class{}, class.ErrNotFound
	}
	if cls.Version != version {
		return class.Class{}, class.ErrReplaceConflict
	}

	for id, s := range repo.db.sessions {
		if s.ClassID == classID {
			delete(repo.db.sessions, id)
		}
	}
	for _, s := range sessions {
		s.ID = uuid.New().String() // minted on the copy; the caller's slice stays untouched
		stored := s
		repo.db.sessions[stored.ID] = &stored
	}

	cls.Version++
	cls.Sessions = repo.querySessions(classID)
	return copyClass(*cls), nil
}

func (repo *classRepository) UpdateSession(_ context.Context, s class.Session) (class.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.sessions[s.ID]
	if !ok {
		return class.Session{}, class.ErrSessionNotFound
	}
	orig.Status = s.Status
	orig.RecordingLink = s.RecordingLink
	orig.UpdatedAt = s.UpdatedAt

	if cls, ok := repo.db.classes[s.ClassID]; ok {
		cls.Sessions = repo.querySessions(s.ClassID)
	}
	return *orig, nil
}
