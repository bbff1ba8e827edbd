// Package memory provides in-process implementations of the write store, the read store and event
// deduplication. They back tests and single-binary development runs.
package memory

import (
	"context"
	"sync"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/entity"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/repository"
)

// UserStore keeps user snapshots in a map with the same uniqueness and versioning rules as the
// Postgres store.
type UserStore struct {
	mu      sync.RWMutex
	byID    map[string]entity.UserSnapshot
	byEmail map[string]string
	byPhone map[string]string
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]entity.UserSnapshot),
		byEmail: make(map[string]string),
		byPhone: make(map[string]string),
	}
}

func (s *UserStore) Insert(ctx context.Context, u *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := u.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[snap.ID]; ok {
		return repository.ErrVersionConflict
	}
	if err := s.checkUnique(snap); err != nil {
		return err
	}
	snap.Version = 1
	s.put(snap)
	u.SetVersion(snap.Version)
	return nil
}

func (s *UserStore) Update(ctx context.Context, u *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := u.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[snap.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if cur.Version != snap.Version {
		return repository.ErrVersionConflict
	}
	if err := s.checkUnique(snap); err != nil {
		return err
	}
	delete(s.byEmail, cur.Email)
	delete(s.byPhone, cur.Phone)
	snap.Version = cur.Version + 1
	s.put(snap)
	u.SetVersion(snap.Version)
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id string, includeDeleted bool) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	snap, ok := s.byID[id]
	s.mu.RUnlock()
	return load(snap, ok, includeDeleted)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string, includeDeleted bool) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := entity.NewEmail(email)
	if err != nil {
		return nil, repository.ErrUserNotFound
	}
	s.mu.RLock()
	snap, ok := s.byID[s.byEmail[e.String()]]
	s.mu.RUnlock()
	return load(snap, ok, includeDeleted)
}

// Len reports how many users are stored, deleted ones included.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *UserStore) checkUnique(snap entity.UserSnapshot) error {
	if owner, ok := s.byEmail[snap.Email]; ok && owner != snap.ID {
		return repository.ErrEmailTaken
	}
	if owner, ok := s.byPhone[snap.Phone]; ok && owner != snap.ID {
		return repository.ErrPhoneTaken
	}
	return nil
}

func (s *UserStore) put(snap entity.UserSnapshot) {
	s.byID[snap.ID] = snap
	s.byEmail[snap.Email] = snap.ID
	s.byPhone[snap.Phone] = snap.ID
}

func load(snap entity.UserSnapshot, ok, includeDeleted bool) (*entity.User, error) {
	if !ok || (snap.IsDeleted && !includeDeleted) {
		return nil, repository.ErrUserNotFound
	}
	return entity.ReconstituteUser(snap)
}

var _ repository.UserStore = (*UserStore)(nil)
