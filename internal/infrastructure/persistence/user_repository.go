// Package persistence couples the user store with event dispatch: a write commits first, then the
// aggregate's recorded events are handed to the dispatcher.
package persistence

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/entity"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/repository"
)

type UserRepository struct {
	Store      repository.UserStore
	Dispatcher repository.EventDispatcher
	Logger     *logrus.Logger
	Now        func() time.Time
}

func NewUserRepository(store repository.UserStore, dispatcher repository.EventDispatcher, logger *logrus.Logger) *UserRepository {
	return &UserRepository{Store: store, Dispatcher: dispatcher, Logger: logger, Now: time.Now}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) (string, error) {
	if err := r.Store.Insert(ctx, u); err != nil {
		return "", err
	}
	r.publish(ctx, u)
	return u.ID().String(), nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	if err := r.Store.Update(ctx, u); err != nil {
		return err
	}
	r.publish(ctx, u)
	return nil
}

// Delete soft-deletes the user with the given id.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	u, err := r.Store.FindByID(ctx, id, false)
	if err != nil {
		return err
	}
	if err := u.Delete(r.Now()); err != nil {
		return err
	}
	return r.Update(ctx, u)
}

func (r *UserRepository) GetByID(ctx context.Context, id string, includeDeleted bool) (*entity.User, error) {
	return r.Store.FindByID(ctx, id, includeDeleted)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string, includeDeleted bool) (*entity.User, error) {
	return r.Store.FindByEmail(ctx, email, includeDeleted)
}

// publish hands pending events to the dispatcher and clears them even if dispatch panics, so a later
// save of the same instance does not dispatch them again.
func (r *UserRepository) publish(ctx context.Context, u *entity.User) {
	events := u.PendingEvents()
	defer u.ClearEvents()
	if len(events) == 0 || r.Dispatcher == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil && r.Logger != nil {
			r.Logger.WithField("aggregate_id", u.ID().String()).Errorf("event dispatch panic: %v", rec)
		}
	}()
	r.Dispatcher.Dispatch(ctx, events)
}

var _ repository.UserWriteRepository = (*UserRepository)(nil)
