package repository

import (
	"context"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/entity"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/event"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/pagination"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/readmodel"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/specification"
)

// UserStore persists user aggregates. It knows nothing about events.
//
// Implementations enforce email and phone uniqueness (apperror Conflict), report missing rows as
// apperror NotFound, and reject updates whose version does not match the stored one (Conflict). A
// successful Insert or Update sets the aggregate's new version.
type UserStore interface {
	Insert(ctx context.Context, u *entity.User) error
	Update(ctx context.Context, u *entity.User) error
	FindByID(ctx context.Context, id string, includeDeleted bool) (*entity.User, error)
	FindByEmail(ctx context.Context, email string, includeDeleted bool) (*entity.User, error)
}

// UserWriteRepository is the command-side repository. It couples persistence with event dispatch:
// events recorded on the aggregate are dispatched only after the write commits.
type UserWriteRepository interface {
	Create(ctx context.Context, u *entity.User) (string, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string, includeDeleted bool) (*entity.User, error)
	GetByEmail(ctx context.Context, email string, includeDeleted bool) (*entity.User, error)
}

// UserReadRepository is the query-side store of projections. Upsert and Remove are for the
// synchronizer only.
type UserReadRepository interface {
	// Upsert writes doc keyed by its id in one store operation. A store that already holds a newer
	// source version answers with a Conflict.
	Upsert(ctx context.Context, doc readmodel.UserDocument) error
	Remove(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string, includeDeleted bool) (*readmodel.UserDocument, error)
	// Query runs spec natively in the store. When includeDeleted is false, only active projections
	// are returned.
	Query(ctx context.Context, spec specification.Spec, p pagination.Params, includeDeleted bool) (pagination.Page[readmodel.UserDocument], error)
}

// EventDispatcher hands committed events to their handlers. It reports no error: handler failures are
// logged and never reach the writer.
type EventDispatcher interface {
	Dispatch(ctx context.Context, events []event.Event)
}
