package application

import (
	"context"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/pagination"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/readmodel"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/repository"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/specification"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"
)

// openMaxAge bounds an age filter given only a minimum.
const openMaxAge = 150

type QueryService struct {
	Read   repository.UserReadRepository
	Limits pagination.Limits
}

func NewQueryService(read repository.UserReadRepository, limits pagination.Limits) *QueryService {
	return &QueryService{Read: read, Limits: limits}
}

// GeoFilter restricts results to users within RadiusKm of a point.
type GeoFilter struct {
	Lat      float64
	Lon      float64
	RadiusKm float64
}

type SearchUsersInput struct {
	Search          string
	AdultsOnly      bool
	MinAge          *int
	MaxAge          *int
	Email           string
	Phone           string
	CompleteProfile bool
	Near            *GeoFilter
	IncludeDeleted  bool

	Page     int
	PageSize int
	SortBy   string
	SortDir  string
}

// Spec builds the specification the filters describe. No filters yields True.
func (in SearchUsersInput) Spec() (specification.Spec, error) {
	b := specification.NewBuilder()
	if in.Search != "" {
		b.Search(in.Search)
	}
	if in.AdultsOnly {
		b.Adults()
	}
	if in.MinAge != nil || in.MaxAge != nil {
		lo, hi := 0, openMaxAge
		if in.MinAge != nil {
			lo = *in.MinAge
		}
		if in.MaxAge != nil {
			hi = *in.MaxAge
		}
		b.AgeBetween(lo, hi)
	}
	if in.Email != "" {
		b.WithEmail(in.Email)
	}
	if in.Phone != "" {
		b.WithPhone(in.Phone)
	}
	if in.CompleteProfile {
		b.CompleteProfile()
	}
	if in.Near != nil {
		b.Near(in.Near.Lat, in.Near.Lon, in.Near.RadiusKm)
	}
	spec, err := b.Build()
	if err != nil {
		return specification.Spec{}, apperror.Validation(map[string]string{"filters": err.Error()})
	}
	return spec, nil
}

func (q *QueryService) Search(ctx context.Context, in SearchUsersInput) (pagination.Page[readmodel.UserDocument], error) {
	spec, err := in.Spec()
	if err != nil {
		return pagination.Page[readmodel.UserDocument]{}, err
	}
	return q.Query(ctx, spec, pagination.NewParams(in.Page, in.PageSize, in.SortBy, in.SortDir, in.Search, q.Limits), in.IncludeDeleted)
}

// Query runs an already built specification.
func (q *QueryService) Query(ctx context.Context, spec specification.Spec, p pagination.Params, includeDeleted bool) (pagination.Page[readmodel.UserDocument], error) {
	return q.Read.Query(ctx, spec, p, includeDeleted)
}

func (q *QueryService) Get(ctx context.Context, id string, includeDeleted bool) (*readmodel.UserDocument, error) {
	return q.Read.GetByID(ctx, id, includeDeleted)
}
