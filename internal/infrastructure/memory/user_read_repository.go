package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/pagination"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/readmodel"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/repository"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/specification"
)

// UserReadRepository holds projections in a map and evaluates specifications with Spec.Matches, the
// in-memory twin of the Elasticsearch filter.
type UserReadRepository struct {
	mu     sync.RWMutex
	docs   map[string]readmodel.UserDocument
	limits pagination.Limits
	now    func() time.Time
}

func NewUserReadRepository(limits pagination.Limits) *UserReadRepository {
	return &UserReadRepository{docs: make(map[string]readmodel.UserDocument), limits: limits, now: time.Now}
}

// WithClock sets the time age-based specifications are evaluated at.
func (r *UserReadRepository) WithClock(now func() time.Time) *UserReadRepository {
	r.now = now
	return r
}

// Upsert stores doc unless a newer source version is already held.
func (r *UserReadRepository) Upsert(ctx context.Context, doc readmodel.UserDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.docs[doc.ID]; ok && cur.SourceVersion > doc.SourceVersion {
		return repository.ErrStaleProjection
	}
	doc.SearchTokens = slices.Clone(doc.SearchTokens)
	r.docs[doc.ID] = doc
	return nil
}

func (r *UserReadRepository) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

func (r *UserReadRepository) GetByID(ctx context.Context, id string, includeDeleted bool) (*readmodel.UserDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	doc, ok := r.docs[id]
	r.mu.RUnlock()
	if !ok || (doc.IsDeleted && !includeDeleted) {
		return nil, repository.ErrUserNotFound
	}
	return &doc, nil
}

// Query filters, sorts and pages the projections. A cancelled query returns an error and no items.
func (r *UserReadRepository) Query(ctx context.Context, spec specification.Spec, p pagination.Params, includeDeleted bool) (pagination.Page[readmodel.UserDocument], error) {
	var empty pagination.Page[readmodel.UserDocument]
	p = p.Normalise(r.limits)
	if !includeDeleted {
		spec = specification.Active().And(spec)
	}
	now := r.now()

	r.mu.RLock()
	matched := make([]readmodel.UserDocument, 0, len(r.docs))
	for _, doc := range r.docs {
		if err := ctx.Err(); err != nil {
			r.mu.RUnlock()
			return empty, err
		}
		if spec.Matches(doc.Fields(), now) {
			matched = append(matched, doc)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, compareDocs(p.SortBy, p.SortDir))
	if err := ctx.Err(); err != nil {
		return empty, err
	}

	total := int64(len(matched))
	from := min(max(p.Offset(), 0), len(matched))
	to := min(from+p.PageSize, len(matched))
	return pagination.NewPage(slices.Clone(matched[from:to]), total, p), nil
}

// compareDocs orders by field in dir, missing values last, then by id ascending.
func compareDocs(field string, dir pagination.Direction) func(a, b readmodel.UserDocument) int {
	key := sortKey(field)
	return func(a, b readmodel.UserDocument) int {
		ka, kb := key(a), key(b)
		switch {
		case ka == nil && kb == nil:
		case ka == nil:
			return 1
		case kb == nil:
			return -1
		default:
			c := ka.compare(kb)
			if dir == pagination.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return strings.Compare(a.ID, b.ID)
	}
}

type sortValue struct {
	s string
	t time.Time
	n int
}

func (v *sortValue) compare(o *sortValue) int {
	if c := v.t.Compare(o.t); c != 0 {
		return c
	}
	if c := cmp.Compare(v.n, o.n); c != 0 {
		return c
	}
	return strings.Compare(v.s, o.s)
}

func timeKey(t *time.Time) *sortValue {
	if t == nil {
		return nil
	}
	return &sortValue{t: *t}
}

func sortKey(field string) func(readmodel.UserDocument) *sortValue {
	switch field {
	case "updated_at":
		return func(d readmodel.UserDocument) *sortValue { return timeKey(d.UpdatedAt) }
	case "last_login":
		return func(d readmodel.UserDocument) *sortValue { return timeKey(d.LastLogin) }
	case "birthdate":
		return func(d readmodel.UserDocument) *sortValue { return timeKey(d.Birthdate) }
	case "first_name":
		return func(d readmodel.UserDocument) *sortValue { return &sortValue{s: d.FirstName} }
	case "last_name":
		return func(d readmodel.UserDocument) *sortValue { return &sortValue{s: d.LastName} }
	case "email":
		return func(d readmodel.UserDocument) *sortValue { return &sortValue{s: d.Email} }
	case "age":
		return func(d readmodel.UserDocument) *sortValue {
			if d.Age == nil {
				return nil
			}
			return &sortValue{n: *d.Age}
		}
	default:
		return func(d readmodel.UserDocument) *sortValue { return &sortValue{t: d.CreatedAt} }
	}
}

// Len reports how many projections are stored.
func (r *UserReadRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

var _ repository.UserReadRepository = (*UserReadRepository)(nil)
