package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/pagination"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/readmodel"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/repository"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/specification"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"
)

// UserReadRepository stores one document per user id. Writes use external_gte versioning on
// source_version, so a stale projection is rejected by the cluster with 409.
type UserReadRepository struct {
	client  *es.Client
	index   string
	refresh string
	limits  pagination.Limits
	timeout time.Duration
	logger  *logrus.Logger
}

type Options struct {
	Index string
	// Refresh is passed through on writes: "true", "wait_for" or "false".
	Refresh string
	Limits  pagination.Limits
	Timeout time.Duration
}

func NewUserReadRepository(client *es.Client, opts Options, logger *logrus.Logger) *UserReadRepository {
	if opts.Index == "" {
		opts.Index = "users"
	}
	if opts.Refresh == "" {
		opts.Refresh = "false"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &UserReadRepository{
		client:  client,
		index:   opts.Index,
		refresh: opts.Refresh,
		limits:  opts.Limits,
		timeout: opts.Timeout,
		logger:  logger,
	}
}

func (r *UserReadRepository) Upsert(ctx context.Context, doc readmodel.UserDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return apperror.Internal("encode user document", err)
	}
	version := int(doc.SourceVersion)
	req := esapi.IndexRequest{
		Index:       r.index,
		DocumentID:  doc.ID,
		Body:        bytes.NewReader(body),
		Version:     &version,
		VersionType: "external_gte",
		Refresh:     r.refresh,
	}
	c, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	res, err := req.Do(c, r.client)
	if err != nil {
		return transportError("index user", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode == http.StatusConflict {
		return repository.ErrStaleProjection
	}
	if res.IsError() {
		return statusError("index user", res.StatusCode, readBody(res))
	}
	return nil
}

// Remove deletes the projection. A missing document is not an error.
func (r *UserReadRepository) Remove(ctx context.Context, id string) error {
	c, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	res, err := esapi.DeleteRequest{Index: r.index, DocumentID: id, Refresh: r.refresh}.Do(c, r.client)
	if err != nil {
		return transportError("delete user", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return statusError("delete user", res.StatusCode, readBody(res))
	}
	return nil
}

func (r *UserReadRepository) GetByID(ctx context.Context, id string, includeDeleted bool) (*readmodel.UserDocument, error) {
	c, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	res, err := esapi.GetRequest{Index: r.index, DocumentID: id}.Do(c, r.client)
	if err != nil {
		return nil, transportError("get user", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode == http.StatusNotFound {
		return nil, repository.ErrUserNotFound
	}
	if res.IsError() {
		return nil, statusError("get user", res.StatusCode, readBody(res))
	}

	var parsed struct {
		Found  bool                   `json:"found"`
		Source readmodel.UserDocument `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperror.Internal("decode user document", err)
	}
	if !parsed.Found || (parsed.Source.IsDeleted && !includeDeleted) {
		return nil, repository.ErrUserNotFound
	}
	return &parsed.Source, nil
}

// Query translates spec into a bool filter and returns one page sorted by the requested field with id as
// the tiebreaker.
func (r *UserReadRepository) Query(ctx context.Context, spec specification.Spec, p pagination.Params, includeDeleted bool) (pagination.Page[readmodel.UserDocument], error) {
	var empty pagination.Page[readmodel.UserDocument]
	p = p.Normalise(r.limits)
	if !includeDeleted {
		spec = specification.Active().And(spec)
	}
	body, err := json.Marshal(searchBody(spec, p))
	if err != nil {
		return empty, apperror.Internal("encode search", err)
	}

	c, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	res, err := esapi.SearchRequest{Index: []string{r.index}, Body: bytes.NewReader(body)}.Do(c, r.client)
	if err != nil {
		return empty, transportError("search users", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return empty, statusError("search users", res.StatusCode, readBody(res))
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source readmodel.UserDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return empty, apperror.Internal("decode search response", err)
	}
	items := make([]readmodel.UserDocument, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		items = append(items, h.Source)
	}
	return pagination.NewPage(items, parsed.Hits.Total.Value, p), nil
}

func searchBody(spec specification.Spec, p pagination.Params) map[string]any {
	return map[string]any{
		"query":            map[string]any{"bool": map[string]any{"filter": []any{spec.ToNativeFilter()}}},
		"from":             max(p.Offset(), 0),
		"size":             p.PageSize,
		"track_total_hits": true,
		"sort": []any{
			map[string]any{p.SortBy: map[string]any{"order": string(p.SortDir), "missing": "_last"}},
			map[string]any{pagination.TiebreakField: map[string]any{"order": string(pagination.Asc)}},
		},
	}
}

func readBody(res *esapi.Response) string {
	b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	return string(b)
}

// statusError classifies a non-2xx response. Overload and server errors may succeed on retry.
func statusError(op string, status int, body string) error {
	err := fmt.Errorf("%s: elasticsearch status %d: %s", op, status, body)
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return apperror.Transient(op, err)
	}
	return apperror.Internal(op, err)
}

func transportError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return apperror.Transient(op, err)
}

var _ repository.UserReadRepository = (*UserReadRepository)(nil)
