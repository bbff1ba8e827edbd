package elasticsearch

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// usersMapping keeps every filterable field a keyword, date or geo_point so native filters stay exact.
const usersMapping = `{
  "settings": {"number_of_shards": 1},
  "mappings": {
    "dynamic": "strict",
    "properties": {
      "id":                   {"type": "keyword"},
      "first_name":           {"type": "keyword"},
      "last_name":            {"type": "keyword"},
      "full_name":            {"type": "text"},
      "email":                {"type": "keyword"},
      "phone":                {"type": "keyword"},
      "birthdate":            {"type": "date"},
      "age":                  {"type": "integer"},
      "location":             {"type": "geo_point"},
      "about_me":             {"type": "text", "fields": {"raw": {"type": "keyword", "ignore_above": 256}}},
      "profile_image_name":   {"type": "keyword"},
      "is_deleted":           {"type": "boolean"},
      "deleted_at":           {"type": "date"},
      "created_at":           {"type": "date"},
      "updated_at":           {"type": "date"},
      "last_login":           {"type": "date"},
      "search_tokens":        {"type": "keyword"},
      "profile_completeness": {"type": "float"},
      "last_synced_at":       {"type": "date"},
      "source_version":       {"type": "long"}
    }
  }
}`

// EnsureIndex creates the users index with its mapping unless it already exists.
func (r *UserReadRepository) EnsureIndex(ctx context.Context) error {
	exists, err := esapi.IndicesExistsRequest{Index: []string{r.index}}.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.index, err)
	}
	_ = exists.Body.Close()
	if exists.StatusCode == http.StatusOK {
		return nil
	}

	res, err := esapi.IndicesCreateRequest{Index: r.index, Body: strings.NewReader(usersMapping)}.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("create index %s: %w", r.index, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		body := readBody(res)
		// a concurrent creator won the race
		if res.StatusCode == http.StatusBadRequest && strings.Contains(body, "resource_already_exists_exception") {
			return nil
		}
		return statusError("create index", res.StatusCode, body)
	}
	r.logger.WithField("index", r.index).Info("users index created")
	return nil
}
