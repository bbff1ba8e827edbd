// Package readmodel defines the query-side projection of a user. Only the synchronizer builds
// projections; query handlers read them.
package readmodel

import (
	"strings"
	"time"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/entity"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/specification"
)

// GeoPoint is the Elasticsearch geo_point object form.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// UserDocument is the denormalised user projection. Optional fields are omitted when empty so that
// "exists" filters see them as missing.
type UserDocument struct {
	ID                  string     `json:"id"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	FullName            string     `json:"full_name"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone"`
	Birthdate           *time.Time `json:"birthdate,omitempty"`
	Age                 *int       `json:"age,omitempty"`
	Location            *GeoPoint  `json:"location,omitempty"`
	AboutMe             string     `json:"about_me,omitempty"`
	ProfileImageName    string     `json:"profile_image_name,omitempty"`
	IsDeleted           bool       `json:"is_deleted"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	SearchTokens        []string   `json:"search_tokens"`
	ProfileCompleteness float64    `json:"profile_completeness"`
	LastSyncedAt        time.Time  `json:"last_synced_at"`
	SourceVersion       int64      `json:"source_version"`
}

// FromUser projects u as of now. Age is computed at sync time.
func FromUser(u *entity.User, now time.Time) UserDocument {
	doc := UserDocument{
		ID:               u.ID().String(),
		FirstName:        u.Name().First(),
		LastName:         u.Name().Last(),
		FullName:         u.Name().String(),
		Email:            u.Email().String(),
		Phone:            u.Phone().String(),
		Birthdate:        u.Birthdate(),
		AboutMe:          u.AboutMe(),
		ProfileImageName: u.ProfileImageName(),
		IsDeleted:        u.IsDeleted(),
		DeletedAt:        u.DeletedAt(),
		CreatedAt:        u.CreatedAt(),
		UpdatedAt:        u.UpdatedAt(),
		LastLogin:        u.LastLogin(),
		LastSyncedAt:     now.UTC(),
		SourceVersion:    u.Version(),
	}
	if age, ok := u.Age(now); ok {
		doc.Age = &age
	}
	if loc := u.Location(); loc != nil {
		doc.Location = &GeoPoint{Lat: loc.Lat(), Lon: loc.Lon()}
	}
	doc.SearchTokens = SearchTokens(doc.FirstName, doc.LastName, doc.Email, doc.Phone)
	doc.ProfileCompleteness = Completeness(doc.Birthdate != nil, doc.Location != nil, doc.AboutMe != "", doc.ProfileImageName != "")
	return doc
}

// SearchTokens lower-cases the searchable fields, skipping empty ones.
func SearchTokens(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Completeness is the fraction of optional profile fields present, from 0 to 1.
func Completeness(present ...bool) float64 {
	if len(present) == 0 {
		return 0
	}
	n := 0
	for _, p := range present {
		if p {
			n++
		}
	}
	return float64(n) / float64(len(present))
}

// Fields is the specification view of the projection.
func (d UserDocument) Fields() specification.Fields {
	f := specification.Fields{
		FirstName:        d.FirstName,
		LastName:         d.LastName,
		Email:            d.Email,
		Phone:            d.Phone,
		Birthdate:        d.Birthdate,
		AboutMe:          d.AboutMe,
		ProfileImageName: d.ProfileImageName,
		IsDeleted:        d.IsDeleted,
	}
	if d.Location != nil {
		if loc, err := entity.NewLocation(d.Location.Lat, d.Location.Lon); err == nil {
			f.Location = &loc
		}
	}
	return f
}
