package specification

import (
	"fmt"
	"strings"
)

// Filter is a query DSL fragment in the read store's native language (Elasticsearch).
type Filter = map[string]any

// Document fields the native filters refer to. They must match the read model mapping.
const (
	FieldIsDeleted        = "is_deleted"
	FieldBirthdate        = "birthdate"
	FieldEmail            = "email"
	FieldPhone            = "phone"
	FieldSearchTokens     = "search_tokens"
	FieldLocation         = "location"
	FieldAboutMe          = "about_me"
	FieldProfileImageName = "profile_image_name"
)

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// ToNativeFilter compiles the spec into a filter-context query. Composites compile to bool queries,
// so the store evaluates the whole predicate.
//
// Age-based specs use date math relative to the store's "now", rounded to the day, which agrees with
// whole-year age arithmetic on day-precision birthdates.
func (s Spec) ToNativeFilter() Filter {
	switch s.kind {
	case KindActive:
		return term(FieldIsDeleted, false)
	case KindAdult:
		return Filter{"range": Filter{FieldBirthdate: Filter{"lte": fmt.Sprintf("now-%dy/d", AdultAge)}}}
	case KindAgeRange:
		return Filter{"range": Filter{FieldBirthdate: Filter{
			"lte": fmt.Sprintf("now-%dy/d", s.minAge),
			"gt":  fmt.Sprintf("now-%dy/d", s.maxAge+1),
		}}}
	case KindEmailEquals:
		return term(FieldEmail, s.value)
	case KindPhoneEquals:
		return term(FieldPhone, s.value)
	case KindSearch:
		return Filter{"wildcard": Filter{FieldSearchTokens: Filter{
			"value":            "*" + wildcardEscaper.Replace(s.value) + "*",
			"case_insensitive": true,
		}}}
	case KindCompleteProfile:
		return boolQuery("filter", []Filter{
			exists(FieldBirthdate), exists(FieldLocation), exists(FieldAboutMe), exists(FieldProfileImageName),
		})
	case KindGeoRadius:
		return Filter{"geo_distance": Filter{
			"distance": fmt.Sprintf("%gkm", s.radiusKm),
			FieldLocation: Filter{
				"lat": s.center.Lat(),
				"lon": s.center.Lon(),
			},
		}}
	case KindAnd:
		return boolQuery("filter", s.childFilters())
	case KindOr:
		q := boolQuery("should", s.childFilters())
		q["bool"].(Filter)["minimum_should_match"] = 1
		return q
	case KindNot:
		return boolQuery("must_not", s.childFilters())
	}
	return Filter{"match_all": Filter{}}
}

func (s Spec) childFilters() []Filter {
	out := make([]Filter, len(s.children))
	for i, c := range s.children {
		out[i] = c.ToNativeFilter()
	}
	return out
}

func term(field string, value any) Filter {
	return Filter{"term": Filter{field: value}}
}

func exists(field string) Filter {
	return Filter{"exists": Filter{"field": field}}
}

func boolQuery(occur string, clauses []Filter) Filter {
	return Filter{"bool": Filter{occur: clauses}}
}
