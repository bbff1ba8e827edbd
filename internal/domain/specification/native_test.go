package specification_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/specification"
)

func toJSON(t *testing.T, f specification.Filter) string {
	t.Helper()
	b, err := json.Marshal(f)
	require.NoError(t, err)
	return string(b)
}

func TestToNativeFilter_Leaves(t *testing.T) {
	tests := []struct {
		name string
		spec specification.Spec
		want string
	}{
		{"active", specification.Active(), `{"term":{"is_deleted":false}}`},
		{"adult", specification.Adult(), `{"range":{"birthdate":{"lte":"now-18y/d"}}}`},
		{"age range", must(t)(specification.AgeRange(20, 30)), `{"range":{"birthdate":{"gt":"now-31y/d","lte":"now-20y/d"}}}`},
		{"email", must(t)(specification.EmailEquals("A@Example.com")), `{"term":{"email":"a@example.com"}}`},
		{"phone", must(t)(specification.PhoneEquals("+1 (555) 0000")), `{"term":{"phone":"+15550000"}}`},
		{"search escapes", must(t)(specification.Search("A*b?")),
			`{"wildcard":{"search_tokens":{"case_insensitive":true,"value":"*a\\*b\\?*"}}}`},
		{"geo", must(t)(specification.GeoRadius(-6.2, 106.8, 2.5)),
			`{"geo_distance":{"distance":"2.5km","location":{"lat":-6.2,"lon":106.8}}}`},
		{"complete", specification.CompleteProfile(),
			`{"bool":{"filter":[{"exists":{"field":"birthdate"}},{"exists":{"field":"location"}},{"exists":{"field":"about_me"}},{"exists":{"field":"profile_image_name"}}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, toJSON(t, tt.spec.ToNativeFilter()))
		})
	}
}

func TestToNativeFilter_Composites(t *testing.T) {
	search := must(t)(specification.Search("ada"))

	and := specification.Active().And(specification.Adult())
	assert.JSONEq(t,
		`{"bool":{"filter":[{"term":{"is_deleted":false}},{"range":{"birthdate":{"lte":"now-18y/d"}}}]}}`,
		toJSON(t, and.ToNativeFilter()))

	or := specification.Adult().Or(search)
	assert.JSONEq(t,
		`{"bool":{"should":[{"range":{"birthdate":{"lte":"now-18y/d"}}},{"wildcard":{"search_tokens":{"case_insensitive":true,"value":"*ada*"}}}],"minimum_should_match":1}}`,
		toJSON(t, or.ToNativeFilter()))

	not := specification.Active().Not()
	assert.JSONEq(t,
		`{"bool":{"must_not":[{"term":{"is_deleted":false}}]}}`,
		toJSON(t, not.ToNativeFilter()))

	assert.JSONEq(t, `{"match_all":{}}`, toJSON(t, specification.And().ToNativeFilter()))
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

// boundFor resolves "now-Ny/d" the way Elasticsearch does: years are subtracted with the day clamped to
// the end of the month, then rounded to the day.
func boundFor(t *testing.T, expr string, now time.Time) time.Time {
	t.Helper()
	var years int
	_, err := fmt.Sscanf(expr, "now-%dy/d", &years)
	require.NoError(t, err, expr)
	y, m, d := now.Year()-years, now.Month(), now.Day()
	if last := day(y, m+1, 0).Day(); d > last {
		d = last
	}
	return day(y, m, d)
}

// matchesNative evaluates a birthdate range filter against a day-precision birthdate. Both range ends
// round up to the end of the bound's day.
func matchesNative(t *testing.T, f specification.Filter, birth, now time.Time) bool {
	t.Helper()
	var parsed struct {
		Range struct {
			Birthdate map[string]string `json:"birthdate"`
		} `json:"range"`
	}
	require.NoError(t, json.Unmarshal([]byte(toJSON(t, f)), &parsed))
	require.NotEmpty(t, parsed.Range.Birthdate)
	for op, expr := range parsed.Range.Birthdate {
		bound := boundFor(t, expr, now)
		switch op {
		case "lte":
			if birth.After(bound) {
				return false
			}
		case "gt":
			if !birth.After(bound) {
				return false
			}
		default:
			t.Fatalf("unexpected range operator %q", op)
		}
	}
	return true
}

func TestAgeSpecs_NativeAgreesWithMatchesOnEdgeDays(t *testing.T) {
	adult := specification.Adult()
	twenties := must(t)(specification.AgeRange(20, 30))
	minors := must(t)(specification.AgeRange(0, 17))
	june := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	leapDay := time.Date(2024, time.February, 29, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		spec  specification.Spec
		birth time.Time
		now   time.Time
		want  bool
	}{
		{"18th birthday today", adult, day(2006, time.June, 15), june, true},
		{"18th birthday tomorrow", adult, day(2006, time.June, 16), june, false},
		{"18th birthday yesterday", adult, day(2006, time.June, 14), june, true},
		{"turns 20 today", twenties, day(2004, time.June, 15), june, true},
		{"turns 20 tomorrow", twenties, day(2004, time.June, 16), june, false},
		{"turns 31 today", twenties, day(1993, time.June, 15), june, false},
		{"turns 31 tomorrow", twenties, day(1993, time.June, 16), june, true},
		{"leap birthday, day before in a common year", adult, day(2000, time.February, 29), time.Date(2018, time.February, 28, 12, 0, 0, 0, time.UTC), false},
		{"leap birthday, March 1st in a common year", adult, day(2000, time.February, 29), time.Date(2018, time.March, 1, 12, 0, 0, 0, time.UTC), true},
		{"born February 28th, evaluated on leap day", adult, day(2006, time.February, 28), leapDay, true},
		{"born March 1st, evaluated on leap day", adult, day(2006, time.March, 1), leapDay, false},
		{"minor upper edge on leap day", minors, day(2006, time.February, 28), leapDay, false},
		{"minor just inside on leap day", minors, day(2006, time.March, 1), leapDay, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			birth := tt.birth
			inMemory := tt.spec.Matches(specification.Fields{Birthdate: &birth}, tt.now)
			native := matchesNative(t, tt.spec.ToNativeFilter(), tt.birth, tt.now)

			assert.Equal(t, tt.want, inMemory, "Matches")
			assert.Equal(t, tt.want, native, "ToNativeFilter")
		})
	}
}
