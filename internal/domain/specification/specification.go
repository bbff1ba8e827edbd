// Package specification implements composable predicates over users.
//
// A Spec is a tagged variant: the Kind selects which parameters are meaningful. Every Spec has two
// total interpretations that must agree: Matches evaluates it in memory and ToNativeFilter compiles it
// to an Elasticsearch query DSL fragment. The zero Spec is True and matches everything.
package specification

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/entity"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"
)

type Kind int

const (
	KindTrue Kind = iota
	KindActive
	KindAdult
	KindAgeRange
	KindEmailEquals
	KindPhoneEquals
	KindSearch
	KindCompleteProfile
	KindGeoRadius
	KindAnd
	KindOr
	KindNot
)

var kindNames = map[Kind]string{
	KindTrue:            "True",
	KindActive:          "Active",
	KindAdult:           "Adult",
	KindAgeRange:        "AgeRange",
	KindEmailEquals:     "EmailEquals",
	KindPhoneEquals:     "PhoneEquals",
	KindSearch:          "Search",
	KindCompleteProfile: "CompleteProfile",
	KindGeoRadius:       "GeoRadius",
	KindAnd:             "And",
	KindOr:              "Or",
	KindNot:             "Not",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// AdultAge is the age from which the Adult specification matches.
const AdultAge = 18

var (
	ErrInvalidSpecification = apperror.InvalidValue("invalid specification")
	ErrNilCandidate         = errors.New("specification: nil candidate")
)

// Spec is an immutable user predicate.
type Spec struct {
	kind     Kind
	minAge   int
	maxAge   int
	value    string
	center   entity.Location
	radiusKm float64
	children []Spec
}

func (s Spec) Kind() Kind { return s.kind }

// True matches every user.
func True() Spec { return Spec{kind: KindTrue} }

// Active matches users that are not soft-deleted.
func Active() Spec { return Spec{kind: KindActive} }

// Adult matches users aged 18 or more at evaluation time. Users without a birthdate never match.
func Adult() Spec { return Spec{kind: KindAdult} }

// AgeRange matches users whose age is within [min, max], inclusive.
func AgeRange(min, max int) (Spec, error) {
	if min < 0 {
		return Spec{}, invalid("minimum age must not be negative")
	}
	if max < min {
		return Spec{}, invalid("maximum age must not be less than minimum age")
	}
	return Spec{kind: KindAgeRange, minAge: min, maxAge: max}, nil
}

func EmailEquals(email string) (Spec, error) {
	e, err := entity.NewEmail(email)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %w", ErrInvalidSpecification, err)
	}
	return Spec{kind: KindEmailEquals, value: e.String()}, nil
}

func PhoneEquals(phone string) (Spec, error) {
	p, err := entity.NewPhoneNumber(phone)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %w", ErrInvalidSpecification, err)
	}
	return Spec{kind: KindPhoneEquals, value: p.String()}, nil
}

// Search matches users whose first name, last name, email or phone contains term, ignoring case.
func Search(term string) (Spec, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return Spec{}, invalid("search term must not be empty")
	}
	return Spec{kind: KindSearch, value: term}, nil
}

// CompleteProfile matches users with birthdate, location, about-me and profile image all set.
func CompleteProfile() Spec { return Spec{kind: KindCompleteProfile} }

// GeoRadius matches users located within radiusKm of (lat, lon). Users without a location never match.
func GeoRadius(lat, lon, radiusKm float64) (Spec, error) {
	if radiusKm < 0 || math.IsNaN(radiusKm) {
		return Spec{}, invalid("radius must not be negative")
	}
	center, err := entity.NewLocation(lat, lon)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %w", ErrInvalidSpecification, err)
	}
	return Spec{kind: KindGeoRadius, center: center, radiusKm: radiusKm}, nil
}

// And matches when every spec matches. And() is True.
func And(specs ...Spec) Spec {
	return compose(KindAnd, specs)
}

// Or matches when at least one spec matches. Or() matches nothing.
func Or(specs ...Spec) Spec {
	if len(specs) == 0 {
		return Not(True())
	}
	return compose(KindOr, specs)
}

func Not(s Spec) Spec {
	return Spec{kind: KindNot, children: []Spec{s}}
}

func (s Spec) And(other Spec) Spec { return And(s, other) }
func (s Spec) Or(other Spec) Spec  { return Or(s, other) }
func (s Spec) Not() Spec           { return Not(s) }

func compose(kind Kind, specs []Spec) Spec {
	switch len(specs) {
	case 0:
		return True()
	case 1:
		return specs[0]
	}
	children := make([]Spec, len(specs))
	copy(children, specs)
	return Spec{kind: kind, children: children}
}

// Matches evaluates the spec against f as of now. Composites short-circuit.
func (s Spec) Matches(f Fields, now time.Time) bool {
	switch s.kind {
	case KindTrue:
		return true
	case KindActive:
		return !f.IsDeleted
	case KindAdult:
		return f.Birthdate != nil && entity.AgeOn(*f.Birthdate, now) >= AdultAge
	case KindAgeRange:
		if f.Birthdate == nil {
			return false
		}
		age := entity.AgeOn(*f.Birthdate, now)
		return age >= s.minAge && age <= s.maxAge
	case KindEmailEquals:
		return strings.EqualFold(f.Email, s.value)
	case KindPhoneEquals:
		return f.Phone == s.value
	case KindSearch:
		for _, v := range [...]string{f.FirstName, f.LastName, f.Email, f.Phone} {
			if strings.Contains(strings.ToLower(v), s.value) {
				return true
			}
		}
		return false
	case KindCompleteProfile:
		return f.Birthdate != nil && f.Location != nil && f.AboutMe != "" && f.ProfileImageName != ""
	case KindGeoRadius:
		return f.Location != nil && s.center.DistanceKm(*f.Location) <= s.radiusKm
	case KindAnd:
		for _, c := range s.children {
			if !c.Matches(f, now) {
				return false
			}
		}
		return true
	case KindOr:
		for _, c := range s.children {
			if c.Matches(f, now) {
				return true
			}
		}
		return false
	case KindNot:
		return !s.children[0].Matches(f, now)
	}
	return false
}

// IsSatisfiedBy evaluates the spec against u at the current time.
func (s Spec) IsSatisfiedBy(u *entity.User) (bool, error) {
	return s.IsSatisfiedByAt(u, time.Now())
}

func (s Spec) IsSatisfiedByAt(u *entity.User, now time.Time) (bool, error) {
	if u == nil {
		return false, ErrNilCandidate
	}
	return s.Matches(FromUser(u), now), nil
}

// ToPredicate returns the in-memory form as a plain function. A nil user never matches.
func (s Spec) ToPredicate() func(*entity.User) bool {
	return func(u *entity.User) bool {
		ok, err := s.IsSatisfiedBy(u)
		return err == nil && ok
	}
}

// String renders the spec for logs, e.g. "And(Active, Search(ada))".
func (s Spec) String() string {
	switch s.kind {
	case KindAgeRange:
		return fmt.Sprintf("AgeRange(%d..%d)", s.minAge, s.maxAge)
	case KindEmailEquals, KindPhoneEquals, KindSearch:
		return fmt.Sprintf("%s(%s)", s.kind, s.value)
	case KindGeoRadius:
		return fmt.Sprintf("GeoRadius(%g,%g <= %gkm)", s.center.Lat(), s.center.Lon(), s.radiusKm)
	case KindAnd, KindOr, KindNot:
		parts := make([]string, len(s.children))
		for i, c := range s.children {
			parts[i] = c.String()
		}
		return s.kind.String() + "(" + strings.Join(parts, ", ") + ")"
	}
	return s.kind.String()
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidSpecification, msg)
}
