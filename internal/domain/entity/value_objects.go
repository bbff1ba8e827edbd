package entity

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// UserID is the opaque identity of a user.
type UserID struct {
	value string
}

func NewUserID() UserID {
	return UserID{value: uuid.NewString()}
}

func ParseUserID(s string) (UserID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return UserID{}, ErrInvalidUserID
	}
	return UserID{value: s}, nil
}

func (id UserID) String() string { return id.value }
func (id UserID) IsZero() bool   { return id.value == "" }

// Email is a validated, lower-cased email address.
type Email struct {
	value string
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func NewEmail(value string) (Email, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return Email{}, ErrEmailRequired
	}
	if !emailRegex.MatchString(value) {
		return Email{}, ErrEmailInvalid
	}
	return Email{value: value}, nil
}

func (e Email) String() string          { return e.value }
func (e Email) IsZero() bool            { return e.value == "" }
func (e Email) Equals(other Email) bool { return e.value == other.value }

// PhoneNumber is a normalised E.164-like number: optional leading '+', 7 to 15 digits.
type PhoneNumber struct {
	value string
}

var (
	phoneStrip = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
	phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)
)

func NewPhoneNumber(value string) (PhoneNumber, error) {
	value = phoneStrip.Replace(strings.TrimSpace(value))
	if value == "" {
		return PhoneNumber{}, ErrPhoneRequired
	}
	if !phoneRegex.MatchString(value) {
		return PhoneNumber{}, ErrPhoneInvalid
	}
	return PhoneNumber{value: value}, nil
}

func (p PhoneNumber) String() string                { return p.value }
func (p PhoneNumber) IsZero() bool                  { return p.value == "" }
func (p PhoneNumber) Equals(other PhoneNumber) bool { return p.value == other.value }

// FullName holds first and last name.
type FullName struct {
	first string
	last  string
}

const maxNamePart = 50

func NewFullName(first, last string) (FullName, error) {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if first == "" {
		return FullName{}, ErrFirstNameRequired
	}
	if last == "" {
		return FullName{}, ErrLastNameRequired
	}
	if utf8.RuneCountInString(first) > maxNamePart || utf8.RuneCountInString(last) > maxNamePart {
		return FullName{}, ErrNameTooLong
	}
	return FullName{first: first, last: last}, nil
}

func (n FullName) First() string              { return n.first }
func (n FullName) Last() string               { return n.last }
func (n FullName) String() string             { return n.first + " " + n.last }
func (n FullName) Equals(other FullName) bool { return n == other }

// Location is a WGS84 point.
type Location struct {
	lat float64
	lon float64
}

// EarthRadiusKm matches the mean radius Elasticsearch uses for arc distances.
const EarthRadiusKm = 6371.0087714

func NewLocation(lat, lon float64) (Location, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Location{}, ErrLatitudeRange
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return Location{}, ErrLongitudeRange
	}
	return Location{lat: lat, lon: lon}, nil
}

func (l Location) Lat() float64               { return l.lat }
func (l Location) Lon() float64               { return l.lon }
func (l Location) Equals(other Location) bool { return l == other }

// DistanceKm is the haversine distance between two points.
func (l Location) DistanceKm(other Location) float64 {
	const rad = math.Pi / 180
	dLat := (other.lat - l.lat) * rad
	dLon := (other.lon - l.lon) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(l.lat*rad)*math.Cos(other.lat*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Credentials is the output of the password hashing collaborator.
type Credentials struct {
	salt string
	hash string
}

func NewCredentials(salt, hash string) (Credentials, error) {
	if hash == "" {
		return Credentials{}, ErrCredentialsRequired
	}
	return Credentials{salt: salt, hash: hash}, nil
}

func (c Credentials) Salt() string { return c.salt }
func (c Credentials) Hash() string { return c.hash }
func (c Credentials) IsZero() bool { return c.hash == "" }

// PasswordHasher hashes and verifies passwords. Implementations live outside the domain.
type PasswordHasher interface {
	Hash(plain string) (Credentials, error)
	Verify(plain string, creds Credentials) bool
}
