package entity

import (
	"time"
	"unicode/utf8"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/event"
)

// MinimumAge is the youngest age, in whole years, a user may have.
const MinimumAge = 13

const maxAboutMe = 1000

// User is the aggregate root of the user domain. State changes only through the named business methods
// below; each records at most one domain event.
type User struct {
	AggregateRoot

	id               UserID
	email            Email
	name             FullName
	phone            PhoneNumber
	location         *Location
	birthdate        *time.Time
	aboutMe          string
	credentials      Credentials
	lastLogin        *time.Time
	profileImageName string
}

// NewUserParams carries the validated inputs of NewUser.
type NewUserParams struct {
	ID          UserID // generated when zero
	Email       Email
	Name        FullName
	Phone       PhoneNumber
	Location    *Location
	Birthdate   *time.Time
	AboutMe     string
	Credentials Credentials
	Now         time.Time
}

// NewUser creates a user and records UserCreated.
func NewUser(p NewUserParams) (*User, error) {
	if p.Email.IsZero() {
		return nil, ErrEmailRequired
	}
	if p.Phone.IsZero() {
		return nil, ErrPhoneRequired
	}
	if p.Name.First() == "" {
		return nil, ErrFirstNameRequired
	}
	if p.Credentials.IsZero() {
		return nil, ErrCredentialsRequired
	}
	if err := checkAboutMe(p.AboutMe); err != nil {
		return nil, err
	}
	if err := checkBirthdate(p.Birthdate, p.Now); err != nil {
		return nil, err
	}

	id := p.ID
	if id.IsZero() {
		id = NewUserID()
	}
	now := p.Now.UTC()
	u := &User{
		AggregateRoot: AggregateRoot{createdAt: now},
		id:            id,
		email:         p.Email,
		name:          p.Name,
		phone:         p.Phone,
		location:      copyLocation(p.Location),
		birthdate:     dateOnly(p.Birthdate),
		aboutMe:       p.AboutMe,
		credentials:   p.Credentials,
	}
	u.RecordEvent(event.NewUserCreated(id.String(), p.Email.String(), now))
	return u, nil
}

// UserSnapshot is the persisted form of a user. Stores read it with Snapshot and rebuild users with
// ReconstituteUser.
type UserSnapshot struct {
	ID               string
	Email            string
	FirstName        string
	LastName         string
	Phone            string
	Latitude         *float64
	Longitude        *float64
	Birthdate        *time.Time
	AboutMe          string
	PasswordSalt     string
	PasswordHash     string
	LastLogin        *time.Time
	ProfileImageName string
	CreatedAt        time.Time
	UpdatedAt        *time.Time
	DeletedAt        *time.Time
	IsDeleted        bool
	Version          int64
}

// ReconstituteUser rebuilds a stored user. It records no events.
func ReconstituteUser(s UserSnapshot) (*User, error) {
	id, err := ParseUserID(s.ID)
	if err != nil {
		return nil, err
	}
	email, err := NewEmail(s.Email)
	if err != nil {
		return nil, err
	}
	phone, err := NewPhoneNumber(s.Phone)
	if err != nil {
		return nil, err
	}
	name, err := NewFullName(s.FirstName, s.LastName)
	if err != nil {
		return nil, err
	}
	var loc *Location
	if s.Latitude != nil && s.Longitude != nil {
		l, err := NewLocation(*s.Latitude, *s.Longitude)
		if err != nil {
			return nil, err
		}
		loc = &l
	}
	return &User{
		AggregateRoot: AggregateRoot{
			createdAt: s.CreatedAt.UTC(),
			updatedAt: copyTime(s.UpdatedAt),
			deletedAt: copyTime(s.DeletedAt),
			deleted:   s.IsDeleted,
			version:   s.Version,
		},
		id:               id,
		email:            email,
		name:             name,
		phone:            phone,
		location:         loc,
		birthdate:        copyTime(s.Birthdate),
		aboutMe:          s.AboutMe,
		credentials:      Credentials{salt: s.PasswordSalt, hash: s.PasswordHash},
		lastLogin:        copyTime(s.LastLogin),
		profileImageName: s.ProfileImageName,
	}, nil
}

// Snapshot exports the user's state for persistence.
func (u *User) Snapshot() UserSnapshot {
	s := UserSnapshot{
		ID:               u.id.String(),
		Email:            u.email.String(),
		FirstName:        u.name.First(),
		LastName:         u.name.Last(),
		Phone:            u.phone.String(),
		Birthdate:        copyTime(u.birthdate),
		AboutMe:          u.aboutMe,
		PasswordSalt:     u.credentials.Salt(),
		PasswordHash:     u.credentials.Hash(),
		LastLogin:        copyTime(u.lastLogin),
		ProfileImageName: u.profileImageName,
		CreatedAt:        u.createdAt,
		UpdatedAt:        copyTime(u.updatedAt),
		DeletedAt:        copyTime(u.deletedAt),
		IsDeleted:        u.deleted,
		Version:          u.version,
	}
	if u.location != nil {
		lat, lon := u.location.Lat(), u.location.Lon()
		s.Latitude, s.Longitude = &lat, &lon
	}
	return s
}

func (u *User) ID() UserID               { return u.id }
func (u *User) Email() Email             { return u.email }
func (u *User) Name() FullName           { return u.name }
func (u *User) Phone() PhoneNumber       { return u.phone }
func (u *User) Location() *Location      { return copyLocation(u.location) }
func (u *User) Birthdate() *time.Time    { return copyTime(u.birthdate) }
func (u *User) AboutMe() string          { return u.aboutMe }
func (u *User) Credentials() Credentials { return u.credentials }
func (u *User) LastLogin() *time.Time    { return copyTime(u.lastLogin) }
func (u *User) ProfileImageName() string { return u.profileImageName }

// Age returns the user's age in whole years on now. ok is false when no birthdate is known.
func (u *User) Age(now time.Time) (age int, ok bool) {
	if u.birthdate == nil {
		return 0, false
	}
	return AgeOn(*u.birthdate, now), true
}

// UpdateProfile replaces name, birthdate and about-me. The age rule is re-checked when the birthdate
// changes.
func (u *User) UpdateProfile(name FullName, birthdate *time.Time, aboutMe string, now time.Time) error {
	if err := u.EnsureActive(); err != nil {
		return err
	}
	if name.First() == "" {
		return ErrFirstNameRequired
	}
	if err := checkAboutMe(aboutMe); err != nil {
		return err
	}
	birthdate = dateOnly(birthdate)
	birthdateChanged := !sameTime(u.birthdate, birthdate)
	if birthdateChanged {
		if err := checkBirthdate(birthdate, now); err != nil {
			return err
		}
	}
	if name.Equals(u.name) && !birthdateChanged && aboutMe == u.aboutMe {
		return nil
	}
	u.name = name
	u.birthdate = birthdate
	u.aboutMe = aboutMe
	u.Touch(now)
	u.RecordEvent(event.NewUserChanged(event.UserProfileUpdated, u.id.String(), now))
	return nil
}

func (u *User) UpdateLocation(loc Location, now time.Time) error {
	if err := u.EnsureActive(); err != nil {
		return err
	}
	if u.location != nil && u.location.Equals(loc) {
		return nil
	}
	u.location = &loc
	u.Touch(now)
	u.RecordEvent(event.NewUserChanged(event.UserLocationUpdated, u.id.String(), now))
	return nil
}

func (u *User) RecordLogin(at time.Time) error {
	if err := u.EnsureActive(); err != nil {
		return err
	}
	t := at.UTC()
	u.lastLogin = &t
	u.Touch(at)
	u.RecordEvent(event.NewUserLoggedIn(u.id.String(), at))
	return nil
}

func (u *User) ChangePassword(creds Credentials, now time.Time) error {
	if err := u.EnsureActive(); err != nil {
		return err
	}
	if creds.IsZero() {
		return ErrCredentialsRequired
	}
	u.credentials = creds
	u.Touch(now)
	u.RecordEvent(event.NewUserChanged(event.UserPasswordChanged, u.id.String(), now))
	return nil
}

// ChangeContact replaces email and phone. Uniqueness is enforced by the store on save.
func (u *User) ChangeContact(email Email, phone PhoneNumber, now time.Time) error {
	if err := u.EnsureActive(); err != nil {
		return err
	}
	if email.IsZero() {
		return ErrEmailRequired
	}
	if phone.IsZero() {
		return ErrPhoneRequired
	}
	if email.Equals(u.email) && phone.Equals(u.phone) {
		return nil
	}
	u.email = email
	u.phone = phone
	u.Touch(now)
	u.RecordEvent(event.NewUserChanged(event.UserContactChanged, u.id.String(), now))
	return nil
}

func (u *User) ChangeProfileImage(name string, now time.Time) error {
	if err := u.EnsureActive(); err != nil {
		return err
	}
	if name == "" {
		return ErrImageNameRequired
	}
	if name == u.profileImageName {
		return nil
	}
	u.profileImageName = name
	u.Touch(now)
	u.RecordEvent(event.NewUserChanged(event.UserProfileImageChanged, u.id.String(), now))
	return nil
}

// Delete soft-deletes the user and records UserDeleted.
func (u *User) Delete(now time.Time) error {
	if err := u.SoftDelete(now); err != nil {
		return err
	}
	u.RecordEvent(event.NewUserDeleted(u.id.String(), now))
	return nil
}

// Restore undoes a soft delete and records UserRestored.
func (u *User) Restore(now time.Time) error {
	if err := u.AggregateRoot.Restore(now); err != nil {
		return err
	}
	u.RecordEvent(event.NewUserChanged(event.UserRestored, u.id.String(), now))
	return nil
}

// AgeOn returns the age in whole years of someone born on birthdate, as of now.
func AgeOn(birthdate, now time.Time) int {
	by, bm, bd := birthdate.Date()
	ny, nm, nd := now.UTC().Date()
	age := ny - by
	if nm < bm || (nm == bm && nd < bd) {
		age--
	}
	return age
}

func checkBirthdate(birthdate *time.Time, now time.Time) error {
	if birthdate == nil {
		return nil
	}
	if birthdate.After(now) {
		return ErrBirthdateInFuture
	}
	if AgeOn(*birthdate, now) < MinimumAge {
		return ErrUnderMinimumAge
	}
	return nil
}

func checkAboutMe(s string) error {
	if utf8.RuneCountInString(s) > maxAboutMe {
		return ErrAboutMeTooLong
	}
	return nil
}

// dateOnly truncates a birthdate to midnight UTC.
func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	c := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &c
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func copyLocation(l *Location) *Location {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}
