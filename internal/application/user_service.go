// Package application holds the use cases the HTTP edge and the commands call. Commands go through the
// write repository, queries through the read repository.
package application

import (
	"context"
	"errors"
	"io"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/entity"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/repository"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"
)

// MinPasswordLength is enforced before hashing.
const MinPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrImagesDisabled     = apperror.InvalidValue("profile image upload is not enabled")
)

// ImageStore persists uploaded profile images and returns the stored object name.
type ImageStore interface {
	Put(ctx context.Context, userID, contentType string, r io.Reader) (string, error)
}

type UserService struct {
	Repo   repository.UserWriteRepository
	Hasher entity.PasswordHasher
	Images ImageStore
	Logger *logrus.Logger
	Now    func() time.Time
}

func NewUserService(repo repository.UserWriteRepository, hasher entity.PasswordHasher, images ImageStore, logger *logrus.Logger) *UserService {
	return &UserService{Repo: repo, Hasher: hasher, Images: images, Logger: logger, Now: time.Now}
}

type CreateUserInput struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
	Password  string
	Birthdate *time.Time
	Latitude  *float64
	Longitude *float64
	AboutMe   string
}

// Create validates every field at once, hashes the password and stores the new user. Duplicate email or
// phone surfaces as a Conflict from the store.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	v := newValidator()
	email, err := entity.NewEmail(in.Email)
	v.check("email", err)
	phone, err := entity.NewPhoneNumber(in.Phone)
	v.check("phone", err)
	name, err := entity.NewFullName(in.FirstName, in.LastName)
	v.check(nameField(err), err)
	loc, err := optionalLocation(in.Latitude, in.Longitude)
	v.check("location", err)
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		v.add("password", "must be at least 8 characters long")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	creds, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.Internal("hash password", err)
	}
	u, err := entity.NewUser(entity.NewUserParams{
		Email:       email,
		Name:        name,
		Phone:       phone,
		Location:    loc,
		Birthdate:   in.Birthdate,
		AboutMe:     in.AboutMe,
		Credentials: creds,
		Now:         s.Now(),
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger().WithField("user_id", u.ID().String()).Info("user created")
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.Repo.GetByID(ctx, id, false)
}

// UpdateProfileInput replaces the profile fields that are non-nil.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Birthdate *time.Time
	AboutMe   *string
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*entity.User, error) {
	return s.mutate(ctx, id, func(u *entity.User, now time.Time) error {
		first, last := u.Name().First(), u.Name().Last()
		if in.FirstName != nil {
			first = *in.FirstName
		}
		if in.LastName != nil {
			last = *in.LastName
		}
		name, err := entity.NewFullName(first, last)
		if err != nil {
			return validationFrom(nameField(err), err)
		}
		birthdate := u.Birthdate()
		if in.Birthdate != nil {
			birthdate = in.Birthdate
		}
		aboutMe := u.AboutMe()
		if in.AboutMe != nil {
			aboutMe = *in.AboutMe
		}
		return u.UpdateProfile(name, birthdate, aboutMe, now)
	})
}

func (s *UserService) UpdateLocation(ctx context.Context, id string, lat, lon float64) (*entity.User, error) {
	loc, err := entity.NewLocation(lat, lon)
	if err != nil {
		return nil, validationFrom("location", err)
	}
	return s.mutate(ctx, id, func(u *entity.User, now time.Time) error {
		return u.UpdateLocation(loc, now)
	})
}

func (s *UserService) ChangeContact(ctx context.Context, id, email, phone string) (*entity.User, error) {
	v := newValidator()
	e, err := entity.NewEmail(email)
	v.check("email", err)
	p, err := entity.NewPhoneNumber(phone)
	v.check("phone", err)
	if err := v.err(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(u *entity.User, now time.Time) error {
		return u.ChangeContact(e, p, now)
	})
}

// ChangePassword requires the current password.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	if utf8.RuneCountInString(next) < MinPasswordLength {
		return apperror.Validation(map[string]string{"new_password": "must be at least 8 characters long"})
	}
	_, err := s.mutate(ctx, id, func(u *entity.User, now time.Time) error {
		if !s.Hasher.Verify(current, u.Credentials()) {
			return ErrInvalidCredentials
		}
		creds, err := s.Hasher.Hash(next)
		if err != nil {
			return apperror.Internal("hash password", err)
		}
		return u.ChangePassword(creds, now)
	})
	return err
}

// Authenticate verifies the password and records the login. Unknown, deleted and wrong-password users
// all fail with ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, email, false)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.Hasher.Verify(password, u.Credentials()) {
		return nil, ErrInvalidCredentials
	}
	if err := u.RecordLogin(s.Now()); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) UploadProfileImage(ctx context.Context, id, contentType string, r io.Reader) (*entity.User, error) {
	if s.Images == nil {
		return nil, ErrImagesDisabled
	}
	u, err := s.Repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	name, err := s.Images.Put(ctx, u.ID().String(), contentType, r)
	if err != nil {
		return nil, err
	}
	if err := u.ChangeProfileImage(name, s.Now()); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}

func (s *UserService) Restore(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if err := u.Restore(s.Now()); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// mutate loads an active user, applies fn and saves. fn leaving no pending events skips the write.
func (s *UserService) mutate(ctx context.Context, id string, fn func(u *entity.User, now time.Time) error) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if err := fn(u, s.Now()); err != nil {
		return nil, err
	}
	if len(u.PendingEvents()) == 0 {
		return u, nil
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) logger() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

func optionalLocation(lat, lon *float64) (*entity.Location, error) {
	switch {
	case lat == nil && lon == nil:
		return nil, nil
	case lat == nil || lon == nil:
		return nil, errLocationPair
	}
	loc, err := entity.NewLocation(*lat, *lon)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

var errLocationPair = apperror.InvalidValue("latitude and longitude must be given together")

func nameField(err error) string {
	switch {
	case errors.Is(err, entity.ErrFirstNameRequired):
		return "first_name"
	case errors.Is(err, entity.ErrLastNameRequired):
		return "last_name"
	default:
		return "name"
	}
}
