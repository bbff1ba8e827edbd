package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/entity"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/event"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"
)

var now = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

func birthdateForAge(years int) *time.Time {
	b := now.AddDate(-years, 0, 0)
	return &b
}

func newParams(t *testing.T, birthdate *time.Time) entity.NewUserParams {
	t.Helper()
	email, err := entity.NewEmail("a@example.com")
	require.NoError(t, err)
	phone, err := entity.NewPhoneNumber("+15550000")
	require.NoError(t, err)
	name, err := entity.NewFullName("Ada", "Lovelace")
	require.NoError(t, err)
	creds, err := entity.NewCredentials("", "$2a$10$hash")
	require.NoError(t, err)
	return entity.NewUserParams{
		Email:       email,
		Name:        name,
		Phone:       phone,
		Birthdate:   birthdate,
		Credentials: creds,
		Now:         now,
	}
}

func newUser(t *testing.T) *entity.User {
	t.Helper()
	u, err := entity.NewUser(newParams(t, birthdateForAge(25)))
	require.NoError(t, err)
	return u
}

func TestNewUser_MinimumAgeBoundary(t *testing.T) {
	tests := []struct {
		name    string
		age     int
		wantErr bool
	}{
		{"twelve", 12, true},
		{"thirteen exactly", 13, false},
		{"adult", 25, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := entity.NewUser(newParams(t, birthdateForAge(tt.age)))
			if tt.wantErr {
				assert.ErrorIs(t, err, entity.ErrUnderMinimumAge)
				assert.True(t, apperror.Is(err, apperror.KindDomainRule))
				assert.Nil(t, u)
				return
			}
			require.NoError(t, err)
			age, ok := u.Age(now)
			assert.True(t, ok)
			assert.Equal(t, tt.age, age)
		})
	}
}

func TestNewUser_DayBeforeThirteenthBirthday(t *testing.T) {
	b := now.AddDate(-13, 0, 1)
	_, err := entity.NewUser(newParams(t, &b))
	assert.ErrorIs(t, err, entity.ErrUnderMinimumAge)
}

func TestNewUser_RecordsCreated(t *testing.T) {
	u := newUser(t)

	events := u.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, event.UserCreated, events[0].EventType())
	assert.Equal(t, u.ID().String(), events[0].AggregateID())
	assert.Nil(t, u.UpdatedAt())
	assert.Equal(t, now, u.CreatedAt())
}

func TestReconstituteUser_RecordsNothing(t *testing.T) {
	snap := newUser(t).Snapshot()
	snap.Version = 4

	u, err := entity.ReconstituteUser(snap)
	require.NoError(t, err)

	assert.Empty(t, u.PendingEvents())
	assert.Equal(t, int64(4), u.Version())
	assert.Equal(t, snap, u.Snapshot())
}

func TestMutatorsAfterDelete(t *testing.T) {
	later := now.Add(time.Hour)
	loc, _ := entity.NewLocation(1, 2)
	name, _ := entity.NewFullName("Grace", "Hopper")
	creds, _ := entity.NewCredentials("", "other")
	email, _ := entity.NewEmail("b@example.com")
	phone, _ := entity.NewPhoneNumber("+15551111")

	mutators := map[string]func(u *entity.User) error{
		"UpdateProfile":      func(u *entity.User) error { return u.UpdateProfile(name, nil, "hi", later) },
		"UpdateLocation":     func(u *entity.User) error { return u.UpdateLocation(loc, later) },
		"RecordLogin":        func(u *entity.User) error { return u.RecordLogin(later) },
		"ChangePassword":     func(u *entity.User) error { return u.ChangePassword(creds, later) },
		"ChangeContact":      func(u *entity.User) error { return u.ChangeContact(email, phone, later) },
		"ChangeProfileImage": func(u *entity.User) error { return u.ChangeProfileImage("x.png", later) },
		"Delete":             func(u *entity.User) error { return u.Delete(later) },
	}
	for name, mutate := range mutators {
		t.Run(name, func(t *testing.T) {
			u := newUser(t)
			require.NoError(t, u.Delete(now))
			u.ClearEvents()
			updatedAt := u.UpdatedAt()

			err := mutate(u)

			assert.ErrorIs(t, err, entity.ErrDeletedAggregateOperation)
			assert.Equal(t, updatedAt, u.UpdatedAt())
			assert.Empty(t, u.PendingEvents())
		})
	}
}

func TestMutatorsTouchUpdatedAt(t *testing.T) {
	later := now.Add(time.Hour)
	u := newUser(t)
	u.ClearEvents()

	loc, err := entity.NewLocation(-6.2, 106.8)
	require.NoError(t, err)
	require.NoError(t, u.UpdateLocation(loc, later))

	require.NotNil(t, u.UpdatedAt())
	assert.Equal(t, later, *u.UpdatedAt())
	events := u.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, event.UserLocationUpdated, events[0].EventType())
}

func TestUpdateLocation_NoChangeRecordsNothing(t *testing.T) {
	u := newUser(t)
	loc, _ := entity.NewLocation(1, 1)
	require.NoError(t, u.UpdateLocation(loc, now))
	u.ClearEvents()
	before := u.UpdatedAt()

	require.NoError(t, u.UpdateLocation(loc, now.Add(time.Minute)))

	assert.Empty(t, u.PendingEvents())
	assert.Equal(t, before, u.UpdatedAt())
}

func TestUpdateProfile_RechecksAgeOnBirthdateChange(t *testing.T) {
	u := newUser(t)
	err := u.UpdateProfile(u.Name(), birthdateForAge(10), "", now)
	assert.ErrorIs(t, err, entity.ErrUnderMinimumAge)
	assert.Nil(t, u.UpdatedAt())
}

func TestDeleteAndRestore(t *testing.T) {
	u := newUser(t)
	u.ClearEvents()
	at := now.Add(time.Minute)

	require.NoError(t, u.Delete(at))
	assert.True(t, u.IsDeleted())
	require.NotNil(t, u.DeletedAt())
	assert.Equal(t, at, *u.DeletedAt())
	assert.Equal(t, at, *u.UpdatedAt())

	require.NoError(t, u.Restore(at.Add(time.Minute)))
	assert.False(t, u.IsDeleted())
	assert.Nil(t, u.DeletedAt())

	types := []event.Type{}
	for _, e := range u.PendingEvents() {
		types = append(types, e.EventType())
	}
	assert.Equal(t, []event.Type{event.UserDeleted, event.UserRestored}, types)

	assert.ErrorIs(t, u.Restore(at), entity.ErrNotDeleted)
}

func TestPendingEventsIsACopy(t *testing.T) {
	u := newUser(t)
	events := u.PendingEvents()
	events[0] = nil
	assert.NotNil(t, u.PendingEvents()[0])
}
