package event

import "time"

const (
	UserCreated             Type = "users.UserCreated"
	UserProfileUpdated      Type = "users.UserProfileUpdated"
	UserLocationUpdated     Type = "users.UserLocationUpdated"
	UserLoggedIn            Type = "users.UserLoggedIn"
	UserPasswordChanged     Type = "users.UserPasswordChanged"
	UserContactChanged      Type = "users.UserContactChanged"
	UserProfileImageChanged Type = "users.UserProfileImageChanged"
	UserDeleted             Type = "users.UserDeleted"
	UserRestored            Type = "users.UserRestored"
)

// Category groups event types by how the read side reacts to them.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryCreation
	CategoryUpdate
	CategoryDeletion
)

// CategoryOf returns the category of a user event type.
func CategoryOf(t Type) Category {
	switch t {
	case UserCreated, UserRestored:
		return CategoryCreation
	case UserProfileUpdated, UserLocationUpdated, UserLoggedIn, UserPasswordChanged,
		UserContactChanged, UserProfileImageChanged:
		return CategoryUpdate
	case UserDeleted:
		return CategoryDeletion
	default:
		return CategoryUnknown
	}
}

// UserTypes lists every user event type in a stable order.
func UserTypes() []Type {
	return []Type{
		UserCreated, UserProfileUpdated, UserLocationUpdated, UserLoggedIn, UserPasswordChanged,
		UserContactChanged, UserProfileImageChanged, UserDeleted, UserRestored,
	}
}

// Payloads carry identity plus the minimum a consumer needs without re-fetching.

type UserCreatedEvent struct {
	Base
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func NewUserCreated(userID, email string, at time.Time) UserCreatedEvent {
	return UserCreatedEvent{Base: NewBase(UserCreated, userID, at), UserID: userID, Email: email}
}

// UserChangedEvent is the payload shared by every update-type event.
type UserChangedEvent struct {
	Base
	UserID string `json:"user_id"`
}

func NewUserChanged(t Type, userID string, at time.Time) UserChangedEvent {
	return UserChangedEvent{Base: NewBase(t, userID, at), UserID: userID}
}

type UserLoggedInEvent struct {
	Base
	UserID     string    `json:"user_id"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

func NewUserLoggedIn(userID string, at time.Time) UserLoggedInEvent {
	return UserLoggedInEvent{Base: NewBase(UserLoggedIn, userID, at), UserID: userID, LoggedInAt: at.UTC()}
}

type UserDeletedEvent struct {
	Base
	UserID    string    `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

func NewUserDeleted(userID string, at time.Time) UserDeletedEvent {
	return UserDeletedEvent{Base: NewBase(UserDeleted, userID, at), UserID: userID, DeletedAt: at.UTC()}
}
