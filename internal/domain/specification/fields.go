package specification

import (
	"time"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/entity"
)

// Fields is the view of a user a specification evaluates. It can be built from the aggregate or from a
// read-side projection, so both sides share one evaluation.
type Fields struct {
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Birthdate        *time.Time
	Location         *entity.Location
	AboutMe          string
	ProfileImageName string
	IsDeleted        bool
}

// FromUser builds the evaluation view of an aggregate.
func FromUser(u *entity.User) Fields {
	return Fields{
		FirstName:        u.Name().First(),
		LastName:         u.Name().Last(),
		Email:            u.Email().String(),
		Phone:            u.Phone().String(),
		Birthdate:        u.Birthdate(),
		Location:         u.Location(),
		AboutMe:          u.AboutMe(),
		ProfileImageName: u.ProfileImageName(),
		IsDeleted:        u.IsDeleted(),
	}
}
