package handlers

import (
	"time"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/entity"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/validation"
)

type createUserRequest struct {
	Email     string   `json:"email" binding:"required,email,max=254"`
	Phone     string   `json:"phone" binding:"required,max=32"`
	FirstName string   `json:"first_name" binding:"required,max=100"`
	LastName  string   `json:"last_name" binding:"required,max=100"`
	Password  string   `json:"password" binding:"required,pwd"`
	Birthdate string   `json:"birthdate" binding:"omitempty,date"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" binding:"omitempty,longitude"`
	AboutMe   string   `json:"about_me" binding:"max=1000"`
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Birthdate *string `json:"birthdate" binding:"omitempty,date"`
	AboutMe   *string `json:"about_me" binding:"omitempty,max=1000"`
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,latitude"`
	Longitude *float64 `json:"longitude" binding:"required,longitude"`
}

type contactRequest struct {
	Email string `json:"email" binding:"required,email,max=254"`
	Phone string `json:"phone" binding:"required,max=32"`
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type searchQuery struct {
	Search          string   `form:"search" binding:"max=200"`
	AdultsOnly      bool     `form:"adults_only"`
	MinAge          *int     `form:"min_age" binding:"omitempty,gte=0,lte=150"`
	MaxAge          *int     `form:"max_age" binding:"omitempty,gte=0,lte=150"`
	Email           string   `form:"email"`
	Phone           string   `form:"phone"`
	CompleteProfile bool     `form:"complete_profile"`
	NearLat         *float64 `form:"near_lat" binding:"omitempty,latitude"`
	NearLon         *float64 `form:"near_lon" binding:"omitempty,longitude"`
	RadiusKm        *float64 `form:"radius_km" binding:"omitempty,gte=0"`
	IncludeDeleted  bool     `form:"include_deleted"`
	Page            int      `form:"page"`
	PageSize        int      `form:"page_size"`
	SortBy          string   `form:"sort_by"`
	SortDir         string   `form:"sort_dir"`
}

type userResponse struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Birthdate        string     `json:"birthdate,omitempty"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
	AboutMe          string     `json:"about_me,omitempty"`
	ProfileImageName string     `json:"profile_image_name,omitempty"`
	ProfileImageURL  string     `json:"profile_image_url,omitempty"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
	IsDeleted        bool       `json:"is_deleted"`
	Version          int64      `json:"version"`
}

func toUserResponse(u *entity.User, imageURL func(string) string) userResponse {
	res := userResponse{
		ID:               u.ID().String(),
		Email:            u.Email().String(),
		Phone:            u.Phone().String(),
		FirstName:        u.Name().First(),
		LastName:         u.Name().Last(),
		AboutMe:          u.AboutMe(),
		ProfileImageName: u.ProfileImageName(),
		LastLogin:        u.LastLogin(),
		CreatedAt:        u.CreatedAt(),
		UpdatedAt:        u.UpdatedAt(),
		IsDeleted:        u.IsDeleted(),
		Version:          u.Version(),
	}
	if b := u.Birthdate(); b != nil {
		res.Birthdate = b.Format(validation.DateLayout)
	}
	if loc := u.Location(); loc != nil {
		lat, lon := loc.Lat(), loc.Lon()
		res.Latitude, res.Longitude = &lat, &lon
	}
	if res.ProfileImageName != "" && imageURL != nil {
		res.ProfileImageURL = imageURL(res.ProfileImageName)
	}
	return res
}

// parseDate parses a binding-validated date; empty yields nil.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(validation.DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
