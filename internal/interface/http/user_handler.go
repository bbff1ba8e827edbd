package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/application"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/readmodel"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/response"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/validation"
)

// DefaultMaxImageBytes caps profile image uploads.
const DefaultMaxImageBytes = 5 << 20

type UserHandler struct {
	Users         *application.UserService
	Queries       *application.QueryService
	Logger        *logrus.Logger
	ImageURL      func(name string) string
	MaxImageBytes int64
}

func NewUserHandler(users *application.UserService, queries *application.QueryService, logger *logrus.Logger, imageURL func(string) string) *UserHandler {
	return &UserHandler{Users: users, Queries: queries, Logger: logger, ImageURL: imageURL, MaxImageBytes: DefaultMaxImageBytes}
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Users.Create(c.Request.Context(), application.CreateUserInput{
		Email:     req.Email,
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Birthdate: parseDate(req.Birthdate),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		AboutMe:   req.AboutMe,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Location", "/api/users/"+u.ID().String())
	response.Success(c, http.StatusCreated, toUserResponse(u, h.ImageURL), "user created", nil)
}

// Get serves the projection. It may lag the write side briefly after a command.
func (h *UserHandler) Get(c *gin.Context) {
	includeDeleted := c.Query("include_deleted") == "true"
	doc, err := h.Queries.Get(c.Request.Context(), c.Param("id"), includeDeleted)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, doc, "user", nil)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "invalid payload", validation.ToDetails(err))
		return
	}
	in := application.UpdateProfileInput{FirstName: req.FirstName, LastName: req.LastName, AboutMe: req.AboutMe}
	if req.Birthdate != nil {
		in.Birthdate = parseDate(*req.Birthdate)
	}
	u, err := h.Users.UpdateProfile(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u, h.ImageURL), "profile updated", nil)
}

func (h *UserHandler) UpdateLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Users.UpdateLocation(c.Request.Context(), c.Param("id"), *req.Latitude, *req.Longitude)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u, h.ImageURL), "location updated", nil)
}

func (h *UserHandler) ChangeContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Users.ChangeContact(c.Request.Context(), c.Param("id"), req.Email, req.Phone)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u, h.ImageURL), "contact updated", nil)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Users.ChangePassword(c.Request.Context(), c.Param("id"), req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"changed": true}, "password changed", nil)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u, h.ImageURL), "login successful", nil)
}

func (h *UserHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxImageBytes)
	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error[any](c, http.StatusRequestEntityTooLarge, "image too large", nil)
			return
		}
		invalid(c, "invalid payload", map[string]string{"image": "is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		invalid(c, "invalid payload", map[string]string{"image": "cannot be read"})
		return
	}
	defer f.Close()

	u, err := h.Users.UploadProfileImage(c.Request.Context(), c.Param("id"), fh.Header.Get("Content-Type"), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u, h.ImageURL), "profile image updated", nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.Users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Restore(c *gin.Context) {
	u, err := h.Users.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u, h.ImageURL), "user restored", nil)
}

// Search runs the filters against the read store.
func (h *UserHandler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		invalid(c, "invalid query", validation.ToDetails(err))
		return
	}
	in := application.SearchUsersInput{
		Search:          q.Search,
		AdultsOnly:      q.AdultsOnly,
		MinAge:          q.MinAge,
		MaxAge:          q.MaxAge,
		Email:           q.Email,
		Phone:           q.Phone,
		CompleteProfile: q.CompleteProfile,
		IncludeDeleted:  q.IncludeDeleted,
		Page:            q.Page,
		PageSize:        q.PageSize,
		SortBy:          q.SortBy,
		SortDir:         q.SortDir,
	}
	switch {
	case q.NearLat != nil && q.NearLon != nil && q.RadiusKm != nil:
		in.Near = &application.GeoFilter{Lat: *q.NearLat, Lon: *q.NearLon, RadiusKm: *q.RadiusKm}
	case q.NearLat != nil || q.NearLon != nil || q.RadiusKm != nil:
		invalid(c, "invalid query", map[string]string{"near": "near_lat, near_lon and radius_km must be given together"})
		return
	}

	page, err := h.Queries.Search(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	if page.Items == nil {
		page.Items = []readmodel.UserDocument{}
	}
	response.Success(c, http.StatusOK, page, "users", nil)
}

func (h *UserHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, application.ErrInvalidCredentials) {
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	switch apperror.KindOf(err) {
	case apperror.KindInternal, apperror.KindTransient:
		if h.Logger != nil {
			h.Logger.WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"path":       c.FullPath(),
			}).WithError(err).Error("request failed")
		}
	}
	response.FromError(c, err)
}

func invalid(c *gin.Context, msg string, details map[string]string) {
	response.Error[any](c, http.StatusBadRequest, msg, response.ErrorBody{Category: apperror.KindValidation.String(), Details: details})
}
