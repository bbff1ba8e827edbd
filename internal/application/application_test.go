package application_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"maps"
	"slices"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/application"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/application/synchronizer"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/event"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/pagination"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/repository"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/specification"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/eventbus"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/memory"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/persistence"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/helpers"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/mailer"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/mailer/templates"
)

var now = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

type mockJobs struct{ mock.Mock }

func (m *mockJobs) PublishJSON(ctx context.Context, body any) error {
	return m.Called(ctx, body).Error(0)
}

type app struct {
	users   *application.UserService
	queries *application.QueryService
	read    *memory.UserReadRepository
	jobs    *mockJobs
	hook    *test.Hook
}

// newApp wires the in-memory stores with a synchronous dispatcher so projections are visible as soon as
// a command returns.
func newApp(t *testing.T) *app {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	clock := func() time.Time { return now }

	store := memory.NewUserStore()
	read := memory.NewUserReadRepository(pagination.Limits{}).WithClock(clock)
	registry := eventbus.NewRegistry()
	repo := persistence.NewUserRepository(store, eventbus.NewDispatcher(registry, logger), logger)
	repo.Now = clock

	sync := synchronizer.New(repo, read, logger)
	sync.Now = clock
	registry.RegisterAll(event.UserTypes(), eventbus.HandlerFunc("user-sync", sync.HandleDomainEvent))

	jobs := &mockJobs{}
	jobs.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Maybe()
	notifier := application.NewNotifier(repo, jobs, templates.Brand{AppName: "Users"})
	registry.RegisterAll(notifier.Types(), notifier)

	users := application.NewUserService(repo, helpers.NewBcryptHasher(bcrypt.MinCost), nil, logger)
	users.Now = clock
	return &app{
		users:   users,
		queries: application.NewQueryService(read, pagination.Limits{}),
		read:    read,
		jobs:    jobs,
		hook:    hook,
	}
}

func ada() application.CreateUserInput {
	birth := now.AddDate(-25, 0, 0)
	return application.CreateUserInput{
		Email:     "a@example.com",
		Phone:     "+15550000",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  "s3cret-pass",
		Birthdate: &birth,
	}
}

func TestCreate_ProjectionBecomesQueryable(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	u, err := a.users.Create(ctx, ada())
	require.NoError(t, err)

	activeAdults := specification.Active().And(specification.Adult())
	page, err := a.queries.Query(ctx, activeAdults, pagination.NewParams(1, 10, "", "", "", pagination.Limits{}), false)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, u.ID().String(), page.Items[0].ID)
	assert.Equal(t, "a@example.com", page.Items[0].Email)
	require.NotNil(t, page.Items[0].Age)
	assert.Equal(t, 25, *page.Items[0].Age)

	page, err = a.queries.Search(ctx, application.SearchUsersInput{Search: "nonexistent"})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.TotalCount)
}

func TestCreate_DuplicateEmailIsConflict(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	_, err := a.users.Create(ctx, ada())
	require.NoError(t, err)

	dup := ada()
	dup.Phone = "+15551111"
	_, err = a.users.Create(ctx, dup)

	assert.ErrorIs(t, err, repository.ErrEmailTaken)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Equal(t, 1, a.read.Len())
}

func TestCreate_ReportsEveryInvalidField(t *testing.T) {
	a := newApp(t)
	lat := 91.0
	in := application.CreateUserInput{Email: "nope", Phone: "12", FirstName: "", LastName: "X", Password: "short", Latitude: &lat}

	_, err := a.users.Create(context.Background(), in)

	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperror.KindValidation, ae.Kind)
	assert.Equal(t, []string{"email", "first_name", "location", "password", "phone"}, sortedKeys(ae.Fields))
	assert.Zero(t, a.read.Len())
}

func TestCreate_UnderMinimumAge(t *testing.T) {
	a := newApp(t)
	in := ada()
	young := now.AddDate(-12, 0, 0)
	in.Birthdate = &young

	_, err := a.users.Create(context.Background(), in)

	assert.True(t, apperror.Is(err, apperror.KindDomainRule))
}

func TestDelete_RemovesFromActiveQueriesAndRestoreBringsBack(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	u, err := a.users.Create(ctx, ada())
	require.NoError(t, err)
	id := u.ID().String()

	require.NoError(t, a.users.Delete(ctx, id))

	page, err := a.queries.Search(ctx, application.SearchUsersInput{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	doc, err := a.queries.Get(ctx, id, true)
	require.NoError(t, err)
	assert.True(t, doc.IsDeleted)

	_, err = a.users.UpdateLocation(ctx, id, 1, 1)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	_, err = a.users.Restore(ctx, id)
	require.NoError(t, err)
	page, err = a.queries.Search(ctx, application.SearchUsersInput{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestAuthenticate(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	u, err := a.users.Create(ctx, ada())
	require.NoError(t, err)

	_, err = a.users.Authenticate(ctx, "a@example.com", "wrong-password")
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)
	_, err = a.users.Authenticate(ctx, "b@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)

	got, err := a.users.Authenticate(ctx, "A@Example.com", "s3cret-pass")
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin())
	assert.Equal(t, now, *got.LastLogin())

	doc, err := a.queries.Get(ctx, u.ID().String(), false)
	require.NoError(t, err)
	require.NotNil(t, doc.LastLogin)
	assert.Equal(t, int64(2), doc.SourceVersion)
}

func TestUpdateProfile_PartialAndNoop(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	u, err := a.users.Create(ctx, ada())
	require.NoError(t, err)
	id := u.ID().String()

	about := "Analytical engines"
	got, err := a.users.UpdateProfile(ctx, id, application.UpdateProfileInput{AboutMe: &about})
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name().First())
	assert.Equal(t, int64(2), got.Version())

	got, err = a.users.UpdateProfile(ctx, id, application.UpdateProfileInput{AboutMe: &about})
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version(), "unchanged profile is not written")

	doc, err := a.queries.Get(ctx, id, false)
	require.NoError(t, err)
	assert.Equal(t, about, doc.AboutMe)
}

func TestChangePassword(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	u, err := a.users.Create(ctx, ada())
	require.NoError(t, err)
	id := u.ID().String()

	assert.ErrorIs(t, a.users.ChangePassword(ctx, id, "bad", "another-pass"), application.ErrInvalidCredentials)
	assert.True(t, apperror.Is(a.users.ChangePassword(ctx, id, "s3cret-pass", "short"), apperror.KindValidation))
	require.NoError(t, a.users.ChangePassword(ctx, id, "s3cret-pass", "another-pass"))

	_, err = a.users.Authenticate(ctx, "a@example.com", "another-pass")
	assert.NoError(t, err)
}

func TestChangeContact_UniqueAcrossUsers(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	_, err := a.users.Create(ctx, ada())
	require.NoError(t, err)
	other := ada()
	other.Email, other.Phone = "b@example.com", "+15552222"
	b, err := a.users.Create(ctx, other)
	require.NoError(t, err)

	_, err = a.users.ChangeContact(ctx, b.ID().String(), "a@example.com", "+15552222")
	assert.ErrorIs(t, err, repository.ErrEmailTaken)

	_, err = a.users.ChangeContact(ctx, b.ID().String(), "c@example.com", "+15552222")
	require.NoError(t, err)
	page, err := a.queries.Search(ctx, application.SearchUsersInput{Email: "c@example.com"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

type fakeImages struct {
	got []byte
	err error
}

func (f *fakeImages) Put(_ context.Context, userID, contentType string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.got, _ = io.ReadAll(r)
	return "avatars/" + userID + "/x.png", nil
}

func TestUploadProfileImage(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	u, err := a.users.Create(ctx, ada())
	require.NoError(t, err)

	_, err = a.users.UploadProfileImage(ctx, u.ID().String(), "image/png", bytes.NewReader([]byte("png")))
	assert.ErrorIs(t, err, application.ErrImagesDisabled)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	images := &fakeImages{}
	a.users.Images = images
	got, err := a.users.UploadProfileImage(ctx, u.ID().String(), "image/png", bytes.NewReader([]byte("png")))
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), images.got)
	assert.Equal(t, "avatars/"+u.ID().String()+"/x.png", got.ProfileImageName())

	images.err = errors.New("bucket gone")
	_, err = a.users.UploadProfileImage(ctx, u.ID().String(), "image/png", bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestNotifier_EnqueuesWelcomeJob(t *testing.T) {
	a := newApp(t)
	_, err := a.users.Create(context.Background(), ada())
	require.NoError(t, err)

	a.jobs.AssertCalled(t, "PublishJSON", mock.Anything, mock.MatchedBy(func(body any) bool {
		job, ok := body.(mailer.EmailJob)
		return ok && job.To == "a@example.com" && job.Template == templates.Welcome && job.Data["Name"] == "Ada Lovelace"
	}))
}

func TestSearchUsersInput_InvalidFiltersAreValidationErrors(t *testing.T) {
	a := newApp(t)
	lo, hi := 30, 20
	_, err := a.queries.Search(context.Background(), application.SearchUsersInput{
		MinAge: &lo,
		MaxAge: &hi,
		Near:   &application.GeoFilter{Lat: 0, Lon: 0, RadiusKm: -1},
	})

	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperror.KindValidation, ae.Kind)
	assert.Contains(t, ae.Fields, "filters")
}

func TestSearchUsersInput_Spec(t *testing.T) {
	lo := 18
	spec, err := application.SearchUsersInput{Search: "ada", MinAge: &lo}.Spec()
	require.NoError(t, err)
	assert.Equal(t, "And(Search(ada), AgeRange(18..150))", spec.String())

	spec, err = application.SearchUsersInput{}.Spec()
	require.NoError(t, err)
	assert.Equal(t, specification.True().String(), spec.String())
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
