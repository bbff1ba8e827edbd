package readmodel_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/entity"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/readmodel"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/specification"
)

func TestFromUser(t *testing.T) {
	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	birth := time.Date(1999, time.March, 2, 0, 0, 0, 0, time.UTC)
	email, _ := entity.NewEmail("Ada@Example.com")
	phone, _ := entity.NewPhoneNumber("+15550000")
	name, _ := entity.NewFullName("Ada", "Lovelace")
	creds, _ := entity.NewCredentials("", "hash")
	loc, _ := entity.NewLocation(1.5, 2.5)
	u, err := entity.NewUser(entity.NewUserParams{
		Email: email, Phone: phone, Name: name, Credentials: creds,
		Birthdate: &birth, Location: &loc, Now: now,
	})
	require.NoError(t, err)

	doc := readmodel.FromUser(u, now)

	assert.Equal(t, u.ID().String(), doc.ID)
	assert.Equal(t, "Ada Lovelace", doc.FullName)
	require.NotNil(t, doc.Age)
	assert.Equal(t, 24, *doc.Age)
	assert.Equal(t, []string{"ada", "lovelace", "ada@example.com", "+15550000"}, doc.SearchTokens)
	assert.Equal(t, 0.5, doc.ProfileCompleteness)
	assert.Equal(t, &readmodel.GeoPoint{Lat: 1.5, Lon: 2.5}, doc.Location)
	assert.Equal(t, now, doc.LastSyncedAt)

	adults := specification.Active().And(specification.Adult())
	assert.Equal(t, adults.Matches(specification.FromUser(u), now), adults.Matches(doc.Fields(), now))
}

func TestCompleteness(t *testing.T) {
	assert.Equal(t, 1.0, readmodel.Completeness(true, true, true, true))
	assert.Equal(t, 0.25, readmodel.Completeness(false, true, false, false))
	assert.Zero(t, readmodel.Completeness())
}
