package entity_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/entity"
)

func TestNewEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  error
	}{
		{"  A@Example.COM ", "a@example.com", nil},
		{"", "", entity.ErrEmailRequired},
		{"not-an-email", "", entity.ErrEmailInvalid},
		{"a@b", "", entity.ErrEmailInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := entity.NewEmail(tt.in)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNewPhoneNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  error
	}{
		{"+15550000", "+15550000", nil},
		{"(555) 123-4567", "5551234567", nil},
		{"", "", entity.ErrPhoneRequired},
		{"+0123456", "", entity.ErrPhoneInvalid},
		{"12345", "", entity.ErrPhoneInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := entity.NewPhoneNumber(tt.in)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNewFullName(t *testing.T) {
	_, err := entity.NewFullName(" ", "x")
	assert.ErrorIs(t, err, entity.ErrFirstNameRequired)

	long := make([]rune, 51)
	for i := range long {
		long[i] = 'é'
	}
	_, err = entity.NewFullName(string(long), "x")
	assert.ErrorIs(t, err, entity.ErrNameTooLong)

	n, err := entity.NewFullName(" Ada ", "Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", n.String())
}

func TestLocation(t *testing.T) {
	_, err := entity.NewLocation(91, 0)
	assert.ErrorIs(t, err, entity.ErrLatitudeRange)
	_, err = entity.NewLocation(0, math.NaN())
	assert.ErrorIs(t, err, entity.ErrLongitudeRange)

	jakarta, _ := entity.NewLocation(-6.2088, 106.8456)
	bandung, _ := entity.NewLocation(-6.9175, 107.6191)
	assert.InDelta(t, 116.0, jakarta.DistanceKm(bandung), 2.0)
	assert.Zero(t, jakarta.DistanceKm(jakarta))
}
