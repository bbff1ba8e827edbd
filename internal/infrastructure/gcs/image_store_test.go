package gcs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/gcs"
)

func TestObjectName(t *testing.T) {
	name, err := gcs.ObjectName("u1", "Image/PNG", "abc")
	require.NoError(t, err)
	assert.Equal(t, "avatars/u1/abc.png", name)

	_, err = gcs.ObjectName("u1", "application/pdf", "abc")
	assert.ErrorIs(t, err, gcs.ErrUnsupportedImageType)
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/bucket/avatars/u1/a.jpg", gcs.PublicURL("bucket", "avatars/u1/a.jpg"))
}
