package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/color"
	"strings"
	"testing"

	"event-booking/internal/status"
	"event-booking/internal/storage"
	"event-booking/models"

	"github.com/disintegration/imaging"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, color.NRGBA{R: 200, A: 255}), imaging.PNG))
	return buf.Bytes()
}

func TestProfileService_DefaultsFromUser(t *testing.T) {
	svc := NewProfileService(storage.NewMemoryStore(), 0)

	profile := svc.Get(context.Background(), models.User{ID: "u1", Name: "Ada", Email: "ada@example.com"})

	assert.Equal(t, "Ada", profile.Name)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.True(t, profile.Notifications.Email)
	assert.True(t, profile.Notifications.Push)
	assert.False(t, profile.Notifications.SMS)
	assert.Equal(t, "English", profile.Preferences.Language)
	assert.Equal(t, "USD", profile.Preferences.Currency)
	assert.Equal(t, "dark", profile.Preferences.Theme)
}

func TestProfileService_Save(t *testing.T) {
	svc := NewProfileService(storage.NewMemoryStore(), 0)
	ctx := context.Background()
	user := models.User{ID: "u1", Name: "Ada"}

	profile := svc.Get(ctx, user)
	profile.Bio = "Analyst"
	profile.Location = "London"
	profile.Notifications.SMS = true

	_, err := svc.Save(ctx, "u1", profile)
	require.NoError(t, err)

	saved := svc.Get(ctx, user)
	assert.Equal(t, "Analyst", saved.Bio)
	assert.Equal(t, "London", saved.Location)
	assert.True(t, saved.Notifications.SMS)
}

func TestProfileService_SaveValidation(t *testing.T) {
	svc := NewProfileService(storage.NewMemoryStore(), 0)

	profile := models.DefaultProfile()
	profile.Email = "nope"
	profile.Preferences.Theme = "neon"

	_, err := svc.Save(context.Background(), "u1", profile)

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "email")
	assert.Contains(t, verrs, "preferences")
}

func TestProfileService_SetAvatar(t *testing.T) {
	svc := NewProfileService(storage.NewMemoryStore(), 0)
	user := models.User{ID: "u1", Name: "Ada"}

	profile, err := svc.SetAvatar(context.Background(), user, pngBytes(t, 640, 480))
	require.NoError(t, err)
	require.NotNil(t, profile.Avatar)
	require.True(t, strings.HasPrefix(*profile.Avatar, "data:image/png;base64,"))

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(*profile.Avatar, "data:image/png;base64,"))
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

func TestProfileService_SetAvatarRejects(t *testing.T) {
	svc := NewProfileService(storage.NewMemoryStore(), 1024)
	user := models.User{ID: "u1"}

	_, err := svc.SetAvatar(context.Background(), user, []byte("plain text, not a picture"))
	var verrs validation.Errors
	assert.True(t, errors.As(err, &verrs))

	_, err = svc.SetAvatar(context.Background(), user, bytes.Repeat([]byte{1}, 2048))
	assert.ErrorIs(t, err, status.ErrImageTooLarge)
}
