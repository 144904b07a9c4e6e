package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"event-booking/internal/status"
	"event-booking/internal/storage"
	"event-booking/models"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const avatarSize = 256

type ProfileService struct {
	store         storage.Store
	maxImageBytes int64

	mu sync.Mutex
}

func NewProfileService(store storage.Store, maxImageBytes int64) *ProfileService {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &ProfileService{store: store, maxImageBytes: maxImageBytes}
}

// Get returns the stored profile, or the defaults filled in from user.
func (s *ProfileService) Get(ctx context.Context, user models.User) models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx, user)
}

func (s *ProfileService) load(ctx context.Context, user models.User) models.Profile {
	var profile models.Profile
	if storage.LoadOr(ctx, s.store, storage.ProfileKey(user.ID), &profile) {
		return profile
	}
	return defaultProfile(user)
}

func defaultProfile(user models.User) models.Profile {
	profile := models.DefaultProfile()
	profile.Name = user.Name
	profile.Email = user.Email
	profile.Avatar = user.Avatar
	return profile
}

func validateProfile(p models.Profile) error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Length(0, 100)),
		validation.Field(&p.Email, validation.By(plausibleEmail)),
		validation.Field(&p.Bio, validation.Length(0, 500)),
		validation.Field(&p.Preferences, validation.By(func(value any) error {
			prefs, _ := value.(models.Preferences)
			return validation.ValidateStruct(&prefs,
				validation.Field(&prefs.Theme, validation.In("dark", "light")),
			)
		})),
	)
}

// Save replaces the whole profile, as the edit form does.
func (s *ProfileService) Save(ctx context.Context, userID string, profile models.Profile) (models.Profile, error) {
	profile.Name = strings.TrimSpace(profile.Name)
	profile.Email = strings.TrimSpace(profile.Email)
	if err := validateProfile(profile); err != nil {
		return models.Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, storage.ProfileKey(userID), profile); err != nil {
		slog.Error("Failed to save profile", "error", err, "user_id", userID)
		return models.Profile{}, err
	}
	return profile, nil
}

// SetAvatar stores a square thumbnail of the uploaded image as a data URI.
func (s *ProfileService) SetAvatar(ctx context.Context, user models.User, data []byte) (models.Profile, error) {
	if int64(len(data)) > s.maxImageBytes {
		return models.Profile{}, &status.ImageTooLargeError{Limit: s.maxImageBytes}
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return models.Profile{}, validation.Errors{"avatar": validation.NewError("validation_is_image", "must be an image")}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return models.Profile{}, validation.Errors{"avatar": validation.NewError("validation_is_image", "must be an image")}
	}
	thumb := imaging.Fill(img, avatarSize, avatarSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return models.Profile{}, fmt.Errorf("encode avatar: %w", err)
	}
	avatar := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	s.mu.Lock()
	defer s.mu.Unlock()

	var profile models.Profile
	found, err := storage.LoadForUpdate(ctx, s.store, storage.ProfileKey(user.ID), &profile)
	if err != nil {
		slog.Error("Failed to load profile", "error", err, "user_id", user.ID)
		return models.Profile{}, err
	}
	if !found {
		profile = defaultProfile(user)
	}
	profile.Avatar = &avatar
	if err := s.store.Save(ctx, storage.ProfileKey(user.ID), profile); err != nil {
		slog.Error("Failed to save profile avatar", "error", err, "user_id", user.ID)
		return models.Profile{}, err
	}
	return profile, nil
}
