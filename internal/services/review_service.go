package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"event-booking/internal/storage"
	"event-booking/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const placeholderAvatar = "https://via.placeholder.com/40"

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (r ReviewInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Rating, validation.Required, validation.Min(1), validation.Max(5)),
		validation.Field(&r.Comment, validation.By(requiredTrimmed), validation.Length(0, 1000)),
	)
}

type ReviewService struct {
	store storage.Store
	now   func() time.Time

	mu sync.Mutex
}

func NewReviewService(store storage.Store) *ReviewService {
	return &ReviewService{store: store, now: time.Now}
}

func seedReviews(eventID string) []models.Review {
	return []models.Review{
		{
			ID:      "1",
			EventID: eventID,
			User:    "John Doe",
			Avatar:  placeholderAvatar,
			Rating:  5,
			Comment: "Amazing event! The atmosphere was electric and everything was well organized.",
			Likes:   12,
			Date:    "2024-02-15",
		},
		{
			ID:      "2",
			EventID: eventID,
			User:    "Jane Smith",
			Avatar:  placeholderAvatar,
			Rating:  4,
			Comment: "Great experience overall. Would definitely recommend!",
			Likes:   8,
			Date:    "2024-02-14",
		},
	}
}

func (s *ReviewService) load(ctx context.Context, eventID string) []models.Review {
	var reviews []models.Review
	if storage.LoadOr(ctx, s.store, storage.ReviewsKey(eventID), &reviews) {
		return reviews
	}
	return seedReviews(eventID)
}

// List returns reviews newest first.
func (s *ReviewService) List(ctx context.Context, eventID string) []models.Review {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx, eventID)
}

func (s *ReviewService) Add(ctx context.Context, eventID string, user models.User, input ReviewInput) (models.Review, error) {
	if err := input.Validate(); err != nil {
		return models.Review{}, err
	}

	review := models.Review{
		ID:      uuid.NewString(),
		EventID: eventID,
		User:    user.Name,
		Avatar:  placeholderAvatar,
		Rating:  input.Rating,
		Comment: strings.TrimSpace(input.Comment),
		Date:    s.now().Format(models.DateLayout),
	}
	if user.Avatar != nil {
		review.Avatar = *user.Avatar
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stored []models.Review
	found, err := storage.LoadForUpdate(ctx, s.store, storage.ReviewsKey(eventID), &stored)
	if err != nil {
		slog.Error("Failed to load reviews", "error", err, "event_id", eventID)
		return models.Review{}, err
	}
	if !found {
		stored = seedReviews(eventID)
	}

	reviews := append([]models.Review{review}, stored...)
	if err := s.store.Save(ctx, storage.ReviewsKey(eventID), reviews); err != nil {
		slog.Error("Failed to save review", "error", err, "event_id", eventID)
		return models.Review{}, err
	}
	return review, nil
}

// Average is the mean rating rounded to one decimal, zero without reviews.
func (s *ReviewService) Average(ctx context.Context, eventID string) decimal.Decimal {
	reviews := s.List(ctx, eventID)
	if len(reviews) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, r := range reviews {
		sum = sum.Add(decimal.NewFromInt(int64(r.Rating)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(reviews)))).Round(1)
}
