package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"event-booking/internal/storage"
)

type publishedMessage struct {
	Channel string
	Message any
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (p *fakePublisher) Publish(channel string, message any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, publishedMessage{Channel: channel, Message: message})
	return nil
}

func (p *fakePublisher) Messages() []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedMessage(nil), p.messages...)
}

var errPublish = errors.New("pubnub unavailable")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	store         *storage.MemoryStore
	publisher     *fakePublisher
	notifications *NotificationService
	catalog       *CatalogService
	tickets       *TicketService
	favorites     *FavoritesService
	bookings      *BookingService
}

func newTestEnv() *testEnv {
	store := storage.NewMemoryStore()
	publisher := &fakePublisher{}
	notifications := NewNotificationService(store, publisher)
	notifications.now = fixedClock(testNow)
	catalog := NewCatalogService(store, notifications, nil, nil)
	catalog.now = fixedClock(testNow)
	tickets := NewTicketService(store)

	return &testEnv{
		store:         store,
		publisher:     publisher,
		notifications: notifications,
		catalog:       catalog,
		tickets:       tickets,
		favorites:     NewFavoritesService(store, catalog),
		bookings: NewBookingService(catalog, tickets, notifications, WizardOptions{
			PublicURL: "http://localhost:8090",
			Now:       fixedClock(testNow),
		}),
	}
}

var errStoreDown = errors.New("redis get: i/o timeout")

// outageStore is a MemoryStore whose reads can be switched off.
type outageStore struct {
	*storage.MemoryStore

	mu   sync.Mutex
	down bool
}

func newOutageStore() *outageStore {
	return &outageStore{MemoryStore: storage.NewMemoryStore()}
}

func (s *outageStore) SetDown(down bool) {
	s.mu.Lock()
	s.down = down
	s.mu.Unlock()
}

func (s *outageStore) Load(ctx context.Context, key string, dst any) (bool, error) {
	s.mu.Lock()
	down := s.down
	s.mu.Unlock()

	if down {
		return false, errStoreDown
	}
	return s.MemoryStore.Load(ctx, key, dst)
}
