package utils

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Circuit Breaker Tests

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(maxFailures uint32) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("test", maxFailures, time.Minute)
	cb.now = clock.Now
	return cb, clock
}

func fail(context.Context) error    { return errors.New("failure") }
func succeed(context.Context) error { return nil }

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb, _ := newTestBreaker(3)

	err := cb.Execute(context.Background(), succeed)

	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.Counts().TotalSuccesses)
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.EqualError(t, cb.Execute(ctx, fail), "failure")
	}
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(ctx, func(context.Context) error {
		t.Fatal("should not run while the breaker is open")
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailureStreak(t *testing.T) {
	cb, _ := newTestBreaker(3)
	ctx := context.Background()

	cb.Execute(ctx, fail)
	cb.Execute(ctx, fail)
	cb.Execute(ctx, succeed)
	cb.Execute(ctx, fail)

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.Counts().ConsecutiveFailures)
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	tests := []struct {
		name     string
		probe    func(context.Context) error
		expected State
	}{
		{"probe succeeds", succeed, StateClosed},
		{"probe fails", fail, StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, clock := newTestBreaker(1)
			ctx := context.Background()

			cb.Execute(ctx, fail)
			require.Equal(t, StateOpen, cb.State())

			clock.Advance(time.Minute)
			assert.Equal(t, StateHalfOpen, cb.State())

			cb.Execute(ctx, tt.probe)
			assert.Equal(t, tt.expected, cb.State())
		})
	}
}

func TestCircuitBreaker_HalfOpenAllowsSingleProbe(t *testing.T) {
	cb, clock := newTestBreaker(1)
	ctx := context.Background()

	cb.Execute(ctx, fail)
	clock.Advance(2 * time.Minute)

	release := make(chan struct{})
	started := make(chan struct{})
	go cb.Execute(ctx, func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	err := cb.Execute(ctx, succeed)
	close(release)

	assert.ErrorIs(t, err, ErrTooManyRequests)
}

func TestCircuitBreaker_PanicCountsAsFailure(t *testing.T) {
	cb, _ := newTestBreaker(1)

	assert.Panics(t, func() {
		cb.Execute(context.Background(), func(context.Context) error {
			panic("test panic")
		})
	})

	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := NewCircuitBreaker("concurrent", 1000, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			cb.Execute(ctx, func(context.Context) error {
				if id%10 == 0 {
					return errors.New("simulated failure")
				}
				return nil
			})
		}(i)
	}
	wg.Wait()

	counts := cb.Counts()
	assert.Equal(t, uint32(100), counts.Requests)
	assert.Equal(t, uint32(90), counts.TotalSuccesses)
	assert.Equal(t, uint32(10), counts.TotalFailures)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
}

// Random Tests

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(6)

	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-z]{6}$`, code)
}

func TestTicketNumber(t *testing.T) {
	now := time.UnixMilli(1718438400123)

	first, err := TicketNumber("music", now)
	require.NoError(t, err)
	second, err := TicketNumber("music", now)
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^MUSIC-1718438400123-[0-9a-z]{6}$`)
	assert.Regexp(t, pattern, first)
	assert.Regexp(t, pattern, second)
	assert.NotEqual(t, first, second)
}

// Redis Client Tests

func TestRedisHealthCheck_Success(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.ExpectPing().SetVal("PONG")

	err := RedisHealthCheck(context.Background(), db)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHealthCheck_Failure(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.ExpectPing().SetErr(errors.New("connection failed"))

	err := RedisHealthCheck(context.Background(), db)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis health check failed")
	assert.Contains(t, err.Error(), "connection failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func BenchmarkCircuitBreaker_Execute(b *testing.B) {
	cb := NewCircuitBreaker("benchmark", 5, time.Minute)
	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			cb.Execute(ctx, succeed)
		}
	})
}
