package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/publiccircle/access-gateway/internal/cache"
	"github.com/publiccircle/access-gateway/internal/config"
	"github.com/publiccircle/access-gateway/internal/models"
)

type FetcherMock struct{ mock.Mock }

func (m *FetcherMock) Status(ctx context.Context, token string) ([]models.SubscriptionPlan, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SubscriptionPlan), args.Error(1)
}

type recorderStub struct {
	mu       sync.Mutex
	failures int
	results  []string
}

func (r *recorderStub) SubscriptionFetchFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

func (r *recorderStub) CacheResult(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func activePlans() []models.SubscriptionPlan {
	return []models.SubscriptionPlan{{Subscription: &models.Subscription{Status: models.StatusActive}}}
}

func canceledPlans() []models.SubscriptionPlan {
	return []models.SubscriptionPlan{{Subscription: &models.Subscription{Status: models.StatusCanceled}}}
}

type fixture struct {
	svc     *SubscriptionService
	api     *FetcherMock
	rec     *recorderStub
	clock   *clock
	cache   *cache.Cache
	miniRDB *miniredis.Miniredis
}

func setup(t *testing.T) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()}, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	api := new(FetcherMock)
	rec := &recorderStub{}
	clk := &clock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}

	svc := NewSubscriptionService(api, c, newNoopLogger(), Options{
		FreshFor:     30 * time.Second,
		TTL:          10 * time.Minute,
		FetchTimeout: time.Second,
		Recorder:     rec,
		Now:          clk.Now,
	})
	return &fixture{svc: svc, api: api, rec: rec, clock: clk, cache: c, miniRDB: mr}
}

func TestSubscriptionService_StateFetchesAndCaches(t *testing.T) {
	f := setup(t)
	f.api.On("Status", mock.Anything, "tkn").Return(activePlans(), nil).Once()

	first := f.svc.State(context.Background(), "u1", "tkn")
	second := f.svc.State(context.Background(), "u1", "tkn")

	assert.False(t, first.Loading)
	assert.Equal(t, activePlans(), first.Plans)
	assert.Equal(t, activePlans(), second.Plans)
	assert.Equal(t, []string{CacheMiss, CacheHit}, f.rec.results)
	f.api.AssertExpectations(t)
}

func TestSubscriptionService_FailClosed(t *testing.T) {
	f := setup(t)
	f.api.On("Status", mock.Anything, "tkn").Return(nil, errors.New("connection refused")).Twice()

	state := f.svc.State(context.Background(), "u1", "tkn")

	assert.False(t, state.Loading)
	assert.NotNil(t, state.Plans)
	assert.Empty(t, state.Plans)
	assert.Equal(t, 1, f.rec.failures)

	// отказ не кешируется: следующий запрос снова идет во внешний сервис
	f.svc.State(context.Background(), "u1", "tkn")
	assert.Equal(t, 2, f.rec.failures)
	f.api.AssertExpectations(t)
}

func TestSubscriptionService_StaleIsServedAndRevalidated(t *testing.T) {
	f := setup(t)
	f.api.On("Status", mock.Anything, "tkn").Return(activePlans(), nil).Once()
	f.svc.State(context.Background(), "u1", "tkn")

	f.clock.Advance(time.Minute)
	f.api.On("Status", mock.Anything, "tkn").Return(canceledPlans(), nil).Once()

	stale := f.svc.State(context.Background(), "u1", "tkn")
	assert.Equal(t, activePlans(), stale.Plans)

	f.svc.Wait()
	fresh := f.svc.State(context.Background(), "u1", "tkn")
	assert.Equal(t, canceledPlans(), fresh.Plans)
	assert.Equal(t, []string{CacheMiss, CacheStale, CacheHit}, f.rec.results)
	f.api.AssertExpectations(t)
}

func TestSubscriptionService_FailedRevalidationKeepsStaleEntry(t *testing.T) {
	f := setup(t)
	f.api.On("Status", mock.Anything, "tkn").Return(activePlans(), nil).Once()
	f.svc.State(context.Background(), "u1", "tkn")

	f.clock.Advance(time.Minute)
	f.api.On("Status", mock.Anything, "tkn").Return(nil, errors.New("503")).Once()

	stale := f.svc.State(context.Background(), "u1", "tkn")
	f.svc.Wait()

	assert.Equal(t, activePlans(), stale.Plans)
	assert.Equal(t, 1, f.rec.failures)
	assert.True(t, f.miniRDB.Exists(cacheKey("u1")))
}

func TestSubscriptionService_PeekReturnsLoadingThenPlans(t *testing.T) {
	f := setup(t)
	f.api.On("Status", mock.Anything, "tkn").Return(activePlans(), nil).Once()

	state := f.svc.Peek(context.Background(), "u1", "tkn")
	assert.True(t, state.Loading)

	f.svc.Wait()
	state = f.svc.Peek(context.Background(), "u1", "tkn")
	assert.False(t, state.Loading)
	assert.Equal(t, activePlans(), state.Plans)
	f.api.AssertExpectations(t)
}

func TestSubscriptionService_ConcurrentMissesCollapse(t *testing.T) {
	f := setup(t)
	release := make(chan struct{})
	f.api.On("Status", mock.Anything, "tkn").
		Run(func(_ mock.Arguments) { <-release }).
		Return(activePlans(), nil).Once()

	var wg sync.WaitGroup
	results := make([]models.SubscriptionState, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = f.svc.State(context.Background(), "u1", "tkn")
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, activePlans(), r.Plans)
	}
	f.api.AssertNumberOfCalls(t, "Status", 1)
}

func TestSubscriptionService_ForeignTokenDoesNotShareFetch(t *testing.T) {
	f := setup(t)
	started := make(chan struct{})
	release := make(chan struct{})
	f.api.On("Status", mock.Anything, "forged").
		Run(func(_ mock.Arguments) {
			close(started)
			<-release
		}).
		Return(nil, errors.New("401")).Once()
	f.api.On("Status", mock.Anything, "tkn").Return(activePlans(), nil).Once()

	forgedDone := make(chan models.SubscriptionState, 1)
	go func() { forgedDone <- f.svc.State(context.Background(), "u1", "forged") }()
	<-started

	ownerDone := make(chan models.SubscriptionState, 1)
	go func() { ownerDone <- f.svc.State(context.Background(), "u1", "tkn") }()

	select {
	case state := <-ownerDone:
		assert.Equal(t, activePlans(), state.Plans)
	case <-time.After(2 * time.Second):
		t.Fatal("owner request waited for a fetch made with another token")
	}

	close(release)
	assert.Empty(t, (<-forgedDone).Plans)
	f.api.AssertExpectations(t)
}

func TestSubscriptionService_CanceledRequestDoesNotAbortFetch(t *testing.T) {
	f := setup(t)
	f.api.On("Status", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), "tkn").
		Return(activePlans(), nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state := f.svc.State(ctx, "", "tkn")
	assert.Equal(t, activePlans(), state.Plans)
	f.api.AssertExpectations(t)
}

func TestSubscriptionService_Invalidate(t *testing.T) {
	f := setup(t)
	f.api.On("Status", mock.Anything, "tkn").Return(activePlans(), nil).Twice()

	f.svc.State(context.Background(), "u1", "tkn")
	require.NoError(t, f.svc.Invalidate(context.Background(), "u1"))
	f.svc.State(context.Background(), "u1", "tkn")

	f.api.AssertExpectations(t)
}

func TestSubscriptionService_CacheErrorFallsBackToFetch(t *testing.T) {
	f := setup(t)
	f.api.On("Status", mock.Anything, "tkn").Return(activePlans(), nil).Once()
	require.NoError(t, f.miniRDB.Set(cacheKey("u1"), "garbage"))

	state := f.svc.State(context.Background(), "u1", "tkn")
	assert.Equal(t, activePlans(), state.Plans)
	f.api.AssertExpectations(t)
}
