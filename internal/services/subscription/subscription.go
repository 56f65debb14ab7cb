// Package services содержит клиентскую сторону сервиса статуса подписки:
// кеширование с фоновой ревалидацией и закрытый по умолчанию отказ.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/publiccircle/access-gateway/internal/lib/sl"
	"github.com/publiccircle/access-gateway/internal/models"
)

// ErrSubscriptionFetch — статус подписки получить не удалось.
// Наружу не возвращается: пользователь трактуется как без подписки.
var ErrSubscriptionFetch = errors.New("subscription status fetch failed")

// StatusFetcher описывает внешний эндпоинт статуса подписки.
type StatusFetcher interface {
	Status(ctx context.Context, token string) ([]models.SubscriptionPlan, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// Recorder принимает события для метрик.
type Recorder interface {
	SubscriptionFetchFailed()
	CacheResult(result string)
}

// Результаты обращения к кешу.
const (
	CacheHit   = "hit"
	CacheStale = "stale"
	CacheMiss  = "miss"
)

// Options настройки кеширования.
type Options struct {
	// FreshFor — сколько запись считается свежей.
	FreshFor time.Duration
	// TTL — сколько запись живет в кеше; между FreshFor и TTL отдается устаревшей
	// с фоновой ревалидацией.
	TTL time.Duration
	// FetchTimeout ограничивает один запрос к внешнему сервису.
	FetchTimeout time.Duration
	Recorder     Recorder
	Now          func() time.Time
}

type cachedStatus struct {
	Plans     []models.SubscriptionPlan `json:"plans"`
	FetchedAt time.Time                 `json:"fetched_at"`
}

// SubscriptionService отдает SubscriptionState пользователя.
type SubscriptionService struct {
	api   StatusFetcher
	cache Cache
	log   *slog.Logger
	opts  Options

	group singleflight.Group
	bg    sync.WaitGroup
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(api StatusFetcher, cache Cache, log *slog.Logger, opts Options) *SubscriptionService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Recorder == nil {
		opts.Recorder = noopRecorder{}
	}
	if opts.TTL < opts.FreshFor {
		opts.TTL = opts.FreshFor
	}
	return &SubscriptionService{
		api:   api,
		cache: cache,
		log:   log,
		opts:  opts,
	}
}

func cacheKey(userID string) string {
	return fmt.Sprintf("subscription:status:%s", userID)
}

// State возвращает загруженное состояние подписки, при необходимости
// дожидаясь запроса к внешнему сервису. Ошибки не возвращаются:
// при отказе последовательность планов пустая.
func (s *SubscriptionService) State(ctx context.Context, userID, token string) models.SubscriptionState {
	if cached, ok := s.lookup(ctx, userID, token); ok {
		return models.SubscriptionState{Plans: cached.Plans}
	}
	return models.SubscriptionState{Plans: s.fetch(ctx, userID, token)}
}

// Peek не ждет внешний сервис: без записи в кеше запускает фоновую
// загрузку и возвращает состояние Loading.
func (s *SubscriptionService) Peek(ctx context.Context, userID, token string) models.SubscriptionState {
	if cached, ok := s.lookup(ctx, userID, token); ok {
		return models.SubscriptionState{Plans: cached.Plans}
	}
	s.background(userID, token)
	return models.SubscriptionState{Loading: true}
}

// Invalidate удаляет запись пользователя из кеша.
func (s *SubscriptionService) Invalidate(ctx context.Context, userID string) error {
	const op = "services.subscription.Invalidate"
	if err := s.cache.Invalidate(ctx, cacheKey(userID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("subscription status invalidated", sl.User(userID))
	return nil
}

// Wait дожидается фоновых ревалидаций.
func (s *SubscriptionService) Wait() {
	s.bg.Wait()
}

// lookup читает кеш; устаревшая запись отдается, но запускает ревалидацию.
func (s *SubscriptionService) lookup(ctx context.Context, userID, token string) (*cachedStatus, bool) {
	if userID == "" {
		return nil, false
	}

	var cached cachedStatus
	found, err := s.cache.Get(ctx, cacheKey(userID), &cached)
	if err != nil {
		s.log.Warn("failed to read subscription status from cache", sl.User(userID), sl.Err(err))
		s.opts.Recorder.CacheResult(CacheMiss)
		return nil, false
	}
	if !found {
		s.opts.Recorder.CacheResult(CacheMiss)
		return nil, false
	}

	if s.opts.Now().Sub(cached.FetchedAt) > s.opts.FreshFor {
		s.opts.Recorder.CacheResult(CacheStale)
		s.background(userID, token)
		return &cached, true
	}

	s.opts.Recorder.CacheResult(CacheHit)
	return &cached, true
}

// background запускает загрузку вне запроса; без токена ничего не делает.
func (s *SubscriptionService) background(userID, token string) {
	if token == "" {
		return
	}

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		s.fetch(context.Background(), userID, token)
	}()
}

// fetch ходит во внешний сервис, объединяя одновременные запросы одного пользователя.
func (s *SubscriptionService) fetch(ctx context.Context, userID, token string) []models.SubscriptionPlan {
	const op = "services.subscription.fetch"

	// Объединяются только запросы с одним и тем же токеном: id пользователя
	// берется из непроверенного токена и сам по себе не доверенный.
	v, _, _ := s.group.Do(userID+"\x00"+token, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if s.opts.FetchTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, s.opts.FetchTimeout)
			defer cancel()
		}

		plans, err := s.api.Status(fetchCtx, token)
		if err != nil {
			err = fmt.Errorf("%s: %w: %w", op, ErrSubscriptionFetch, err)
			s.log.Warn("subscription status unavailable, treating as cancelled", sl.User(userID), sl.Err(err))
			s.opts.Recorder.SubscriptionFetchFailed()
			return []models.SubscriptionPlan{}, nil
		}

		if userID != "" {
			entry := cachedStatus{Plans: plans, FetchedAt: s.opts.Now()}
			if err := s.cache.Set(fetchCtx, cacheKey(userID), entry, s.opts.TTL); err != nil {
				s.log.Warn("failed to cache subscription status", sl.User(userID), sl.Err(err))
			}
		}
		return plans, nil
	})

	plans, _ := v.([]models.SubscriptionPlan)
	if plans == nil {
		plans = []models.SubscriptionPlan{}
	}
	return plans
}

type noopRecorder struct{}

func (noopRecorder) SubscriptionFetchFailed() {}
func (noopRecorder) CacheResult(string)       {}
