// Package session владеет служебным токеном шлюза и realtime-соединением
// с бэкендом. Manager создается один раз при старте приложения и передается
// по ссылке; соединение переподключается при каждой смене токена.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Options настройки Manager.
type Options struct {
	// TokenFile — файл со служебным токеном; отслеживается через fsnotify.
	TokenFile string
	// RealtimeURL — websocket-адрес событий бэкенда. Пустой отключает соединение.
	RealtimeURL    string
	ReconnectDelay time.Duration
}

// Manager хранит токен и рассылает подписчикам его изменения.
type Manager struct {
	log  *slog.Logger
	opts Options
	conn *Conn

	mu     sync.RWMutex
	token  string
	subs   map[int]chan string
	nextID int
}

// NewManager создает Manager. inv получает события обновления подписки.
func NewManager(log *slog.Logger, opts Options, inv Invalidator) *Manager {
	m := &Manager{
		log:  log,
		opts: opts,
		subs: make(map[int]chan string),
	}
	if opts.RealtimeURL != "" {
		m.conn = NewConn(opts.RealtimeURL, m, inv, log, opts.ReconnectDelay)
	}
	return m
}

// Token возвращает текущий токен.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// SetToken меняет токен и уведомляет подписчиков. Тот же токен событий не порождает.
func (m *Manager) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token == m.token {
		return
	}
	m.token = token
	for _, ch := range m.subs {
		// в канале остается только последнее значение
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- token:
		default:
		}
	}
}

// Subscribe возвращает канал изменений токена и функцию отписки.
func (m *Manager) Subscribe() (<-chan string, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	ch := make(chan string, 1)
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// Run следит за файлом токена и держит realtime-соединение до отмены ctx.
func (m *Manager) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	if m.opts.TokenFile != "" {
		g.Go(func() error {
			return m.WatchTokenFile(gctx, m.opts.TokenFile)
		})
	}
	if m.conn != nil {
		g.Go(func() error {
			return m.conn.Run(gctx)
		})
	}
	return g.Wait()
}
