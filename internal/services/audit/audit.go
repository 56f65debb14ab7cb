// Package services ведет журнал решений охранников: записи о непропущенных
// запросах асинхронно раздаются по приемникам (PostgreSQL, RabbitMQ).
package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/publiccircle/access-gateway/internal/lib/sl"
	"github.com/publiccircle/access-gateway/internal/models"
)

// Sink принимает одну запись аудита.
type Sink interface {
	Save(ctx context.Context, rec models.AuditRecord) error
}

// SinkFunc позволяет использовать функцию как Sink.
type SinkFunc func(ctx context.Context, rec models.AuditRecord) error

// Save вызывает f.
func (f SinkFunc) Save(ctx context.Context, rec models.AuditRecord) error {
	return f(ctx, rec)
}

// NamedSink связывает приемник с именем для логов.
type NamedSink struct {
	Name string
	Sink Sink
}

// AuditService очередь записей и воркер, раздающий их приемникам.
// Ошибки приемников только логируются.
type AuditService struct {
	sinks       []NamedSink
	log         *slog.Logger
	queue       chan models.AuditRecord
	sinkTimeout time.Duration
	now         func() time.Time

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAuditService создает сервис с очередью размера buffer.
func NewAuditService(log *slog.Logger, buffer int, sinkTimeout time.Duration, sinks ...NamedSink) *AuditService {
	if buffer <= 0 {
		buffer = 1
	}
	return &AuditService{
		sinks:       sinks,
		log:         log,
		queue:       make(chan models.AuditRecord, buffer),
		sinkTimeout: sinkTimeout,
		now:         time.Now,
	}
}

// Recorded сообщает, попадает ли решение в журнал.
func Recorded(d models.Decision) bool {
	switch d {
	case models.DecisionRedirecting, models.DecisionBlocked, models.DecisionDenied:
		return true
	default:
		return false
	}
}

// Start запускает воркер. ctx служит родителем для вызовов приемников.
func (s *AuditService) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for rec := range s.queue {
			s.dispatch(ctx, rec)
		}
	}()
}

// Record ставит запись в очередь без ожидания. Разрешенные и незавершенные
// решения пропускаются; при переполненной очереди запись отбрасывается.
func (s *AuditService) Record(rec models.AuditRecord) bool {
	if !Recorded(rec.Decision) {
		return false
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.At.IsZero() {
		rec.At = s.now().UTC()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.queue <- rec:
		return true
	default:
		s.log.Warn("audit queue is full, record dropped",
			sl.User(rec.UserID), sl.Path(rec.Path), slog.String("decision", string(rec.Decision)))
		return false
	}
}

// Close закрывает очередь и ждет, пока воркер раздаст оставшиеся записи.
func (s *AuditService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *AuditService) dispatch(ctx context.Context, rec models.AuditRecord) {
	for _, sink := range s.sinks {
		sinkCtx := context.WithoutCancel(ctx)
		cancel := func() {}
		if s.sinkTimeout > 0 {
			sinkCtx, cancel = context.WithTimeout(sinkCtx, s.sinkTimeout)
		}
		err := sink.Sink.Save(sinkCtx, rec)
		cancel()
		if err != nil {
			s.log.Warn("failed to save audit record",
				slog.String("sink", sink.Name),
				slog.String("record_id", rec.ID.String()),
				sl.Err(err))
		}
	}
}
