package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guttosm/hackathon-service/internal/domain/model"
	"github.com/guttosm/hackathon-service/internal/metrics"
	"github.com/guttosm/hackathon-service/internal/repository"
	"github.com/rs/zerolog/log"
)

// AuditService records audit events without blocking the caller.
type AuditService interface {
	// Record enqueues an event. It returns false when the buffer is full
	// and the event was dropped.
	Record(event *model.AuditEvent) bool
	// Recent returns the newest events first.
	Recent(ctx context.Context, limit int) ([]model.AuditEvent, error)
	// Stop drains pending events and stops the workers.
	Stop()
	Stats() AuditStats
}

// AuditConfig holds configuration for the audit worker pool.
type AuditConfig struct {
	// BufferSize is the capacity of the pending event queue.
	BufferSize int
	// NumWorkers is the number of goroutines writing events.
	NumWorkers int
	// BatchSize caps how many queued events one write carries.
	BatchSize int
	// WriteTimeout bounds a single write to the store.
	WriteTimeout time.Duration
}

// DefaultAuditConfig returns sensible defaults for the audit worker pool.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		BufferSize:   1000,
		NumWorkers:   2,
		BatchSize:    50,
		WriteTimeout: 5 * time.Second,
	}
}

// AuditStats counts what happened to recorded events.
type AuditStats struct {
	Enqueued int64 `json:"enqueued"`
	Dropped  int64 `json:"dropped"`
	Written  int64 `json:"written"`
	Failed   int64 `json:"failed"`
}

// AuditServiceImpl is a bounded worker pool in front of an AuditRepositoryInterface.
type AuditServiceImpl struct {
	repo    repository.AuditRepositoryInterface
	cfg     AuditConfig
	eventCh chan *model.AuditEvent
	stopCh  chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	// mu orders Record's enqueue against Stop, so nothing is queued once
	// the workers may have drained and exited.
	mu      sync.RWMutex
	stopped bool

	enqueued atomic.Int64
	dropped  atomic.Int64
	written  atomic.Int64
	failed   atomic.Int64
}

// NewAuditService starts cfg.NumWorkers workers writing to repo.
func NewAuditService(repo repository.AuditRepositoryInterface, cfg AuditConfig) *AuditServiceImpl {
	def := DefaultAuditConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = def.NumWorkers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}

	s := &AuditServiceImpl{
		repo:    repo,
		cfg:     cfg,
		eventCh: make(chan *model.AuditEvent, cfg.BufferSize),
		stopCh:  make(chan struct{}),
	}
	for i := 0; i < cfg.NumWorkers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// Record implements AuditService.
func (s *AuditServiceImpl) Record(event *model.AuditEvent) bool {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		s.drop()
		return false
	}

	select {
	case s.eventCh <- event:
		s.enqueued.Add(1)
		return true
	default:
		s.drop()
		return false
	}
}

// Recent implements AuditService.
func (s *AuditServiceImpl) Recent(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	return s.repo.List(ctx, limit)
}

// Stop implements AuditService. It is safe to call more than once.
func (s *AuditServiceImpl) Stop() {
	s.once.Do(func() {
		s.mu.Lock()
		s.stopped = true
		close(s.stopCh)
		s.mu.Unlock()
		s.wg.Wait()
	})
}

// Stats implements AuditService.
func (s *AuditServiceImpl) Stats() AuditStats {
	return AuditStats{
		Enqueued: s.enqueued.Load(),
		Dropped:  s.dropped.Load(),
		Written:  s.written.Load(),
		Failed:   s.failed.Load(),
	}
}

func (s *AuditServiceImpl) worker() {
	defer s.wg.Done()

	for {
		select {
		case event := <-s.eventCh:
			s.write(s.collect(event))
		case <-s.stopCh:
			for {
				select {
				case event := <-s.eventCh:
					s.write(s.collect(event))
				default:
					return
				}
			}
		}
	}
}

// collect batches first with whatever else is already queued.
func (s *AuditServiceImpl) collect(first *model.AuditEvent) []*model.AuditEvent {
	batch := []*model.AuditEvent{first}
	for len(batch) < s.cfg.BatchSize {
		select {
		case event := <-s.eventCh:
			batch = append(batch, event)
		default:
			return batch
		}
	}
	return batch
}

func (s *AuditServiceImpl) write(batch []*model.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()

	n := int64(len(batch))
	if err := s.repo.CreateMany(ctx, batch); err != nil {
		s.failed.Add(n)
		metrics.RecordAuditEvents("failed", len(batch))
		log.Warn().Err(err).Int("events", len(batch)).Msg("Failed to write audit events")
		return
	}
	s.written.Add(n)
	metrics.RecordAuditEvents("written", len(batch))
}

func (s *AuditServiceImpl) drop() {
	s.dropped.Add(1)
	metrics.RecordAuditEvents("dropped", 1)
}
