package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/discovery/internal/domain"
	"github.com/utafrali/discovery/internal/repository"
)

// SearchEventPublisher announces persisted searches to other services.
type SearchEventPublisher interface {
	PublishSearchPerformed(ctx context.Context, entry *domain.SearchHistoryEntry) error
}

// RecorderConfig sizes the history recorder.
type RecorderConfig struct {
	Buffer       int
	Workers      int
	WriteTimeout time.Duration
}

// HistoryRecorder persists search history off the request path. Entries are
// queued on a bounded channel and written by a fixed set of workers, each
// write under its own timeout so a canceled request never aborts it. When
// the queue is full the entry is dropped and counted.
type HistoryRecorder struct {
	repo         repository.HistoryRepository
	events       SearchEventPublisher
	queue        chan *domain.SearchHistoryEntry
	done         chan struct{}
	writeTimeout time.Duration
	logger       *slog.Logger
	wg           sync.WaitGroup
	closeOnce    sync.Once

	// mu is held shared around every enqueue and exclusively while closing,
	// so no entry lands in the queue after the workers start their final
	// drain.
	mu     sync.RWMutex
	closed bool
}

var _ EntryRecorder = (*HistoryRecorder)(nil)

// NewHistoryRecorder starts cfg.Workers workers. events may be nil.
func NewHistoryRecorder(repo repository.HistoryRepository, events SearchEventPublisher, cfg RecorderConfig, logger *slog.Logger) *HistoryRecorder {
	cfg.Buffer = max(cfg.Buffer, 1)
	cfg.Workers = max(cfg.Workers, 1)
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	r := &HistoryRecorder{
		repo:         repo,
		events:       events,
		queue:        make(chan *domain.SearchHistoryEntry, cfg.Buffer),
		done:         make(chan struct{}),
		writeTimeout: cfg.WriteTimeout,
		logger:       logger,
	}

	r.wg.Add(cfg.Workers)
	for range cfg.Workers {
		go r.run()
	}
	return r
}

// Record queues entry without blocking. It reports whether the entry was
// accepted.
func (r *HistoryRecorder) Record(entry *domain.SearchHistoryEntry) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		historyWritesTotal.WithLabelValues(writeResultDropped).Inc()
		return false
	}

	select {
	case r.queue <- entry:
		return true
	default:
		historyWritesTotal.WithLabelValues(writeResultDropped).Inc()
		r.logger.Warn("search history queue full, entry dropped",
			slog.String("entry_id", entry.ID),
		)
		return false
	}
}

// Close stops accepting entries, writes what is already queued and waits
// for the workers to exit. It is safe to call multiple times.
func (r *HistoryRecorder) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.done)
		r.mu.Unlock()
	})
	r.wg.Wait()
}

func (r *HistoryRecorder) run() {
	defer r.wg.Done()
	for {
		select {
		case entry := <-r.queue:
			r.write(entry)
		case <-r.done:
			r.drain()
			return
		}
	}
}

func (r *HistoryRecorder) drain() {
	for {
		select {
		case entry := <-r.queue:
			r.write(entry)
		default:
			return
		}
	}
}

func (r *HistoryRecorder) write(entry *domain.SearchHistoryEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.repo.Create(ctx, entry); err != nil {
		historyWritesTotal.WithLabelValues(writeResultFailed).Inc()
		r.logger.Warn("failed to record search history",
			slog.String("entry_id", entry.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	historyWritesTotal.WithLabelValues(writeResultOK).Inc()

	if r.events == nil {
		return
	}
	if err := r.events.PublishSearchPerformed(ctx, entry); err != nil {
		r.logger.Warn("failed to publish search event",
			slog.String("entry_id", entry.ID),
			slog.String("error", err.Error()),
		)
	}
}
