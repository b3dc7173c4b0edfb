// Package monitor watches submitted runs until they close or time out and
// then emits exactly one terminal report per run.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/testopsbot/internal/metrics"
	"github.com/kiranshivaraju/testopsbot/pkg/models"
)

var (
	ErrAlreadyWatching = errors.New("launch is already being watched")
	ErrStopped         = errors.New("monitor is shut down")
)

// Descriptor tracks one in-flight run. Only the Monitor touches it after Watch.
type Descriptor struct {
	ID                   uuid.UUID
	LaunchID             int64
	ChatID               int64
	CorrelationMessageID int
	StartedAt            time.Time
	Attempt              int
}

// RunSource is the part of the remote test service the monitor polls.
type RunSource interface {
	GetRunInfo(ctx context.Context, runID int64) (*models.RunInfo, error)
	GetRunStatistics(ctx context.Context, runID int64) ([]models.StatusCount, error)
}

// Reporter delivers terminal outcomes to the chat that started the run.
type Reporter interface {
	ReportCompleted(ctx context.Context, d Descriptor, report models.RunReport) error
	ReportTimeout(ctx context.Context, d Descriptor) error
}

// Monitor runs one ticker goroutine per watched launch.
type Monitor struct {
	source   RunSource
	reporter Reporter
	metrics  *metrics.Collector
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	watches map[int64]*watch
}

type watch struct {
	d      Descriptor
	cancel context.CancelFunc
}

type Option func(*Monitor)

// WithClock replaces time.Now for elapsed-time checks.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(m *Monitor) { m.metrics = c }
}

// New creates a Monitor that checks every interval and gives up on a run
// once more than timeout has passed since it was submitted.
func New(source RunSource, reporter Reporter, interval, timeout time.Duration, opts ...Option) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Monitor{
		source:   source,
		reporter: reporter,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		watches:  make(map[int64]*watch),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Watch starts monitoring d.LaunchID. The first check happens one interval
// from now. A zero ID or StartedAt is filled in.
func (m *Monitor) Watch(d Descriptor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.StartedAt.IsZero() {
		d.StartedAt = m.now()
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrStopped
	}
	if _, ok := m.watches[d.LaunchID]; ok {
		m.mu.Unlock()
		return ErrAlreadyWatching
	}
	ctx, cancel := context.WithCancel(m.ctx)
	w := &watch{d: d, cancel: cancel}
	m.watches[d.LaunchID] = w
	m.wg.Add(1)
	m.mu.Unlock()

	m.metrics.MonitorStarted()
	slog.Info("watching launch", "launch_id", d.LaunchID, "chat_id", d.ChatID, "descriptor_id", d.ID)

	go m.run(ctx, w)
	return nil
}

// Active returns a snapshot of every descriptor still being watched.
func (m *Monitor) Active() []Descriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Descriptor, 0, len(m.watches))
	for _, w := range m.watches {
		out = append(out, w.d)
	}
	return out
}

// Shutdown stops every watch without reporting and waits for the goroutines
// to exit or ctx to expire. It is meant for process stop only.
func (m *Monitor) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Monitor) run(ctx context.Context, w *watch) {
	defer m.wg.Done()
	defer m.forget(w)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in launch monitor", "error", r, "launch_id", w.d.LaunchID)
		}
	}()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.check(ctx, w) {
				return
			}
		}
	}
}

func (m *Monitor) forget(w *watch) {
	m.mu.Lock()
	if m.watches[w.d.LaunchID] == w {
		delete(m.watches, w.d.LaunchID)
	}
	m.mu.Unlock()
	w.cancel()
	m.metrics.MonitorStopped()
}

// check runs one monitoring cycle and reports whether the watch is finished.
// The timeout is evaluated before the run status so an overdue run never
// triggers a statistics call.
func (m *Monitor) check(ctx context.Context, w *watch) bool {
	m.mu.Lock()
	w.d.Attempt++
	d := w.d
	m.mu.Unlock()

	m.metrics.MonitorCheck()
	log := slog.With("launch_id", d.LaunchID, "chat_id", d.ChatID, "attempt", d.Attempt)

	if elapsed := m.now().Sub(d.StartedAt); elapsed > m.timeout {
		log.Warn("launch monitoring timed out", "elapsed", elapsed.String())
		if err := m.reporter.ReportTimeout(ctx, d); err != nil {
			log.Error("failed to send timeout notice", "error", err)
		}
		m.metrics.Report(metrics.OutcomeTimeout)
		return true
	}

	info, err := m.source.GetRunInfo(ctx, d.LaunchID)
	if err != nil {
		log.Error("launch status check failed", "error", err)
		m.metrics.MonitorCheckError()
		return false
	}
	if !info.Closed {
		return false
	}

	stats, err := m.source.GetRunStatistics(ctx, d.LaunchID)
	if err != nil {
		log.Error("launch statistics unavailable, reporting zero counts", "error", err)
		stats = nil
	}

	report := Summarize(d.LaunchID, stats)
	if err := m.reporter.ReportCompleted(ctx, d, report); err != nil {
		log.Error("failed to send completion report", "error", err)
	}
	m.metrics.Report(metrics.OutcomeCompleted)
	log.Info("launch completed", "passed", report.Passed, "failed", report.Failed, "skipped", report.Skipped)
	return true
}

// Summarize folds per-status counts into passed, failed and skipped.
// Status names compare case-insensitively; anything that is neither passed
// nor failed counts as skipped.
func Summarize(launchID int64, stats []models.StatusCount) models.RunReport {
	r := models.RunReport{LaunchID: launchID}
	for _, s := range stats {
		switch strings.ToUpper(s.Status) {
		case "PASSED":
			r.Passed += s.Count
		case "FAILED":
			r.Failed += s.Count
		default:
			r.Skipped += s.Count
		}
	}
	r.Total = r.Passed + r.Failed + r.Skipped
	return r
}
