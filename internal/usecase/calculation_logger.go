package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"bakery-backend/internal/domain"
	"bakery-backend/internal/infrastructure/metrics"
	"bakery-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/zoobzio/pipz"
)

const (
	logPipelineName = "calculation-log"
	logDrainName    = "calculation-log-drain"
	logHandleName   = "calculation-log-errors"
	logTimeoutName  = "calculation-log-timeout"
	logInsertName   = "insert-calculation-log"
	logReportName   = "report-calculation-log-failure"
)

// logTask carries one entry through the write pipeline. done is shared by
// clones so the owning Record call is released exactly once.
type logTask struct {
	entry *domain.ShippingCalculationLog
	done  func()
}

func (t logTask) Clone() logTask {
	e := *t.entry
	if t.entry.OrderID != nil {
		v := *t.entry.OrderID
		e.OrderID = &v
	}
	if t.entry.ZoneID != nil {
		v := *t.entry.ZoneID
		e.ZoneID = &v
	}
	return logTask{entry: &e, done: t.done}
}

// CalculationLogger persists calculation results for analytics without
// blocking the caller. Failures are reported to logs and metrics only.
//
// Writes run on a pipz scaffold: insert, bounded by a timeout, wrapped in a
// handle whose error pipeline does the reporting.
type CalculationLogger struct {
	repo     domain.CalculationLogRepository
	metrics  *metrics.Metrics
	now      func() time.Time
	pipeline *pipz.Scaffold[logTask]

	// The scaffold does not wait for its goroutines; wg lets Shutdown drain them.
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

func NewCalculationLogger(repo domain.CalculationLogRepository, timeout time.Duration, m *metrics.Metrics) *CalculationLogger {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	l := &CalculationLogger{
		repo:    repo,
		metrics: m,
		now:     time.Now,
	}

	insert := pipz.Effect(logInsertName, l.insert)
	report := pipz.Effect(logReportName, l.report)
	guarded := pipz.NewHandle(logHandleName, pipz.NewTimeout(logTimeoutName, insert, timeout), report)

	drain := pipz.Effect(logDrainName, func(ctx context.Context, t logTask) error {
		defer t.done()
		_, _ = guarded.Process(ctx, t)
		return nil
	})
	l.pipeline = pipz.NewScaffold(logPipelineName, drain)
	return l
}

// Record schedules a write and returns immediately.
func (l *CalculationLogger) Record(result *domain.ShippingCalculationResult, orderID *string) {
	if l == nil || l.repo == nil || result == nil {
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.stopped {
		logger.Warn().Int64("branch_id", result.BranchID).Msg("CalculationLogger: dropped record after shutdown")
		l.metrics.RecordCalculationLog(false)
		return
	}

	l.wg.Add(1)
	_, _ = l.pipeline.Process(context.Background(), logTask{entry: l.entry(result, orderID), done: l.wg.Done})
}

// Shutdown stops accepting records and waits for in-flight writes until ctx is done.
func (l *CalculationLogger) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// insert runs inside the timeout's goroutine, which has no recover of its own,
// so a panicking repository is turned into an error here.
func (l *CalculationLogger) insert(ctx context.Context, t logTask) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrLoggingFailure, rec)
		}
	}()

	if err := l.repo.InsertCalculationLog(ctx, t.entry); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLoggingFailure, err)
	}
	l.metrics.RecordCalculationLog(true)
	return nil
}

func (l *CalculationLogger) report(_ context.Context, failure *pipz.Error[logTask]) error {
	l.metrics.RecordCalculationLog(false)

	entry := failure.InputData.entry
	log := *logger.Get()
	if entry != nil {
		log = logger.WithBranchID(log, entry.BranchID)
	}

	event := log.Error().
		Err(failure.Err).
		Str("stage", strings.Join(failure.Path, ">")).
		Bool("timeout", failure.Timeout)
	if entry != nil {
		event = event.
			Str("log_id", entry.ID).
			Float64("total_cost", entry.TotalCost)
		if entry.OrderID != nil {
			event = event.Str("order_id", *entry.OrderID)
		}
	}
	event.Msg("CalculationLogger: failed to persist shipping calculation")
	return nil
}

func (l *CalculationLogger) entry(result *domain.ShippingCalculationResult, orderID *string) *domain.ShippingCalculationLog {
	var oid *string
	if orderID != nil && *orderID != "" {
		v := *orderID
		oid = &v
	}
	var zoneID *int64
	if result.ZoneID != nil {
		v := *result.ZoneID
		zoneID = &v
	}

	return &domain.ShippingCalculationLog{
		ID:                  uuid.NewString(),
		OrderID:             oid,
		BranchID:            result.BranchID,
		ZoneID:              zoneID,
		RawDistanceKm:       result.RawDistanceKm,
		EffectiveDistanceKm: result.EffectiveDistanceKm,
		BaseCost:            result.BaseCost,
		DistanceCost:        result.DistanceCost,
		TotalCost:           result.TotalCost,
		OrderAmount:         result.OrderAmount,
		FreeShippingApplied: result.FreeShippingApplied,
		IsWithinRange:       result.IsWithinRange,
		IsFallbackZone:      result.Pricing.IsFallback,
		CreatedAt:           l.now().UTC(),
	}
}
