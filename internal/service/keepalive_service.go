package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/crew-booking-api/internal/dto"
	"github.com/noah-isme/crew-booking-api/internal/models"
)

type keepAliveConnectionLister interface {
	ListAll(ctx context.Context) ([]models.CalendarConnection, error)
}

type calendarPinger interface {
	Ping(ctx context.Context, accessToken string) error
}

// KeepAliveService periodically refreshes and exercises every stored calendar token.
// One instance is owned by the process; Start and Stop bracket its lifetime.
type KeepAliveService struct {
	connections keepAliveConnectionLister
	tokens      tokenProvider
	pinger      calendarPinger
	interval    time.Duration
	timeout     time.Duration
	metrics     *MetricsService
	logger      *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewKeepAliveService constructs the scheduler handle.
func NewKeepAliveService(connections keepAliveConnectionLister, tokens tokenProvider, pinger calendarPinger, interval, timeout time.Duration, metrics *MetricsService, logger *zap.Logger) *KeepAliveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 4 * time.Hour
	}
	return &KeepAliveService{
		connections: connections,
		tokens:      tokens,
		pinger:      pinger,
		interval:    interval,
		timeout:     timeout,
		metrics:     metrics,
		logger:      logger,
	}
}

// Start runs one pass immediately and then one per interval until Stop or ctx cancellation.
// Calling Start on a running scheduler is a no-op.
func (s *KeepAliveService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.RunOnce(runCtx)
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.RunOnce(runCtx)
			}
		}
	}(s.done)
	s.logger.Info("calendar keep-alive started", zap.Duration("interval", s.interval))
}

// Stop cancels the loop and waits for the current pass to finish.
func (s *KeepAliveService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	done := s.done
	s.running = false
	s.mu.Unlock()
	<-done
	s.logger.Info("calendar keep-alive stopped")
}

// RunOnce checks every connection. A failing connection is logged and counted; the rest still run.
func (s *KeepAliveService) RunOnce(ctx context.Context) dto.KeepAliveResult {
	var result dto.KeepAliveResult
	conns, err := s.connections.ListAll(ctx)
	if err != nil {
		s.logger.Error("keep-alive could not list connections", zap.Error(err))
		return result
	}
	for i := range conns {
		if ctx.Err() != nil {
			break
		}
		conn := conns[i]
		result.Checked++
		refreshed, err := s.check(ctx, &conn)
		switch {
		case err != nil:
			result.Failed++
			s.metrics.ObserveKeepAlive("failure")
			s.logger.Warn("keep-alive check failed", zap.String("connection_id", conn.ID), zap.String("user_id", conn.UserID), zap.Error(err))
		case refreshed:
			result.Refreshed++
			s.metrics.ObserveKeepAlive("refreshed")
		default:
			s.metrics.ObserveKeepAlive("ok")
		}
	}
	s.logger.Info("keep-alive pass finished",
		zap.Int("checked", result.Checked),
		zap.Int("refreshed", result.Refreshed),
		zap.Int("failed", result.Failed))
	return result
}

func (s *KeepAliveService) check(ctx context.Context, conn *models.CalendarConnection) (bool, error) {
	token, updated, err := s.tokens.GetValidToken(ctx, conn)
	if err != nil {
		return false, err
	}
	refreshed := updated != nil && !updated.TokenExpiresAt.Equal(conn.TokenExpiresAt)

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.pinger.Ping(callCtx, token); err != nil {
		return refreshed, err
	}
	return refreshed, nil
}
