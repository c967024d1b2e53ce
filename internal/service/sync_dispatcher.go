package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/crew-booking-api/internal/dto"
	"github.com/noah-isme/crew-booking-api/pkg/jobs"
)

const (
	syncJobUpsert = "calendar_sync.upsert"
	syncJobDelete = "calendar_sync.delete"
)

type assignmentSyncer interface {
	SyncAssignment(ctx context.Context, assignmentID string) (*dto.RetrySyncResult, error)
	DeleteForAssignment(ctx context.Context, assignmentID string) (*dto.RetrySyncResult, error)
}

// SyncDispatcher turns booking mutations into background sync jobs. Submission never blocks and
// never reports sync failures back to the caller; a full queue drops the job with a warning.
type SyncDispatcher struct {
	queue   *jobs.Queue
	engine  assignmentSyncer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewSyncDispatcher builds the dispatcher and its worker pool.
func NewSyncDispatcher(engine assignmentSyncer, cfg jobs.QueueConfig, metrics *MetricsService, logger *zap.Logger) *SyncDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Logger = logger
	d := &SyncDispatcher{engine: engine, metrics: metrics, logger: logger}
	d.queue = jobs.NewQueue("calendar-sync", d.handle, cfg)
	return d
}

// Start launches the workers.
func (d *SyncDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop cancels the workers and waits for in-flight jobs.
func (d *SyncDispatcher) Stop() {
	d.queue.Stop()
}

// AssignmentChanged schedules a create/update for every connection of the assignment's user.
func (d *SyncDispatcher) AssignmentChanged(assignmentID string) {
	d.submit(syncJobUpsert, assignmentID)
}

// AssignmentRemoved schedules removal of the assignment's external events.
func (d *SyncDispatcher) AssignmentRemoved(assignmentID string) {
	d.submit(syncJobDelete, assignmentID)
}

func (d *SyncDispatcher) submit(jobType, assignmentID string) {
	err := d.queue.TryEnqueue(jobs.Job{ID: assignmentID, Type: jobType, Payload: assignmentID})
	d.metrics.SetSyncQueueDepth(d.queue.Depth())
	if err != nil {
		d.logger.Warn("calendar sync job dropped", zap.String("type", jobType), zap.String("assignment_id", assignmentID), zap.Error(err))
	}
}

func (d *SyncDispatcher) handle(ctx context.Context, job jobs.Job) error {
	defer d.metrics.SetSyncQueueDepth(d.queue.Depth())
	assignmentID, ok := job.Payload.(string)
	if !ok || assignmentID == "" {
		return jobs.Permanent(fmt.Errorf("calendar sync job %s: missing assignment id", job.ID))
	}

	var (
		result *dto.RetrySyncResult
		err    error
	)
	switch job.Type {
	case syncJobUpsert:
		result, err = d.engine.SyncAssignment(ctx, assignmentID)
	case syncJobDelete:
		result, err = d.engine.DeleteForAssignment(ctx, assignmentID)
	default:
		d.logger.Warn("unknown calendar sync job", zap.String("type", job.Type))
		return nil
	}
	if err != nil {
		return err
	}
	if result != nil && result.Failed > 0 {
		d.logger.Info("calendar sync finished with failures",
			zap.String("type", job.Type),
			zap.String("assignment_id", assignmentID),
			zap.Int("connections", result.Connections),
			zap.Int("failed", result.Failed))
	}
	return nil
}
