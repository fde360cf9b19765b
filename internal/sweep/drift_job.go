package sweep

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/locaops/rental-backend/internal/reconciliation"
	"github.com/locaops/rental-backend/pkg/logger"
	"github.com/locaops/rental-backend/pkg/metrics"
	"github.com/locaops/rental-backend/pkg/outbox/payloads"
)

type driftDetector interface {
	ListGhosts(ctx context.Context) ([]reconciliation.Ghost, error)
}

type driftAlerter interface {
	EmitStockDrift(ctx context.Context, tx *gorm.DB, event payloads.StockDriftDetectedEvent) error
}

// DriftJob scans the catalog for counter/log drift and queues alerts for
// every ghost it finds. It never mutates stock state.
type DriftJob struct {
	db       *gorm.DB
	detector driftDetector
	alerts   driftAlerter
	metrics  *metrics.SweepMetrics
	logg     *logger.Logger
}

// DriftJobParams configure the drift sweep job.
type DriftJobParams struct {
	DB       *gorm.DB
	Detector driftDetector
	Alerts   driftAlerter
	Metrics  *metrics.SweepMetrics
	Logger   *logger.Logger
}

// NewDriftJob builds the drift sweep job. Alerts, Metrics, and Logger may be nil.
func NewDriftJob(params DriftJobParams) (*DriftJob, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db required")
	}
	if params.Detector == nil {
		return nil, fmt.Errorf("detector required")
	}
	return &DriftJob{
		db:       params.DB,
		detector: params.Detector,
		alerts:   params.Alerts,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Name identifies the job in logs and metrics.
func (j *DriftJob) Name() string { return "stock-drift" }

// Run detects ghosts across the catalog and reports each one. A failure to
// queue one alert does not stop the scan; every failure is combined into the
// returned error so the cycle is counted as failed.
func (j *DriftJob) Run(ctx context.Context) error {
	ghosts, err := j.detector.ListGhosts(ctx)
	if err != nil {
		return fmt.Errorf("detecting drift: %w", err)
	}

	var errs []error
	for _, ghost := range ghosts {
		j.recordDrift(ctx, ghost)
		if err := j.queueAlert(ctx, ghost); err != nil {
			errs = append(errs, fmt.Errorf("queue alert for item %s/%s: %w", ghost.ItemID, ghost.Condition, err))
		}
	}
	return multierr.Combine(errs...)
}

func (j *DriftJob) recordDrift(ctx context.Context, ghost reconciliation.Ghost) {
	if j.metrics != nil {
		j.metrics.IncDrift(string(ghost.Condition))
	}
	if j.logg != nil {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"item_id":      ghost.ItemID.String(),
			"condition":    ghost.Condition,
			"counter_qty":  ghost.CounterQty,
			"open_log_qty": ghost.OpenLogQty,
			"ghost":        ghost.Quantity,
		})
		j.logg.Warn(logCtx, "stock drift detected")
	}
}

func (j *DriftJob) queueAlert(ctx context.Context, ghost reconciliation.Ghost) error {
	if j.alerts == nil {
		return nil
	}
	return j.db.Transaction(func(tx *gorm.DB) error {
		return j.alerts.EmitStockDrift(ctx, tx, payloads.StockDriftDetectedEvent{
			ItemID:     ghost.ItemID,
			Condition:  ghost.Condition,
			CounterQty: ghost.CounterQty,
			OpenLogQty: ghost.OpenLogQty,
			Ghost:      ghost.Quantity,
		})
	})
}
