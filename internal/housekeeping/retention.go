package housekeeping

import (
	"context"
	"fmt"
	"time"

	"github.com/threadline/threadline-backend/pkg/logger"
	"github.com/threadline/threadline-backend/pkg/metrics"
	"gorm.io/gorm"
)

const day = 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PurgeFunc deletes rows older than cutoff inside tx and reports how many went.
type PurgeFunc func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

type RetentionJobParams struct {
	Name          string
	Logger        *logger.Logger
	DB            txRunner
	Purge         PurgeFunc
	RetentionDays int
	Metrics       *metrics.JobMetrics
}

// RetentionJob purges rows past a retention window.
type RetentionJob struct {
	name      string
	logg      *logger.Logger
	db        txRunner
	purge     PurgeFunc
	retention int
	metrics   *metrics.JobMetrics
	now       func() time.Time
}

// NewRetentionJob returns a nil Job when RetentionDays is zero; Registry.Register skips it.
func NewRetentionJob(params RetentionJobParams) (Job, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("job name required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Purge == nil {
		return nil, fmt.Errorf("purge func required")
	}
	if params.RetentionDays < 0 {
		return nil, fmt.Errorf("retention days cannot be negative")
	}
	if params.RetentionDays == 0 {
		return nil, nil
	}
	return &RetentionJob{
		name:      params.Name,
		logg:      params.Logger,
		db:        params.DB,
		purge:     params.Purge,
		retention: params.RetentionDays,
		metrics:   params.Metrics,
		now:       time.Now,
	}, nil
}

func (j *RetentionJob) Name() string { return j.name }

func (j *RetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * day)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.purge(ctx, tx, cutoff)
		deleted = rows
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.metrics.AddDeleted(j.name, deleted)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	}), "retention purge complete")
	return nil
}
