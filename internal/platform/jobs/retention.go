package jobs

import (
	"context"
	"time"
)

const (
	JobAbandonBatches = "abandon_stale_batches"
	JobBatchRetention = "batch_retention"
	JobAuditRetention = "audit_retention"
)

// Policy sets the age thresholds for retention tasks. A zero duration
// disables the matching task.
type Policy struct {
	StaleBatchAfter time.Duration
	BatchRetention  time.Duration
	AuditRetention  time.Duration
}

type BatchJanitor interface {
	AbandonStaleBatches(ctx context.Context, startedBefore time.Time) (int64, error)
	PruneBatches(ctx context.Context, finishedBefore time.Time) (int64, error)
}

type EventPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionTasks builds the maintenance tasks enabled by p. now is evaluated
// on every run.
func RetentionTasks(p Policy, batches BatchJanitor, events EventPruner, now func() time.Time) []Task {
	var tasks []Task
	if p.StaleBatchAfter > 0 && batches != nil {
		tasks = append(tasks, cutoffTask(JobAbandonBatches, p.StaleBatchAfter, now, batches.AbandonStaleBatches))
	}
	if p.BatchRetention > 0 && batches != nil {
		tasks = append(tasks, cutoffTask(JobBatchRetention, p.BatchRetention, now, batches.PruneBatches))
	}
	if p.AuditRetention > 0 && events != nil {
		tasks = append(tasks, cutoffTask(JobAuditRetention, p.AuditRetention, now, events.Prune))
	}
	return tasks
}

func cutoffTask(jobType string, age time.Duration, now func() time.Time, apply func(context.Context, time.Time) (int64, error)) Task {
	return Task{
		Type: jobType,
		Run: func(ctx context.Context) (any, error) {
			cutoff := now().Add(-age)
			affected, err := apply(ctx, cutoff)
			return map[string]any{"cutoff": cutoff, "affected": affected}, err
		},
	}
}
