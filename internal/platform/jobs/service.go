// Package jobs runs periodic maintenance in the background and records every
// run in the job_runs table.
package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"payslipgen/internal/platform/db"
)

// Task is one unit of maintenance. Run returns a JSON encodable summary.
type Task struct {
	Type string
	Run  func(ctx context.Context) (any, error)
}

// Result is the outcome of a task run through RunAll.
type Result struct {
	Type    string `json:"type"`
	Details any    `json:"details,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Service struct {
	DB       db.Querier
	interval time.Duration
	tasks    []Task
	queue    chan Task
	log      zerolog.Logger
}

// New returns a service that enqueues every registered task once per interval.
// A non-positive interval disables the schedule; RunNow and RunAll still work.
func New(q db.Querier, interval time.Duration, log zerolog.Logger) *Service {
	return &Service{
		DB:       q,
		interval: interval,
		queue:    make(chan Task, 32),
		log:      log,
	}
}

// Register adds tasks to the schedule. Call before Start.
func (s *Service) Register(tasks ...Task) {
	s.tasks = append(s.tasks, tasks...)
}

func (s *Service) Tasks() []Task {
	return append([]Task(nil), s.tasks...)
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.interval > 0 && len(s.tasks) > 0 {
		go s.schedule(ctx)
	}
}

// Enqueue hands t to the background worker. It reports false when the queue is full.
func (s *Service) Enqueue(t Task) bool {
	select {
	case s.queue <- t:
		return true
	default:
		s.log.Warn().Str("job_type", t.Type).Msg("job queue full")
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, t Task) (any, error) {
	return s.runJob(ctx, t)
}

// RunAll runs every registered task in order and keeps going past failures.
func (s *Service) RunAll(ctx context.Context) []Result {
	out := make([]Result, 0, len(s.tasks))
	for _, t := range s.tasks {
		details, err := s.runJob(ctx, t)
		res := Result{Type: t.Type, Details: details}
		if err != nil {
			res.Error = err.Error()
		}
		out = append(out, res)
	}
	return out
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.queue:
			if _, err := s.runJob(ctx, t); err != nil {
				s.log.Warn().Err(err).Str("job_type", t.Type).Msg("job run failed")
			}
		}
	}
}

func (s *Service) schedule(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, t := range s.tasks {
				s.Enqueue(t)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, t Task) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1, $2)
    RETURNING id::text
  `, t.Type, "running").Scan(&runID); err != nil {
		s.log.Warn().Err(err).Str("job_type", t.Type).Msg("job run insert failed")
	}

	details, err := t.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		s.log.Warn().Err(marshalErr).Str("job_type", t.Type).Msg("job details marshal failed")
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2::text::jsonb, completed_at = now()
      WHERE id = $3
    `, status, string(detailsJSON), runID); updErr != nil {
			s.log.Warn().Err(updErr).Str("job_type", t.Type).Msg("job run update failed")
		}
	}
	s.log.Info().Str("job_type", t.Type).Str("status", status).RawJSON("details", detailsJSON).Msg("job finished")
	return details, err
}
