package payslip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"payslipgen/internal/domain/company"
	"payslipgen/internal/domain/employee"
	"payslipgen/internal/platform/metrics"
)

// Renderer turns one payslip document into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, doc Document, format PageFormat) ([]byte, error)
}

type SettingsSource interface {
	Get(ctx context.Context) (*company.Settings, error)
}

// Resolver maps a row's employee attributes to a stored employee.
type Resolver interface {
	Resolve(ctx context.Context, candidate employee.Employee) (*employee.Employee, error)
}

// RecordStore persists payslips and batch bookkeeping.
type RecordStore interface {
	CreatePayrollRecord(ctx context.Context, rec PayrollRecord) (*PayrollRecord, error)
	CreateBatch(ctx context.Context, run BatchRun) error
	UpdateBatch(ctx context.Context, run BatchRun) error
}

type Options struct {
	// Workers above 1 process rows concurrently; archive order stays the input order.
	Workers      int
	BatchTimeout time.Duration
	RowTimeout   time.Duration
}

type BatchRequest struct {
	Rows   []RawRow
	Format PageFormat
}

type BatchResult struct {
	Run       BatchRun
	Generated []Generated
	Errors    []RowError
	Archive   []byte
}

func (r *BatchResult) SuccessCount() int { return len(r.Generated) }
func (r *BatchResult) ErrorCount() int   { return len(r.Errors) }

type Orchestrator struct {
	resolver Resolver
	settings SettingsSource
	renderer Renderer
	store    RecordStore
	metrics  *metrics.Collector
	log      zerolog.Logger
	opts     Options

	now   func() time.Time
	newID func() string
}

func NewOrchestrator(resolver Resolver, settings SettingsSource, renderer Renderer, store RecordStore,
	m *metrics.Collector, log zerolog.Logger, opts Options) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Orchestrator{
		resolver: resolver,
		settings: settings,
		renderer: renderer,
		store:    store,
		metrics:  m,
		log:      log,
		opts:     opts,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

type rowOutcome struct {
	generated Generated
	failure   *RowError
}

// batchFold accumulates row outcomes in input order.
type batchFold struct {
	generated []Generated
	errors    []RowError
}

// Run processes every row exactly once. Row failures are collected, never
// returned; only an empty batch, a bad format, a settings read failure or an
// archive failure abort the call. Cancelling ctx after the settings are read
// does not stop the batch.
func (o *Orchestrator) Run(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if len(req.Rows) == 0 {
		return nil, ErrEmptyBatch
	}
	format, err := ParseFormat(string(req.Format))
	if err != nil {
		return nil, err
	}
	started := o.now()

	settings, err := o.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load company settings: %w", err)
	}

	bookkeeping := context.WithoutCancel(ctx)
	run := BatchRun{
		ID:        o.newID(),
		Status:    BatchAccepted,
		Format:    format,
		TotalRows: len(req.Rows),
		StartedAt: started,
	}
	log := o.log.With().Str("batch_id", run.ID).Int("rows", run.TotalRows).Logger()

	recordBatchID := run.ID
	if err := o.store.CreateBatch(bookkeeping, run); err != nil {
		log.Warn().Err(err).Msg("batch run record not created")
		recordBatchID = ""
	}
	run.Status = BatchProcessing
	o.updateBatch(bookkeeping, log, run, recordBatchID)

	// Once accepted the batch runs to completion even if the caller goes
	// away; only BatchTimeout bounds it.
	batchCtx := bookkeeping
	if o.opts.BatchTimeout > 0 {
		var cancel context.CancelFunc
		batchCtx, cancel = context.WithTimeout(bookkeeping, o.opts.BatchTimeout)
		defer cancel()
	}

	outcomes := o.process(batchCtx, req.Rows, settings, format, recordBatchID)

	var fold batchFold
	arc := newArchive()
	for _, out := range outcomes {
		if out.failure != nil {
			fold.errors = append(fold.errors, *out.failure)
			log.Warn().Int("row", out.failure.Row).Str("employee_no", out.failure.EmployeeNo).
				Str("stage", out.failure.Stage).Msg(out.failure.Error)
			continue
		}
		g := out.generated
		name, err := arc.add(g.FileName, g.PDF, g.Record.CreatedAt)
		if err != nil {
			return nil, err
		}
		g.FileName = name
		fold.generated = append(fold.generated, g)
	}
	archiveBytes, err := arc.bytes()
	if err != nil {
		return nil, err
	}

	finished := o.now()
	run.Status = BatchCompleted
	run.SuccessCount = len(fold.generated)
	run.ErrorCount = len(fold.errors)
	run.Errors = fold.errors
	run.FinishedAt = &finished
	o.updateBatch(bookkeeping, log, run, recordBatchID)

	o.metrics.ObserveBatch(batchOutcome(run), finished.Sub(started))
	log.Info().Int("succeeded", run.SuccessCount).Int("failed", run.ErrorCount).
		Dur("elapsed", finished.Sub(started)).Msg("batch completed")

	return &BatchResult{Run: run, Generated: fold.generated, Errors: fold.errors, Archive: archiveBytes}, nil
}

func (o *Orchestrator) updateBatch(ctx context.Context, log zerolog.Logger, run BatchRun, recordBatchID string) {
	if recordBatchID == "" {
		return
	}
	if err := o.store.UpdateBatch(ctx, run); err != nil {
		log.Warn().Err(err).Str("status", string(run.Status)).Msg("batch run record not updated")
	}
}

func (o *Orchestrator) process(ctx context.Context, rows []RawRow, settings *company.Settings, format PageFormat, batchID string) []rowOutcome {
	outcomes := make([]rowOutcome, len(rows))
	if o.opts.Workers == 1 {
		for i, row := range rows {
			outcomes[i] = o.processRow(ctx, i, row, settings, format, batchID)
		}
		return outcomes
	}

	var g errgroup.Group
	g.SetLimit(o.opts.Workers)
	for i, row := range rows {
		g.Go(func() error {
			outcomes[i] = o.processRow(ctx, i, row, settings, format, batchID)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (o *Orchestrator) processRow(ctx context.Context, index int, row RawRow, settings *company.Settings, format PageFormat, batchID string) rowOutcome {
	fail := func(stage string, err error) rowOutcome {
		o.metrics.ObserveRow(stage, false)
		return rowOutcome{failure: &RowError{
			Row:        index + 1,
			EmployeeNo: row.Text(ColEmployeeNo),
			Stage:      stage,
			Error:      err.Error(),
		}}
	}

	if err := ctx.Err(); err != nil {
		return fail(StageSchedule, fmt.Errorf("%w: %v", ErrDeadline, err))
	}

	draft, err := Normalize(row)
	if err != nil {
		return fail(StageValidate, err)
	}

	emp, err := o.resolver.Resolve(ctx, draft.Employee)
	if err != nil {
		return fail(StageReconcile, err)
	}

	rec := draft.Record
	rec.EmployeeID = emp.ID
	rec.BatchID = batchID
	rec.CreatedAt = o.now().UTC().Truncate(time.Second)

	pdf, err := o.render(ctx, Document{Employee: *emp, Record: rec, Settings: settings}, format)
	if err != nil {
		return fail(StageRender, err)
	}

	saved, err := o.store.CreatePayrollRecord(ctx, rec)
	if err != nil {
		return fail(StagePersist, fmt.Errorf("save payslip: %w", err))
	}

	o.metrics.ObserveRow(StagePersist, true)
	return rowOutcome{generated: Generated{
		Row:      index + 1,
		FileName: FileName(emp.EmployeeNo, saved.PayPeriod),
		Employee: *emp,
		Record:   *saved,
		PDF:      pdf,
	}}
}

func (o *Orchestrator) render(ctx context.Context, doc Document, format PageFormat) ([]byte, error) {
	if o.opts.RowTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.RowTimeout)
		defer cancel()
	}
	pdf, err := o.renderer.Render(ctx, doc, format)
	if err != nil {
		if !errors.Is(err, ErrRender) {
			err = fmt.Errorf("%w: %v", ErrRender, err)
		}
		return nil, err
	}
	return pdf, nil
}

func batchOutcome(run BatchRun) string {
	switch {
	case run.ErrorCount == 0:
		return "succeeded"
	case run.SuccessCount == 0:
		return "failed"
	default:
		return "partial"
	}
}

// ParseFormat accepts A4 or Letter in any case; empty means A4.
func ParseFormat(raw string) (PageFormat, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return FormatA4, nil
	case strings.EqualFold(raw, string(FormatA4)):
		return FormatA4, nil
	case strings.EqualFold(raw, string(FormatLetter)):
		return FormatLetter, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}
