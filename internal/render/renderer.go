package render

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"payslipgen/internal/domain/payslip"
	"payslipgen/internal/platform/metrics"
)

var pageSizes = map[payslip.PageFormat]string{
	payslip.FormatA4:     "A4",
	payslip.FormatLetter: "Letter",
}

type Options struct {
	MaxSessions int64
	Assets      AssetLoader
	Fonts       Fonts
	Metrics     *metrics.Collector
	Log         zerolog.Logger
}

// Renderer produces payslip PDFs: the document is expressed as HTML markup,
// parsed into a layout and painted onto fixed-size pages.
type Renderer struct {
	engine  *Engine
	assets  AssetLoader
	fonts   Fonts
	metrics *metrics.Collector
	log     zerolog.Logger
}

func New(opts Options) *Renderer {
	return &Renderer{
		engine:  NewEngine(opts.MaxSessions),
		assets:  opts.Assets,
		fonts:   opts.Fonts,
		metrics: opts.Metrics,
		log:     opts.Log,
	}
}

// Render returns the PDF for doc. Every failure wraps payslip.ErrRender.
func (r *Renderer) Render(ctx context.Context, doc payslip.Document, format payslip.PageFormat) ([]byte, error) {
	start := time.Now()
	data, err := r.render(ctx, doc, format)
	r.metrics.ObserveRender(string(format), err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", payslip.ErrRender, err)
	}
	return data, nil
}

func (r *Renderer) render(ctx context.Context, doc payslip.Document, format payslip.PageFormat) ([]byte, error) {
	size, ok := pageSizes[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", payslip.ErrUnsupportedFormat, format)
	}
	markup, err := Markup(doc)
	if err != nil {
		return nil, err
	}
	blocks, err := parseLayout(markup)
	if err != nil {
		return nil, err
	}
	log := r.log.With().Str("payslip_number", doc.Record.PayslipNumber).Logger()
	return r.engine.Do(ctx, func() ([]byte, error) {
		return paint(blocks, size, doc.Record.CreatedAt, r.fonts, r.assets, log)
	})
}
