// Package pipeline orchestrates the fetch-load-shape-publish-render cycle
// over a range of forecast base dates.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/ensemble-forecast-service/internal/domain"
	"github.com/couchcryptid/ensemble-forecast-service/internal/observability"
)

// Fetcher downloads one forecast archive and returns its local path.
type Fetcher interface {
	Fetch(ctx context.Context, kind domain.ForecastKind, date string) (string, error)
}

// Loader decodes a NetCDF archive into a grid.
type Loader interface {
	Load(path string) (*domain.Grid, error)
}

// Publisher ships shaped forecast summaries downstream.
type Publisher interface {
	PublishBatch(ctx context.Context, summaries []domain.ForecastSummary) error
}

// Renderer writes plot artifacts for one forecast date.
type Renderer interface {
	RenderTimeSeries(bundle *domain.ForecastBundle, loc domain.LocationPoint, forecastDate string) (string, error)
	RenderPrecipitationMap(g *domain.Grid, forecastDate string) (string, error)
}

// Archive locates previously downloaded archives so completed downloads are
// not repeated.
type Archive interface {
	PathFor(kind domain.ForecastKind, date string) (string, error)
	Exists(kind domain.ForecastKind, date string) bool
}

// Options wires the pipeline stages. Publisher and Renderer may be nil to
// disable publishing or rendering.
type Options struct {
	Fetcher   Fetcher
	Loader    Loader
	Shaper    *Shaper
	Publisher Publisher
	Renderer  Renderer
	Archive   Archive

	Dates        []string
	FetchControl bool

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Pipeline runs the forecast processing cycle for each configured date.
type Pipeline struct {
	fetcher   Fetcher
	loader    Loader
	shaper    *Shaper
	publisher Publisher
	renderer  Renderer
	archive   Archive

	dates        []string
	fetchControl bool

	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool

	mu     sync.RWMutex
	latest *ShapedForecast
}

// New creates a Pipeline from its wired stages.
func New(opts Options) *Pipeline {
	return &Pipeline{
		fetcher:      opts.Fetcher,
		loader:       opts.Loader,
		shaper:       opts.Shaper,
		publisher:    opts.Publisher,
		renderer:     opts.Renderer,
		archive:      opts.Archive,
		dates:        opts.Dates,
		fetchControl: opts.FetchControl,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}
}

// CheckReadiness returns nil once the pipeline has fully processed at least
// one forecast date.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any forecast dates yet")
	}
	return nil
}

// Latest returns the most recently shaped forecast, if any. The HTTP point
// endpoint answers from this snapshot.
func (p *Pipeline) Latest() (*ShapedForecast, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.latest != nil
}

func (p *Pipeline) setLatest(shaped *ShapedForecast) {
	p.mu.Lock()
	p.latest = shaped
	p.mu.Unlock()
}

// Run processes every configured forecast date in order, then returns. A
// failed date is logged and skipped; cancellation stops the run between
// retries and dates.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "dates", len(p.dates))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for _, date := range p.dates {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if err := p.processDate(ctx, date); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("forecast date failed", "date", date, "error", err)
		}
	}

	p.logger.Info("pipeline finished", "dates", len(p.dates))
	return nil
}

// processDate runs one complete cycle for a forecast base date.
func (p *Pipeline) processDate(ctx context.Context, date string) error {
	start := time.Now()

	path, err := p.fetchWithRetry(ctx, domain.PerturbedForecast, date)
	if err != nil {
		return err
	}

	if p.fetchControl {
		// The control run is archived alongside the ensemble but is not
		// shaped; a failed control download does not fail the date.
		if _, err := p.fetchWithRetry(ctx, domain.ControlForecast, date); err != nil {
			p.logger.Warn("control forecast download failed", "date", date, "error", err)
		}
	}

	grid, err := p.loader.Load(path)
	if err != nil {
		p.metrics.LoadErrors.Inc()
		return err
	}
	p.metrics.GridsLoaded.Inc()

	shaped, err := p.shaper.Shape(grid, date)
	if err != nil {
		p.metrics.ShapeErrors.Inc()
		return err
	}
	p.metrics.ExtractionsTotal.Add(float64(len(shaped.Points)))
	p.setLatest(shaped)

	if err := p.publish(ctx, shaped); err != nil {
		return err
	}
	p.render(shaped)

	p.metrics.DateProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)

	p.logger.Info("forecast date processed",
		"date", date,
		"locations", len(shaped.Points),
		"duration", time.Since(start),
	)
	return nil
}

const (
	initialBackoff   = 200 * time.Millisecond
	maxBackoff       = 5 * time.Second
	maxFetchAttempts = 5
)

// fetchWithRetry returns the local archive path for one forecast kind and
// date, downloading it unless already present. Failed downloads are retried
// with exponential backoff.
func (p *Pipeline) fetchWithRetry(ctx context.Context, kind domain.ForecastKind, date string) (string, error) {
	if p.archive.Exists(kind, date) {
		p.metrics.DownloadsCompleted.WithLabelValues(string(kind), "cached").Inc()
		return p.archive.PathFor(kind, date)
	}

	backoff := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		t0 := time.Now()
		path, err := p.fetcher.Fetch(ctx, kind, date)
		if err == nil {
			p.metrics.DownloadDuration.Observe(time.Since(t0).Seconds())
			p.metrics.DownloadsCompleted.WithLabelValues(string(kind), "success").Inc()
			return path, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", lastErr
		}
		p.logger.Warn("archive download failed",
			"kind", kind, "date", date, "attempt", attempt, "error", err)
		if attempt < maxFetchAttempts && !sleepWithContext(ctx, backoff) {
			return "", lastErr
		}
		backoff = nextBackoff(backoff)
	}

	p.metrics.DownloadsCompleted.WithLabelValues(string(kind), "error").Inc()
	return "", lastErr
}

// publish ships the date's summaries when a publisher is configured,
// retrying transient failures with backoff.
func (p *Pipeline) publish(ctx context.Context, shaped *ShapedForecast) error {
	if p.publisher == nil || len(shaped.Points) == 0 {
		return nil
	}

	summaries := make([]domain.ForecastSummary, len(shaped.Points))
	for i := range shaped.Points {
		summaries[i] = shaped.Points[i].Summary
	}

	backoff := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		err := p.publisher.PublishBatch(ctx, summaries)
		if err == nil {
			p.metrics.SummariesPublished.Add(float64(len(summaries)))
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return lastErr
		}
		p.logger.Warn("publish failed",
			"date", shaped.Date, "attempt", attempt, "error", err)
		if attempt < maxFetchAttempts && !sleepWithContext(ctx, backoff) {
			return lastErr
		}
		backoff = nextBackoff(backoff)
	}
	return lastErr
}

// render writes plot artifacts when a renderer is configured. Render
// failures are logged but never fail the date.
func (p *Pipeline) render(shaped *ShapedForecast) {
	if p.renderer == nil {
		return
	}

	for i := range shaped.Points {
		pt := &shaped.Points[i]
		if _, err := p.renderer.RenderTimeSeries(&pt.Bundle, pt.Location, shaped.Date); err != nil {
			p.logger.Warn("time series render failed",
				"date", shaped.Date, "location", pt.Location, "error", err)
			continue
		}
		p.metrics.ArtifactsRendered.WithLabelValues("timeseries").Inc()
	}

	if _, err := p.renderer.RenderPrecipitationMap(shaped.Grid, shaped.Date); err != nil {
		p.logger.Warn("precipitation map render failed", "date", shaped.Date, "error", err)
		return
	}
	p.metrics.ArtifactsRendered.WithLabelValues("heatmap").Inc()
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
