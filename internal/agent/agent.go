// Package agent orchestrates one diagnostic cycle — fetch, parse,
// evaluate, enrich, compose — and runs the periodic poll loop that
// publishes the latest report.
package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/matera-dldn/qualisentinel/internal/collector"
	"github.com/matera-dldn/qualisentinel/internal/diagnose"
	"github.com/matera-dldn/qualisentinel/internal/enrich"
	"github.com/matera-dldn/qualisentinel/internal/exposition"
	"github.com/matera-dldn/qualisentinel/internal/genai"
	"github.com/matera-dldn/qualisentinel/internal/logging"
	"github.com/matera-dldn/qualisentinel/internal/report"
	"github.com/matera-dldn/qualisentinel/internal/stats"
)

// Fetcher is the collector surface one cycle needs.
type Fetcher interface {
	Metrics(ctx context.Context) (string, collector.Status)
	Traces(ctx context.Context) ([]byte, collector.Status)
	ThreadDump(ctx context.Context) ([]byte, collector.Status)
}

// Runner executes diagnostic cycles. All state is per-cycle; a Runner is
// safe to reuse across cycles.
type Runner struct {
	fetcher Fetcher
	gen     genai.Generator
	metrics *stats.Collector
}

// NewRunner wires a cycle runner. gen may be nil (manual mode); metrics
// may be nil to disable self-metrics.
func NewRunner(fetcher Fetcher, gen genai.Generator, metrics *stats.Collector) *Runner {
	return &Runner{fetcher: fetcher, gen: gen, metrics: metrics}
}

// RunCycle performs one full diagnostic cycle. An unavailable or missing
// primary metrics source is fatal for the cycle: the returned report
// carries only the cannot-analyze message and a non-empty Err. Enrichment
// and generation failures degrade gracefully inside.
func (r *Runner) RunCycle(ctx context.Context) report.Report {
	if r.metrics != nil {
		r.metrics.CycleStarted()
	}

	timed := &timedFetcher{fetcher: r.fetcher, metrics: r.metrics}

	raw, status := timed.Metrics(ctx)
	if status != collector.StatusOK {
		if r.metrics != nil {
			r.metrics.CycleFailed()
		}
		reason := "fonte de métricas indisponível"
		if status == collector.StatusEmpty {
			reason = "endpoint de métricas não exposto"
		}
		logging.Error("diagnostic cycle aborted", logging.F("reason", reason))
		return report.Report{Mode: report.ModeManual, Content: report.Compose(nil, nil), Err: reason}
	}

	snap := exposition.Parse(raw)
	findings := diagnose.Evaluate(snap)
	if r.metrics != nil {
		for _, f := range findings {
			r.metrics.CountFinding(f.Rule)
		}
	}

	findings = enrich.New(timed, timed).Enrich(ctx, findings)

	rep := report.Build(ctx, snap, findings, r.gen)
	if rep.Err != "" {
		logging.Warn("text generation failed, falling back to local prompt", logging.F("error", rep.Err))
	}
	if r.metrics != nil {
		r.metrics.CycleCompleted(time.Now())
	}
	logging.Info("diagnostic cycle complete", logging.F("findings", len(findings), "mode", rep.Mode))
	return rep
}

// timedFetcher records per-endpoint fetch durations.
type timedFetcher struct {
	fetcher Fetcher
	metrics *stats.Collector
}

func (t *timedFetcher) Metrics(ctx context.Context) (string, collector.Status) {
	start := time.Now()
	raw, status := t.fetcher.Metrics(ctx)
	t.observe("metrics", start)
	return raw, status
}

func (t *timedFetcher) Traces(ctx context.Context) ([]byte, collector.Status) {
	start := time.Now()
	raw, status := t.fetcher.Traces(ctx)
	t.observe("httptrace", start)
	return raw, status
}

func (t *timedFetcher) ThreadDump(ctx context.Context) ([]byte, collector.Status) {
	start := time.Now()
	raw, status := t.fetcher.ThreadDump(ctx)
	t.observe("threaddump", start)
	return raw, status
}

func (t *timedFetcher) observe(endpoint string, start time.Time) {
	if t.metrics != nil {
		t.metrics.ObserveScrape(endpoint, time.Since(start))
	}
}

// Poller runs cycles on a fixed interval and publishes the latest report.
type Poller struct {
	runner   *Runner
	interval time.Duration

	mu     sync.RWMutex
	latest *report.Report
}

// NewPoller creates a Poller running one cycle per interval.
func NewPoller(runner *Runner, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{runner: runner, interval: interval}
}

// Start runs the first cycle immediately, then ticks until ctx is
// cancelled. Blocking; run it in a goroutine.
func (p *Poller) Start(ctx context.Context) {
	p.run(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.run(ctx)
		}
	}
}

func (p *Poller) run(ctx context.Context) {
	rep := p.runner.RunCycle(ctx)
	p.mu.Lock()
	p.latest = &rep
	p.mu.Unlock()
}

// Latest returns a copy of the most recent report, or false before the
// first cycle finished.
func (p *Poller) Latest() (report.Report, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return report.Report{}, false
	}
	return *p.latest, true
}

// Ready is a health check that passes once the first cycle has run.
func (p *Poller) Ready() error {
	if _, ok := p.Latest(); !ok {
		return errors.New("no diagnostic cycle completed yet")
	}
	return nil
}
