// Package enrich attaches secondary evidence (blocked-thread stacks, slow
// HTTP traces) to diagnostic findings. Both passes are best-effort: an
// unreachable or empty source skips that pass and leaves the primary
// findings intact.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/matera-dldn/qualisentinel/internal/collector"
	"github.com/matera-dldn/qualisentinel/internal/diagnose"
	"github.com/matera-dldn/qualisentinel/internal/httptrace"
	"github.com/matera-dldn/qualisentinel/internal/threaddump"
)

const (
	traceSampleLimit = 10
	slowTraceMillis  = 500
)

// TraceSource fetches a raw HTTP-trace payload.
type TraceSource interface {
	Traces(ctx context.Context) ([]byte, collector.Status)
}

// ThreadDumpSource fetches a raw thread-dump payload.
type ThreadDumpSource interface {
	ThreadDump(ctx context.Context) ([]byte, collector.Status)
}

// Enricher correlates findings with trace and thread-dump evidence.
// Either source may be nil, which disables that pass.
type Enricher struct {
	traces  TraceSource
	threads ThreadDumpSource
}

// New creates an Enricher over the given sources.
func New(traces TraceSource, threads ThreadDumpSource) *Enricher {
	return &Enricher{traces: traces, threads: threads}
}

// Enrich appends evidence findings. Prior findings are never removed or
// reordered; evidence is appended at the end.
func (e *Enricher) Enrich(ctx context.Context, findings []diagnose.Finding) []diagnose.Finding {
	if evidence, ok := e.threadDumpEvidence(ctx, findings); ok {
		findings = append(findings, evidence)
	}
	if evidence, ok := e.slowTraceEvidence(ctx); ok {
		findings = append(findings, evidence)
	}
	return findings
}

// threadDumpEvidence runs only when a thread-contention finding fired:
// blocked stacks are only meaningful evidence for that diagnosis.
func (e *Enricher) threadDumpEvidence(ctx context.Context, findings []diagnose.Finding) (diagnose.Finding, bool) {
	if e.threads == nil || !diagnose.HasRule(findings, diagnose.RuleThreadContention) {
		return diagnose.Finding{}, false
	}
	raw, status := e.threads.ThreadDump(ctx)
	if status != collector.StatusOK {
		return diagnose.Finding{}, false
	}

	var lines []string
	for _, entry := range threaddump.Blocked(threaddump.Normalize(raw)) {
		frames := threaddump.SignificantFrames(entry)
		if len(frames) == 0 {
			continue
		}
		rendered := make([]string, len(frames))
		for i, f := range frames {
			rendered[i] = f.String()
		}
		lines = append(lines, fmt.Sprintf("Thread %q bloqueada em: %s", entry.Label(), strings.Join(rendered, " | ")))
	}
	if len(lines) == 0 {
		return diagnose.Finding{}, false
	}

	return diagnose.Finding{
		Rule: diagnose.RuleThreadDumpEvidence,
		Text: "**Evidência (thread dump):**\n" + strings.Join(lines, "\n"),
	}, true
}

// slowTraceEvidence runs whenever a trace source is available, regardless
// of which findings fired.
func (e *Enricher) slowTraceEvidence(ctx context.Context) (diagnose.Finding, bool) {
	if e.traces == nil {
		return diagnose.Finding{}, false
	}
	raw, status := e.traces.Traces(ctx)
	if status != collector.StatusOK {
		return diagnose.Finding{}, false
	}

	records := httptrace.Normalize(raw)
	if len(records) > traceSampleLimit {
		records = records[:traceSampleLimit]
	}

	var lines []string
	for _, r := range records {
		if r.TimeTakenMillis > slowTraceMillis {
			lines = append(lines, fmt.Sprintf("%s %s -> %d %dms", r.Method, r.URI, r.Status, r.TimeTakenMillis))
		}
	}
	if len(lines) == 0 {
		return diagnose.Finding{}, false
	}

	return diagnose.Finding{
		Rule: diagnose.RuleSlowTraceEvidence,
		Text: "**Evidência (HTTP traces lentos, >500ms):**\n" + strings.Join(lines, "\n"),
	}, true
}
