package enrich

import (
	"context"
	"strings"
	"testing"

	"github.com/matera-dldn/qualisentinel/internal/collector"
	"github.com/matera-dldn/qualisentinel/internal/diagnose"
)

type stubSource struct {
	payload []byte
	status  collector.Status
}

func (s stubSource) Traces(ctx context.Context) ([]byte, collector.Status) {
	return s.payload, s.status
}

func (s stubSource) ThreadDump(ctx context.Context) ([]byte, collector.Status) {
	return s.payload, s.status
}

var contentionFinding = diagnose.Finding{Rule: diagnose.RuleThreadContention, Text: "contenção"}

const blockedDump = `{"threads":[{"threadName":"exec-1","threadState":"BLOCKED","stackTrace":[
  {"className":"com.acme.Svc","methodName":"lock","lineNumber":10},
  {"className":"com.acme.Ctl","methodName":"go","lineNumber":20}
]}]}`

func TestSlowTraceEvidenceAppended(t *testing.T) {
	traces := stubSource{
		payload: []byte(`{"traces":[{"request":{"method":"GET","uri":"/x"},"response":{"status":200},"timeTaken":600}]}`),
		status:  collector.StatusOK,
	}
	e := New(traces, nil)

	in := []diagnose.Finding{{Rule: diagnose.RuleNoFindings, Text: "ok"}}
	out := e.Enrich(context.Background(), in)

	if len(out) != 2 {
		t.Fatalf("expected evidence appended, got %+v", out)
	}
	if out[0] != in[0] {
		t.Error("prior findings must be untouched")
	}
	if out[1].Rule != diagnose.RuleSlowTraceEvidence || !strings.Contains(out[1].Text, "GET /x -> 200 600ms") {
		t.Errorf("evidence = %+v", out[1])
	}
}

func TestFastTracesProduceNoEvidence(t *testing.T) {
	traces := stubSource{
		payload: []byte(`{"traces":[{"request":{"method":"GET","uri":"/x"},"response":{"status":200},"timeTaken":100}]}`),
		status:  collector.StatusOK,
	}
	out := New(traces, nil).Enrich(context.Background(), nil)
	if len(out) != 0 {
		t.Errorf("100ms trace must not produce evidence: %+v", out)
	}
}

func TestTraceTruncationBeforeFiltering(t *testing.T) {
	// 12 traces, all slow; only the first 10 are considered.
	var b strings.Builder
	b.WriteString(`{"traces":[`)
	for i := 0; i < 12; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"request":{"method":"GET","uri":"/x"},"response":{"status":200},"timeTaken":900}`)
	}
	b.WriteString(`]}`)

	out := New(stubSource{payload: []byte(b.String()), status: collector.StatusOK}, nil).
		Enrich(context.Background(), nil)
	if len(out) != 1 {
		t.Fatalf("expected one evidence finding, got %d", len(out))
	}
	if got := strings.Count(out[0].Text, "\n"); got != 10 {
		t.Errorf("expected 10 evidence lines, got %d", got)
	}
}

func TestThreadDumpEvidenceOnlyWithContentionFinding(t *testing.T) {
	threads := stubSource{payload: []byte(blockedDump), status: collector.StatusOK}
	e := New(nil, threads)

	// No contention finding: no thread evidence.
	out := e.Enrich(context.Background(), []diagnose.Finding{{Rule: diagnose.RuleMemoryPressure}})
	if len(out) != 1 {
		t.Fatalf("thread evidence without contention finding: %+v", out)
	}

	// With contention finding: evidence appended.
	out = e.Enrich(context.Background(), []diagnose.Finding{contentionFinding})
	if len(out) != 2 || out[1].Rule != diagnose.RuleThreadDumpEvidence {
		t.Fatalf("expected thread evidence, got %+v", out)
	}
	want := `Thread "exec-1" bloqueada em: com.acme.Svc.lock:10 | com.acme.Ctl.go:20`
	if !strings.Contains(out[1].Text, want) {
		t.Errorf("evidence line missing:\n%s", out[1].Text)
	}
}

func TestUnavailableSourcesAreSilentNoOps(t *testing.T) {
	down := stubSource{status: collector.StatusUnavailable}
	out := New(down, down).Enrich(context.Background(), []diagnose.Finding{contentionFinding})
	if len(out) != 1 {
		t.Errorf("unavailable sources must not add findings: %+v", out)
	}
}

func TestEmptyThreadDumpProducesNoEvidence(t *testing.T) {
	threads := stubSource{payload: []byte(`{"threads":[]}`), status: collector.StatusOK}
	out := New(nil, threads).Enrich(context.Background(), []diagnose.Finding{contentionFinding})
	if len(out) != 1 {
		t.Errorf("no blocked threads must mean no evidence: %+v", out)
	}
}
