package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matera-dldn/qualisentinel/internal/diagnose"
	"github.com/matera-dldn/qualisentinel/internal/exposition"
)

type stubGenerator struct {
	text string
	err  error
}

func (s stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.text, s.err
}

func (s stubGenerator) Name() string { return "openai" }

func TestComposeNilSnapshot(t *testing.T) {
	got := Compose(nil, nil)
	if got != unavailableMessage {
		t.Errorf("Compose(nil) = %q", got)
	}
}

func TestComposeMetricsPrecision(t *testing.T) {
	snap := &exposition.Snapshot{
		CPUUsage:             0.4567,
		MemoryUsedBytes:      256 * 1024 * 1024,
		GCPauseTotalSeconds:  1.5,
		DBConnectionsPending: 2,
		ThreadsBlocked:       7,
	}
	findings := diagnose.Evaluate(snap)
	text := Compose(snap, findings)

	for _, want := range []string{
		"- Uso de CPU do Sistema: **45.67%**",
		"- Memória JVM Utilizada: **256.00 MB**",
		"- Tempo Total em Pausas de GC: **1.5000 segundos**",
		"- Threads Aguardando Conexão com DB: **2**",
		"- Threads Bloqueadas: **7**",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in report:\n%s", want, text)
		}
	}
}

func TestComposeFindingsJoinedInOrder(t *testing.T) {
	snap := &exposition.Snapshot{}
	findings := []diagnose.Finding{
		{Rule: "a", Text: "primeiro"},
		{Rule: "b", Text: "segundo"},
	}
	text := Compose(snap, findings)
	if !strings.Contains(text, "primeiro\n\nsegundo") {
		t.Errorf("findings not joined by blank line in emission order:\n%s", text)
	}
	first := strings.Index(text, "primeiro")
	second := strings.Index(text, "segundo")
	if first < 0 || second < first {
		t.Error("finding order not preserved")
	}
}

func TestBuildManualWithoutGenerator(t *testing.T) {
	snap := &exposition.Snapshot{GCPauseTotalSeconds: 1.5}
	r := Build(context.Background(), snap, diagnose.Evaluate(snap), nil)
	if r.Mode != ModeManual || r.Provider != "" || r.Err != "" {
		t.Errorf("unexpected report %+v", r)
	}
	if !strings.Contains(r.Content, "1.5000 segundos") {
		t.Errorf("prompt content missing metrics:\n%s", r.Content)
	}
}

func TestBuildAIModeWithProviderTag(t *testing.T) {
	snap := &exposition.Snapshot{}
	r := Build(context.Background(), snap, diagnose.Evaluate(snap), stubGenerator{text: "refine isso"})
	if r.Mode != ModeAI || r.Provider != "openai" {
		t.Errorf("unexpected report %+v", r)
	}
	if !strings.HasPrefix(r.Content, "[openai]\n\n") {
		t.Errorf("provider tag missing: %q", r.Content)
	}
}

func TestBuildFallsBackOnGeneratorFailure(t *testing.T) {
	snap := &exposition.Snapshot{}
	findings := diagnose.Evaluate(snap)
	prompt := Compose(snap, findings)

	r := Build(context.Background(), snap, findings, stubGenerator{err: errors.New("credencial inválida")})
	if r.Mode != ModeManual {
		t.Errorf("mode = %s", r.Mode)
	}
	if r.Content != prompt {
		t.Error("fallback content must be the prompt verbatim")
	}
	if r.Err != "credencial inválida" {
		t.Errorf("Err = %q", r.Err)
	}
}
