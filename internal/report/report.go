// Package report composes the final diagnostic report from the metrics
// snapshot and findings, optionally refined by a text-generation provider.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/matera-dldn/qualisentinel/internal/diagnose"
	"github.com/matera-dldn/qualisentinel/internal/exposition"
	"github.com/matera-dldn/qualisentinel/internal/genai"
)

// Modes of the structured report.
const (
	ModeManual = "manual"
	ModeAI     = "ai"
)

// Report is the structured report variant.
type Report struct {
	Mode     string `json:"mode"`
	Provider string `json:"provider,omitempty"`
	Content  string `json:"content"`
	Err      string `json:"error,omitempty"`
}

const (
	header = "## Análise de Performance QualiSentinel\n\n"

	contextParagraph = "Você é um engenheiro de software sênior especialista em performance de aplicações Java/Spring. " +
		"Com base nas métricas de produção e nos diagnósticos automáticos a seguir, forneça uma análise técnica " +
		"detalhada da causa raiz dos problemas e sugira refatorações de código específicas que um desenvolvedor " +
		"deveria aplicar para resolver os gargalos.\n\n"

	unavailableMessage = "## Análise QualiSentinel\n\nNão foi possível gerar a análise pois não há métricas disponíveis."
)

// Compose renders the full report text deterministically: header, fixed
// context, metrics summary, then all findings in emission order separated
// by blank lines. A nil snapshot yields the short cannot-analyze message.
func Compose(snap *exposition.Snapshot, findings []diagnose.Finding) string {
	if snap == nil {
		return unavailableMessage
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString(contextParagraph)

	b.WriteString("**Métricas de Diagnóstico:**\n")
	fmt.Fprintf(&b, "- Uso de CPU do Sistema: **%.2f%%**\n", snap.CPUUsage*100)
	fmt.Fprintf(&b, "- Memória JVM Utilizada: **%.2f MB**\n", snap.MemoryUsedBytes/1024/1024)
	fmt.Fprintf(&b, "- Tempo Total em Pausas de GC: **%.4f segundos**\n", snap.GCPauseTotalSeconds)
	fmt.Fprintf(&b, "- Threads Aguardando Conexão com DB: **%d**\n", int(snap.DBConnectionsPending))
	fmt.Fprintf(&b, "- Threads Bloqueadas: **%d**\n\n", int(snap.ThreadsBlocked))

	b.WriteString("**Diagnósticos Automáticos (Heurísticas):**\n")
	texts := make([]string, len(findings))
	for i, f := range findings {
		texts[i] = f.Text
	}
	b.WriteString(strings.Join(texts, "\n\n"))

	return b.String()
}

// Build produces the structured report. When a generator is configured it
// is handed the composed prompt; on success the response is returned in
// "ai" mode prefixed with a provider tag. On any generator failure the
// locally rendered prompt is returned verbatim in "manual" mode with the
// failure reason retained only in Err. The fallback is unconditional and
// never raises.
func Build(ctx context.Context, snap *exposition.Snapshot, findings []diagnose.Finding, gen genai.Generator) Report {
	prompt := Compose(snap, findings)

	if gen == nil || snap == nil {
		return Report{Mode: ModeManual, Content: prompt}
	}

	text, err := gen.Generate(ctx, prompt)
	if err != nil {
		return Report{Mode: ModeManual, Content: prompt, Err: err.Error()}
	}
	return Report{
		Mode:     ModeAI,
		Provider: gen.Name(),
		Content:  fmt.Sprintf("[%s]\n\n%s", gen.Name(), text),
	}
}
