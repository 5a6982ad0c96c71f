// Package diagnose applies heuristic threshold rules over a metrics
// snapshot and emits ordered diagnostic findings.
package diagnose

import (
	"fmt"
	"strings"

	"github.com/matera-dldn/qualisentinel/internal/exposition"
)

// Rule identities are stable; downstream correlation keys on them.
const (
	RuleMemoryPressure   = "memory-pressure"
	RuleDataAccess       = "data-access-bottleneck"
	RuleThreadContention = "thread-contention"
	RuleNoFindings       = "no-findings"

	// Evidence findings appended by the enricher.
	RuleThreadDumpEvidence = "thread-dump-evidence"
	RuleSlowTraceEvidence  = "slow-trace-evidence"
)

// Thresholds for the heuristic rules.
const (
	gcPauseTotalThreshold  = 1.0
	blockedThreadThreshold = 5
	topTimings             = 5
)

// Finding is one emitted diagnostic: a stable rule identity and the
// rendered diagnosis plus recommended action. Findings are independent
// and ordered by rule evaluation order, not severity.
type Finding struct {
	Rule string `json:"rule"`
	Text string `json:"text"`
}

// Evaluate runs the rules in fixed order. All applicable rules fire; this
// is not a first-match switch. Pure function of the snapshot: identical
// snapshots produce identical findings in identical order.
func Evaluate(snap *exposition.Snapshot) []Finding {
	var findings []Finding

	if snap.GCPauseTotalSeconds > gcPauseTotalThreshold {
		findings = append(findings, Finding{
			Rule: RuleMemoryPressure,
			Text: "**Diagnóstico de Pressão de Memória:** A aplicação está gastando tempo excessivo em pausas de " +
				"Garbage Collection. Isso é um forte indicativo de consumo ineficiente de memória ou memory leak.\n" +
				"*Sugestão de Boas Práticas:* Investigue a criação de objetos pesados (como `new ModelMapper()`) " +
				"dentro de loops. Verifique se coleções estáticas (`static List/Map`) estão crescendo indefinidamente.",
		})
	}

	if snap.DBConnectionsPending > 0 || len(snap.RepositoryTimings) > 0 {
		findings = append(findings, Finding{
			Rule: RuleDataAccess,
			Text: dataAccessText(snap),
		})
	}

	if snap.ThreadsBlocked > blockedThreadThreshold {
		findings = append(findings, Finding{
			Rule: RuleThreadContention,
			Text: "**Diagnóstico de Contenção de Threads:** Um número significativo de threads está no estado 'blocked', " +
				"indicando que elas estão competindo por recursos compartilhados (locks).\n" +
				"*Sugestão de Boas Práticas:* Investigue seções do código que utilizam `synchronized` ou `ReentrantLock`. " +
				"Considere usar estruturas de dados do pacote `java.util.concurrent` (ex: `ConcurrentHashMap`) " +
				"para reduzir a contenção.",
		})
	}

	if len(findings) == 0 {
		findings = append(findings, Finding{
			Rule: RuleNoFindings,
			Text: "Nenhum padrão de problema crítico foi detectado pelas heurísticas automáticas. " +
				"O sistema parece operar dentro dos parâmetros normais.",
		})
	}

	return findings
}

// HasRule reports whether a finding with the given rule identity is present.
func HasRule(findings []Finding, rule string) bool {
	for _, f := range findings {
		if f.Rule == rule {
			return true
		}
	}
	return false
}

func dataAccessText(snap *exposition.Snapshot) string {
	var b strings.Builder
	b.WriteString("**Diagnóstico de Gargalo no Acesso ao Banco de Dados:** ")
	if snap.DBConnectionsPending > 0 {
		b.WriteString("O pool de conexões com o banco está esgotado! " +
			"Existem requisições ativas esperando para poderem executar queries.\n")
	} else {
		b.WriteString("Métodos de repositório estão concentrando o tempo de acesso a dados.\n")
	}
	b.WriteString("*Sugestão de Boas Práticas:* Audite métodos com a anotação `@Transactional` para garantir " +
		"que o escopo da transação seja o menor possível. Verifique índices das tabelas consultadas e procure " +
		"por consultas que possam estar causando problemas de `N+1`.")

	if len(snap.RepositoryTimings) > 0 {
		b.WriteString("\nMétodos de repositório mais custosos:")
		limit := len(snap.RepositoryTimings)
		if limit > topTimings {
			limit = topTimings
		}
		for _, rt := range snap.RepositoryTimings[:limit] {
			fmt.Fprintf(&b, "\n- %s.%s total=%.3fs avg=%.3fs max=%.3fs calls=%.0f",
				rt.Repository, rt.Method, rt.TotalSeconds, rt.AvgSeconds, rt.MaxSeconds, rt.Calls)
		}
	}
	return b.String()
}
