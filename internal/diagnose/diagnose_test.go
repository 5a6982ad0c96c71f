package diagnose

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matera-dldn/qualisentinel/internal/exposition"
)

func TestEvaluateMemoryPressureOnly(t *testing.T) {
	snap := &exposition.Snapshot{GCPauseTotalSeconds: 1.5}
	findings := Evaluate(snap)
	if len(findings) != 1 {
		t.Fatalf("expected exactly one finding, got %d", len(findings))
	}
	if findings[0].Rule != RuleMemoryPressure {
		t.Errorf("rule = %s", findings[0].Rule)
	}
	if !strings.Contains(findings[0].Text, "Pressão de Memória") {
		t.Errorf("unexpected text: %s", findings[0].Text)
	}
}

func TestEvaluateGCPauseAtThresholdDoesNotFire(t *testing.T) {
	findings := Evaluate(&exposition.Snapshot{GCPauseTotalSeconds: 1.0})
	if findings[0].Rule != RuleNoFindings {
		t.Errorf("threshold is strict >, got rule %s", findings[0].Rule)
	}
}

func TestEvaluateNoFindingsFallbackVerbatim(t *testing.T) {
	findings := Evaluate(&exposition.Snapshot{})
	if len(findings) != 1 || findings[0].Rule != RuleNoFindings {
		t.Fatalf("expected single fallback finding, got %+v", findings)
	}
	want := "Nenhum padrão de problema crítico foi detectado pelas heurísticas automáticas. " +
		"O sistema parece operar dentro dos parâmetros normais."
	if findings[0].Text != want {
		t.Errorf("fallback text changed:\n%s", findings[0].Text)
	}
}

func TestEvaluateDataAccessUnionBehavior(t *testing.T) {
	// Fires on pending connections alone.
	byPending := Evaluate(&exposition.Snapshot{DBConnectionsPending: 1})
	if !HasRule(byPending, RuleDataAccess) {
		t.Error("pending connections alone must fire the data-access rule")
	}

	// Fires on repository timings alone.
	byTimings := Evaluate(&exposition.Snapshot{
		RepositoryTimings: []exposition.RepositoryTiming{
			{Repository: "UserRepository", Method: "findAll", TotalSeconds: 10, AvgSeconds: 0.2, MaxSeconds: 0.9, Calls: 50},
		},
	})
	if !HasRule(byTimings, RuleDataAccess) {
		t.Error("repository timings alone must fire the data-access rule")
	}
	if !strings.Contains(byTimings[0].Text, "UserRepository.findAll total=10.000s avg=0.200s max=0.900s calls=50") {
		t.Errorf("timing line missing or misformatted:\n%s", byTimings[0].Text)
	}
}

func TestEvaluateDataAccessTopFiveOnly(t *testing.T) {
	snap := &exposition.Snapshot{}
	for i := 0; i < 7; i++ {
		snap.RepositoryTimings = append(snap.RepositoryTimings, exposition.RepositoryTiming{
			Repository: "R", Method: string(rune('a' + i)), TotalSeconds: float64(100 - i),
		})
	}
	findings := Evaluate(snap)
	text := findings[0].Text
	if got := strings.Count(text, "\n- R."); got != 5 {
		t.Errorf("expected 5 timing lines, got %d:\n%s", got, text)
	}
}

func TestEvaluateAllRulesFireIndependently(t *testing.T) {
	snap := &exposition.Snapshot{
		GCPauseTotalSeconds:  2.0,
		DBConnectionsPending: 3,
		ThreadsBlocked:       8,
	}
	findings := Evaluate(snap)
	if len(findings) != 3 {
		t.Fatalf("expected 3 findings, got %d", len(findings))
	}
	wantOrder := []string{RuleMemoryPressure, RuleDataAccess, RuleThreadContention}
	for i, rule := range wantOrder {
		if findings[i].Rule != rule {
			t.Errorf("finding %d = %s, want %s", i, findings[i].Rule, rule)
		}
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	snap := &exposition.Snapshot{GCPauseTotalSeconds: 1.2, ThreadsBlocked: 9}
	a := Evaluate(snap)
	b := Evaluate(snap)
	if !reflect.DeepEqual(a, b) {
		t.Error("repeated evaluation of the same snapshot diverged")
	}
}
