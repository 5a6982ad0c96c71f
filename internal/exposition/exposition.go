// Package exposition parses Prometheus exposition-format text scraped from
// a Spring Boot Actuator endpoint into an aggregated diagnostic snapshot.
package exposition

import (
	"sort"
	"strconv"
	"strings"
)

// Snapshot holds the aggregated diagnostic state for one scrape cycle.
// Additive fields accumulate across all matching sample lines; last-wins
// fields hold the most recently parsed matching sample. The zero value is
// a valid snapshot (absence of a metric family is not an error).
type Snapshot struct {
	CPUUsage              float64 // system_cpu_usage fraction, last-wins
	MemoryUsedBytes       float64 // jvm_memory_used_bytes, summed over pools
	HTTPRequestCount      float64 // http_server_requests_seconds_count, summed
	HTTPMaxLatencySeconds float64 // http_server_requests_seconds_max, running max
	GCPauseCount          float64 // jvm_gc_pause_seconds_count, summed
	GCPauseTotalSeconds   float64 // jvm_gc_pause_seconds_sum, summed
	DBConnectionsActive   float64 // hikaricp_connections_active, last-wins
	DBConnectionsPending  float64 // hikaricp_connections_pending, last-wins
	DBConnectionTimeouts  float64 // hikaricp_connections_timeout_total, summed
	ThreadsBlocked        float64 // jvm_threads_states{state="blocked"}, last-wins
	ErrorLogEvents        float64 // logback_events_total{level="error"}, summed

	// RepositoryTimings is sorted descending by TotalSeconds; ties keep
	// first-seen order.
	RepositoryTimings []RepositoryTiming
}

// RepositoryTiming aggregates the sum/count/max sample kinds sharing one
// (repository, method) label pair.
type RepositoryTiming struct {
	Repository   string
	Method       string
	TotalSeconds float64
	Calls        float64
	AvgSeconds   float64
	MaxSeconds   float64
}

const repositoryFamily = "spring_data_repository_invocations_seconds_"

// accumulation mode for a metric family.
type mode int

const (
	modeAdd mode = iota
	modeLastWins
	modeMax
)

// family binds a name predicate to an accumulation rule and target field.
// Families are evaluated in order; the first match consumes the line.
type family struct {
	nameContains  string
	labelContains string // additional substring required in the name token
	mode          mode
	field         func(*Snapshot) *float64
}

var families = []family{
	{nameContains: "jvm_memory_used_bytes", mode: modeAdd, field: func(s *Snapshot) *float64 { return &s.MemoryUsedBytes }},
	{nameContains: "system_cpu_usage", mode: modeLastWins, field: func(s *Snapshot) *float64 { return &s.CPUUsage }},
	{nameContains: "http_server_requests_seconds_count", mode: modeAdd, field: func(s *Snapshot) *float64 { return &s.HTTPRequestCount }},
	{nameContains: "http_server_requests_seconds_max", mode: modeMax, field: func(s *Snapshot) *float64 { return &s.HTTPMaxLatencySeconds }},
	{nameContains: "jvm_gc_pause_seconds_count", mode: modeAdd, field: func(s *Snapshot) *float64 { return &s.GCPauseCount }},
	{nameContains: "jvm_gc_pause_seconds_sum", mode: modeAdd, field: func(s *Snapshot) *float64 { return &s.GCPauseTotalSeconds }},
	{nameContains: "hikaricp_connections_active", mode: modeLastWins, field: func(s *Snapshot) *float64 { return &s.DBConnectionsActive }},
	{nameContains: "hikaricp_connections_pending", mode: modeLastWins, field: func(s *Snapshot) *float64 { return &s.DBConnectionsPending }},
	{nameContains: "hikaricp_connections_timeout_total", mode: modeAdd, field: func(s *Snapshot) *float64 { return &s.DBConnectionTimeouts }},
	{nameContains: "jvm_threads_states", labelContains: `state="blocked"`, mode: modeLastWins, field: func(s *Snapshot) *float64 { return &s.ThreadsBlocked }},
	{nameContains: "logback_events_total", labelContains: `level="error"`, mode: modeAdd, field: func(s *Snapshot) *float64 { return &s.ErrorLogEvents }},
}

// Parse aggregates raw exposition text into a Snapshot. It never fails:
// lines that cannot be tokenized into (name, value), or whose value does
// not parse as a float, are skipped and parsing continues.
func Parse(raw string) *Snapshot {
	snap := &Snapshot{}

	type timingKey struct{ repository, method string }
	timings := make(map[timingKey]*RepositoryTiming)
	var order []timingKey

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		name := parts[0]
		// The sample value is always the last token; timestamps and
		// label values containing spaces sit in between.
		value, err := strconv.ParseFloat(parts[len(parts)-1], 64)
		if err != nil {
			continue
		}

		if kind, labels, ok := repositorySample(name); ok {
			key := timingKey{
				repository: labelOr(labels, "repository", "unknown"),
				method:     labelOr(labels, "method", "unknown"),
			}
			rt, seen := timings[key]
			if !seen {
				rt = &RepositoryTiming{Repository: key.repository, Method: key.method}
				timings[key] = rt
				order = append(order, key)
			}
			switch kind {
			case "sum":
				rt.TotalSeconds += value
			case "count":
				rt.Calls += value
			case "max":
				if value > rt.MaxSeconds {
					rt.MaxSeconds = value
				}
			}
			continue
		}

		for _, f := range families {
			if !strings.Contains(name, f.nameContains) {
				continue
			}
			if f.labelContains != "" && !strings.Contains(name, f.labelContains) {
				continue
			}
			target := f.field(snap)
			switch f.mode {
			case modeAdd:
				*target += value
			case modeLastWins:
				*target = value
			case modeMax:
				if value > *target {
					*target = value
				}
			}
			break
		}
	}

	snap.RepositoryTimings = make([]RepositoryTiming, 0, len(order))
	for _, key := range order {
		rt := timings[key]
		if rt.Calls > 0 {
			rt.AvgSeconds = rt.TotalSeconds / rt.Calls
		}
		snap.RepositoryTimings = append(snap.RepositoryTimings, *rt)
	}
	sort.SliceStable(snap.RepositoryTimings, func(i, j int) bool {
		return snap.RepositoryTimings[i].TotalSeconds > snap.RepositoryTimings[j].TotalSeconds
	})

	return snap
}

// repositorySample recognizes the repository-timing family. The name token
// carries embedded labels: spring_data_repository_invocations_seconds_<kind>{...}.
func repositorySample(name string) (kind string, labels map[string]string, ok bool) {
	if !strings.HasPrefix(name, repositoryFamily) {
		return "", nil, false
	}
	rest := name[len(repositoryFamily):]
	brace := strings.IndexByte(rest, '{')
	if brace < 0 || !strings.HasSuffix(rest, "}") {
		return "", nil, false
	}
	kind = rest[:brace]
	if kind != "sum" && kind != "count" && kind != "max" {
		return "", nil, false
	}
	return kind, parseLabels(rest[brace+1 : len(rest)-1]), true
}

// parseLabels splits a label block into key/value pairs. Values are trimmed
// and unquoted; pairs without '=' are skipped.
func parseLabels(block string) map[string]string {
	labels := make(map[string]string)
	for _, pair := range strings.Split(block, ",") {
		eq := strings.IndexByte(pair, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(pair[:eq])
		value := strings.Trim(strings.TrimSpace(pair[eq+1:]), `"`)
		if key != "" {
			labels[key] = value
		}
	}
	return labels
}

func labelOr(labels map[string]string, key, fallback string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return fallback
}
