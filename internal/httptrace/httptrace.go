// Package httptrace normalizes Actuator HTTP-trace payloads into a uniform
// record sequence. Payload shape varies across Boot versions: a bare list,
// {"traces":[...]}, or a wrapped list under content/items/values.
package httptrace

import "encoding/json"

// Record is one normalized HTTP trace entry.
type Record struct {
	Method          string
	URI             string
	Status          int
	TimeTakenMillis int64
}

type rawTrace struct {
	Request struct {
		Method string `json:"method"`
		URI    string `json:"uri"`
	} `json:"request"`
	Response struct {
		Status int `json:"status"`
	} `json:"response"`
	TimeTaken int64 `json:"timeTaken"`
}

type wrappedTraces struct {
	Traces  []rawTrace `json:"traces"`
	Content []rawTrace `json:"content"`
	Items   []rawTrace `json:"items"`
	Values  []rawTrace `json:"values"`
}

// Normalize converts a raw trace payload into records. Unrecognized shapes
// yield an empty slice, never an error: the endpoint being exposed with a
// foreign format is not a collection failure, and records are never
// fabricated.
func Normalize(raw []byte) []Record {
	var list []rawTrace
	if err := json.Unmarshal(raw, &list); err != nil {
		var wrapped wrappedTraces
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil
		}
		switch {
		case wrapped.Traces != nil:
			list = wrapped.Traces
		case wrapped.Content != nil:
			list = wrapped.Content
		case wrapped.Items != nil:
			list = wrapped.Items
		case wrapped.Values != nil:
			list = wrapped.Values
		}
	}

	records := make([]Record, 0, len(list))
	for _, tr := range list {
		records = append(records, Record{
			Method:          tr.Request.Method,
			URI:             tr.Request.URI,
			Status:          tr.Response.Status,
			TimeTakenMillis: tr.TimeTaken,
		})
	}
	return records
}
