package httptrace

import "testing"

func TestNormalizeWrappedTraces(t *testing.T) {
	raw := []byte(`{"traces":[{"request":{"method":"GET","uri":"/x"},"response":{"status":200},"timeTaken":600}]}`)
	records := Normalize(raw)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Method != "GET" || r.URI != "/x" || r.Status != 200 || r.TimeTakenMillis != 600 {
		t.Errorf("unexpected record %+v", r)
	}
}

func TestNormalizeBareList(t *testing.T) {
	raw := []byte(`[{"request":{"method":"POST","uri":"/orders"},"response":{"status":201},"timeTaken":120}]`)
	records := Normalize(raw)
	if len(records) != 1 || records[0].Method != "POST" {
		t.Fatalf("bare list not accepted: %+v", records)
	}
}

func TestNormalizeAlternateWrapperKeys(t *testing.T) {
	for _, key := range []string{"content", "items", "values"} {
		raw := []byte(`{"` + key + `":[{"request":{"method":"GET","uri":"/a"},"response":{"status":200},"timeTaken":10}]}`)
		if records := Normalize(raw); len(records) != 1 {
			t.Errorf("wrapper key %q not accepted: %+v", key, records)
		}
	}
}

func TestNormalizeUnrecognizedShape(t *testing.T) {
	for _, raw := range []string{`{"foo":"bar"}`, `"a string"`, `not json`, `{"traces":"nope"}`} {
		if records := Normalize([]byte(raw)); len(records) != 0 {
			t.Errorf("Normalize(%s) fabricated records: %+v", raw, records)
		}
	}
}
