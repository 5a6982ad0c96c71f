package threaddump

import "testing"

const sampleDump = `{"threads":[
  {"threadName":"http-nio-8080-exec-1","threadId":42,"threadState":"BLOCKED","stackTrace":[
    {"className":"java.lang.Object","methodName":"wait","lineNumber":-2},
    {"className":"com.acme.billing.InvoiceService","methodName":"close","lineNumber":88},
    {"className":"org.springframework.aop.framework.ReflectiveMethodInvocation","methodName":"proceed","lineNumber":163},
    {"className":"com.acme.billing.InvoiceController","methodName":"create","lineNumber":31},
    {"className":"com.acme.billing.Extra","methodName":"x","lineNumber":1}
  ]},
  {"threadName":"worker-2","threadId":43,"threadState":"RUNNABLE","stackTrace":[]}
]}`

func TestNormalizeAndBlocked(t *testing.T) {
	entries := Normalize([]byte(sampleDump))
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	blocked := Blocked(entries)
	if len(blocked) != 1 || blocked[0].Name != "http-nio-8080-exec-1" {
		t.Fatalf("expected single blocked thread, got %+v", blocked)
	}
}

func TestNormalizeUnrecognizedShape(t *testing.T) {
	for _, raw := range []string{`not json`, `{"threads":"x"}`, `[]`} {
		if entries := Normalize([]byte(raw)); len(entries) != 0 {
			t.Errorf("Normalize(%s) fabricated entries: %+v", raw, entries)
		}
	}
}

func TestSignificantFramesSkipsPlatformAndCaps(t *testing.T) {
	entries := Blocked(Normalize([]byte(sampleDump)))
	frames := SignificantFrames(entries[0])
	if len(frames) != 2 {
		t.Fatalf("expected 2 application frames, got %d: %+v", len(frames), frames)
	}
	if frames[0].String() != "com.acme.billing.InvoiceService.close:88" {
		t.Errorf("first frame = %s", frames[0])
	}
	if frames[1].Class != "com.acme.billing.InvoiceController" {
		t.Errorf("second frame = %s", frames[1])
	}
}

func TestSignificantFramesScanLimit(t *testing.T) {
	e := Entry{State: "BLOCKED"}
	for i := 0; i < 6; i++ {
		e.Frames = append(e.Frames, Frame{Class: "java.util.concurrent.Locks", Method: "lock", Line: i})
	}
	e.Frames = append(e.Frames, Frame{Class: "com.acme.Late", Method: "run", Line: 7})
	if frames := SignificantFrames(e); len(frames) != 0 {
		t.Errorf("frames past the scan limit must not qualify: %+v", frames)
	}
}

func TestLabelFallsBackToID(t *testing.T) {
	if got := (Entry{ID: 9}).Label(); got != "thread-9" {
		t.Errorf("Label() = %q", got)
	}
}
