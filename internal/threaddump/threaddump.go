// Package threaddump normalizes Actuator thread-dump payloads into
// blocked-thread stack summaries.
package threaddump

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Frame is one call-stack frame.
type Frame struct {
	Class  string `json:"className"`
	Method string `json:"methodName"`
	Line   int    `json:"lineNumber"`
}

// Entry is one thread's state and stack.
type Entry struct {
	Name   string  `json:"threadName"`
	ID     int64   `json:"threadId"`
	State  string  `json:"threadState"`
	Frames []Frame `json:"stackTrace"`
}

type dump struct {
	Threads []Entry `json:"threads"`
}

// Stack frames in these namespaces are runtime/framework plumbing, not
// application code, and are skipped when collecting evidence.
var platformPrefixes = []string{
	"java.",
	"javax.",
	"jdk.",
	"sun.",
	"com.sun.",
	"kotlin.",
	"org.springframework.",
}

const (
	maxSignificantFrames = 2
	frameScanLimit       = 6
)

// Normalize parses a thread-dump payload. An unrecognized shape yields an
// empty slice, not an error.
func Normalize(raw []byte) []Entry {
	var d dump
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil
	}
	return d.Threads
}

// Blocked filters entries to those in the BLOCKED state.
func Blocked(entries []Entry) []Entry {
	var blocked []Entry
	for _, e := range entries {
		if e.State == "BLOCKED" {
			blocked = append(blocked, e)
		}
	}
	return blocked
}

// SignificantFrames walks the stack top-down and returns up to 2
// application frames, giving up after the first 6 frames. Bounds the cost
// and keeps framework noise out of the report.
func SignificantFrames(e Entry) []Frame {
	var frames []Frame
	for i, f := range e.Frames {
		if i >= frameScanLimit || len(frames) >= maxSignificantFrames {
			break
		}
		if isPlatformFrame(f.Class) {
			continue
		}
		frames = append(frames, f)
	}
	return frames
}

// Label returns the thread's display name, falling back to its id.
func (e Entry) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return "thread-" + strconv.FormatInt(e.ID, 10)
}

// String renders a frame as Class.method:line.
func (f Frame) String() string {
	return fmt.Sprintf("%s.%s:%d", f.Class, f.Method, f.Line)
}

func isPlatformFrame(class string) bool {
	for _, prefix := range platformPrefixes {
		if strings.HasPrefix(class, prefix) {
			return true
		}
	}
	return false
}
