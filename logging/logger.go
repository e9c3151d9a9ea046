package logging

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is the minimal logging interface used throughout the DSL. The
// scenario engine gives each scenario its own CapturingLogger; transports
// receive whatever Logger the caller configured.
type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

// NullLogger returns a Logger that discards all output.
func NullLogger() Logger { return nullLogger{} }

// CapturedMessage is one debug line. Scope names the step that produced
// it, when known.
type CapturedMessage struct {
	Time    time.Time
	Scope   string
	Message string
}

type CapturedOutput []CapturedMessage

// CapturingLogger accumulates a scenario's debug output in memory so it
// can be dumped after the fact, for instance only when a step failed.
// ForScope derives step-labeled loggers that feed the same output, so one
// dump shows the whole scenario in execution order. Safe for concurrent
// use, including across a scenario and its forks.
type CapturingLogger struct {
	sink  *captureSink
	scope string
}

type captureSink struct {
	lock   sync.Mutex
	output []CapturedMessage
}

func NewCapturingLogger() *CapturingLogger {
	return &CapturingLogger{sink: &captureSink{}}
}

// ForScope returns a logger whose messages carry the given label,
// typically a step description, writing into the same captured output.
func (l *CapturingLogger) ForScope(scope string) *CapturingLogger {
	return &CapturingLogger{sink: l.sink, scope: scope}
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	m := CapturedMessage{Time: time.Now(), Scope: l.scope, Message: fmt.Sprintf(message, args...)}
	l.sink.lock.Lock()
	l.sink.output = append(l.sink.output, m)
	l.sink.lock.Unlock()
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.sink.lock.Lock()
	ret := append(CapturedOutput(nil), l.sink.output...)
	l.sink.lock.Unlock()
	return ret
}

func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		if m.Scope != "" {
			fmt.Fprintf(dest, "%s[%s] (%s) %s\n",
				prefix,
				m.Time.Format(timestampFormat),
				m.Scope,
				m.Message,
			)
			continue
		}
		fmt.Fprintf(dest, "%s[%s] %s\n",
			prefix,
			m.Time.Format(timestampFormat),
			m.Message,
		)
	}
}
