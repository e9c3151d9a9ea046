package logging

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapturingLoggerAccumulatesMessages(t *testing.T) {
	l := NewCapturingLogger()
	l.Printf("first %d", 1)
	l.Printf("second")

	out := l.Output()
	require.Len(t, out, 2)
	assert.Equal(t, "first 1", out[0].Message)
	assert.Equal(t, "second", out[1].Message)
	assert.Empty(t, out[0].Scope)
}

func TestScopedLoggersShareOneOutput(t *testing.T) {
	l := NewCapturingLogger()
	l.Printf("scenario start")
	l.ForScope("GET /products/1").Printf("sending request")
	l.ForScope("produce to orders").Printf("producing")

	out := l.Output()
	require.Len(t, out, 3)
	assert.Empty(t, out[0].Scope)
	assert.Equal(t, "GET /products/1", out[1].Scope)
	assert.Equal(t, "produce to orders", out[2].Scope)

	// The scoped logger also reads the shared output.
	assert.Len(t, l.ForScope("anything").Output(), 3)
}

func TestDumpLabelsScopedMessages(t *testing.T) {
	l := NewCapturingLogger()
	l.Printf("unscoped")
	l.ForScope("GET /one").Printf("sending")

	var buf bytes.Buffer
	l.Output().Dump(&buf, ">> ")
	out := buf.String()

	assert.Contains(t, out, ">> [")
	assert.Contains(t, out, "] unscoped\n")
	assert.Contains(t, out, "(GET /one) sending\n")
}

func TestCapturingLoggerIsConcurrencySafe(t *testing.T) {
	l := NewCapturingLogger()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.ForScope("worker").Printf("message")
		}()
	}
	wg.Wait()
	assert.Len(t, l.Output(), 10)
}

func TestNullLoggerDiscards(t *testing.T) {
	NullLogger().Printf("dropped %s", "silently")
}
