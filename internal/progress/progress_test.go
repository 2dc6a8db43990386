package progress

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// captureStderr redirects os.Stderr for the duration of fn.
func captureStderr(fn func()) string {
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	fn()

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	r.Close()
	return buf.String()
}

func TestNewWithoutTerminalDisablesBar(t *testing.T) {
	output := captureStderr(func() {
		// A pipe is not a terminal, so the bar stays disabled.
		b := New(10, "building")
		assert.Nil(t, b.bar)
		b.Add(3)
		b.Finish()
	})
	assert.Empty(t, output)
}

func TestPrintlnWithDisabledBar(t *testing.T) {
	output := captureStderr(func() {
		b := &Bar{}
		b.Println("[WARN] undefined variable name=title")
	})
	assert.Equal(t, "[WARN] undefined variable name=title\n", output)
}

func TestDisabledBarMethodsAreSafe(t *testing.T) {
	b := &Bar{}
	b.Add(1)
	b.Add(0)
	b.Finish()
}
