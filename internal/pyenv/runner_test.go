package pyenv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records subprocess invocations instead of executing them.
type fakeRunner struct {
	output    []byte
	outputErr error

	streamErr error
	onStream  func(StreamRequest) error

	outputCalls [][]string
	streamCalls []StreamRequest
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.outputCalls = append(f.outputCalls, append([]string{name}, args...))
	return f.output, f.outputErr
}

func (f *fakeRunner) Stream(_ context.Context, req StreamRequest) error {
	f.streamCalls = append(f.streamCalls, req)
	if f.onStream != nil {
		return f.onStream(req)
	}
	return f.streamErr
}

func TestExecRunnerOutput(t *testing.T) {
	// Use a binary that exists everywhere the tests run.
	out, err := ExecRunner{}.Output(context.Background(), "go", "version")
	require.NoError(t, err)
	assert.Contains(t, string(out), "go version")
}
