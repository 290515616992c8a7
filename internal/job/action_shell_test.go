package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellActionSuccess(t *testing.T) {
	a, err := NewShellAction("echo", []string{"hello"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "shell", a.Kind())

	out, err := a.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestShellActionFailure(t *testing.T) {
	a, err := NewShellAction("sh", []string{"-c", "echo oops >&2; exit 3"}, "", nil)
	require.NoError(t, err)

	out, err := a.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 3")
	assert.Contains(t, out, "oops")
}

func TestShellActionEnv(t *testing.T) {
	a, err := NewShellAction("sh", []string{"-c", "echo $TASKMILL_TEST_VAR"}, "", map[string]string{
		"TASKMILL_TEST_VAR": "wired",
	})
	require.NoError(t, err)

	out, err := a.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "wired", out)
}

func TestShellActionDir(t *testing.T) {
	dir := t.TempDir()
	a, err := NewShellAction("pwd", nil, dir, nil)
	require.NoError(t, err)

	out, err := a.Execute(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, dir)
}

func TestShellActionCancellation(t *testing.T) {
	a, err := NewShellAction("sleep", []string{"10"}, "", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = a.Execute(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestShellActionRequiresCommand(t *testing.T) {
	_, err := NewShellAction("", nil, "", nil)
	require.Error(t, err)
}
