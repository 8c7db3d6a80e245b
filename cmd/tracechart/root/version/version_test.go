package version_test

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traceviewer/tracechart/cmd/tracechart/root/version"
)

func TestCurrent_ReportsRuntime(t *testing.T) {
	info := version.Current()

	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.NotEmpty(t, info.Version)
}

func TestCurrent_PrefersStampedValues(t *testing.T) {
	saved := version.GitCommit
	version.GitCommit = "abc123"
	t.Cleanup(func() { version.GitCommit = saved })

	assert.Equal(t, "abc123", version.Current().GitCommit)
}

func TestNewVersionCmd_RejectsArgs(t *testing.T) {
	cmd := version.NewVersionCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})

	require.Error(t, cmd.Execute())
}
