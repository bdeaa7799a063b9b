package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickLogsAfterInterval(t *testing.T) {
	logs := &bytes.Buffer{}
	p := NewProfiler(WithLogger(slog.New(slog.NewTextHandler(logs, nil))), WithInterval(time.Hour))

	_, logged := p.Tick()
	assert.False(t, logged)
	assert.Empty(t, logs.String())

	p.updateInterval = time.Millisecond
	p.Skip()
	p.Skip()
	time.Sleep(5 * time.Millisecond)

	st, logged := p.Tick()
	require.True(t, logged)
	assert.Equal(t, 2, st.Skipped)
	assert.Greater(t, st.FPS, 0.0)
	assert.Contains(t, logs.String(), "frame stats")
	assert.Contains(t, logs.String(), "skipped=2")

	// counters reset after a sample
	time.Sleep(5 * time.Millisecond)
	st, logged = p.Tick()
	require.True(t, logged)
	assert.Zero(t, st.Skipped)
}
