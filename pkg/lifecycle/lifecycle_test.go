package lifecycle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/accord/pkg/lifecycle"
)

func TestStartupHooks(t *testing.T) {
	lc := lifecycle.New()
	assert.False(t, lc.Ready(), "not ready before startup")

	var count atomic.Int32
	for range 3 {
		lc.OnStartup(func() { count.Add(1) })
	}

	lc.WaitForStartup()

	assert.Equal(t, int32(3), count.Load())
	assert.True(t, lc.Ready())
}

func TestProbes(t *testing.T) {
	lc := lifecycle.New()

	var dbUp atomic.Bool
	lc.Probe("database", dbUp.Load)
	lc.Probe("storage", func() bool { return true })
	lc.WaitForStartup()

	assert.False(t, lc.Ready())
	assert.Equal(t, []string{"database"}, lc.Pending())

	dbUp.Store(true)
	assert.True(t, lc.Ready())
	assert.Empty(t, lc.Pending())
}

func TestShutdown(t *testing.T) {
	lc := lifecycle.New()

	var cleaned atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		cleaned.Store(true)
	})

	require.NoError(t, lc.Shutdown(5*time.Second))
	assert.True(t, cleaned.Load())
	assert.Error(t, lc.Context().Err(), "context cancelled")
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		time.Sleep(500 * time.Millisecond)
	})

	assert.Error(t, lc.Shutdown(50*time.Millisecond))
}
