package database_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/accord/pkg/database"
	"github.com/JaimeStill/accord/pkg/lifecycle"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	cfg := database.Config{Name: "accord", User: "accord", Password: "p@ss"}
	require.NoError(t, cfg.Finalize(nil))

	db, err := database.New(&cfg, discard())
	require.NoError(t, err)
	require.NotNil(t, db.Connection())
	assert.Equal(t, cfg.MaxOpenConns, db.Connection().Stats().MaxOpenConnections)
	db.Connection().Close()
}

func TestNewRejectsMalformedURL(t *testing.T) {
	cfg := database.Config{URL: "postgres://host:notaport/db"}

	_, err := database.New(&cfg, discard())
	assert.Error(t, err)
}

func TestStartRegistersProbe(t *testing.T) {
	cfg := database.Config{Host: "127.0.0.1", Port: 1, Name: "accord", User: "accord", ConnTimeout: "200ms"}
	require.NoError(t, cfg.Finalize(nil))

	db, err := database.New(&cfg, discard())
	require.NoError(t, err)

	lc := lifecycle.New()
	require.NoError(t, db.Start(lc))
	lc.WaitForStartup()
	assert.Equal(t, []string{"database"}, lc.Pending())
	assert.False(t, lc.Ready())
	require.NoError(t, lc.Shutdown(time.Second))
}
