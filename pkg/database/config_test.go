package database_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/accord/pkg/database"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := database.Config{Name: "accord", User: "accord"}
	require.NoError(t, cfg.Finalize(nil))

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, 15*time.Minute, cfg.ConnMaxLifetimeDuration())
	assert.Equal(t, 5*time.Second, cfg.ConnTimeoutDuration())
}

func TestFinalizeRequiresName(t *testing.T) {
	cfg := database.Config{User: "accord"}
	assert.ErrorIs(t, cfg.Finalize(nil), database.ErrNotConfigured)
}

func TestFinalizeEnv(t *testing.T) {
	t.Setenv("T_DB_HOST", "db.internal")
	t.Setenv("T_DB_PORT", "6543")
	t.Setenv("T_DB_PORT_BAD", "nope")

	cfg := database.Config{Name: "accord", User: "accord"}
	require.NoError(t, cfg.Finalize(&database.Env{Host: "T_DB_HOST", Port: "T_DB_PORT"}))
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)

	cfg = database.Config{Name: "accord", User: "accord"}
	require.NoError(t, cfg.Finalize(&database.Env{Port: "T_DB_PORT_BAD"}))
	assert.Equal(t, 5432, cfg.Port, "unparsable port keeps default")
}

func TestMerge(t *testing.T) {
	base := database.Config{Host: "a", Name: "base", Port: 5432}
	base.Merge(&database.Config{Host: "b"})

	assert.Equal(t, "b", base.Host)
	assert.Equal(t, "base", base.Name)
	assert.Equal(t, 5432, base.Port)
}

func TestDsnEscapesCredentials(t *testing.T) {
	cfg := database.Config{Name: "accord", User: "svc", Password: "p@ss/w:rd"}
	require.NoError(t, cfg.Finalize(nil))

	u, err := url.Parse(cfg.Dsn())
	require.NoError(t, err)

	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss/w:rd", pw)
	assert.Equal(t, "localhost:5432", u.Host)
	assert.Equal(t, "/accord", u.Path)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "accord", u.Query().Get("application_name"))
}

func TestURLOverridesFields(t *testing.T) {
	t.Setenv("T_DB_URL", "postgres://svc:pw@db.internal:6000/archive?sslmode=require")

	cfg := database.Config{}
	require.NoError(t, cfg.Finalize(&database.Env{URL: "T_DB_URL"}))

	assert.Equal(t, "postgres://svc:pw@db.internal:6000/archive?sslmode=require", cfg.Dsn())
}

func TestInvalidURL(t *testing.T) {
	cfg := database.Config{URL: "postgres://host:notaport/db"}
	assert.Error(t, cfg.Finalize(nil))
}

func TestIdleExceedsOpen(t *testing.T) {
	cfg := database.Config{Name: "accord", User: "accord", MaxOpenConns: 2, MaxIdleConns: 4}
	assert.Error(t, cfg.Finalize(nil))
}
