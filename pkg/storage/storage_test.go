package storage_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/accord/pkg/storage"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key  string
		want error
	}{
		{"documents/abc/contract.pdf", nil},
		{"documents/abc/v1..2.pdf", nil},
		{"", storage.ErrEmptyKey},
		{"documents/../secrets", storage.ErrInvalidKey},
		{"..", storage.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := storage.ValidateKey(tt.key)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, storage.MapHTTPStatus(storage.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, storage.MapHTTPStatus(storage.ErrInvalidKey))
	assert.Equal(t, http.StatusInternalServerError, storage.MapHTTPStatus(assert.AnError))
}

func TestConfig(t *testing.T) {
	t.Run("requires an account", func(t *testing.T) {
		var cfg storage.Config
		assert.Error(t, cfg.Finalize(nil))
	})

	t.Run("service url uses credential", func(t *testing.T) {
		cfg := storage.Config{ServiceURL: "https://acct.blob.core.windows.net/"}
		require.NoError(t, cfg.Finalize(nil))
		assert.True(t, cfg.UsesCredential())
		assert.Equal(t, "accord-documents", cfg.ContainerName)
	})

	t.Run("connection string wins", func(t *testing.T) {
		cfg := storage.Config{
			ConnectionString: "UseDevelopmentStorage=true",
			ServiceURL:       "https://acct.blob.core.windows.net/",
		}
		require.NoError(t, cfg.Finalize(nil))
		assert.False(t, cfg.UsesCredential())
	})

	t.Run("rejects malformed service url", func(t *testing.T) {
		cfg := storage.Config{ServiceURL: "acct.blob.core.windows.net"}
		assert.Error(t, cfg.Finalize(nil))
	})

	t.Run("env override", func(t *testing.T) {
		t.Setenv("T_STORAGE_CONTAINER", "override")
		cfg := storage.Config{ConnectionString: "UseDevelopmentStorage=true"}
		require.NoError(t, cfg.Finalize(&storage.Env{ContainerName: "T_STORAGE_CONTAINER"}))
		assert.Equal(t, "override", cfg.ContainerName)
	})
}
