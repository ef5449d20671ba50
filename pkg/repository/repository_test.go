package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/accord/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

func TestMapError(t *testing.T) {
	unique := &pgconn.PgError{Code: repository.CodeUniqueViolation}
	fk := &pgconn.PgError{Code: repository.CodeForeignKeyViolation}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errNotFound},
		{"wrapped no rows", fmt.Errorf("find: %w", sql.ErrNoRows), errNotFound},
		{"unique violation", fmt.Errorf("insert: %w", unique), errDuplicate},
		{"other pg error", fk, fk},
		{"plain", assert.AnError, assert.AnError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errNotFound, errDuplicate)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", &pgconn.PgError{Code: repository.CodeForeignKeyViolation})
	assert.True(t, repository.IsCode(err, repository.CodeForeignKeyViolation))
	assert.False(t, repository.IsCode(err, repository.CodeUniqueViolation))
	assert.False(t, repository.IsCode(assert.AnError, repository.CodeUniqueViolation))
}
