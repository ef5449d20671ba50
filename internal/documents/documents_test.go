package documents_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/accord/internal/documents"
	"github.com/JaimeStill/accord/pkg/query"
)

func TestFiltersFromQuery(t *testing.T) {
	f := documents.FiltersFromQuery(url.Values{
		"session_id":   {"session-1"},
		"filename":     {"msa"},
		"content_type": {"application/pdf"},
	})

	require.NotNil(t, f.SessionID)
	assert.Equal(t, "session-1", *f.SessionID)
	require.NotNil(t, f.Filename)
	assert.Equal(t, "msa", *f.Filename)
	require.NotNil(t, f.ContentType)
	assert.Equal(t, "application/pdf", *f.ContentType)
	assert.Nil(t, f.UserID)

	empty := documents.FiltersFromQuery(url.Values{})
	assert.Equal(t, documents.Filters{}, empty)
}

func TestFiltersApply(t *testing.T) {
	projection := query.NewProjectionMap("public", "documents", "d").
		Project("session_id", "SessionID").
		Project("user_id", "UserID").
		Project("filename", "Filename").
		Project("content_type", "ContentType")

	session, user, name := "session-1", "alice", "50%"
	f := documents.Filters{SessionID: &session, UserID: &user, Filename: &name}

	sql, args := f.Apply(query.NewBuilder(projection)).BuildCount()

	assert.Equal(t,
		`SELECT COUNT(*) FROM public.documents d WHERE d.session_id = $1 AND d.user_id = $2 AND d.filename ILIKE $3`,
		sql)
	assert.Equal(t, []any{"session-1", "alice", `%50\%%`}, args)
}
