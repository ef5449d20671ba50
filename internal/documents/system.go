package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/accord/pkg/pagination"
	"github.com/JaimeStill/accord/pkg/storage"
)

// System defines the public contract for document operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Open returns the document and an open blob. The caller closes the body.
	Open(ctx context.Context, id uuid.UUID) (*Document, *storage.Blob, error)

	// Content reads a document's bytes by its string id.
	Content(ctx context.Context, id string) ([]byte, error)
}
