package modelstore

import (
	"context"

	"github.com/rodneyosodo/mosaic/model"
)

// Store is the durable home of published global models. Versions are
// append-only: a version, once written, is never rewritten, and Latest
// never observes version N+1 before N is durable.
type Store interface {
	// Put persists a model under its version key. It fails with
	// ErrEntityExists if the version was already published.
	Put(ctx context.Context, m model.GlobalModel) error
	// Get returns the model published under the given version.
	Get(ctx context.Context, version uint64) (model.GlobalModel, error)
	// Latest returns the highest published version, or ErrNotFound when
	// no model has been published yet.
	Latest(ctx context.Context) (model.GlobalModel, error)
}
