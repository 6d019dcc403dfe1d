package session

import (
	"context"

	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/query"
)

// Backend executes descriptors and suggests completions.
// Implementations may be shared read-only by many controllers.
type Backend interface {
	Execute(ctx context.Context, d *query.Descriptor) (*models.RawResponse, error)
	Suggest(ctx context.Context, text string) (*models.SuggestResponse, error)
}
