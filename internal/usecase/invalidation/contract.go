package invalidation

import "context"

// TagInvalidator deletes cache entries by tag.
type TagInvalidator interface {
	Invalidate(ctx context.Context, tag string) (int, error)
}
